package hashutil

import (
	"path/filepath"
	"testing"

	"os"

	"github.com/stretchr/testify/require"
)

func TestBytesKnownVector(t *testing.T) {
	// sha256("abc")
	require.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Bytes([]byte("abc")),
	)
}

func TestBytesAndFileAgree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	fromBytes := Bytes([]byte("hello"))
	fromFile, err := File(path)
	require.NoError(t, err)
	require.Equal(t, fromBytes, fromFile)
}

func TestEqualIgnoresCase(t *testing.T) {
	require.True(t, Equal("AbCd", "abcd"))
	require.False(t, Equal("abcd", "abce"))
}

func TestValid(t *testing.T) {
	require.True(t, Valid(Bytes([]byte("x"))))
	require.False(t, Valid("not-hex"))
	require.False(t, Valid("abcd"))
}
