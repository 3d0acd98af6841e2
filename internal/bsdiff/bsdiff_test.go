package bsdiff

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateApplyRoundTripIdenticalFiles(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated for length. " +
		"the quick brown fox jumps over the lazy dog, repeated for length.")

	patch, err := Create(data, data)
	require.NoError(t, err)

	got, err := Apply(data, patch)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got))
}

func TestCreateApplyRoundTripSmallEdit(t *testing.T) {
	old := []byte("version 1.0.0 of the application binary padded out to make matches findable")
	next := []byte("version 1.2.0 of the application binary padded out to make matches findable")

	patch, err := Create(old, next)
	require.NoError(t, err)

	got, err := Apply(old, patch)
	require.NoError(t, err)
	require.True(t, bytes.Equal(next, got))
}

func TestCreateApplyRoundTripInsertAndDelete(t *testing.T) {
	old := []byte("AAAAAAAAAABBBBBBBBBBCCCCCCCCCCDDDDDDDDDD")
	next := []byte("AAAAAAAAAABBBBZZZZZZBBBBBCCCCCCCCCCDDDDD")

	patch, err := Create(old, next)
	require.NoError(t, err)

	got, err := Apply(old, patch)
	require.NoError(t, err)
	require.True(t, bytes.Equal(next, got))
}

func TestCreateApplyRoundTripEmptyOld(t *testing.T) {
	old := []byte{}
	next := []byte("brand new content with no predecessor to diff against")

	patch, err := Create(old, next)
	require.NoError(t, err)

	got, err := Apply(old, patch)
	require.NoError(t, err)
	require.True(t, bytes.Equal(next, got))
}

func TestCreateApplyRoundTripEmptyNew(t *testing.T) {
	old := []byte("content that is entirely removed by this update")
	next := []byte{}

	patch, err := Create(old, next)
	require.NoError(t, err)

	got, err := Apply(old, patch)
	require.NoError(t, err)
	require.Len(t, got, 0)
}

func TestCreateApplyRoundTripRandomBinary(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	old := make([]byte, 4096)
	r.Read(old)

	next := make([]byte, len(old))
	copy(next, old)
	// Flip a scattering of bytes and splice in a run of new bytes to
	// exercise both the diff and extra streams.
	for i := 0; i < 50; i++ {
		next[r.Intn(len(next))] = byte(r.Intn(256))
	}
	insert := make([]byte, 200)
	r.Read(insert)
	spliced := make([]byte, 0, len(next)+len(insert))
	spliced = append(spliced, next[:2000]...)
	spliced = append(spliced, insert...)
	spliced = append(spliced, next[2000:]...)
	next = spliced

	patch, err := Create(old, next)
	require.NoError(t, err)

	got, err := Apply(old, patch)
	require.NoError(t, err)
	require.True(t, bytes.Equal(next, got))
}

func TestApplyRejectsBadMagic(t *testing.T) {
	patch := make([]byte, headerLen)
	copy(patch, "NOTBSDIF")
	_, err := Apply([]byte("old"), patch)
	require.Error(t, err)
}

func TestApplyRejectsTruncatedHeader(t *testing.T) {
	_, err := Apply([]byte("old"), []byte("short"))
	require.Error(t, err)
}

func TestVerifyTargetRejectsWrongHash(t *testing.T) {
	old := []byte("old content")
	next := []byte("new content")

	patch, err := Create(old, next)
	require.NoError(t, err)

	_, err = VerifyTarget(old, patch, "0000000000000000000000000000000000000000000000000000000000000000")
	require.Error(t, err)
}

func TestApplyRejectsSeekOutsideOldFile(t *testing.T) {
	old := []byte("short old file")

	ctrl := make([]byte, 24)
	putSignedInt64(ctrl[0:8], 0)                  // add
	putSignedInt64(ctrl[8:16], 0)                  // extra
	putSignedInt64(ctrl[16:24], int64(len(old)+1)) // seek past end of old

	ctrlZ, err := bzip2Compress(ctrl)
	require.NoError(t, err)
	diffZ, err := bzip2Compress(nil)
	require.NoError(t, err)
	extraZ, err := bzip2Compress(nil)
	require.NoError(t, err)

	h := header{ctrlLen: int64(len(ctrlZ)), diffLen: int64(len(diffZ)), newSize: 0}
	patch := append(encodeHeader(h), ctrlZ...)
	patch = append(patch, diffZ...)
	patch = append(patch, extraZ...)

	_, err = Apply(old, patch)
	require.Error(t, err)
}

func TestApplyRejectsAddSpanOverrunningOldFile(t *testing.T) {
	old := []byte("short")

	ctrl := make([]byte, 24)
	putSignedInt64(ctrl[0:8], int64(len(old)+10)) // add more than old has
	putSignedInt64(ctrl[8:16], 0)
	putSignedInt64(ctrl[16:24], 0)

	ctrlZ, err := bzip2Compress(ctrl)
	require.NoError(t, err)
	diffZ, err := bzip2Compress(make([]byte, len(old)+10))
	require.NoError(t, err)
	extraZ, err := bzip2Compress(nil)
	require.NoError(t, err)

	h := header{ctrlLen: int64(len(ctrlZ)), diffLen: int64(len(diffZ)), newSize: int64(len(old) + 10)}
	patch := append(encodeHeader(h), ctrlZ...)
	patch = append(patch, diffZ...)
	patch = append(patch, extraZ...)

	_, err = Apply(old, patch)
	require.Error(t, err)
}

func TestSignedInt64RoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 255, -255, 1 << 40, -(1 << 40)}
	for _, v := range cases {
		buf := make([]byte, 8)
		putSignedInt64(buf, v)
		require.Equal(t, v, getSignedInt64(buf))
	}
}
