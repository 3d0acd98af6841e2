package fallback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minecanton209/patchy/internal/archive"
	"github.com/minecanton209/patchy/internal/hashutil"
	"github.com/minecanton209/patchy/internal/manifest"
)

func buildFullPackage(t *testing.T, files map[string]string) []byte {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	gen := archive.NewTarGen(root)
	require.NoError(t, gen.AddTree())

	var buf []byte
	w := &sliceWriter{&buf}
	require.NoError(t, gen.Generate(w))
	return buf
}

type sliceWriter struct{ buf *[]byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s.buf = append(*s.buf, p...)
	return len(p), nil
}

func TestRecoverExtractsOnConfirmation(t *testing.T) {
	pkg := buildFullPackage(t, map[string]string{"app.exe": "full install contents"})

	m := manifest.New(3, 1, "3.0.0")
	m.FullPackageFile = "full.tar.gz"
	m.FullPackageHash = hashutil.Bytes(pkg)

	target := t.TempDir()
	err := Recover(m, pkg, target, func() (bool, error) { return true, nil })
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(target, "app.exe"))
	require.NoError(t, err)
	require.Equal(t, "full install contents", string(got))
}

func TestRecoverRejectsHashMismatch(t *testing.T) {
	pkg := buildFullPackage(t, map[string]string{"app.exe": "full install contents"})

	m := manifest.New(3, 1, "3.0.0")
	m.FullPackageFile = "full.tar.gz"
	m.FullPackageHash = hashutil.Bytes([]byte("not the package"))

	target := t.TempDir()
	err := Recover(m, pkg, target, func() (bool, error) { return true, nil })
	require.Error(t, err)
}

func TestRecoverHonoursDeclinedConfirmation(t *testing.T) {
	pkg := buildFullPackage(t, map[string]string{"app.exe": "full install contents"})

	m := manifest.New(3, 1, "3.0.0")
	m.FullPackageFile = "full.tar.gz"
	m.FullPackageHash = hashutil.Bytes(pkg)

	target := t.TempDir()
	err := Recover(m, pkg, target, func() (bool, error) { return false, nil })
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(target, "app.exe"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRecoverRejectsMissingFullPackageFields(t *testing.T) {
	m := manifest.New(3, 1, "3.0.0")
	target := t.TempDir()
	err := Recover(m, []byte("data"), target, func() (bool, error) { return true, nil })
	require.Error(t, err)
}
