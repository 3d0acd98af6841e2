package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minecanton209/patchy/internal/archive"
	"github.com/minecanton209/patchy/internal/config"
	"github.com/minecanton209/patchy/internal/hashutil"
	"github.com/minecanton209/patchy/internal/keys"
	"github.com/minecanton209/patchy/internal/manifest"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestBuildClassifiesAddedModifiedRemovedUnchanged(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()

	writeFiles(t, oldDir, map[string]string{
		"bin/app.exe":     "version one of the application",
		"plugins/old.dll": "a plugin that will be removed",
		"config/app.json": `{"unchanged":true}`,
	})
	writeFiles(t, newDir, map[string]string{
		"bin/app.exe":     "version two of the application, slightly different",
		"plugins/new.dll": "a brand new plugin",
		"config/app.json": `{"unchanged":true}`,
	})

	priv, err := keys.Generate()
	require.NoError(t, err)

	result, err := Build(oldDir, newDir, 2, 1, "2.0.0", priv, nil)
	require.NoError(t, err)
	require.NoError(t, manifest.Validate(result.Manifest))

	byPath := make(map[string]manifest.FileAction)
	for _, fa := range result.Manifest.Files {
		byPath[fa.Path] = fa
	}

	require.Equal(t, manifest.Modified, byPath["bin/app.exe"].Action)
	require.Equal(t, manifest.Added, byPath["plugins/new.dll"].Action)
	require.Equal(t, manifest.Removed, byPath["plugins/old.dll"].Action)
	_, unchangedPresent := byPath["config/app.json"]
	require.False(t, unchangedPresent)
}

func TestBuildProducesVerifiableSignature(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFiles(t, oldDir, map[string]string{"a.txt": "hello"})
	writeFiles(t, newDir, map[string]string{"a.txt": "hello world"})

	priv, err := keys.Generate()
	require.NoError(t, err)

	result, err := Build(oldDir, newDir, 2, 1, "2.0.0", priv, nil)
	require.NoError(t, err)

	canon, err := manifest.Canonical(result.Manifest)
	require.NoError(t, err)
	require.True(t, keys.Verify(&priv.PublicKey, canon, result.Manifest.Signature))
}

func TestBuildEmbedsFullPackageAndFallbackInstaller(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFiles(t, oldDir, map[string]string{"a.txt": "hello"})
	writeFiles(t, newDir, map[string]string{"a.txt": "hello world"})

	installerDir := t.TempDir()
	installerPath := filepath.Join(installerDir, "setup.exe")
	require.NoError(t, os.WriteFile(installerPath, []byte("fake installer bytes"), 0o644))

	priv, err := keys.Generate()
	require.NoError(t, err)

	release := &config.Release{
		ReleaseName:                "2.0.0 release",
		RestartRequired:            true,
		FullPackage:                true,
		FallbackInstallerFile:      installerPath,
		FallbackInstallerArguments: "/quiet",
	}

	result, err := Build(oldDir, newDir, 2, 1, "2.0.0", priv, release)
	require.NoError(t, err)

	require.Equal(t, archive.FullPackageEntry, result.Manifest.FullPackageFile)
	require.Equal(t, archive.FallbackInstallerEntry, result.Manifest.FallbackInstallerFile)
	require.Equal(t, "/quiet", result.Manifest.FallbackInstallerArguments)

	pr, err := archive.OpenPackageReader(result.Package)
	require.NoError(t, err)

	installerBytes, err := pr.Read(archive.FallbackInstallerEntry)
	require.NoError(t, err)
	require.True(t, hashutil.Equal(hashutil.Bytes(installerBytes), result.Manifest.FallbackInstallerHash))

	fullPkgBytes, err := pr.Read(archive.FullPackageEntry)
	require.NoError(t, err)
	require.True(t, hashutil.Equal(hashutil.Bytes(fullPkgBytes), result.Manifest.FullPackageHash))
}
