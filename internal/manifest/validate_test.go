package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validManifest() *Manifest {
	m := New(2, 1, "2.0.0")
	m.Files = []FileAction{
		{
			Action:          Modified,
			Path:            "bin/app.exe",
			PatchFile:       "bin_app.exe.bsdiff",
			SourceHash:      "a00000000000000000000000000000000000000000000000000000000000000a",
			TargetHash:      "b00000000000000000000000000000000000000000000000000000000000000b",
			PackageFileHash: "c00000000000000000000000000000000000000000000000000000000000000c",
		},
		{
			Action:          Added,
			Path:            "plugins/new.dll",
			AddFile:         "plugins_new.dll",
			TargetHash:      "d00000000000000000000000000000000000000000000000000000000000000d",
			PackageFileHash: "e00000000000000000000000000000000000000000000000000000000000000e",
		},
		{
			Action: Removed,
			Path:   "plugins/old.dll",
		},
	}
	return m
}

func TestValidateAcceptsWellFormedManifest(t *testing.T) {
	require.NoError(t, Validate(validManifest()))
}

func TestValidateRejectsBadVersionOrdering(t *testing.T) {
	m := validManifest()
	m.VersionId, m.FromVersionId = 1, 1
	require.Error(t, Validate(m))
}

func TestValidateRejectsDuplicatePath(t *testing.T) {
	m := validManifest()
	m.Files = append(m.Files, m.Files[0])
	require.Error(t, Validate(m))
}

func TestValidateRejectsPathEscape(t *testing.T) {
	m := validManifest()
	m.Files[0].Path = "../../etc/passwd"
	require.Error(t, Validate(m))
}

func TestValidateRejectsAbsolutePath(t *testing.T) {
	m := validManifest()
	m.Files[0].Path = "/etc/passwd"
	require.Error(t, Validate(m))
}

func TestValidateRejectsDriveLetterPath(t *testing.T) {
	m := validManifest()
	m.Files[0].Path = "C:/Windows/system.dll"
	require.Error(t, Validate(m))
}

func TestValidateRejectsAddedWithoutRequiredFields(t *testing.T) {
	m := validManifest()
	m.Files[1].TargetHash = ""
	require.Error(t, Validate(m))
}

func TestValidateRejectsModifiedCarryingAddFile(t *testing.T) {
	m := validManifest()
	m.Files[0].AddFile = "should-not-be-here"
	require.Error(t, Validate(m))
}

func TestValidateRejectsRemovedCarryingHash(t *testing.T) {
	m := validManifest()
	m.Files[2].TargetHash = "d00000000000000000000000000000000000000000000000000000000000000d"
	require.Error(t, Validate(m))
}

func TestValidateRejectsMalformedHash(t *testing.T) {
	m := validManifest()
	m.Files[0].SourceHash = "not-hex"
	require.Error(t, Validate(m))
}

func TestValidateRejectsFullPackageFileWithoutHash(t *testing.T) {
	m := validManifest()
	m.FullPackageFile = "full.zip"
	require.Error(t, Validate(m))
}

func TestMangleNameReplacesSeparators(t *testing.T) {
	require.Equal(t, "bin_app.exe", MangleName("bin/app.exe"))
}
