package manifest

import (
	"strings"

	"github.com/minecanton209/patchy/internal/hashutil"
	"github.com/minecanton209/patchy/internal/updateerr"
)

// ValidatePath enforces §3's path-safety invariant: forward-slash relative,
// no ".." segment, no leading "/", no drive letter.
func ValidatePath(p string) error {
	if p == "" {
		return updateerr.New(updateerr.MalformedManifest, "path is empty")
	}
	if strings.Contains(p, "\\") {
		return updateerr.Newf(updateerr.MalformedManifest, "path %q contains a backslash", p)
	}
	if strings.HasPrefix(p, "/") {
		return updateerr.Newf(updateerr.MalformedManifest, "path %q is absolute", p)
	}
	if len(p) >= 2 && p[1] == ':' {
		return updateerr.Newf(updateerr.MalformedManifest, "path %q has a drive letter", p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return updateerr.Newf(updateerr.MalformedManifest, "path %q contains a %q segment", p, "..")
		}
	}
	return nil
}

func validHashOrEmpty(field, digest string) error {
	if digest == "" {
		return nil
	}
	if !hashutil.Valid(digest) {
		return updateerr.Newf(updateerr.MalformedManifest, "%s is not 64 lowercase hex characters", field)
	}
	return nil
}

// Validate enforces every invariant in §3: the version ordering, path
// safety, uniqueness of Files[i].Path, the presence of companion hashes, and
// that each FileAction carries exactly the fields its Action requires.
func Validate(m *Manifest) error {
	if m.VersionId <= m.FromVersionId {
		return updateerr.Newf(updateerr.MalformedManifest,
			"versionId %d must be greater than fromVersionId %d", m.VersionId, m.FromVersionId)
	}

	if err := validHashOrEmpty("fullPackageHash", m.FullPackageHash); err != nil {
		return err
	}
	if err := validHashOrEmpty("fallbackInstallerHash", m.FallbackInstallerHash); err != nil {
		return err
	}
	if m.FullPackageFile != "" && m.FullPackageHash == "" {
		return updateerr.New(updateerr.MalformedManifest, "fullPackageFile is set without fullPackageHash")
	}
	if m.FallbackInstallerFile != "" && m.FallbackInstallerHash == "" {
		return updateerr.New(updateerr.MalformedManifest, "fallbackInstallerFile is set without fallbackInstallerHash")
	}

	seen := make(map[string]bool, len(m.Files))
	for i := range m.Files {
		fa := &m.Files[i]

		if err := ValidatePath(fa.Path); err != nil {
			return err
		}
		if seen[fa.Path] {
			return updateerr.Newf(updateerr.MalformedManifest, "duplicate path %q in files", fa.Path)
		}
		seen[fa.Path] = true

		if err := validateAction(fa); err != nil {
			return err
		}
	}

	return nil
}

func validateAction(fa *FileAction) error {
	switch fa.Action {
	case Added:
		if fa.AddFile == "" || fa.TargetHash == "" || fa.PackageFileHash == "" {
			return updateerr.Newf(updateerr.MalformedManifest,
				"added action %q must carry addFile, targetHash and packageFileHash", fa.Path)
		}
		if fa.PatchFile != "" || fa.SourceHash != "" {
			return updateerr.Newf(updateerr.MalformedManifest,
				"added action %q must not carry patchFile or sourceHash", fa.Path)
		}
	case Modified:
		if fa.PatchFile == "" || fa.SourceHash == "" || fa.TargetHash == "" || fa.PackageFileHash == "" {
			return updateerr.Newf(updateerr.MalformedManifest,
				"modified action %q must carry patchFile, sourceHash, targetHash and packageFileHash", fa.Path)
		}
		if fa.AddFile != "" {
			return updateerr.Newf(updateerr.MalformedManifest,
				"modified action %q must not carry addFile", fa.Path)
		}
	case Removed:
		if fa.AddFile != "" || fa.PatchFile != "" || fa.SourceHash != "" ||
			fa.TargetHash != "" || fa.PackageFileHash != "" || fa.Mode != 0 {
			return updateerr.Newf(updateerr.MalformedManifest,
				"removed action %q must carry only path", fa.Path)
		}
	default:
		return updateerr.Newf(updateerr.MalformedManifest, "unknown action %q for path %q", fa.Action, fa.Path)
	}

	for _, h := range []struct{ name, val string }{
		{"sourceHash", fa.SourceHash},
		{"targetHash", fa.TargetHash},
		{"packageFileHash", fa.PackageFileHash},
	} {
		if err := validHashOrEmpty(h.name, h.val); err != nil {
			return err
		}
	}

	return nil
}

// MangleName implements §4.5's package-internal escape rule: path
// separators become "_" so diffs/add entries live flat inside the package.
func MangleName(path string) string {
	return strings.ReplaceAll(path, "/", "_")
}
