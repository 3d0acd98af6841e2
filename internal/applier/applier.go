// Package applier implements C6: the client-side apply pipeline. Every
// stage in Apply runs in the strict order the protocol requires — open,
// verify signature, verify package-file hashes, verify pre-images,
// reconstruct into a staging area, commit — and no existing file in the
// target directory is changed before the commit stage (reconstructed files
// are staged in a private .patchy-<uuid> directory created inside the target
// directory, which is removed again on every exit). This reorders the teacher's
// own update/updater.go, which verifies the payload signature last (after
// applying every operation); here the signature is verified first, before
// a single byte is read out of diffs/ or add/, because a self-update
// client cannot afford to trust package bytes it hasn't authenticated yet.
//
// Mode bits recorded on FileAction at build time are restored on the staged
// file via os.Chmod before it is renamed into place; mtimes are not
// preserved and land at apply time, not the original build time.
package applier

import (
	"crypto/ecdsa"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/minecanton209/patchy/internal/archive"
	"github.com/minecanton209/patchy/internal/bsdiff"
	"github.com/minecanton209/patchy/internal/hashutil"
	"github.com/minecanton209/patchy/internal/keys"
	"github.com/minecanton209/patchy/internal/manifest"
	"github.com/minecanton209/patchy/internal/updateerr"
)

type staged struct {
	action manifest.FileAction
	// tempPath is set for modified/added actions: the reconstructed bytes
	// already written inside the run's staging directory, ready to be
	// renamed over Path at commit.
	tempPath string
}

// Apply runs the full pipeline against a package's raw ZIP bytes and a
// target directory, returning the verified manifest on success. No existing
// file under targetDir is touched unless every verification stage succeeds;
// only the private staging directory is written before then.
func Apply(packageZip []byte, targetDir string, pub *ecdsa.PublicKey) (*manifest.Manifest, error) {
	pr, err := archive.OpenPackageReader(packageZip)
	if err != nil {
		return nil, err
	}

	rawMeta, err := pr.Meta()
	if err != nil {
		return nil, err
	}

	m, err := manifest.Parse(rawMeta)
	if err != nil {
		return nil, err
	}

	canon, err := manifest.Canonical(m)
	if err != nil {
		return nil, err
	}
	if !keys.Verify(pub, canon, m.Signature) {
		return nil, updateerr.New(updateerr.SignatureInvalid, "manifest signature does not verify")
	}

	if err := verifyPackageHashes(pr, m); err != nil {
		return nil, err
	}

	if err := verifyPreimages(m, targetDir); err != nil {
		return nil, err
	}

	stagingDir := filepath.Join(targetDir, ".patchy-"+uuid.NewString())
	defer os.RemoveAll(stagingDir)

	staging, err := reconstruct(pr, m, targetDir, stagingDir)
	if err != nil {
		return nil, err
	}

	if err := commit(staging, targetDir); err != nil {
		return nil, err
	}

	return m, nil
}

// verifyPackageHashes hashes every diffs/ and add/ entry the manifest
// references and compares it to PackageFileHash, before any of those bytes
// are used to reconstruct a target file.
func verifyPackageHashes(pr *archive.PackageReader, m *manifest.Manifest) error {
	for _, fa := range m.Files {
		if fa.PackageFileHash == "" {
			continue
		}

		var entryPath string
		switch fa.Action {
		case manifest.Modified:
			entryPath = fa.PatchFile
		case manifest.Added:
			entryPath = fa.AddFile
		default:
			continue
		}

		data, err := pr.Read(entryPath)
		if err != nil {
			return updateerr.Wrap(updateerr.PackageCorrupt, fa.Path, err)
		}
		if !hashutil.Equal(hashutil.Bytes(data), fa.PackageFileHash) {
			return updateerr.Newf(updateerr.PackageCorrupt, "package entry for %q does not match packageFileHash", fa.Path)
		}
	}
	return nil
}

// verifyPreimages hashes the on-disk file for every modified action and
// compares it to SourceHash. A mismatch aborts before any reconstruction
// work, leaving the caller free to escalate to the fallback full package.
func verifyPreimages(m *manifest.Manifest, targetDir string) error {
	for _, fa := range m.Files {
		if fa.Action != manifest.Modified {
			continue
		}

		digest, err := hashutil.File(filepath.Join(targetDir, filepath.FromSlash(fa.Path)))
		if err != nil {
			return updateerr.Wrap(updateerr.SourceMismatch, fa.Path, err)
		}
		if !hashutil.Equal(digest, fa.SourceHash) {
			return updateerr.Newf(updateerr.SourceMismatch, "on-disk %q does not match sourceHash", fa.Path)
		}
	}
	return nil
}

// reconstruct builds every modified/added file into stagingDir, mirroring
// its manifest Path, verifying TargetHash as it goes, and records removed
// paths for the commit stage. stagingDir lives under targetDir so the
// commit stage's renames stay on the same volume. Nothing under targetDir
// outside stagingDir is touched by this function.
func reconstruct(pr *archive.PackageReader, m *manifest.Manifest, targetDir, stagingDir string) ([]staged, error) {
	result := make([]staged, 0, len(m.Files))

	for _, fa := range m.Files {
		targetPath := filepath.Join(targetDir, filepath.FromSlash(fa.Path))
		tmp := filepath.Join(stagingDir, filepath.FromSlash(fa.Path))

		switch fa.Action {
		case manifest.Modified:
			patch, err := pr.Read(fa.PatchFile)
			if err != nil {
				return result, err
			}
			old, err := os.ReadFile(targetPath)
			if err != nil {
				return result, updateerr.Wrap(updateerr.Io, fa.Path, err)
			}

			next, err := bsdiff.VerifyTarget(old, patch, fa.TargetHash)
			if err != nil {
				// VerifyTarget already classifies the failure correctly
				// (MalformedPatch from a corrupt control stream,
				// TargetMismatch from its own hash check); only attach
				// path context, never override the Kind.
				return result, updateerr.WithPath(err, fa.Path)
			}

			if err := writeTemp(tmp, next, fa.Mode); err != nil {
				return result, err
			}
			result = append(result, staged{action: fa, tempPath: tmp})

		case manifest.Added:
			data, err := pr.Read(fa.AddFile)
			if err != nil {
				return result, err
			}
			if !hashutil.Equal(hashutil.Bytes(data), fa.TargetHash) {
				return result, updateerr.Newf(updateerr.TargetMismatch, "added entry %q does not match targetHash", fa.Path)
			}

			if err := writeTemp(tmp, data, fa.Mode); err != nil {
				return result, err
			}
			result = append(result, staged{action: fa, tempPath: tmp})

		case manifest.Removed:
			result = append(result, staged{action: fa})
		}
	}

	return result, nil
}

// writeTemp stages data at tmpPath and, when mode carries a mode bit
// recorded at build time, chmods the staged file to it before the commit
// stage renames it into place — os.WriteFile's perm argument alone is
// subject to umask, so the bits are fixed up explicitly here.
func writeTemp(tmpPath string, data []byte, mode uint32) error {
	if err := os.MkdirAll(filepath.Dir(tmpPath), 0o755); err != nil {
		return updateerr.Wrap(updateerr.Io, tmpPath, err)
	}
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return updateerr.Wrap(updateerr.Io, tmpPath, err)
	}
	if mode != 0 {
		if err := os.Chmod(tmpPath, os.FileMode(mode)); err != nil {
			return updateerr.Wrap(updateerr.Io, tmpPath, err)
		}
	}
	return nil
}

// commit renames every staged temp file over its target path in manifest
// order, then deletes files marked removed. This is the only stage that
// mutates targetDir.
func commit(staging []staged, targetDir string) error {
	for _, s := range staging {
		if s.tempPath == "" {
			continue
		}
		targetPath := filepath.Join(targetDir, filepath.FromSlash(s.action.Path))
		if err := os.Rename(s.tempPath, targetPath); err != nil {
			return updateerr.Wrap(updateerr.Io, s.action.Path, err)
		}
		logrus.WithField("path", s.action.Path).Info("committed")
	}

	for _, s := range staging {
		if s.action.Action != manifest.Removed {
			continue
		}
		targetPath := filepath.Join(targetDir, filepath.FromSlash(s.action.Path))
		if err := os.Remove(targetPath); err != nil && !os.IsNotExist(err) {
			return updateerr.Wrap(updateerr.Io, s.action.Path, err)
		}
		logrus.WithField("path", s.action.Path).Info("removed")
	}

	return nil
}
