// Package builder implements C5: walking an old and a new directory tree,
// classifying every path as added/modified/removed, producing bsdiff
// patches and whole-file copies, and assembling and signing the manifest
// into a ZIP package. Grounded on the teacher's
// Generator.Partition/Generator.Write assembly sequence (accumulate
// per-file work, then one linear write pass) and NewInstallInfo's
// hash-then-record pattern, here producing SourceHash/TargetHash instead of
// a protobuf InstallInfo.
package builder

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/minecanton209/patchy/internal/archive"
	"github.com/minecanton209/patchy/internal/bsdiff"
	"github.com/minecanton209/patchy/internal/config"
	"github.com/minecanton209/patchy/internal/hashutil"
	"github.com/minecanton209/patchy/internal/keys"
	"github.com/minecanton209/patchy/internal/manifest"
	"github.com/minecanton209/patchy/internal/updateerr"
)

// Result is the output of Build: the signed manifest plus the finished
// package ZIP bytes.
type Result struct {
	Manifest *manifest.Manifest
	Package  []byte
}

// Build walks oldDir and newDir, classifies every path, produces patches
// and add-entries, assembles meta.json, signs it, and embeds it into a ZIP
// package. Determinism: Files is ordered lexicographically by Path, so two
// runs over identical input trees produce byte-identical manifests modulo
// the signature itself. release supplies the fields a tree diff cannot
// derive on its own (release name, changelog, restart/critical flags, the
// optional fallback installer and full-package archive); a nil release is
// equivalent to config.Default().
func Build(oldDir, newDir string, versionID, fromVersionID int64, version string, priv *ecdsa.PrivateKey, release *config.Release) (*Result, error) {
	if release == nil {
		release = config.Default()
	}
	oldPaths, err := listTree(oldDir)
	if err != nil {
		return nil, err
	}
	newPaths, err := listTree(newDir)
	if err != nil {
		return nil, err
	}

	union := make(map[string]bool, len(oldPaths)+len(newPaths))
	for p := range oldPaths {
		union[p] = true
	}
	for p := range newPaths {
		union[p] = true
	}
	sorted := make([]string, 0, len(union))
	for p := range union {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	m := manifest.New(versionID, fromVersionID, version)
	pw := archive.NewPackageWriter()

	for _, p := range sorted {
		_, inOld := oldPaths[p]
		_, inNew := newPaths[p]
		mangled := manifest.MangleName(p)

		switch {
		case inOld && inNew:
			oldBytes, err := os.ReadFile(filepath.Join(oldDir, filepath.FromSlash(p)))
			if err != nil {
				return nil, updateerr.Wrap(updateerr.Io, p, err)
			}
			newBytes, err := os.ReadFile(filepath.Join(newDir, filepath.FromSlash(p)))
			if err != nil {
				return nil, updateerr.Wrap(updateerr.Io, p, err)
			}

			sourceHash := hashutil.Bytes(oldBytes)
			targetHash := hashutil.Bytes(newBytes)
			if sourceHash == targetHash {
				logrus.WithField("path", p).Debug("unchanged, omitted from manifest")
				continue
			}

			patch, err := bsdiff.Create(oldBytes, newBytes)
			if err != nil {
				return nil, updateerr.Wrap(updateerr.Io, p, err)
			}

			newInfo, err := os.Stat(filepath.Join(newDir, filepath.FromSlash(p)))
			if err != nil {
				return nil, updateerr.Wrap(updateerr.Io, p, err)
			}

			pw.AddDiff(mangled, patch)
			m.Files = append(m.Files, manifest.FileAction{
				Action:          manifest.Modified,
				Path:            p,
				Mode:            uint32(newInfo.Mode().Perm()),
				PatchFile:       archive.DiffPath(mangled),
				SourceHash:      sourceHash,
				TargetHash:      targetHash,
				PackageFileHash: hashutil.Bytes(patch),
			})
			logrus.WithFields(logrus.Fields{"path": p, "patchBytes": len(patch)}).Info("modified")

		case inNew:
			newBytes, err := os.ReadFile(filepath.Join(newDir, filepath.FromSlash(p)))
			if err != nil {
				return nil, updateerr.Wrap(updateerr.Io, p, err)
			}
			newInfo, err := os.Stat(filepath.Join(newDir, filepath.FromSlash(p)))
			if err != nil {
				return nil, updateerr.Wrap(updateerr.Io, p, err)
			}

			pw.AddFile(mangled, newBytes)
			m.Files = append(m.Files, manifest.FileAction{
				Action:          manifest.Added,
				Path:            p,
				Mode:            uint32(newInfo.Mode().Perm()),
				AddFile:         archive.AddPath(mangled),
				TargetHash:      hashutil.Bytes(newBytes),
				PackageFileHash: hashutil.Bytes(newBytes),
			})
			logrus.WithField("path", p).Info("added")

		case inOld:
			m.Files = append(m.Files, manifest.FileAction{
				Action: manifest.Removed,
				Path:   p,
			})
			logrus.WithField("path", p).Info("removed")
		}
	}

	m.ReleaseName = release.ReleaseName
	m.Changes = release.Changes
	m.RestartRequired = release.RestartRequired
	m.Critical = release.Critical

	if release.FallbackInstallerFile != "" {
		installer, err := os.ReadFile(release.FallbackInstallerFile)
		if err != nil {
			return nil, updateerr.Wrap(updateerr.Io, release.FallbackInstallerFile, err)
		}
		pw.AddEntry(archive.FallbackInstallerEntry, installer)
		m.FallbackInstallerFile = archive.FallbackInstallerEntry
		m.FallbackInstallerHash = hashutil.Bytes(installer)
		m.FallbackInstallerArguments = release.FallbackInstallerArguments
		logrus.WithField("bytes", len(installer)).Info("embedded fallback installer")
	}

	if release.FullPackage {
		var tarBuf bytes.Buffer
		gen := archive.NewTarGen(newDir)
		if err := gen.AddTree(); err != nil {
			return nil, err
		}
		if err := gen.Generate(&tarBuf); err != nil {
			return nil, err
		}
		pw.AddEntry(archive.FullPackageEntry, tarBuf.Bytes())
		m.FullPackageFile = archive.FullPackageEntry
		m.FullPackageHash = hashutil.Bytes(tarBuf.Bytes())
		logrus.WithField("bytes", tarBuf.Len()).Info("embedded full-package fallback archive")
	}

	if err := manifest.Validate(m); err != nil {
		return nil, err
	}

	canon, err := manifest.Canonical(m)
	if err != nil {
		return nil, err
	}
	sig, err := keys.Sign(priv, canon)
	if err != nil {
		return nil, err
	}
	m.Signature = sig

	signed, err := signedMetaJSON(m)
	if err != nil {
		return nil, err
	}

	var zipBuf bytes.Buffer
	if err := pw.Flush(&zipBuf, signed); err != nil {
		return nil, err
	}

	return &Result{Manifest: m, Package: zipBuf.Bytes()}, nil
}

// signedMetaJSON re-serialises m with its signature populated. This is
// deliberately not Canonical(m): the signed meta.json that ships in the
// package carries the Signature field, where Canonical always clears it.
func signedMetaJSON(m *manifest.Manifest) ([]byte, error) {
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, updateerr.Wrap(updateerr.MalformedManifest, "", err)
	}
	return buf, nil
}

// listTree walks root and returns the set of root-relative, forward-slash
// paths to every regular file it contains.
func listTree(root string) (map[string]bool, error) {
	paths := make(map[string]bool)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return updateerr.Wrap(updateerr.Io, path, err)
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return updateerr.Wrap(updateerr.Io, path, err)
		}
		paths[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
