// Package fallback implements §4.7's fallback controller: when the applier
// reports a SourceMismatch (the delta path cannot proceed), and the trusted
// manifest carries FullPackageFile/FullPackageHash, this package verifies
// the full package's hash, asks for user confirmation through an injected
// callback, and replaces the installation wholesale from the archive.
// Verifying a caller-supplied blob against a hash recorded in an
// already-signature-verified manifest is grounded on update/updater.go's
// VerifyInfo, reused here as the guard for the full-package hash instead of
// a payload operation's InstallInfo.
package fallback

import (
	"bytes"

	"github.com/sirupsen/logrus"

	"github.com/minecanton209/patchy/internal/archive"
	"github.com/minecanton209/patchy/internal/hashutil"
	"github.com/minecanton209/patchy/internal/manifest"
	"github.com/minecanton209/patchy/internal/updateerr"
)

// Confirm is called once the full package's hash has verified; it returns
// true to proceed with the wholesale replacement.
type Confirm func() (bool, error)

// Recover verifies fullPackage against m.FullPackageHash, asks confirm for
// permission, and on acceptance extracts fullPackage (a gzip-compressed TAR
// produced by internal/archive.TarGen) over targetDir. m must already have
// passed signature verification — Recover re-checks only the full-package
// hash, not the manifest signature.
func Recover(m *manifest.Manifest, fullPackage []byte, targetDir string, confirm Confirm) error {
	if m.FullPackageFile == "" || m.FullPackageHash == "" {
		return updateerr.New(updateerr.PackageCorrupt, "manifest carries no full-package fallback")
	}

	digest := hashutil.Bytes(fullPackage)
	if !hashutil.Equal(digest, m.FullPackageHash) {
		return updateerr.New(updateerr.PackageCorrupt, "full package does not match fullPackageHash")
	}

	ok, err := confirm()
	if err != nil {
		return updateerr.Wrap(updateerr.Cancelled, "", err)
	}
	if !ok {
		return updateerr.New(updateerr.Cancelled, "user declined full-package recovery")
	}

	logrus.WithField("versionId", m.VersionId).Warn("replacing installation from full-package fallback")

	if err := archive.ExtractTar(bytes.NewReader(fullPackage), targetDir); err != nil {
		return err
	}

	return nil
}
