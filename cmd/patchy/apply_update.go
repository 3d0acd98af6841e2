package main

import (
	"crypto/ecdsa"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/minecanton209/patchy/internal/applier"
	"github.com/minecanton209/patchy/internal/archive"
	"github.com/minecanton209/patchy/internal/fallback"
	"github.com/minecanton209/patchy/internal/keys"
	"github.com/minecanton209/patchy/internal/manifest"
	"github.com/minecanton209/patchy/internal/updateerr"
)

func newApplyUpdateCmd() *cobra.Command {
	var pubKeyPath string
	var noFallback bool

	cmd := &cobra.Command{
		Use:   "apply-update <package.pkg> <target-dir>",
		Short: "Apply a signed update package to an installation directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgPath, targetDir := args[0], args[1]

			pubPEM, err := os.ReadFile(pubKeyPath)
			if err != nil {
				return err
			}
			pub, err := keys.ParsePublicKeyPEM(pubPEM)
			if err != nil {
				return err
			}

			pkg, err := os.ReadFile(pkgPath)
			if err != nil {
				return err
			}

			m, err := applier.Apply(pkg, targetDir, pub)
			if err == nil {
				logrus.WithFields(logrus.Fields{
					"versionId": m.VersionId,
					"files":     len(m.Files),
				}).Info("update applied")
				return nil
			}

			if noFallback || !updateerr.Is(err, updateerr.SourceMismatch) {
				return err
			}

			logrus.WithError(err).Warn("delta apply failed on source mismatch, attempting full-package fallback")
			return applyFallback(pkg, targetDir, pub)
		},
	}

	cmd.Flags().StringVar(&pubKeyPath, "public-key", "", "path to a PEM-encoded PKIX P-256 public key")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "never escalate to the full-package fallback")
	cmd.MarkFlagRequired("public-key")
	return cmd
}

// applyFallback re-opens the package and re-verifies the manifest signature
// independently of the failed Apply call (Apply doesn't hand back a
// manifest on error), then, if the manifest carries a full-package archive,
// recovers the installation wholesale through internal/fallback.
func applyFallback(pkg []byte, targetDir string, pub *ecdsa.PublicKey) error {
	pr, err := archive.OpenPackageReader(pkg)
	if err != nil {
		return err
	}

	rawMeta, err := pr.Meta()
	if err != nil {
		return err
	}
	m, err := manifest.Parse(rawMeta)
	if err != nil {
		return err
	}

	canon, err := manifest.Canonical(m)
	if err != nil {
		return err
	}
	if !keys.Verify(pub, canon, m.Signature) {
		return updateerr.New(updateerr.SignatureInvalid, "manifest signature does not verify")
	}

	if m.FullPackageFile == "" {
		return updateerr.New(updateerr.PackageCorrupt, "manifest carries no full-package fallback to recover from")
	}

	fullPkg, err := pr.Read(m.FullPackageFile)
	if err != nil {
		return err
	}

	confirm := fallback.TerminalConfirm(os.Stdin, os.Stdout)
	if err := fallback.Recover(m, fullPkg, targetDir, confirm); err != nil {
		return err
	}

	logrus.WithField("versionId", m.VersionId).Info("full-package fallback recovery complete")
	return nil
}
