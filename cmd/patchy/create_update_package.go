package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/minecanton209/patchy/internal/builder"
	"github.com/minecanton209/patchy/internal/config"
	"github.com/minecanton209/patchy/internal/keys"
	"github.com/minecanton209/patchy/internal/publish"
)

func newCreateUpdatePackageCmd() *cobra.Command {
	var (
		versionID     int64
		fromVersionID int64
		version       string
		privKeyPath   string
		configPath    string
		outDir        string
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "create-update-package <old-dir> <new-dir>",
		Short: "Diff two installation trees and produce a signed update package",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldDir, newDir := args[0], args[1]

			privPEM, err := os.ReadFile(privKeyPath)
			if err != nil {
				return errors.Wrapf(err, "reading private key %q", privKeyPath)
			}
			priv, err := keys.ParsePrivateKeyPEM(privPEM)
			if err != nil {
				return err
			}

			release := config.Default()
			if configPath != "" {
				release, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}

			result, err := builder.Build(oldDir, newDir, versionID, fromVersionID, version, priv, release)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return errors.Wrapf(err, "creating output directory %q", outDir)
			}
			pkgPath := filepath.Join(outDir, "update.pkg")
			if err := os.WriteFile(pkgPath, result.Package, 0o644); err != nil {
				return errors.Wrapf(err, "writing %q", pkgPath)
			}

			metaPath := filepath.Join(outDir, "meta.json")
			metaBytes, err := json.MarshalIndent(result.Manifest, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{
				"package":   pkgPath,
				"meta":      metaPath,
				"versionId": result.Manifest.VersionId,
				"files":     len(result.Manifest.Files),
			}).Info("update package built")

			if release.Publish.Provider != "" {
				if err := publishResult(cmd.Context(), release, result.Package, force); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&versionID, "version-id", 0, "monotonic version id of the new release")
	cmd.Flags().Int64Var(&fromVersionID, "from-version-id", 0, "monotonic version id this update transitions from")
	cmd.Flags().StringVar(&version, "version", "", "human-readable version string")
	cmd.Flags().StringVar(&privKeyPath, "private-key", "", "path to a PEM-encoded PKCS#8 P-256 private key")
	cmd.Flags().StringVar(&configPath, "config", "", "optional release config.json")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory for update.pkg and meta.json")
	cmd.Flags().BoolVar(&force, "force-publish", false, "overwrite an existing published object at the same key")
	cmd.MarkFlagRequired("version-id")
	cmd.MarkFlagRequired("from-version-id")
	cmd.MarkFlagRequired("version")
	cmd.MarkFlagRequired("private-key")
	return cmd
}

func publishResult(ctx context.Context, release *config.Release, pkg []byte, force bool) error {
	key := filepath.ToSlash(filepath.Join(release.Publish.Prefix, "update.pkg"))

	var target publish.Target
	var err error
	switch release.Publish.Provider {
	case "s3":
		target, err = publish.NewS3Target(ctx, release.Publish.Region, release.Publish.Bucket)
	case "azure":
		connStr := os.Getenv("AZURE_STORAGE_CONNECTION_STRING")
		target, err = publish.NewAzureTarget(connStr, release.Publish.Bucket)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	if err := publish.Publish(ctx, target, key, pkg, force); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"provider": release.Publish.Provider, "key": key}).Info("published update package")
	return nil
}
