package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/minecanton209/patchy/internal/keys"
)

func newGenerateKeysCmd() *cobra.Command {
	var privOut, pubOut string

	cmd := &cobra.Command{
		Use:   "generate-keys",
		Short: "Generate a P-256 signing key pair",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := keys.Generate()
			if err != nil {
				return err
			}

			privPEM, err := keys.EncodePrivateKeyPEM(priv)
			if err != nil {
				return err
			}
			pubPEM, err := keys.EncodePublicKeyPEM(&priv.PublicKey)
			if err != nil {
				return err
			}

			if err := os.WriteFile(privOut, privPEM, 0o600); err != nil {
				return err
			}
			if err := os.WriteFile(pubOut, pubPEM, 0o644); err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{"private": privOut, "public": pubOut}).Info("key pair written")
			return nil
		},
	}

	cmd.Flags().StringVar(&privOut, "private-key-out", "patchy-private.pem", "output path for the PKCS#8 private key")
	cmd.Flags().StringVar(&pubOut, "public-key-out", "patchy-public.pem", "output path for the PKIX public key")
	return cmd
}
