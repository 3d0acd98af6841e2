// Command patchy is the release-tooling and client-side CLI for the update
// protocol: generating key pairs, building and signing update packages,
// producing and applying standalone bsdiff patches, and applying a finished
// package to an installation directory, with fallback escalation to a full
// package when the delta path cannot proceed.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "patchy",
		Short: "Signed update package builder and applier",
	}
	root.PersistentFlags().String("log-level", "info", "logrus level: debug, info, warn, error")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		levelStr, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}
		level, err := logrus.ParseLevel(levelStr)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	}

	root.AddCommand(
		newGenerateKeysCmd(),
		newCreateUpdatePackageCmd(),
		newApplyUpdateCmd(),
		newSignCmd(),
		newHashCmd(),
		newCreatePatchCmd(),
		newApplyPatchCmd(),
	)

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("patchy failed")
		os.Exit(1)
	}
}
