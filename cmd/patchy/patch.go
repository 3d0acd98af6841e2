package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/minecanton209/patchy/internal/bsdiff"
)

func newCreatePatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-patch <old> <new> <patch-out>",
		Short: "Produce a standalone bsdiff patch between two files",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			next, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			patch, err := bsdiff.Create(old, next)
			if err != nil {
				return err
			}

			if err := os.WriteFile(args[2], patch, 0o644); err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{"patchBytes": len(patch), "out": args[2]}).Info("patch created")
			return nil
		},
	}
}

func newApplyPatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply-patch <old> <patch> <new-out>",
		Short: "Reconstruct a file from a base file and a standalone bsdiff patch",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			patch, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			next, err := bsdiff.Apply(old, patch)
			if err != nil {
				return err
			}

			if err := os.WriteFile(args[2], next, 0o644); err != nil {
				return err
			}

			logrus.WithField("out", args[2]).Info("patch applied")
			return nil
		},
	}
}
