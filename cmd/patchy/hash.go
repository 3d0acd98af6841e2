package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minecanton209/patchy/internal/hashutil"
)

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the lowercase hex SHA-256 digest of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := hashutil.File(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(os.Stdout, digest)
			return err
		},
	}
}
