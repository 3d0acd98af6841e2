package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/minecanton209/patchy/internal/hashutil"
	"github.com/minecanton209/patchy/internal/keys"
)

// newSignCmd implements §6's `sign <info.json> <priv_key> <package>`: hash
// and sign package, then rewrite info.json in place with both values. Other
// keys already present in info.json are preserved untouched.
func newSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <info.json> <priv_key> <package>",
		Short: "Hash and sign a package, embedding the result into info.json",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			infoPath, privKeyPath, packagePath := args[0], args[1], args[2]

			rawInfo, err := os.ReadFile(infoPath)
			if err != nil {
				return err
			}
			var info map[string]json.RawMessage
			if err := json.Unmarshal(rawInfo, &info); err != nil {
				return err
			}

			privPEM, err := os.ReadFile(privKeyPath)
			if err != nil {
				return err
			}
			priv, err := keys.ParsePrivateKeyPEM(privPEM)
			if err != nil {
				return err
			}

			pkg, err := os.ReadFile(packagePath)
			if err != nil {
				return err
			}

			hash := hashutil.Bytes(pkg)
			sig, err := keys.Sign(priv, pkg)
			if err != nil {
				return err
			}

			hashJSON, err := json.Marshal(hash)
			if err != nil {
				return err
			}
			sigJSON, err := json.Marshal(sig)
			if err != nil {
				return err
			}
			if info == nil {
				info = make(map[string]json.RawMessage, 2)
			}
			info["hash"] = hashJSON
			info["signature"] = sigJSON

			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(infoPath, out, 0o644)
		},
	}

	return cmd
}
