package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify the detached signature of a definition file",
		Long: `Verify checks <file> against <file>.asc or <file>.sig using the public keys
in --keyring-path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyringPath, err := cmd.Flags().GetString("keyring-path")
			if err != nil {
				return err
			}
			if keyringPath == "" {
				return fmt.Errorf("--keyring-path is required")
			}

			verifier, err := newSignatureVerifier(keyringPath)
			if err != nil {
				return err
			}

			if err := verifier.VerifyDefinitionFile(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Signature valid: %s (%d keys in keyring)\n", args[0], verifier.KeyringSize())
			return nil
		},
	}
}
