package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <name>",
		Short: "Build a software definition and its dependencies",
		Example: `  omnibuild build restservice
  CORE_TAG_NAME=5.0.5 omnibuild build restservice --install-dir /opt/restservice
  omnibuild build restservice --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			result, err := a.orchestrator.Build(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.GetBuildSummary())
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Log the expanded commands without executing them")
	cmd.Flags().Bool("skip-dependencies", false, "Build only the named definition")
	cmd.Flags().Int("timeout-minutes", 0, "Per-command timeout in minutes (default 30)")
	return cmd
}
