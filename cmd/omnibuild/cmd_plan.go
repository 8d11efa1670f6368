package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <name>",
		Short: "Print the build order and expanded commands without running them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			plan, err := a.orchestrator.Plan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, step := range plan {
				fmt.Fprintf(out, "%d. %s %s\n", i+1, step.Definition.Name, step.Definition.Version)
				fmt.Fprintf(out, "   project dir: %s\n", step.Context.ProjectDir)
				for _, c := range step.Commands {
					fmt.Fprintf(out, "   $ %s\n", c)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("skip-dependencies", false, "Plan only the named definition")
	return cmd
}
