package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a software definition with its version resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			def, err := a.orchestrator.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:         %s\n", def.Name)
			fmt.Fprintf(out, "Version:      %s\n", def.Version)
			if src := def.Source.String(); src != "" {
				fmt.Fprintf(out, "Source:       %s\n", src)
			}
			if len(def.Dependencies) > 0 {
				fmt.Fprintf(out, "Dependencies: %s\n", strings.Join(def.Dependencies, ", "))
			}
			fmt.Fprintf(out, "Commands:     %d\n", len(def.Commands))
			for i, c := range def.Commands {
				fmt.Fprintf(out, "  %d. %s\n", i+1, c)
			}
			return nil
		},
	}
}
