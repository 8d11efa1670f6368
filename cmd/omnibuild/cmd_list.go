package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available software definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			specs, err := a.repo.ListDefinitions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(specs) == 0 {
				fmt.Fprintf(out, "No software definitions found in %s\n", a.cfg.SoftwareDir)
				return nil
			}

			maxNameLen := 0
			for _, spec := range specs {
				if len(spec.Name) > maxNameLen {
					maxNameLen = len(spec.Name)
				}
			}

			lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+3)
			for _, spec := range specs {
				desc := spec.Description
				if len(spec.Dependencies) > 0 {
					desc = strings.TrimSpace(fmt.Sprintf("%s (depends on %s)", desc, strings.Join(spec.Dependencies, ", ")))
				}
				fmt.Fprintf(out, lineFmt, spec.Name+":", desc)
			}
			return nil
		},
	}
}
