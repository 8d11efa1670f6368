// Package main provides the omnibuild CLI for building software definitions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ochairo/omnibuild/internal/domain/entities"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newRootCmd(), os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs root with args and maps the result to a process exit code.
// Cancelling ctx terminates the running build command.
func execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	return exitCode(err)
}

// exitCode returns the failing command's exit status for a CommandFailedError and 1 otherwise
func exitCode(err error) int {
	var failed *entities.CommandFailedError
	if errors.As(err, &failed) && failed.ExitCode > 0 {
		return failed.ExitCode
	}
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "omnibuild",
		Short: "Build software definitions into an install prefix",
		Long: `omnibuild loads software definitions (Starlark or YAML), orders them by
dependency and runs their build commands against the install directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML or TOML config file")
	flags.String("software-dir", "", "Directory containing software definitions (default config/software)")
	flags.String("install-dir", "", "Install prefix passed to commands as ${install_dir} (default /opt/restservice)")
	flags.String("project-root", "", "Root of per-definition project directories (default build)")
	flags.String("version-policy", "", "Version source precedence: env-wins or literal-wins (default env-wins)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (default info)")
	flags.String("log-format", "", "Log format: console or json (default console)")
	flags.Bool("verify-signatures", false, "Require a valid detached signature for every definition file")
	flags.String("keyring-path", "", "Armored or binary OpenPGP public keyring used for signature checks")

	root.AddCommand(
		newBuildCmd(),
		newPlanCmd(),
		newListCmd(),
		newShowCmd(),
		newVerifyCmd(),
	)
	return root
}
