package gateways

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/ochairo/omnibuild/internal/domain/entities"
	"github.com/ochairo/omnibuild/internal/domain/interfaces"
)

// Placeholder names available to build commands as ${name}
const (
	PlaceholderInstallDir = "install_dir"
	PlaceholderProjectDir = "project_dir"
	PlaceholderName       = "name"
	PlaceholderVersion    = "version"
)

// ProcessExecutor runs a single process to completion
type ProcessExecutor interface {
	Execute(ctx context.Context, spec ProcessSpec) *ExecuteResult
}

// CommandRunnerConfig holds configuration for the command runner
type CommandRunnerConfig struct {
	Timeout time.Duration
	DryRun  bool
	Env     map[string]string // Extra environment passed to every process
}

// CommandRunner executes a definition's build commands in order and stops at
// the first failure. Completed commands are not rolled back.
type CommandRunner struct {
	executor ProcessExecutor
	logger   interfaces.Logger
	config   CommandRunnerConfig
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(executor ProcessExecutor, logger interfaces.Logger, config CommandRunnerConfig) *CommandRunner {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &CommandRunner{
		executor: executor,
		logger:   logger,
		config:   config,
	}
}

// CommandResult records the outcome of one executed command
type CommandResult struct {
	Index    int
	Command  entities.BuildCommand
	ExitCode int
	Duration time.Duration
}

// RunReport summarizes a command run for one definition
type RunReport struct {
	Definition string
	Executed   []CommandResult
	DryRun     bool
	Duration   time.Duration
}

// RunCommands expands and executes def's commands against bctx
func (r *CommandRunner) RunCommands(ctx context.Context, def *entities.SoftwareDefinition, bctx entities.BuildContext) (*RunReport, error) {
	startTime := time.Now()
	report := &RunReport{Definition: def.Name, DryRun: r.config.DryRun}

	commands, err := ExpandCommands(def, bctx)
	if err != nil {
		return report, err
	}

	for i, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		r.logger.Info("running command",
			interfaces.F("software", def.Name),
			interfaces.F("index", i+1),
			interfaces.F("command", cmd.String()),
		)

		if r.config.DryRun {
			report.Executed = append(report.Executed, CommandResult{Index: i, Command: cmd})
			continue
		}

		result := r.executor.Execute(ctx, ProcessSpec{
			Executable:  cmd.Executable,
			Args:        cmd.Args,
			WorkingDir:  bctx.ProjectDir,
			Env:         r.config.Env,
			Timeout:     r.config.Timeout,
			Description: fmt.Sprintf("%s #%d", def.Name, i+1),
		})
		report.Executed = append(report.Executed, CommandResult{
			Index:    i,
			Command:  cmd,
			ExitCode: result.ExitCode,
			Duration: result.Duration,
		})

		if !result.Success {
			report.Duration = time.Since(startTime)
			return report, &entities.CommandFailedError{
				Definition: def.Name,
				Index:      i,
				ExitCode:   result.ExitCode,
				Command:    cmd,
				Stderr:     result.Stderr,
				Err:        result.Error,
			}
		}

		r.logger.Debug("command finished",
			interfaces.F("software", def.Name),
			interfaces.F("index", i+1),
			interfaces.F("duration", result.Duration),
		)
	}

	report.Duration = time.Since(startTime)
	return report, nil
}

// ExpandCommands substitutes placeholders in every command of def
func ExpandCommands(def *entities.SoftwareDefinition, bctx entities.BuildContext) ([]entities.BuildCommand, error) {
	vars := map[string]string{
		PlaceholderInstallDir: bctx.InstallDir,
		PlaceholderProjectDir: bctx.ProjectDir,
		PlaceholderName:       def.Name,
		PlaceholderVersion:    def.Version,
	}
	exp := newPlaceholderExpander(vars)

	commands := make([]entities.BuildCommand, 0, len(def.Commands))
	for i, cmd := range def.Commands {
		executable, err := exp.expand(cmd.Executable)
		if err != nil {
			return nil, fmt.Errorf("%s: command #%d: %w", def.Name, i+1, err)
		}

		args := make([]string, 0, len(cmd.Args))
		for _, arg := range cmd.Args {
			expanded, err := exp.expand(arg)
			if err != nil {
				return nil, fmt.Errorf("%s: command #%d: %w", def.Name, i+1, err)
			}
			args = append(args, expanded)
		}

		commands = append(commands, entities.BuildCommand{Executable: executable, Args: args})
	}
	return commands, nil
}

// placeholderExpander expands ${var} references using the shell parser in
// here-document mode, so quotes stay literal and only parameter expansion applies
type placeholderExpander struct {
	vars   map[string]string
	parser *syntax.Parser
	cfg    *expand.Config
}

func newPlaceholderExpander(vars map[string]string) *placeholderExpander {
	pairs := make([]string, 0, len(vars))
	for k, v := range vars {
		pairs = append(pairs, k+"="+v)
	}
	return &placeholderExpander{
		vars:   vars,
		parser: syntax.NewParser(),
		cfg:    &expand.Config{Env: expand.ListEnviron(pairs...)},
	}
}

func (e *placeholderExpander) expand(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	word, err := e.parser.Document(strings.NewReader(s))
	if err != nil {
		return "", fmt.Errorf("failed to parse %q: %w", s, err)
	}

	var walkErr error
	syntax.Walk(word, func(node syntax.Node) bool {
		if walkErr != nil {
			return false
		}
		switch n := node.(type) {
		case *syntax.CmdSubst, *syntax.ProcSubst, *syntax.ArithmExp:
			walkErr = fmt.Errorf("only ${var} placeholders are allowed in %q", s)
		case *syntax.ParamExp:
			if _, ok := e.vars[n.Param.Value]; !ok {
				walkErr = fmt.Errorf("unknown placeholder ${%s} in %q", n.Param.Value, s)
			}
		}
		return true
	})
	if walkErr != nil {
		return "", walkErr
	}

	result, err := expand.Document(e.cfg, word)
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", s, err)
	}
	return result, nil
}
