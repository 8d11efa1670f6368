package entities

import (
	"fmt"
	"strings"
)

// MissingVersionError is returned when a definition's version cannot be resolved
type MissingVersionError struct {
	Definition string
	Env        string
}

func (e *MissingVersionError) Error() string {
	if e.Env != "" {
		return fmt.Sprintf("%s: %s environment variable not set and no literal version declared", e.Definition, e.Env)
	}
	return fmt.Sprintf("%s: no version declared", e.Definition)
}

// UnknownDependencyError is returned when a declared dependency is not registered
type UnknownDependencyError struct {
	Name       string
	RequiredBy string
}

func (e *UnknownDependencyError) Error() string {
	if e.RequiredBy == "" {
		return fmt.Sprintf("unknown software definition %q", e.Name)
	}
	return fmt.Sprintf("unknown dependency %q required by %s", e.Name, e.RequiredBy)
}

// DependencyCycleError indicates that definitions depend on each other
type DependencyCycleError struct {
	Cycle []string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// CommandFailedError is returned when a build command exits non-zero or cannot be started
type CommandFailedError struct {
	Definition string
	Index      int // Zero-based position of the command in the definition
	ExitCode   int // -1 if the process never produced an exit status
	Command    BuildCommand
	Stderr     string
	Err        error
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("%s: command #%d failed (exit %d): %s", e.Definition, e.Index+1, e.ExitCode, e.Command)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandFailedError) Unwrap() error {
	return e.Err
}
