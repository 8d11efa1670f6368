// Package gateways implements adapters between the domain and the outside world.
package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ProcessSpec describes a single process invocation. The executable is run
// directly with Args; no shell is involved.
type ProcessSpec struct {
	Executable  string
	Args        []string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration
	Description string
}

// ExecuteResult contains the result of a process execution
type ExecuteResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// ExecProcessExecutor runs processes with os/exec
type ExecProcessExecutor struct {
	defaultTimeout time.Duration
	output         io.Writer
}

// NewExecProcessExecutor creates a new process executor. If output is non-nil,
// the child's stdout and stderr are streamed to it while also being captured.
func NewExecProcessExecutor(output io.Writer) *ExecProcessExecutor {
	return &ExecProcessExecutor{
		defaultTimeout: 30 * time.Minute,
		output:         output,
	}
}

// Execute runs spec to completion
func (pe *ExecProcessExecutor) Execute(ctx context.Context, spec ProcessSpec) *ExecuteResult {
	startTime := time.Now()
	result := &ExecuteResult{}

	timeout := spec.Timeout
	if timeout == 0 {
		timeout = pe.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: Executable and arguments come from the software definition
	cmd := exec.CommandContext(execCtx, spec.Executable, spec.Args...)

	if spec.WorkingDir != "" {
		cmd.Dir = spec.WorkingDir
	}

	env := os.Environ()
	for key, value := range spec.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	if pe.output != nil {
		cmd.Stdout = io.MultiWriter(&stdout, pe.output)
		cmd.Stderr = io.MultiWriter(&stderr, pe.output)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			result.ExitCode = exitErr.ExitCode()
		} else if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			result.Error = fmt.Errorf("process timeout after %v", timeout)
			result.ExitCode = -1
		} else {
			result.ExitCode = -1
		}
		return result
	}

	result.Success = true
	result.ExitCode = 0
	return result
}
