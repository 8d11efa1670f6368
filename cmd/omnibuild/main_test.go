package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/omnibuild/internal/domain/entities"
)

const (
	baseDefinition = `name: base
default_version: "1.0"
build:
  - [mkdir, -p, "${install_dir}/embedded/bin"]
`
	appDefinition = `name: app
description: Test application
default_version:
  env: APP_TAG
  literal: main
dependencies: [base]
source:
  git: https://example.com/app.git
build:
  - [sh, -c, "echo ${name}-${version} > ${install_dir}/app.txt"]
`
	brokenDefinition = `name: broken
default_version: "1.0"
build:
  - ["true"]
  - [sh, -c, "exit 3"]
  - [touch, "${install_dir}/never"]
`
)

type testEnv struct {
	softwareDir string
	installDir  string
	projectRoot string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		softwareDir: filepath.Join(root, "software"),
		installDir:  filepath.Join(root, "install"),
		projectRoot: filepath.Join(root, "build"),
	}
	if err := os.MkdirAll(env.softwareDir, 0o750); err != nil {
		t.Fatalf("failed to create software dir: %v", err)
	}

	files := map[string]string{
		"base.yml":   baseDefinition,
		"app.yml":    appDefinition,
		"broken.yml": brokenDefinition,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(env.softwareDir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	fullArgs := append(args,
		"--software-dir", e.softwareDir,
		"--install-dir", e.installDir,
		"--project-root", e.projectRoot,
		"--log-format", "json",
		"--log-level", "error",
	)
	code := execute(context.Background(), root, fullArgs)
	return stdout.String(), stderr.String(), code
}

func TestCLI_Build(t *testing.T) {
	t.Setenv("APP_TAG", "2.0")
	env := newTestEnv(t)

	stdout, stderr, code := env.run(t, "build", "app")
	if code != 0 {
		t.Fatalf("build exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "base -> app") {
		t.Errorf("stdout = %q, want build order", stdout)
	}

	data, err := os.ReadFile(filepath.Join(env.installDir, "app.txt"))
	if err != nil {
		t.Fatalf("app.txt not written: %v", err)
	}
	if strings.TrimSpace(string(data)) != "app-2.0" {
		t.Errorf("app.txt = %q, want app-2.0", data)
	}
	if _, err := os.Stat(filepath.Join(env.projectRoot, "app")); err != nil {
		t.Errorf("project dir not created: %v", err)
	}
}

func TestCLI_Build_ExitCodeFromFailingCommand(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run(t, "build", "broken")
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if n := strings.Count(stderr, "command #2 failed"); n != 1 {
		t.Errorf("stderr reports the failure %d times, want once: %q", n, stderr)
	}
	if _, err := os.Stat(filepath.Join(env.installDir, "never")); !os.IsNotExist(err) {
		t.Error("command after the failing one was executed")
	}
}

func TestCLI_Build_EnvironmentReachesCommands(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(filepath.Join(env.softwareDir, "envcheck.yml"),
		[]byte("name: envcheck\ndefault_version: \"1.0\"\nbuild:\n  - [printenv, OMNIBUILD_TEST_MARKER]\n"), 0o600); err != nil {
		t.Fatalf("failed to write definition: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "omnibuild.yml")
	if err := os.WriteFile(configPath, []byte("environment:\n  OMNIBUILD_TEST_MARKER: from-config\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, stderr, code := env.run(t, "build", "envcheck", "--config", configPath)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "from-config") {
		t.Errorf("command output = %q, want the configured environment value", stderr)
	}
}

func TestCLI_Build_DryRun(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run(t, "build", "app", "--dry-run")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(env.installDir, "app.txt")); !os.IsNotExist(err) {
		t.Error("dry run executed a command")
	}
}

func TestCLI_Build_UnknownDefinition(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run(t, "build", "nginx")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "nginx") {
		t.Errorf("stderr = %q, want unknown name", stderr)
	}
}

func TestCLI_Plan(t *testing.T) {
	t.Setenv("APP_TAG", "")
	env := newTestEnv(t)

	stdout, stderr, code := env.run(t, "plan", "app")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	wantLines := []string{
		"1. base 1.0",
		"2. app main",
		"$ mkdir -p " + filepath.Join(env.installDir, "embedded", "bin"),
		"$ sh -c echo app-main > " + env.installDir + "/app.txt",
	}
	for _, want := range wantLines {
		if !strings.Contains(stdout, want) {
			t.Errorf("plan output missing %q:\n%s", want, stdout)
		}
	}
	if _, err := os.Stat(env.installDir); !os.IsNotExist(err) {
		t.Error("plan created the install dir")
	}
}

func TestCLI_List(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, code := env.run(t, "list")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, name := range []string{"app:", "base:", "broken:", "depends on base"} {
		if !strings.Contains(stdout, name) {
			t.Errorf("list output missing %q:\n%s", name, stdout)
		}
	}
}

func TestCLI_Show(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, code := env.run(t, "show", "app", "--version-policy", "literal-wins")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"Version:      main", "Source:       git:https://example.com/app.git", "Dependencies: base"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("show output missing %q:\n%s", want, stdout)
		}
	}
}

func TestCLI_InvalidVersionPolicy(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run(t, "show", "app", "--version-policy", "newest")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "unknown version policy") {
		t.Errorf("stderr = %q, want policy error", stderr)
	}
}

func TestCLI_VerifyRequiresKeyring(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run(t, "verify", filepath.Join(env.softwareDir, "app.yml"))
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "--keyring-path is required") {
		t.Errorf("stderr = %q, want keyring error", stderr)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "plain error", err: errors.New("boom"), want: 1},
		{name: "command failed", err: &entities.CommandFailedError{ExitCode: 42}, want: 42},
		{name: "command never started", err: &entities.CommandFailedError{ExitCode: -1}, want: 1},
		{name: "missing version", err: &entities.MissingVersionError{Definition: "app"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
