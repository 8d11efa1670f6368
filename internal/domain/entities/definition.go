// Package entities defines core domain models and data structures.
package entities

import (
	"fmt"
	"strings"
)

// DefinitionSpec represents a software definition as declared in a definition file,
// before its version has been resolved
type DefinitionSpec struct {
	Name         string
	Description  string
	Version      VersionSpec
	Source       SourceSpec
	Dependencies []string
	Commands     []BuildCommand
	Origin       string // Path of the file the definition was read from
}

// VersionSpec describes where a definition's default version comes from
type VersionSpec struct {
	Env     string // Environment variable holding the version, e.g. CORE_TAG_NAME
	Literal string // Hardcoded version declared in the definition
}

// SourceSpec represents the declared source location. Fetching is done by
// an external collaborator; the location is only recorded.
type SourceSpec struct {
	Git  string
	URL  string
	Path string
}

// String returns a human-readable form of the source reference
func (s SourceSpec) String() string {
	switch {
	case s.Git != "":
		return "git:" + s.Git
	case s.URL != "":
		return "url:" + s.URL
	case s.Path != "":
		return "path:" + s.Path
	default:
		return ""
	}
}

// SoftwareDefinition is a definition with its version resolved, ready to be built
type SoftwareDefinition struct {
	Name         string
	Version      string
	Source       SourceSpec
	Dependencies []string
	Commands     []BuildCommand
}

// BuildCommand is a single install step: a program and its argument list.
// Placeholders such as ${install_dir} are expanded at run time, never by a shell.
type BuildCommand struct {
	Executable string
	Args       []string
}

// String renders the command for logs and error messages
func (c BuildCommand) String() string {
	if len(c.Args) == 0 {
		return c.Executable
	}
	return c.Executable + " " + strings.Join(c.Args, " ")
}

// BuildContext holds the directories a definition is built against
type BuildContext struct {
	InstallDir string
	ProjectDir string
}

// VersionPolicy selects which version source is authoritative when a
// definition declares both an environment variable and a literal
type VersionPolicy string

const (
	// VersionPolicyEnvWins uses the environment value and falls back to the literal
	VersionPolicyEnvWins VersionPolicy = "env-wins"
	// VersionPolicyLiteralWins uses the literal and falls back to the environment value
	VersionPolicyLiteralWins VersionPolicy = "literal-wins"
)

// ParseVersionPolicy converts a configuration string into a VersionPolicy
func ParseVersionPolicy(s string) (VersionPolicy, error) {
	switch VersionPolicy(s) {
	case "":
		return VersionPolicyEnvWins, nil
	case VersionPolicyEnvWins, VersionPolicyLiteralWins:
		return VersionPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown version policy %q (expected %s or %s)",
			s, VersionPolicyEnvWins, VersionPolicyLiteralWins)
	}
}
