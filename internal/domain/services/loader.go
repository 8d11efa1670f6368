// Package services implements domain business logic and use cases.
package services

import (
	"fmt"
	"strings"

	"github.com/ochairo/omnibuild/internal/domain/entities"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/services"
)

// definitionLoader implements DefinitionLoader. It reads configuration only
// through LoadOptions and has no side effects.
type definitionLoader struct{}

// NewDefinitionLoader creates a new definition loader
func NewDefinitionLoader() services.DefinitionLoader {
	return &definitionLoader{}
}

// Load resolves spec into a SoftwareDefinition
func (l *definitionLoader) Load(spec *entities.DefinitionSpec, opts services.LoadOptions) (*entities.SoftwareDefinition, error) {
	if spec == nil {
		return nil, fmt.Errorf("definition is nil")
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("definition must have a name")
	}

	version, err := l.ResolveVersion(spec.Name, spec.Version, opts)
	if err != nil {
		return nil, err
	}

	deps, err := normalizeDependencies(spec.Name, spec.Dependencies)
	if err != nil {
		return nil, err
	}

	commands := make([]entities.BuildCommand, 0, len(spec.Commands))
	for i, cmd := range spec.Commands {
		if strings.TrimSpace(cmd.Executable) == "" {
			return nil, fmt.Errorf("%s: command #%d has no executable", spec.Name, i+1)
		}
		commands = append(commands, entities.BuildCommand{
			Executable: cmd.Executable,
			Args:       append([]string(nil), cmd.Args...),
		})
	}

	return &entities.SoftwareDefinition{
		Name:         spec.Name,
		Version:      version,
		Source:       spec.Source,
		Dependencies: deps,
		Commands:     commands,
	}, nil
}

// ResolveVersion picks the authoritative version according to opts.Policy
func (l *definitionLoader) ResolveVersion(name string, version entities.VersionSpec, opts services.LoadOptions) (string, error) {
	policy, err := entities.ParseVersionPolicy(string(opts.Policy))
	if err != nil {
		return "", err
	}

	envValue := ""
	if version.Env != "" && opts.Lookup != nil {
		if v, ok := opts.Lookup(version.Env); ok {
			envValue = strings.TrimSpace(v)
		}
	}
	literal := strings.TrimSpace(version.Literal)

	var resolved string
	switch policy {
	case entities.VersionPolicyLiteralWins:
		resolved = firstNonEmpty(literal, envValue)
	default:
		resolved = firstNonEmpty(envValue, literal)
	}

	if resolved == "" {
		return "", &entities.MissingVersionError{Definition: name, Env: version.Env}
	}
	return resolved, nil
}

// normalizeDependencies drops duplicates, keeping the first declaration
func normalizeDependencies(name string, deps []string) ([]string, error) {
	seen := make(map[string]bool, len(deps))
	result := make([]string, 0, len(deps))
	for _, dep := range deps {
		dep = strings.TrimSpace(dep)
		if dep == "" {
			return nil, fmt.Errorf("%s: empty dependency name", name)
		}
		if dep == name {
			return nil, &entities.DependencyCycleError{Cycle: []string{name, name}}
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		result = append(result, dep)
	}
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
