// Package yaml provides YAML-based software definition parsing.
package yaml

import (
	"fmt"

	"github.com/ochairo/omnibuild/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlDefinition represents the raw YAML structure
type yamlDefinition struct {
	Name           string      `yaml:"name"`
	Description    string      `yaml:"description"`
	DefaultVersion yamlVersion `yaml:"default_version"`
	Dependencies   []string    `yaml:"dependencies"`
	Source         yamlSource  `yaml:"source"`
	Build          [][]string  `yaml:"build"`
}

type yamlVersion struct {
	Env     string `yaml:"env"`
	Literal string `yaml:"literal"`
}

// UnmarshalYAML accepts either a bare literal or an {env, literal} mapping
func (v *yamlVersion) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&v.Literal)
	}

	type plain yamlVersion
	return node.Decode((*plain)(v))
}

type yamlSource struct {
	Git  string `yaml:"git"`
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

// DefinitionParser parses YAML software definition files
type DefinitionParser struct{}

// NewDefinitionParser creates a new YAML parser
func NewDefinitionParser() *DefinitionParser {
	return &DefinitionParser{}
}

// Parse parses YAML bytes into a DefinitionSpec
func (p *DefinitionParser) Parse(data []byte) (*entities.DefinitionSpec, error) {
	var yamlDef yamlDefinition
	if err := yaml.Unmarshal(data, &yamlDef); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if yamlDef.Name == "" {
		return nil, fmt.Errorf("definition must have a name")
	}

	commands, err := convertBuild(yamlDef.Build)
	if err != nil {
		return nil, err
	}

	return &entities.DefinitionSpec{
		Name:        yamlDef.Name,
		Description: yamlDef.Description,
		Version: entities.VersionSpec{
			Env:     yamlDef.DefaultVersion.Env,
			Literal: yamlDef.DefaultVersion.Literal,
		},
		Source: entities.SourceSpec{
			Git:  yamlDef.Source.Git,
			URL:  yamlDef.Source.URL,
			Path: yamlDef.Source.Path,
		},
		Dependencies: yamlDef.Dependencies,
		Commands:     commands,
	}, nil
}

func convertBuild(build [][]string) ([]entities.BuildCommand, error) {
	commands := make([]entities.BuildCommand, 0, len(build))
	for i, parts := range build {
		if len(parts) == 0 || parts[0] == "" {
			return nil, fmt.Errorf("build command #%d is empty", i+1)
		}
		commands = append(commands, entities.BuildCommand{
			Executable: parts[0],
			Args:       parts[1:],
		})
	}
	return commands, nil
}
