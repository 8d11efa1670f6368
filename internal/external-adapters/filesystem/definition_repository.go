// Package filesystem provides a software definition registry backed by a directory
// of YAML (.yml, .yaml) and Starlark (.star) definition files.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/omnibuild/internal/domain/entities"
	"github.com/ochairo/omnibuild/internal/domain/interfaces"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/gateways"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/repositories"
	"github.com/ochairo/omnibuild/internal/external-adapters/starlark"
	"github.com/ochairo/omnibuild/internal/external-adapters/yaml"
)

// definitionExtensions lists the recognised file extensions in lookup order
var definitionExtensions = []string{".star", ".yml", ".yaml"}

// fileParser parses the content of one definition file
type fileParser func(filePath string, data []byte) (*entities.DefinitionSpec, error)

// DefinitionRepository implements repositories.DefinitionRepository over a directory.
// Definitions are looked up as <dir>/<name>.<ext>.
type DefinitionRepository struct {
	softwareDir string
	parsers     map[string]fileParser
	verifier    gateways.SignatureGateway
	logger      interfaces.Logger
}

// Option configures a DefinitionRepository
type Option func(*DefinitionRepository)

// WithSignatureVerifier requires every definition file to carry a valid detached signature
func WithSignatureVerifier(verifier gateways.SignatureGateway) Option {
	return func(r *DefinitionRepository) {
		r.verifier = verifier
	}
}

// WithLogger sets the logger used for warnings and Starlark print() output
func WithLogger(logger interfaces.Logger) Option {
	return func(r *DefinitionRepository) {
		r.logger = logger
	}
}

// NewDefinitionRepository creates a new directory-backed definition repository
func NewDefinitionRepository(softwareDir string, opts ...Option) *DefinitionRepository {
	r := &DefinitionRepository{
		softwareDir: softwareDir,
		logger:      &interfaces.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}

	starParser := starlark.NewDefinitionParser(r.logger)
	yamlParser := yaml.NewDefinitionParser()
	parseYAML := func(filePath string, data []byte) (*entities.DefinitionSpec, error) {
		spec, err := yamlParser.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filePath, err)
		}
		return spec, nil
	}
	r.parsers = map[string]fileParser{
		".star": starParser.Parse,
		".yml":  parseYAML,
		".yaml": parseYAML,
	}
	return r
}

// GetDefinition retrieves a software definition by name
func (r *DefinitionRepository) GetDefinition(ctx context.Context, name string) (*entities.DefinitionSpec, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid definition name %q", name)
	}

	for _, ext := range definitionExtensions {
		filePath := filepath.Join(r.softwareDir, name+ext)
		if _, err := os.Stat(filePath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to check %s: %w", filePath, err)
		}

		spec, err := r.parseFile(ctx, filePath)
		if err != nil {
			return nil, err
		}
		if spec.Name != name {
			return nil, fmt.Errorf("%s declares name %q, expected %q", filePath, spec.Name, name)
		}
		return spec, nil
	}

	return nil, fmt.Errorf("%w: %s", repositories.ErrDefinitionNotFound, name)
}

// ListDefinitions returns all definitions in the directory sorted by name.
// Files that fail to parse are skipped with a warning.
func (r *DefinitionRepository) ListDefinitions(ctx context.Context) ([]*entities.DefinitionSpec, error) {
	entries, err := os.ReadDir(r.softwareDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read software directory: %w", err)
	}

	specs := make([]*entities.DefinitionSpec, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := r.parsers[filepath.Ext(entry.Name())]; !ok {
			continue
		}

		filePath := filepath.Join(r.softwareDir, entry.Name())
		spec, err := r.parseFile(ctx, filePath)
		if err != nil {
			// Log warning but continue processing other files
			r.logger.Warn("skipping definition", interfaces.F("file", entry.Name()), interfaces.Err(err))
			continue
		}

		specs = append(specs, spec)
	}

	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Name < specs[j].Name
	})
	return specs, nil
}

// parseFile reads filePath once; the signature is checked against the same
// bytes that are parsed
func (r *DefinitionRepository) parseFile(ctx context.Context, filePath string) (*entities.DefinitionSpec, error) {
	parse, ok := r.parsers[filepath.Ext(filePath)]
	if !ok {
		return nil, fmt.Errorf("unsupported definition format: %s", filePath)
	}

	//nolint:gosec // G304: filePath is a definition path from the software directory
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	if r.verifier != nil {
		if err := r.verifier.VerifyDefinition(ctx, filePath, data); err != nil {
			return nil, err
		}
	}

	spec, err := parse(filePath, data)
	if err != nil {
		return nil, err
	}
	spec.Origin = filePath
	return spec, nil
}
