// Package services defines interfaces for domain service contracts.
package services

import (
	"context"

	"github.com/ochairo/omnibuild/internal/domain/entities"
)

// LookupFunc reports the value of a named configuration variable and whether it is set
type LookupFunc func(key string) (string, bool)

// LoadOptions is the explicit configuration handed to the definition loader
type LoadOptions struct {
	Lookup LookupFunc
	Policy entities.VersionPolicy
}

// DefinitionLoader turns a declared definition into a buildable one
type DefinitionLoader interface {
	// Load resolves the version and normalizes the dependency list of spec
	Load(spec *entities.DefinitionSpec, opts LoadOptions) (*entities.SoftwareDefinition, error)

	// ResolveVersion applies the version policy to a version declaration
	ResolveVersion(name string, version entities.VersionSpec, opts LoadOptions) (string, error)
}

// DependencyOrderer computes the order in which definitions must be built
type DependencyOrderer interface {
	// Order returns root and all of its transitive dependencies, each
	// dependency placed before its dependents and root placed last
	Order(ctx context.Context, root string) ([]string, error)
}
