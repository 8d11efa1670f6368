// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"
	"errors"

	"github.com/ochairo/omnibuild/internal/domain/entities"
)

// ErrDefinitionNotFound is returned when no definition with the requested name is registered
var ErrDefinitionNotFound = errors.New("software definition not found")

// DefinitionRepository defines the interface for accessing registered software definitions
type DefinitionRepository interface {
	// GetDefinition retrieves a software definition by name.
	// Returns an error wrapping ErrDefinitionNotFound if it is not registered.
	GetDefinition(ctx context.Context, name string) (*entities.DefinitionSpec, error)

	// ListDefinitions returns all registered software definitions sorted by name
	ListDefinitions(ctx context.Context) ([]*entities.DefinitionSpec, error)
}
