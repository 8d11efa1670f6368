package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ochairo/omnibuild/internal/domain/entities"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/repositories"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/services"
)

// dependencyOrderer implements DependencyOrderer with a depth-first walk over
// the registry. Dependencies are visited in declaration order, so the first
// declared dependency is built first.
type dependencyOrderer struct {
	registry repositories.DefinitionRepository
}

// NewDependencyOrderer creates a new dependency orderer backed by registry
func NewDependencyOrderer(registry repositories.DefinitionRepository) services.DependencyOrderer {
	return &dependencyOrderer{registry: registry}
}

type orderState struct {
	// done is false while a definition is on the current path, true once it is ordered
	done  map[string]bool
	path  []string
	order []string
}

// Order returns the build order ending with root
func (o *dependencyOrderer) Order(ctx context.Context, root string) ([]string, error) {
	state := &orderState{done: make(map[string]bool)}
	if err := o.visit(ctx, state, root, ""); err != nil {
		return nil, err
	}
	return state.order, nil
}

func (o *dependencyOrderer) visit(ctx context.Context, state *orderState, name, requiredBy string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if finished, ok := state.done[name]; ok {
		if finished {
			return nil
		}
		return &entities.DependencyCycleError{Cycle: cyclePath(state.path, name)}
	}

	spec, err := o.registry.GetDefinition(ctx, name)
	if err != nil {
		if errors.Is(err, repositories.ErrDefinitionNotFound) {
			return &entities.UnknownDependencyError{Name: name, RequiredBy: requiredBy}
		}
		return fmt.Errorf("failed to load definition %s: %w", name, err)
	}

	deps, err := normalizeDependencies(name, spec.Dependencies)
	if err != nil {
		return err
	}

	state.done[name] = false
	state.path = append(state.path, name)

	for _, dep := range deps {
		if err := o.visit(ctx, state, dep, name); err != nil {
			return err
		}
	}

	state.path = state.path[:len(state.path)-1]
	state.done[name] = true
	state.order = append(state.order, name)
	return nil
}

// cyclePath returns the part of path starting at name, closed with name again
func cyclePath(path []string, name string) []string {
	for i, p := range path {
		if p == name {
			cycle := append([]string(nil), path[i:]...)
			return append(cycle, name)
		}
	}
	return []string{name, name}
}
