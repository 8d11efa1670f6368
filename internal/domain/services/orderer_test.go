package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/ochairo/omnibuild/internal/domain/entities"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/repositories"
)

// mockDefinitionRepository is an in-memory registry keyed by name
type mockDefinitionRepository struct {
	specs map[string]*entities.DefinitionSpec
	err   error
}

func newMockRepository(deps map[string][]string) *mockDefinitionRepository {
	specs := make(map[string]*entities.DefinitionSpec, len(deps))
	for name, d := range deps {
		specs[name] = &entities.DefinitionSpec{Name: name, Dependencies: d}
	}
	return &mockDefinitionRepository{specs: specs}
}

func (m *mockDefinitionRepository) GetDefinition(_ context.Context, name string) (*entities.DefinitionSpec, error) {
	if m.err != nil {
		return nil, m.err
	}
	spec, ok := m.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrDefinitionNotFound, name)
	}
	return spec, nil
}

func (m *mockDefinitionRepository) ListDefinitions(_ context.Context) ([]*entities.DefinitionSpec, error) {
	return nil, errors.New("not implemented")
}

func TestDependencyOrderer_Order(t *testing.T) {
	tests := []struct {
		name string
		deps map[string][]string
		root string
		want []string
	}{
		{
			name: "restservice after python and pip",
			deps: map[string][]string{
				"restservice": {"python", "pip"},
				"python":      nil,
				"pip":         nil,
			},
			root: "restservice",
			want: []string{"python", "pip", "restservice"},
		},
		{
			name: "transitive dependency is not repeated",
			deps: map[string][]string{
				"restservice": {"python", "pip"},
				"python":      nil,
				"pip":         {"python"},
			},
			root: "restservice",
			want: []string{"python", "pip", "restservice"},
		},
		{
			name: "declaration order wins over alphabetical order",
			deps: map[string][]string{
				"app":     {"zlib", "openssl", "zlib"},
				"zlib":    nil,
				"openssl": {"zlib"},
			},
			root: "app",
			want: []string{"zlib", "openssl", "app"},
		},
		{
			name: "no dependencies",
			deps: map[string][]string{"python": nil},
			root: "python",
			want: []string{"python"},
		},
		{
			name: "diamond",
			deps: map[string][]string{
				"a": {"b", "c"},
				"b": {"d"},
				"c": {"d"},
				"d": nil,
			},
			root: "a",
			want: []string{"d", "b", "c", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderer := NewDependencyOrderer(newMockRepository(tt.deps))
			got, err := orderer.Order(context.Background(), tt.root)
			if err != nil {
				t.Fatalf("Order() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Order() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDependencyOrderer_UnknownDependency(t *testing.T) {
	orderer := NewDependencyOrderer(newMockRepository(map[string][]string{
		"restservice": {"python", "pip"},
		"python":      nil,
	}))

	_, err := orderer.Order(context.Background(), "restservice")

	var unknown *entities.UnknownDependencyError
	if !errors.As(err, &unknown) {
		t.Fatalf("Order() error = %v, want *UnknownDependencyError", err)
	}
	if unknown.Name != "pip" || unknown.RequiredBy != "restservice" {
		t.Errorf("UnknownDependencyError = %+v, want pip required by restservice", unknown)
	}
}

func TestDependencyOrderer_UnknownRoot(t *testing.T) {
	orderer := NewDependencyOrderer(newMockRepository(nil))

	_, err := orderer.Order(context.Background(), "restservice")

	var unknown *entities.UnknownDependencyError
	if !errors.As(err, &unknown) {
		t.Fatalf("Order() error = %v, want *UnknownDependencyError", err)
	}
	if unknown.RequiredBy != "" {
		t.Errorf("RequiredBy = %q, want empty for the root", unknown.RequiredBy)
	}
}

func TestDependencyOrderer_Cycle(t *testing.T) {
	orderer := NewDependencyOrderer(newMockRepository(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}))

	_, err := orderer.Order(context.Background(), "a")

	var cycle *entities.DependencyCycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("Order() error = %v, want *DependencyCycleError", err)
	}
	want := []string{"a", "b", "c", "a"}
	if !slices.Equal(cycle.Cycle, want) {
		t.Errorf("Cycle = %v, want %v", cycle.Cycle, want)
	}
}

func TestDependencyOrderer_RegistryError(t *testing.T) {
	orderer := NewDependencyOrderer(&mockDefinitionRepository{err: errors.New("disk on fire")})

	_, err := orderer.Order(context.Background(), "a")
	if err == nil {
		t.Fatal("Order() should have returned an error")
	}

	var unknown *entities.UnknownDependencyError
	if errors.As(err, &unknown) {
		t.Errorf("registry failure should not be reported as unknown dependency: %v", err)
	}
}

func TestDependencyOrderer_Canceled(t *testing.T) {
	orderer := NewDependencyOrderer(newMockRepository(map[string][]string{"a": nil}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := orderer.Order(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Order() error = %v, want context.Canceled", err)
	}
}
