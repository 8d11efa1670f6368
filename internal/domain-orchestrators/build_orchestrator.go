// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/omnibuild/internal/domain-adapters/gateways"
	"github.com/ochairo/omnibuild/internal/domain/entities"
	"github.com/ochairo/omnibuild/internal/domain/interfaces"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/repositories"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/services"
)

// CommandRunner interface for running a definition's build commands
type CommandRunner interface {
	RunCommands(ctx context.Context, def *entities.SoftwareDefinition, bctx entities.BuildContext) (*gateways.RunReport, error)
}

// BuildOrchestrator coordinates loading, ordering and running software definitions
type BuildOrchestrator struct {
	defRepo     repositories.DefinitionRepository
	loader      services.DefinitionLoader
	orderer     services.DependencyOrderer
	runner      CommandRunner
	logger      interfaces.Logger
	installDir  string
	projectRoot string
	skipDeps    bool
	loadOpts    services.LoadOptions
}

// BuildOrchestratorConfig holds configuration for the orchestrator
type BuildOrchestratorConfig struct {
	InstallDir       string
	ProjectRoot      string
	SkipDependencies bool
	LoadOptions      services.LoadOptions
}

// NewBuildOrchestrator creates a new build orchestrator
func NewBuildOrchestrator(
	defRepo repositories.DefinitionRepository,
	loader services.DefinitionLoader,
	orderer services.DependencyOrderer,
	runner CommandRunner,
	config BuildOrchestratorConfig,
	logger interfaces.Logger,
) *BuildOrchestrator {
	projectRoot := config.ProjectRoot
	if projectRoot == "" {
		projectRoot = "build"
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &BuildOrchestrator{
		defRepo:     defRepo,
		loader:      loader,
		orderer:     orderer,
		runner:      runner,
		logger:      logger,
		installDir:  config.InstallDir,
		projectRoot: projectRoot,
		skipDeps:    config.SkipDependencies,
		loadOpts:    config.LoadOptions,
	}
}

// DefinitionResult records the outcome of building one definition
type DefinitionResult struct {
	Definition *entities.SoftwareDefinition
	Context    entities.BuildContext
	Report     *gateways.RunReport
	Duration   time.Duration
}

// BuildResult contains the result of a build operation
type BuildResult struct {
	Root          string
	Order         []string
	Definitions   []*DefinitionResult
	TotalDuration time.Duration
	Success       bool
	Error         error
}

// PlannedDefinition is a loaded definition with its commands expanded
type PlannedDefinition struct {
	Definition *entities.SoftwareDefinition
	Context    entities.BuildContext
	Commands   []entities.BuildCommand
}

// Build builds root after all of its dependencies. The first error aborts the run.
func (o *BuildOrchestrator) Build(ctx context.Context, root string) (*BuildResult, error) {
	startTime := time.Now()
	result := &BuildResult{Root: root}

	// Step 1: Compute build order
	order, err := o.buildOrder(ctx, root)
	if err != nil {
		result.Error = err
		return result, result.Error
	}
	result.Order = order

	o.logger.Info("build order resolved",
		interfaces.F("root", root),
		interfaces.F("order", order),
	)

	// Step 2: Load and run each definition in order
	for _, name := range order {
		defStart := time.Now()

		def, err := o.loadDefinition(ctx, name)
		if err != nil {
			result.Error = err
			return result, result.Error
		}

		bctx, err := o.buildContext(def.Name)
		if err != nil {
			result.Error = err
			return result, result.Error
		}
		if err := o.prepareDirectories(bctx); err != nil {
			result.Error = err
			return result, result.Error
		}

		o.logger.Info("building software",
			interfaces.F("software", def.Name),
			interfaces.F("version", def.Version),
			interfaces.F("source", def.Source.String()),
		)

		report, err := o.runner.RunCommands(ctx, def, bctx)
		result.Definitions = append(result.Definitions, &DefinitionResult{
			Definition: def,
			Context:    bctx,
			Report:     report,
			Duration:   time.Since(defStart),
		})
		if err != nil {
			result.Error = err
			return result, result.Error
		}
	}

	result.Success = true
	result.TotalDuration = time.Since(startTime)
	return result, nil
}

// Plan loads root and its dependencies in build order and expands their
// commands without executing anything
func (o *BuildOrchestrator) Plan(ctx context.Context, root string) ([]*PlannedDefinition, error) {
	order, err := o.buildOrder(ctx, root)
	if err != nil {
		return nil, err
	}

	plan := make([]*PlannedDefinition, 0, len(order))
	for _, name := range order {
		def, err := o.loadDefinition(ctx, name)
		if err != nil {
			return nil, err
		}

		bctx, err := o.buildContext(def.Name)
		if err != nil {
			return nil, err
		}
		commands, err := gateways.ExpandCommands(def, bctx)
		if err != nil {
			return nil, err
		}

		plan = append(plan, &PlannedDefinition{
			Definition: def,
			Context:    bctx,
			Commands:   commands,
		})
	}
	return plan, nil
}

// Resolve loads a single definition without its dependencies
func (o *BuildOrchestrator) Resolve(ctx context.Context, name string) (*entities.SoftwareDefinition, error) {
	return o.loadDefinition(ctx, name)
}

func (o *BuildOrchestrator) buildOrder(ctx context.Context, root string) ([]string, error) {
	if o.skipDeps {
		return []string{root}, nil
	}
	return o.orderer.Order(ctx, root)
}

func (o *BuildOrchestrator) loadDefinition(ctx context.Context, name string) (*entities.SoftwareDefinition, error) {
	spec, err := o.defRepo.GetDefinition(ctx, name)
	if err != nil {
		if errors.Is(err, repositories.ErrDefinitionNotFound) {
			return nil, &entities.UnknownDependencyError{Name: name}
		}
		return nil, fmt.Errorf("failed to get definition %s: %w", name, err)
	}

	def, err := o.loader.Load(spec, o.loadOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition %s: %w", name, err)
	}
	return def, nil
}

// buildContext returns absolute directories for name. Commands run inside
// ProjectDir, so relative placeholder values would resolve against it.
func (o *BuildOrchestrator) buildContext(name string) (entities.BuildContext, error) {
	bctx := entities.BuildContext{}
	if o.installDir != "" {
		installDir, err := filepath.Abs(o.installDir)
		if err != nil {
			return bctx, fmt.Errorf("failed to resolve install dir %s: %w", o.installDir, err)
		}
		bctx.InstallDir = installDir
	}

	projectRoot, err := filepath.Abs(o.projectRoot)
	if err != nil {
		return bctx, fmt.Errorf("failed to resolve project root %s: %w", o.projectRoot, err)
	}
	bctx.ProjectDir = filepath.Join(projectRoot, name)
	return bctx, nil
}

func (o *BuildOrchestrator) prepareDirectories(bctx entities.BuildContext) error {
	for _, dir := range []string{bctx.InstallDir, bctx.ProjectDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetBuildSummary returns a human-readable summary of the build
func (r *BuildResult) GetBuildSummary() string {
	if !r.Success {
		return fmt.Sprintf("Build failed: %v", r.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Build successful!\nRoot: %s\nOrder: %s\n", r.Root, strings.Join(r.Order, " -> "))
	for _, d := range r.Definitions {
		commands := 0
		dryRun := ""
		if d.Report != nil {
			commands = len(d.Report.Executed)
			if d.Report.DryRun {
				dryRun = " (dry run)"
			}
		}
		fmt.Fprintf(&b, "  %s %s: %d commands in %v%s\n",
			d.Definition.Name, d.Definition.Version, commands, d.Duration.Round(time.Millisecond), dryRun)
	}
	fmt.Fprintf(&b, "Total: %v", r.TotalDuration.Round(time.Millisecond))
	return b.String()
}
