package main

import (
	"github.com/spf13/cobra"

	"github.com/ochairo/omnibuild/internal/config"
	"github.com/ochairo/omnibuild/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/omnibuild/internal/domain-orchestrators"
	"github.com/ochairo/omnibuild/internal/domain/interfaces"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/services"
	domainservices "github.com/ochairo/omnibuild/internal/domain/services"
	"github.com/ochairo/omnibuild/internal/external-adapters/filesystem"
	zlog "github.com/ochairo/omnibuild/internal/external-adapters/zerolog"
)

// app holds the components wired for one CLI invocation
type app struct {
	cfg          *config.Config
	logger       interfaces.Logger
	repo         *filesystem.DefinitionRepository
	orchestrator *orchestrators.BuildOrchestrator
}

func newApp(cmd *cobra.Command) (*app, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}

	logger, err := zlog.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	repoOpts := []filesystem.Option{filesystem.WithLogger(logger)}
	if cfg.VerifySignatures {
		verifier, err := newSignatureVerifier(cfg.KeyringPath)
		if err != nil {
			return nil, err
		}
		repoOpts = append(repoOpts, filesystem.WithSignatureVerifier(verifier))
	}
	repo := filesystem.NewDefinitionRepository(cfg.SoftwareDir, repoOpts...)

	runner := gateways.NewCommandRunner(
		gateways.NewExecProcessExecutor(cmd.ErrOrStderr()),
		logger,
		gateways.CommandRunnerConfig{
			Timeout: cfg.Timeout(),
			DryRun:  cfg.DryRun,
			Env:     cfg.Environment,
		},
	)

	orch := orchestrators.NewBuildOrchestrator(
		repo,
		domainservices.NewDefinitionLoader(),
		domainservices.NewDependencyOrderer(repo),
		runner,
		orchestrators.BuildOrchestratorConfig{
			InstallDir:       cfg.InstallDir,
			ProjectRoot:      cfg.ProjectRoot,
			SkipDependencies: cfg.SkipDependencies,
			LoadOptions: services.LoadOptions{
				Lookup: cfg.Lookup(),
				Policy: cfg.Policy(),
			},
		},
		logger,
	)

	return &app{
		cfg:          cfg,
		logger:       logger,
		repo:         repo,
		orchestrator: orch,
	}, nil
}

func newSignatureVerifier(keyringPath string) (*gateways.SignatureVerifier, error) {
	verifier := gateways.NewSignatureVerifier()
	if err := verifier.ImportKeyring(keyringPath); err != nil {
		return nil, err
	}
	return verifier, nil
}
