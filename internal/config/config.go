// Package config loads omnibuild configuration from defaults, an optional
// config file, OMNIBUILD_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ochairo/omnibuild/internal/domain/entities"
	"github.com/ochairo/omnibuild/internal/domain/interfaces/services"
)

// EnvPrefix is the prefix of environment variables that override configuration keys
const EnvPrefix = "OMNIBUILD"

// Config holds the settings of a build run
type Config struct {
	SoftwareDir      string            `mapstructure:"software_dir"`
	InstallDir       string            `mapstructure:"install_dir"`
	ProjectRoot      string            `mapstructure:"project_root"`
	VersionPolicy    string            `mapstructure:"version_policy"`
	TimeoutMinutes   int               `mapstructure:"timeout_minutes"`
	DryRun           bool              `mapstructure:"dry_run"`
	SkipDependencies bool              `mapstructure:"skip_dependencies"`
	LogLevel         string            `mapstructure:"log_level"`
	LogFormat        string            `mapstructure:"log_format"`
	VerifySignatures bool              `mapstructure:"verify_signatures"`
	KeyringPath      string            `mapstructure:"keyring_path"`
	Environment      map[string]string `mapstructure:"environment"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		SoftwareDir:    "config/software",
		InstallDir:     "/opt/restservice",
		ProjectRoot:    "build",
		VersionPolicy:  string(entities.VersionPolicyEnvWins),
		TimeoutMinutes: 30,
		LogLevel:       "info",
		LogFormat:      "console",
		Environment:    map[string]string{},
	}
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	ConfigFile string         // Optional YAML or TOML file
	Flags      *pflag.FlagSet // Flags bound by their key name, e.g. --install_dir or --install-dir
}

// Load builds a Config from defaults, the config file, environment and flags,
// in increasing order of precedence
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("software_dir", defaults.SoftwareDir)
	v.SetDefault("install_dir", defaults.InstallDir)
	v.SetDefault("project_root", defaults.ProjectRoot)
	v.SetDefault("version_policy", defaults.VersionPolicy)
	v.SetDefault("timeout_minutes", defaults.TimeoutMinutes)
	v.SetDefault("dry_run", defaults.DryRun)
	v.SetDefault("skip_dependencies", defaults.SkipDependencies)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("verify_signatures", defaults.VerifySignatures)
	v.SetDefault("keyring_path", defaults.KeyringPath)
	v.SetDefault("environment", defaults.Environment)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil {
				return
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if isKnownKey(key) {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Environment = normalizeEnvironment(cfg.Environment)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var knownKeys = map[string]bool{
	"software_dir": true, "install_dir": true, "project_root": true, "version_policy": true,
	"timeout_minutes": true, "dry_run": true, "skip_dependencies": true, "log_level": true,
	"log_format": true, "verify_signatures": true, "keyring_path": true,
}

func isKnownKey(key string) bool {
	return knownKeys[key]
}

// normalizeEnvironment upper-cases keys; viper folds map keys to lower case
func normalizeEnvironment(env map[string]string) map[string]string {
	normalized := make(map[string]string, len(env))
	for k, v := range env {
		normalized[strings.ToUpper(k)] = v
	}
	return normalized
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InstallDir) == "" {
		return fmt.Errorf("install_dir must not be empty")
	}
	if strings.TrimSpace(c.SoftwareDir) == "" {
		return fmt.Errorf("software_dir must not be empty")
	}
	if _, err := entities.ParseVersionPolicy(c.VersionPolicy); err != nil {
		return err
	}
	if c.TimeoutMinutes < 0 {
		return fmt.Errorf("timeout_minutes must not be negative")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if c.VerifySignatures && c.KeyringPath == "" {
		return fmt.Errorf("keyring_path is required when verify_signatures is enabled")
	}
	return nil
}

// Policy returns the configured version policy
func (c *Config) Policy() entities.VersionPolicy {
	policy, err := entities.ParseVersionPolicy(c.VersionPolicy)
	if err != nil {
		return entities.VersionPolicyEnvWins
	}
	return policy
}

// Timeout returns the per-command timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// Lookup returns the variable lookup handed to the definition loader.
// Values from the environment section take precedence over the process environment
// and are matched case-insensitively.
func (c *Config) Lookup() services.LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := c.Environment[strings.ToUpper(key)]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	}
}
