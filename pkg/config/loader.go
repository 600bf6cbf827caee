package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point used by cmd/compintel.
//
// Steps performed:
//  1. Load a .env file from configDir, if present (non-fatal if absent)
//  2. Load pipeline.yaml from configDir
//  3. Expand environment variable references
//  4. Parse YAML into Config
//  5. Apply system-wide defaults for unset fields
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env file", "path", envPath, "error", err)
	}

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	applyDefaults(cfg)

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized successfully",
		"verticals", len(cfg.Verticals),
		"max_competitors", cfg.Budgets.MaxCompetitors,
		"dry_run", cfg.DryRun)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	path := filepath.Join(configDir, "pipeline.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewLoadError("pipeline.yaml", fmt.Errorf("%w: %s", ErrConfigNotFound, path))
		}
		return nil, NewLoadError("pipeline.yaml", err)
	}

	// Expand environment variable references using {{.VAR}} template syntax.
	// ExpandEnv passes through original data on parse/execute errors, letting
	// the YAML parser below fail with a clearer message instead.
	data = ExpandEnv(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewLoadError("pipeline.yaml", fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}
	cfg.configDir = configDir

	return &cfg, nil
}
