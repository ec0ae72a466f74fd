// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-jwx.
//
// go-jwx is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-jwx/internal/config"
	"github.com/jeremyhahn/go-jwx/pkg/logging"
	"github.com/jeremyhahn/go-jwx/pkg/metrics"
	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/jeremyhahn/go-jwx/pkg/provider/pkcs11"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the YAML configuration file. Empty means
	// defaults plus environment overrides.
	ConfigFile string

	// Backend overrides provider.backend (software, pkcs11, auto)
	Backend string

	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	// Verbose enables debug logging on stderr
	Verbose bool
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: string(OutputFormatText),
	}
}

// Environment is everything a command needs after flags and the
// configuration file have been resolved.
type Environment struct {
	Config  *config.Config
	Logger  *logging.Logger
	Factory *provider.Factory
}

// Load resolves the configuration file, the environment and the global
// flags, in increasing order of precedence.
func (c *Config) Load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.ConfigFile != "" {
		cfg, err = config.Load(c.ConfigFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}
	if c.Backend != "" {
		cfg.Provider.Backend = c.Backend
	}
	if c.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// Environment loads the configuration, registers configured native
// backends and builds the key factory. Logs go to stderr.
func (c *Config) Environment(stderr io.Writer) (*Environment, error) {
	cfg, err := c.Load()
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger(stderr)

	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	if err := registerBackends(cfg, logger); err != nil {
		return nil, err
	}

	opts := append(cfg.FactoryOptions(), provider.WithLogger(logger))
	return &Environment{
		Config:  cfg,
		Logger:  logger,
		Factory: provider.NewFactory(opts...),
	}, nil
}

// registerBackends registers the PKCS#11 backend when configured. A token
// that fails to open is fatal only when pkcs11 was selected explicitly;
// under "auto" the factory falls back to software.
func registerBackends(cfg *config.Config, logger *logging.Logger) error {
	if cfg.Provider.PKCS11 == nil {
		return nil
	}
	explicit := cfg.Provider.Backend == pkcs11.Name

	b, err := pkcs11.New(cfg.Provider.PKCS11)
	if err != nil {
		if explicit {
			return fmt.Errorf("failed to open pkcs11 backend: %w", err)
		}
		logger.Warnf("pkcs11 backend unavailable, using software: %v", err)
		return nil
	}
	if err := provider.Register(b); err != nil && !errors.Is(err, provider.ErrDuplicateBackend) {
		return fmt.Errorf("failed to register pkcs11 backend: %w", err)
	}
	logger.Debug("registered backend", "backend", b.Name(), "config", cfg.Provider.PKCS11.String())
	return nil
}
