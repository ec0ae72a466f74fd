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

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jeremyhahn/go-jwx/pkg/logging"
	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/jeremyhahn/go-jwx/pkg/provider/pkcs11"
	"github.com/jeremyhahn/go-jwx/pkg/types"
	"gopkg.in/yaml.v3"
)

// Environment variables applied on top of the configuration file.
const (
	EnvLogLevel      = "JWX_LOG_LEVEL"
	EnvLogFormat     = "JWX_LOG_FORMAT"
	EnvBackend       = "JWX_BACKEND"
	EnvPKCS11Library = "PKCS11_LIBRARY"
	EnvPKCS11Token   = "PKCS11_TOKEN"
	EnvPKCS11PIN     = "PKCS11_PIN"

	// EnvSettingPrefix prefixes per-setting fallbacks for Get, for example
	// JWX_SETTING_ISSUER for the "issuer" setting.
	EnvSettingPrefix = "JWX_SETTING_"
)

var (
	ErrInvalidConfig = errors.New("config: invalid configuration")
	ErrKeyNotFound   = errors.New("config: key not found")
)

// Accessor is the read side of the configuration that the engines' callers
// depend on: string settings looked up by name.
type Accessor interface {
	Get(key string) (string, bool)
}

// Config is the complete go-jwx configuration
type Config struct {
	Logging  LoggingConfig        `yaml:"logging"`
	Metrics  MetricsConfig        `yaml:"metrics"`
	Provider ProviderConfig       `yaml:"provider"`
	Keys     map[string]KeyConfig `yaml:"keys,omitempty"`
	Settings map[string]string    `yaml:"settings,omitempty"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls Prometheus collection
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ProviderConfig selects the key backend
type ProviderConfig struct {
	// Backend is a registered backend name, or "auto" to prefer the first
	// available native backend over software.
	Backend string `yaml:"backend"`

	// RSABits is the modulus length for generated RSA keys.
	RSABits int `yaml:"rsa_bits"`

	PKCS11 *pkcs11.Config `yaml:"pkcs11,omitempty"`
}

// KeyConfig names where a key comes from and how it is used. Exactly one
// of Certificate or KeyFile is set.
type KeyConfig struct {
	// Algorithm is a signature algorithm (RS256, ecdsa-p384, ...) or an
	// encryption pair in alg+enc form (RSA-OAEP+A256GCM).
	Algorithm   string `yaml:"algorithm"`
	Certificate string `yaml:"certificate,omitempty"`
	KeyFile     string `yaml:"key_file,omitempty"`
	Password    string `yaml:"password,omitempty"`
	Flags       string `yaml:"flags,omitempty"`
	KeyID       string `yaml:"kid,omitempty"`
	Type        string `yaml:"typ,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Provider: ProviderConfig{
			Backend: provider.BackendAuto,
			RSABits: provider.DefaultRSABits,
		},
	}
}

// Load reads configuration from a YAML file on top of Default and applies
// environment variable overrides
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies environment overrides and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv returns Default with environment overrides applied.
func FromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	// Logging
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv(EnvLogFormat); format != "" {
		cfg.Logging.Format = format
	}

	// Provider
	if backend := os.Getenv(EnvBackend); backend != "" {
		cfg.Provider.Backend = backend
	}

	// PKCS#11 settings create the section when the library is supplied
	if lib := os.Getenv(EnvPKCS11Library); lib != "" {
		if cfg.Provider.PKCS11 == nil {
			cfg.Provider.PKCS11 = &pkcs11.Config{}
		}
		cfg.Provider.PKCS11.Library = lib
	}
	if cfg.Provider.PKCS11 != nil {
		if token := os.Getenv(EnvPKCS11Token); token != "" {
			cfg.Provider.PKCS11.TokenLabel = token
		}
		if pin := os.Getenv(EnvPKCS11PIN); pin != "" {
			cfg.Provider.PKCS11.PIN = pin
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate logging level
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("%w: log level %q (must be debug, info, warn, error, or fatal)", ErrInvalidConfig, c.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("%w: log format %q (must be json or text)", ErrInvalidConfig, c.Logging.Format)
	}

	if c.Provider.Backend == "" {
		return fmt.Errorf("%w: provider backend must be specified", ErrInvalidConfig)
	}
	if c.Provider.RSABits != 0 && c.Provider.RSABits < 2048 {
		return fmt.Errorf("%w: rsa_bits %d is below 2048", ErrInvalidConfig, c.Provider.RSABits)
	}

	if p := c.Provider.PKCS11; p != nil {
		if p.Library == "" {
			return fmt.Errorf("%w: pkcs11 library is required", ErrInvalidConfig)
		}
		if p.TokenLabel == "" && p.Slot == nil {
			return fmt.Errorf("%w: pkcs11 token or slot is required", ErrInvalidConfig)
		}
	}

	for _, name := range c.KeyNames() {
		if err := c.Keys[name].validate(); err != nil {
			return fmt.Errorf("%w: key %q: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

func (k KeyConfig) validate() error {
	if k.Certificate == "" && k.KeyFile == "" {
		return errors.New("certificate or key_file is required")
	}
	if k.Certificate != "" && k.KeyFile != "" {
		return errors.New("certificate and key_file are mutually exclusive")
	}
	if _, _, err := k.ParseAlgorithm(); err != nil {
		return err
	}
	if _, err := provider.ParseStorageFlags(k.Flags); err != nil {
		return err
	}
	return nil
}

// ParseAlgorithm resolves Algorithm. Exactly one of the results is set:
// an alg+enc value is an encryption pair, anything else must be a
// signature algorithm.
func (k KeyConfig) ParseAlgorithm() (types.SignatureAlgorithm, *types.EncryptionAlgorithm, error) {
	if strings.Contains(k.Algorithm, "+") {
		enc, err := types.ParseEncryptionAlgorithm(k.Algorithm)
		if err != nil {
			return "", nil, err
		}
		return "", &enc, nil
	}
	sig, err := types.ParseSignatureAlgorithm(k.Algorithm)
	if err != nil {
		return "", nil, err
	}
	return sig, nil, nil
}

// StorageFlags parses Flags.
func (k KeyConfig) StorageFlags() provider.StorageFlags {
	flags, _ := provider.ParseStorageFlags(k.Flags)
	return flags
}

// KeyNames returns the configured key names in sorted order.
func (c *Config) KeyNames() []string {
	names := make([]string, 0, len(c.Keys))
	for name := range c.Keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KeySource returns the named key entry.
func (c *Config) KeySource(name string) (KeyConfig, error) {
	k, ok := c.Keys[name]
	if !ok {
		return KeyConfig{}, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	return k, nil
}

// Get returns a setting by name. The settings section wins; otherwise the
// JWX_SETTING_<KEY> environment variable is consulted, with the key upper
// cased and dots and dashes replaced by underscores.
func (c *Config) Get(key string) (string, bool) {
	if v, ok := c.Settings[key]; ok {
		return v, true
	}
	return os.LookupEnv(settingEnvName(key))
}

func settingEnvName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return EnvSettingPrefix + strings.ToUpper(r.Replace(key))
}

// FactoryOptions translates the provider and logging sections into
// provider.Factory options.
func (c *Config) FactoryOptions() []provider.Option {
	opts := []provider.Option{provider.WithBackend(c.Provider.Backend)}
	if c.Provider.RSABits != 0 {
		opts = append(opts, provider.WithRSABits(c.Provider.RSABits))
	}
	return opts
}

// NewLogger builds the logger described by the logging section.
func (c *Config) NewLogger(w io.Writer) *logging.Logger {
	return logging.New(c.Logging.Level, c.Logging.Format, w)
}

var _ Accessor = (*Config)(nil)
