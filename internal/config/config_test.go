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
	"os"
	"path/filepath"
	"testing"

	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/jeremyhahn/go-jwx/pkg/provider/pkcs11"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

const validConfig = `
logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true

provider:
  backend: "software"
  rsa_bits: 3072

keys:
  signing:
    algorithm: "ES256"
    key_file: "/etc/jwx/signing.pem"
    password: "secret"
    flags: "exportable"
    kid: "sig-1"
  encryption:
    algorithm: "RSA-OAEP-256+A256GCM"
    certificate: "/etc/jwx/enc.p12"
    password: "changeit"
    flags: "persist,machine"

settings:
  issuer: "https://issuer.example.com"
  client.id: "jwx-client"
`

// clearEnv unsets every variable applyEnvOverrides reads for the duration
// of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvLogLevel, EnvLogFormat, EnvBackend, EnvPKCS11Library, EnvPKCS11Token, EnvPKCS11PIN} {
		t.Setenv(name, "")
	}
}

// TestLoad_Success tests successful loading of a valid config file
func TestLoad_Success(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(validConfig), 0600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
	if cfg.Provider.Backend != provider.BackendSoftware {
		t.Errorf("Backend = %q, want software", cfg.Provider.Backend)
	}
	if cfg.Provider.RSABits != 3072 {
		t.Errorf("RSABits = %d, want 3072", cfg.Provider.RSABits)
	}
	if cfg.Provider.PKCS11 != nil {
		t.Error("expected no pkcs11 section")
	}

	names := cfg.KeyNames()
	if len(names) != 2 || names[0] != "encryption" || names[1] != "signing" {
		t.Errorf("KeyNames() = %v", names)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	clearEnv(t)
	if _, err := Parse([]byte("logging: [unterminated")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected default logging: %+v", cfg.Logging)
	}
	if cfg.Provider.Backend != provider.BackendAuto {
		t.Errorf("Backend = %q, want auto", cfg.Provider.Backend)
	}
	if cfg.Provider.RSABits != provider.DefaultRSABits {
		t.Errorf("RSABits = %d", cfg.Provider.RSABits)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvBackend, "pkcs11")
	t.Setenv(EnvPKCS11Library, "/usr/lib/softhsm/libsofthsm2.so")
	t.Setenv(EnvPKCS11Token, "jwx")
	t.Setenv(EnvPKCS11PIN, "1234")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() failed: %v", err)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("logging overrides not applied: %+v", cfg.Logging)
	}
	if cfg.Provider.Backend != "pkcs11" {
		t.Errorf("Backend = %q", cfg.Provider.Backend)
	}
	p := cfg.Provider.PKCS11
	if p == nil {
		t.Fatal("expected pkcs11 section created from environment")
	}
	if p.Library != "/usr/lib/softhsm/libsofthsm2.so" || p.TokenLabel != "jwx" || p.PIN != "1234" {
		t.Errorf("unexpected pkcs11 config: %s", p)
	}
}

func TestApplyEnvOverrides_TokenWithoutSection(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPKCS11Token, "jwx")

	cfg := Default()
	applyEnvOverrides(cfg)
	if cfg.Provider.PKCS11 != nil {
		t.Error("token alone should not create a pkcs11 section")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"log format", func(c *Config) { c.Logging.Format = "console" }},
		{"empty backend", func(c *Config) { c.Provider.Backend = "" }},
		{"small rsa", func(c *Config) { c.Provider.RSABits = 1024 }},
		{"pkcs11 library", func(c *Config) {
			c.Provider.PKCS11 = &pkcs11.Config{TokenLabel: "jwx"}
		}},
		{"pkcs11 token", func(c *Config) {
			c.Provider.PKCS11 = &pkcs11.Config{Library: "/lib/p11.so"}
		}},
		{"key without source", func(c *Config) {
			c.Keys = map[string]KeyConfig{"k": {Algorithm: "RS256"}}
		}},
		{"key with two sources", func(c *Config) {
			c.Keys = map[string]KeyConfig{"k": {Algorithm: "RS256", KeyFile: "a", Certificate: "b"}}
		}},
		{"key algorithm", func(c *Config) {
			c.Keys = map[string]KeyConfig{"k": {Algorithm: "HS256", KeyFile: "a"}}
		}},
		{"key encryption pair", func(c *Config) {
			c.Keys = map[string]KeyConfig{"k": {Algorithm: "dir+A256GCM", KeyFile: "a"}}
		}},
		{"key flags", func(c *Config) {
			c.Keys = map[string]KeyConfig{"k": {Algorithm: "RS256", KeyFile: "a", Flags: "ephemeral"}}
		}},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() is invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestKeySource(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(validConfig))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	signing, err := cfg.KeySource("signing")
	if err != nil {
		t.Fatalf("KeySource(signing) failed: %v", err)
	}
	sig, enc, err := signing.ParseAlgorithm()
	if err != nil || sig != types.ECDSAP256 || enc != nil {
		t.Errorf("ParseAlgorithm() = %v, %v, %v", sig, enc, err)
	}
	if signing.StorageFlags() != provider.FlagExportable {
		t.Errorf("StorageFlags() = %s", signing.StorageFlags())
	}
	if signing.KeyID != "sig-1" {
		t.Errorf("KeyID = %q", signing.KeyID)
	}

	encryption, err := cfg.KeySource("encryption")
	if err != nil {
		t.Fatalf("KeySource(encryption) failed: %v", err)
	}
	sig, enc, err = encryption.ParseAlgorithm()
	if err != nil || sig != "" || enc == nil || *enc != types.RSAOAEP256A256GCM {
		t.Errorf("ParseAlgorithm() = %v, %v, %v", sig, enc, err)
	}
	flags := encryption.StorageFlags()
	if !flags.Has(provider.FlagPersistKeySet) || !flags.Has(provider.FlagMachineKeySet) || flags.Has(provider.FlagExportable) {
		t.Errorf("StorageFlags() = %s", flags)
	}

	if _, err := cfg.KeySource("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("KeySource(missing) = %v, want ErrKeyNotFound", err)
	}
}

func TestGet(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(validConfig))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if v, ok := cfg.Get("issuer"); !ok || v != "https://issuer.example.com" {
		t.Errorf("Get(issuer) = %q, %v", v, ok)
	}

	t.Setenv("JWX_SETTING_CLIENT_ID", "from-env")
	if v, ok := cfg.Get("client.id"); !ok || v != "jwx-client" {
		t.Errorf("settings should win over env: Get(client.id) = %q, %v", v, ok)
	}

	t.Setenv("JWX_SETTING_TOKEN_ENDPOINT", "https://issuer.example.com/token")
	if v, ok := cfg.Get("token-endpoint"); !ok || v != "https://issuer.example.com/token" {
		t.Errorf("Get(token-endpoint) = %q, %v", v, ok)
	}

	if _, ok := cfg.Get("absent"); ok {
		t.Error("Get(absent) should report false")
	}
}

func TestFactoryOptions(t *testing.T) {
	cfg := Default()
	cfg.Provider.Backend = provider.BackendSoftware
	cfg.Provider.RSABits = 3072

	f := provider.NewFactory(append(cfg.FactoryOptions(), provider.WithLogger(cfg.NewLogger(nil)))...)
	key, err := f.Generate(types.RSAPKCS1SHA256)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if key.Bits != 3072 {
		t.Errorf("Bits = %d, want 3072", key.Bits)
	}
	if key.Backend != provider.BackendSoftware {
		t.Errorf("Backend = %q", key.Backend)
	}
}
