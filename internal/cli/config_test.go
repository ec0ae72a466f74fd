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
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-jwx/internal/config"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// isolateEnv clears every environment override the CLI reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		config.EnvLogLevel, config.EnvLogFormat, config.EnvBackend,
		config.EnvPKCS11Library, config.EnvPKCS11Token, config.EnvPKCS11PIN,
	} {
		t.Setenv(name, "")
	}
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--backend", "software"}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, stdin, args...)
	if err != nil {
		t.Fatalf("jwx %s: %v", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(out)
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.OutputFormat != "text" {
		t.Errorf("OutputFormat = %v, want text", cfg.OutputFormat)
	}
	if cfg.Verbose {
		t.Error("Verbose should be false by default")
	}
	if cfg.Backend != "" {
		t.Errorf("Backend should be empty by default, got %v", cfg.Backend)
	}
}

func TestConfig_Load(t *testing.T) {
	isolateEnv(t)

	cfg := NewConfig()
	cfg.Backend = "software"
	cfg.Verbose = true

	loaded, err := cfg.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Provider.Backend != "software" {
		t.Errorf("Backend = %q, want software", loaded.Provider.Backend)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", loaded.Logging.Level)
	}

	cfg.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestVersionCommand(t *testing.T) {
	isolateEnv(t)

	out := mustRun(t, "", "version")
	if !strings.Contains(out, "jwx version") {
		t.Errorf("unexpected version output: %q", out)
	}

	out = mustRun(t, "", "-o", "json", "version")
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("version JSON: %v", err)
	}
	if v["version"] != Version {
		t.Errorf("version = %q", v["version"])
	}
}

func TestAlgorithmsCommand(t *testing.T) {
	isolateEnv(t)

	out := mustRun(t, "", "algorithms")
	for _, want := range []string{"rsa-pss-sha256", "PS256", "ES512", "dsa-sha1", "RSA-OAEP-256", "A128CBC-HS256"} {
		if !strings.Contains(out, want) {
			t.Errorf("algorithms output missing %q", want)
		}
	}

	out = mustRun(t, "", "-o", "json", "algorithms")
	var v struct {
		Signature []map[string]any `json:"signature"`
		KeyWrap   []string         `json:"key_management"`
		Content   []string         `json:"content_encryption"`
	}
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("algorithms JSON: %v", err)
	}
	if len(v.Signature) != len(types.SignatureAlgorithms()) || len(v.KeyWrap) != 3 || len(v.Content) != 6 {
		t.Errorf("unexpected counts: %d %d %d", len(v.Signature), len(v.KeyWrap), len(v.Content))
	}
}

func TestProvidersCommand(t *testing.T) {
	isolateEnv(t)

	out := mustRun(t, "", "-o", "json", "providers")
	var v struct {
		Backends []struct {
			Name      string `json:"name"`
			Available bool   `json:"available"`
		} `json:"backends"`
		Arch string `json:"arch"`
	}
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("providers JSON: %v", err)
	}
	found := false
	for _, b := range v.Backends {
		if b.Name == "software" && b.Available {
			found = true
		}
	}
	if !found {
		t.Errorf("software backend not listed: %s", out)
	}
	if v.Arch == "" {
		t.Error("arch should be reported")
	}
}

func TestJWSSignVerify(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "es256.pem")
	pubPath := filepath.Join(dir, "es256.pub.pem")

	mustRun(t, "", "keygen", "--alg", "ES256", "--out", keyPath, "--public-out", pubPath)
	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("key file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("key file mode = %v, want 0600", info.Mode().Perm())
	}

	token := mustRun(t, "", "jws", "sign", "--key", keyPath, "--alg", "ES256", "--kid", "cli-1", `{"sub":"alice"}`)
	if n := strings.Count(token, "."); n != 2 {
		t.Fatalf("token has %d dots: %q", n, token)
	}

	// verify with the public key only
	payload := mustRun(t, "", "jws", "verify", "--key", pubPath, "--alg", "ES256", token)
	if payload != `{"sub":"alice"}` {
		t.Errorf("payload = %q", payload)
	}

	// token from stdin with trailing newline
	payload = mustRun(t, token+"\n", "jws", "verify", "--key", pubPath, "--alg", "ES256")
	if payload != `{"sub":"alice"}` {
		t.Errorf("payload from stdin = %q", payload)
	}

	tampered := token[:len(token)-4] + "AAAA"
	if _, err := run(t, "", "jws", "verify", "--key", pubPath, "--alg", "ES256", tampered); err == nil {
		t.Error("expected tampered token to fail")
	}

	_, err = run(t, "", "jws", "verify", "--key", pubPath, "--alg", "ES384", token)
	if !errors.Is(err, types.ErrUnsupportedAlgorithm) {
		t.Errorf("curve mismatch = %v, want ErrUnsupportedAlgorithm", err)
	}

	// a public key cannot sign
	_, err = run(t, "", "jws", "sign", "--key", pubPath, "--alg", "ES256", "payload")
	if !errors.Is(err, types.ErrKeyUsage) {
		t.Errorf("sign with public key = %v, want ErrKeyUsage", err)
	}
}

func TestJWSSign_JSONOutput(t *testing.T) {
	isolateEnv(t)
	keyPath := filepath.Join(t.TempDir(), "ps256.pem")
	mustRun(t, "", "keygen", "--alg", "PS256", "--out", keyPath, "--password", "hunter2")

	_, err := run(t, "", "jws", "sign", "--key", keyPath, "--alg", "PS256", "--password", "wrong", "x")
	if !errors.Is(err, types.ErrKeyLoad) {
		t.Errorf("wrong password = %v, want ErrKeyLoad", err)
	}

	payloadPath := filepath.Join(t.TempDir(), "payload.json")
	if err := os.WriteFile(payloadPath, []byte(`{"n":1}`), 0600); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, "", "-o", "json", "jws", "sign", "--key", keyPath, "--alg", "PS256", "--password", "hunter2", "--in", payloadPath)

	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("sign JSON: %v", err)
	}
	if strings.Count(v["token"], ".") != 2 {
		t.Errorf("token = %q", v["token"])
	}
}

func TestJWEEncryptDecrypt(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "enc.pem")
	pubPath := filepath.Join(dir, "enc.pub.pem")
	alg := "RSA-OAEP-256+A256GCM"

	mustRun(t, "", "keygen", "--alg", alg, "--out", keyPath, "--public-out", pubPath)

	token := mustRun(t, "secret message", "jwe", "encrypt", "--key", pubPath, "--alg", alg)
	if n := strings.Count(token, "."); n != 4 {
		t.Fatalf("token has %d dots: %q", n, token)
	}

	plaintext := mustRun(t, "", "jwe", "decrypt", "--key", keyPath, "--alg", alg, token)
	if plaintext != "secret message" {
		t.Errorf("plaintext = %q", plaintext)
	}

	_, err := run(t, "", "jwe", "decrypt", "--key", pubPath, "--alg", alg, token)
	if !errors.Is(err, types.ErrKeyUsage) {
		t.Errorf("decrypt with public key = %v, want ErrKeyUsage", err)
	}

	_, err = run(t, "", "jwe", "decrypt", "--key", keyPath, "--alg", "RSA-OAEP+A256GCM", token)
	if !errors.Is(err, types.ErrAlgorithmMismatch) {
		t.Errorf("alg mismatch = %v, want ErrAlgorithmMismatch", err)
	}
}

func TestJWKCommand(t *testing.T) {
	isolateEnv(t)
	keyPath := filepath.Join(t.TempDir(), "es384.pem")
	mustRun(t, "", "keygen", "--alg", "ES384", "--out", keyPath)

	out := mustRun(t, "", "jwk", "--key", keyPath, "--alg", "ES384", "--kid", "my-key")
	var jwk map[string]any
	if err := json.Unmarshal([]byte(out), &jwk); err != nil {
		t.Fatalf("jwk JSON: %v", err)
	}
	if jwk["kty"] != "EC" || jwk["crv"] != "P-384" || jwk["kid"] != "my-key" || jwk["use"] != "sig" {
		t.Errorf("unexpected jwk: %v", jwk)
	}
	if _, ok := jwk["d"]; ok {
		t.Error("jwk leaks the private scalar")
	}
}

func TestNamedKeyFromConfig(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "rs256.pem")
	mustRun(t, "", "keygen", "--alg", "RS256", "--out", keyPath, "--password", "pw")

	cfgPath := filepath.Join(dir, "jwx.yaml")
	cfgYAML := `
provider:
  backend: software
keys:
  signer:
    algorithm: RS256
    key_file: ` + keyPath + `
    password: pw
    kid: configured
    typ: at+jwt
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0600); err != nil {
		t.Fatal(err)
	}

	token := mustRun(t, "", "--config", cfgPath, "jws", "sign", "--key-name", "signer", "payload")
	segment, _, _ := strings.Cut(token, ".")
	if segment == "" {
		t.Fatalf("bad token %q", token)
	}

	payload := mustRun(t, "", "--config", cfgPath, "jws", "verify", "--key-name", "signer", token)
	if payload != "payload" {
		t.Errorf("payload = %q", payload)
	}

	_, err := run(t, "", "--config", cfgPath, "jws", "sign", "--key-name", "missing", "payload")
	if !errors.Is(err, config.ErrKeyNotFound) {
		t.Errorf("missing key = %v, want ErrKeyNotFound", err)
	}
}

func TestMissingKeySource(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, "", "jws", "sign", "--alg", "ES256", "payload"); err == nil {
		t.Error("expected error without a key source")
	}
	if _, err := run(t, "", "keygen", "--alg", "HS256"); !errors.Is(err, types.ErrUnsupportedAlgorithm) {
		t.Errorf("keygen HS256 = %v, want ErrUnsupportedAlgorithm", err)
	}

	keyPath := filepath.Join(t.TempDir(), "dsa.pem")
	if _, err := run(t, "", "keygen", "--alg", "dsa-sha1", "--out", keyPath); !errors.Is(err, types.ErrUnsupportedAlgorithm) {
		t.Errorf("keygen dsa-sha1 = %v, want ErrUnsupportedAlgorithm", err)
	}
	if _, err := os.Stat(keyPath); !os.IsNotExist(err) {
		t.Errorf("keygen dsa-sha1 wrote %s", keyPath)
	}
}
