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
	"os"
	"strings"

	"github.com/jeremyhahn/go-jwx/internal/config"
	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/spf13/cobra"
)

// keyFlags are the key source flags shared by jwk, jws and jwe.
type keyFlags struct {
	KeyFile  string
	CertFile string
	Password string
	Flags    string
	KeyName  string
	Alg      string
	KeyID    string
	Type     string
}

func (k *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&k.KeyFile, "key", "", "PKCS#8 PEM private key, or PKIX PEM public key")
	cmd.Flags().StringVar(&k.CertFile, "cert", "", "certificate container (.p12/.pfx, PEM bundle or DER)")
	cmd.Flags().StringVar(&k.Password, "password", "", "password for --key or --cert; empty loads the certificate's public key only")
	cmd.Flags().StringVar(&k.Flags, "flags", "", "storage flags for --cert (persist,machine,exportable)")
	cmd.Flags().StringVar(&k.KeyName, "key-name", "", "named key from the configuration file")
	cmd.Flags().StringVar(&k.Alg, "alg", "", "algorithm (defaults to the named key's algorithm)")
	cmd.Flags().StringVar(&k.KeyID, "kid", "", "kid header value")
	cmd.Flags().StringVar(&k.Type, "typ", "", "typ header value")
}

// resolvedKey is a loaded key with the header defaults of its source.
type resolvedKey struct {
	Key   *provider.KeyMaterial
	Alg   string
	KeyID string
	Type  string
}

// resolve loads the key named by the flags. --key-name supplies defaults
// that explicit flags override.
func (k *keyFlags) resolve(env *Environment) (*resolvedKey, error) {
	src := config.KeyConfig{
		KeyFile:     k.KeyFile,
		Certificate: k.CertFile,
		Password:    k.Password,
		Flags:       k.Flags,
	}
	out := &resolvedKey{Alg: k.Alg, KeyID: k.KeyID, Type: k.Type}

	if k.KeyName != "" {
		named, err := env.Config.KeySource(k.KeyName)
		if err != nil {
			return nil, err
		}
		if src.KeyFile == "" && src.Certificate == "" {
			src.KeyFile, src.Certificate = named.KeyFile, named.Certificate
		}
		if src.Password == "" {
			src.Password = named.Password
		}
		if src.Flags == "" {
			src.Flags = named.Flags
		}
		if out.Alg == "" {
			out.Alg = named.Algorithm
		}
		if out.KeyID == "" {
			out.KeyID = named.KeyID
		}
		if out.Type == "" {
			out.Type = named.Type
		}
	}

	key, err := loadKey(env.Factory, src)
	if err != nil {
		return nil, err
	}
	out.Key = key
	if out.Alg == "" {
		return nil, errors.New("--alg is required")
	}
	return out, nil
}

func loadKey(factory *provider.Factory, src config.KeyConfig) (*provider.KeyMaterial, error) {
	switch {
	case src.Certificate != "":
		flags, err := provider.ParseStorageFlags(src.Flags)
		if err != nil {
			return nil, err
		}
		return factory.LoadX509(src.Certificate, src.Password, flags)
	case src.KeyFile != "":
		// #nosec G304 - key path is provided by the user
		data, err := os.ReadFile(src.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		if strings.Contains(string(data), "PUBLIC KEY-----") && !strings.Contains(string(data), "PRIVATE KEY-----") {
			return factory.LoadPublicKeyPEM(src.KeyFile)
		}
		return factory.LoadPrivateKeyPEM(src.KeyFile, src.Password)
	default:
		return nil, errors.New("one of --key, --cert or --key-name is required")
	}
}

// readInput returns the first positional argument, else the contents of
// file, else stdin.
func readInput(cmd *cobra.Command, args []string, file string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(args[0]), nil
	}
	if file != "" {
		// #nosec G304 - input path is provided by the user
		return os.ReadFile(file)
	}
	return io.ReadAll(cmd.InOrStdin())
}
