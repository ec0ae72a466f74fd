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
	"fmt"
	"os"
	"strings"

	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/jeremyhahn/go-jwx/pkg/types"
	"github.com/spf13/cobra"
)

func newKeygenCommand(cfg *Config) *cobra.Command {
	var (
		alg       string
		out       string
		publicOut string
		password  string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair",
		Long: `Generate a key pair for a signature algorithm (RS256, PS384, ES512, ...)
or an encryption pair in alg+enc form (RSA-OAEP-256+A256GCM) and write it
as PKCS#8 PEM, encrypted when --password is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cfg.Environment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			printer := NewPrinter(cfg.OutputFormat, cmd.OutOrStdout())

			key, err := generateKey(env.Factory, alg)
			if err != nil {
				return err
			}
			defer key.Destroy()
			printVerbose(cfg, cmd.ErrOrStderr(), "generated %s key %s on backend %s", key.Kind, key.KeyID, key.Backend)

			privPEM, err := key.ExportPrivateKeyPEM([]byte(password))
			if err != nil {
				return fmt.Errorf("failed to export private key: %w", err)
			}
			defer clear(privPEM)

			if publicOut != "" {
				pubPEM, err := key.ExportPublicKeyPEM()
				if err != nil {
					return fmt.Errorf("failed to export public key: %w", err)
				}
				if err := os.WriteFile(publicOut, pubPEM, 0644); err != nil {
					return fmt.Errorf("failed to write public key: %w", err)
				}
			}

			if out == "" {
				_, err := cmd.OutOrStdout().Write(privPEM)
				return err
			}
			if err := os.WriteFile(out, privPEM, 0600); err != nil {
				return fmt.Errorf("failed to write private key: %w", err)
			}
			return printer.PrintKeyInfo(key, out)
		},
	}

	cmd.Flags().StringVar(&alg, "alg", "", "signature algorithm or alg+enc pair (required)")
	cmd.Flags().StringVar(&out, "out", "", "private key output file (default stdout)")
	cmd.Flags().StringVar(&publicOut, "public-out", "", "public key output file")
	cmd.Flags().StringVar(&password, "password", "", "encrypt the private key with this password")
	_ = cmd.MarkFlagRequired("alg")
	return cmd
}

func generateKey(factory *provider.Factory, alg string) (*provider.KeyMaterial, error) {
	if strings.Contains(alg, "+") {
		enc, err := types.ParseEncryptionAlgorithm(alg)
		if err != nil {
			return nil, err
		}
		return factory.GenerateEncryptionKey(enc)
	}
	sig, err := types.ParseSignatureAlgorithm(alg)
	if err != nil {
		return nil, err
	}
	desc, err := sig.Describe()
	if err != nil {
		return nil, err
	}
	if desc.Kind == types.KeyKindDSA {
		return nil, fmt.Errorf("%w: %s keys cannot be written as PKCS#8", types.ErrUnsupportedAlgorithm, sig)
	}
	return factory.Generate(sig)
}
