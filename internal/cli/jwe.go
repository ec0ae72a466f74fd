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
	"strings"

	"github.com/jeremyhahn/go-jwx/pkg/jwe"
	"github.com/jeremyhahn/go-jwx/pkg/types"
	"github.com/spf13/cobra"
)

func newJWECommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jwe",
		Short: "Encrypt and decrypt compact JWE tokens",
	}
	cmd.AddCommand(newJWEEncryptCommand(cfg))
	cmd.AddCommand(newJWEDecryptCommand(cfg))
	return cmd
}

func newJWEEngine(cfg *Config, cmd *cobra.Command, kf *keyFlags) (*jwe.Engine, error) {
	env, err := cfg.Environment(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	rk, err := kf.resolve(env)
	if err != nil {
		return nil, err
	}
	alg, err := types.ParseEncryptionAlgorithm(rk.Alg)
	if err != nil {
		return nil, err
	}
	return jwe.New(alg, rk.Key,
		jwe.WithLogger(env.Logger),
		jwe.WithRandom(env.Factory.Random()),
		jwe.WithKeyID(rk.KeyID),
		jwe.WithType(rk.Type),
	)
}

func newJWEEncryptCommand(cfg *Config) *cobra.Command {
	var (
		kf    keyFlags
		input string
	)
	cmd := &cobra.Command{
		Use:   "encrypt [payload]",
		Short: "Encrypt a payload",
		Long: `Encrypt the payload argument, the --in file or stdin and print the
compact JWE. --alg takes the alg+enc form, for example RSA-OAEP-256+A256GCM.
A certificate loaded without a password is enough to encrypt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, args, input)
			if err != nil {
				return err
			}
			engine, err := newJWEEngine(cfg, cmd, &kf)
			if err != nil {
				return err
			}
			defer func() { _ = engine.Close() }()

			token, err := engine.Create(payload)
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintToken(token)
		},
	}
	kf.register(cmd)
	cmd.Flags().StringVar(&input, "in", "", "read the payload from this file")
	return cmd
}

func newJWEDecryptCommand(cfg *Config) *cobra.Command {
	var (
		kf    keyFlags
		input string
	)
	cmd := &cobra.Command{
		Use:   "decrypt [token]",
		Short: "Decrypt a compact JWE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args, input)
			if err != nil {
				return err
			}
			engine, err := newJWEEngine(cfg, cmd, &kf)
			if err != nil {
				return err
			}
			defer func() { _ = engine.Close() }()

			plaintext, err := engine.Decrypt(trimToken(data))
			if err != nil {
				return err
			}
			defer clear(plaintext)
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintPayload(plaintext)
		},
	}
	kf.register(cmd)
	cmd.Flags().StringVar(&input, "in", "", "read the token from this file")
	return cmd
}

// trimToken strips surrounding whitespace left by files and pipes.
func trimToken(data []byte) string {
	return strings.TrimSpace(string(data))
}
