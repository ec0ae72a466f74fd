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
	"github.com/jeremyhahn/go-jwx/pkg/jws"
	"github.com/jeremyhahn/go-jwx/pkg/types"
	"github.com/spf13/cobra"
)

func newJWSCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jws",
		Short: "Create and verify compact JWS tokens",
	}
	cmd.AddCommand(newJWSSignCommand(cfg))
	cmd.AddCommand(newJWSVerifyCommand(cfg))
	return cmd
}

func newJWSEngine(cfg *Config, cmd *cobra.Command, kf *keyFlags) (*jws.Engine, error) {
	env, err := cfg.Environment(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	rk, err := kf.resolve(env)
	if err != nil {
		return nil, err
	}
	alg, err := types.ParseSignatureAlgorithm(rk.Alg)
	if err != nil {
		return nil, err
	}

	opts := []jws.Option{jws.WithFactory(env.Factory), jws.WithLogger(env.Logger), jws.WithKeyID(rk.KeyID)}
	if rk.Type != "" {
		opts = append(opts, jws.WithType(rk.Type))
	}
	return jws.New(alg, rk.Key, opts...)
}

func newJWSSignCommand(cfg *Config) *cobra.Command {
	var (
		kf    keyFlags
		input string
	)
	cmd := &cobra.Command{
		Use:   "sign [payload]",
		Short: "Sign a payload",
		Long:  `Sign the payload argument, the --in file or stdin and print the compact JWS`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, args, input)
			if err != nil {
				return err
			}
			engine, err := newJWSEngine(cfg, cmd, &kf)
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

func newJWSVerifyCommand(cfg *Config) *cobra.Command {
	var (
		kf    keyFlags
		input string
	)
	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify a compact JWS and print its payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args, input)
			if err != nil {
				return err
			}
			engine, err := newJWSEngine(cfg, cmd, &kf)
			if err != nil {
				return err
			}
			defer func() { _ = engine.Close() }()

			payload, err := engine.Payload(trimToken(data))
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintPayload(payload)
		},
	}
	kf.register(cmd)
	cmd.Flags().StringVar(&input, "in", "", "read the token from this file")
	return cmd
}
