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

	"github.com/jeremyhahn/go-jwx/pkg/types"
	"github.com/spf13/cobra"
)

func newJWKCommand(cfg *Config) *cobra.Command {
	var kf keyFlags

	cmd := &cobra.Command{
		Use:   "jwk",
		Short: "Print the public JSON Web Key",
		Long:  `Print the public half of a key as a JSON Web Key, including its certificate chain`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cfg.Environment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rk, err := kf.resolve(env)
			if err != nil {
				return err
			}

			jose, err := joseAlg(rk.Alg)
			if err != nil {
				return err
			}
			jwk, err := rk.Key.PublicJWK(jose)
			if err != nil {
				return err
			}
			if rk.KeyID != "" {
				jwk.KeyID = rk.KeyID
			}
			data, err := jwk.MarshalJSON()
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintJSONDocument(data)
		},
	}
	kf.register(cmd)
	return cmd
}

// joseAlg maps a signature algorithm or an alg+enc pair to the JWK alg.
func joseAlg(alg string) (string, error) {
	if strings.Contains(alg, "+") {
		enc, err := types.ParseEncryptionAlgorithm(alg)
		if err != nil {
			return "", err
		}
		return string(enc.KeyWrap), nil
	}
	sig, err := types.ParseSignatureAlgorithm(alg)
	if err != nil {
		return "", err
	}
	return sig.JOSE(), nil
}
