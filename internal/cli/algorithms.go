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
	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/spf13/cobra"
)

func newAlgorithmsCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List supported algorithms",
		Long:  `List the signature, key management and content encryption algorithms`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintAlgorithms()
		},
	}
}

func newProvidersCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show key backends and CPU capabilities",
		Long:  `Probe registered key backends and report which one serves each key family`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := cfg.Environment(cmd.ErrOrStderr()); err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintCapabilities(provider.Probe())
		},
	}
}
