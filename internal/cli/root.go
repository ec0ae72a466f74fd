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
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the jwx command tree. Each call returns an
// independent tree with its own flag state.
func NewRootCommand() *cobra.Command {
	cfg := NewConfig()

	rootCmd := &cobra.Command{
		Use:   "jwx",
		Short: "go-jwx CLI - JOSE signing and encryption tool",
		Long: `go-jwx CLI creates and verifies compact JWS tokens and encrypts
and decrypts compact JWE tokens with software, PKCS#11 or X.509 keys.

Supported key sources:
  - software:  keys generated in process or loaded from PKCS#8 PEM
  - pkcs11:    HSM keys (build tag pkcs11)
  - x509:      PKCS#12, PEM bundle or DER certificates`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "",
		"config file (default: built-in defaults plus JWX_* environment)")
	rootCmd.PersistentFlags().StringVar(&cfg.Backend, "backend", "",
		"key backend (auto, software, pkcs11); overrides provider.backend")
	rootCmd.PersistentFlags().StringVarP(&cfg.OutputFormat, "output", "o", string(OutputFormatText),
		"output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false,
		"verbose output")

	rootCmd.AddCommand(newVersionCommand(cfg))
	rootCmd.AddCommand(newAlgorithmsCommand(cfg))
	rootCmd.AddCommand(newProvidersCommand(cfg))
	rootCmd.AddCommand(newKeygenCommand(cfg))
	rootCmd.AddCommand(newJWKCommand(cfg))
	rootCmd.AddCommand(newJWSCommand(cfg))
	rootCmd.AddCommand(newJWECommand(cfg))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		format, _ := rootCmd.PersistentFlags().GetString("output")
		_ = NewPrinter(format, os.Stderr).PrintError(err) // Error printing to stderr is best-effort
		return err
	}
	return nil
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(cfg *Config, w io.Writer, format string, args ...any) {
	if cfg.Verbose {
		fmt.Fprintf(w, "[VERBOSE] "+format+"\n", args...)
	}
}
