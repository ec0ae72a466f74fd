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

//go:build !pkcs11

package pkcs11

import (
	"crypto"
	"crypto/dsa"
	"io"

	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// Backend is the placeholder used when the module is built without the
// pkcs11 tag. It is registered like the real backend but is never
// available.
type Backend struct {
	config *Config
}

// New returns an unavailable backend.
func New(config *Config) (*Backend, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	return &Backend{config: config}, nil
}

func (b *Backend) Name() string    { return Name }
func (b *Backend) Available() bool { return false }
func (b *Backend) Reentrant() bool { return !b.config.Serialize }

func (b *Backend) GenerateRSA(io.Reader, int) (crypto.Signer, error) {
	return nil, ErrNotCompiled
}

func (b *Backend) GenerateECDSA(io.Reader, types.EllipticCurve) (crypto.Signer, error) {
	return nil, ErrNotCompiled
}

func (b *Backend) GenerateDSA(io.Reader, dsa.ParameterSizes) (crypto.Signer, error) {
	return nil, ErrNotCompiled
}

// Close is a no-op.
func (b *Backend) Close() error {
	return nil
}
