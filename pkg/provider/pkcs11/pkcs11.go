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

//go:build pkcs11

package pkcs11

import (
	"crypto"
	"crypto/dsa"
	"fmt"
	"io"
	"sync"

	"github.com/ThalesGroup/crypto11"
	"github.com/google/uuid"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// Backend generates key pairs on a PKCS#11 token. Private keys never leave
// the token; the returned signers call into it for every operation.
type Backend struct {
	config *Config
	ctx    *crypto11.Context
	mu     sync.RWMutex
}

// New validates the configuration and opens the token.
func New(config *Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, err := crypto11.Configure(&crypto11.Config{
		Path:       config.Library,
		TokenLabel: config.TokenLabel,
		SlotNumber: config.Slot,
		Pin:        config.PIN,
	})
	if err != nil {
		return nil, fmt.Errorf("pkcs11: failed to open token: %w", err)
	}
	return &Backend{config: config, ctx: ctx}, nil
}

// Name returns "pkcs11".
func (b *Backend) Name() string {
	return Name
}

// Available reports whether the token context is open.
func (b *Backend) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx != nil
}

// Reentrant reports whether crypto11's session pool may be used
// concurrently for one key.
func (b *Backend) Reentrant() bool {
	return !b.config.Serialize
}

// GenerateRSA creates an RSA key pair on the token.
func (b *Backend) GenerateRSA(_ io.Reader, bits int) (crypto.Signer, error) {
	ctx, id, err := b.prepare()
	if err != nil {
		return nil, err
	}
	signer, err := ctx.GenerateRSAKeyPairWithLabel(id, id, bits)
	if err != nil {
		return nil, fmt.Errorf("pkcs11: failed to generate RSA-%d key: %w", bits, err)
	}
	return signer, nil
}

// GenerateECDSA creates an ECDSA key pair on the token.
func (b *Backend) GenerateECDSA(_ io.Reader, curve types.EllipticCurve) (crypto.Signer, error) {
	c := curve.Curve()
	if c == nil {
		return nil, fmt.Errorf("%w: curve %q", types.ErrUnsupportedAlgorithm, curve)
	}
	ctx, id, err := b.prepare()
	if err != nil {
		return nil, err
	}
	signer, err := ctx.GenerateECDSAKeyPairWithLabel(id, id, c)
	if err != nil {
		return nil, fmt.Errorf("pkcs11: failed to generate ECDSA %s key: %w", curve, err)
	}
	return signer, nil
}

// GenerateDSA creates a DSA key pair on the token. Domain parameters are
// generated in software with rand.
func (b *Backend) GenerateDSA(rand io.Reader, sizes dsa.ParameterSizes) (crypto.Signer, error) {
	ctx, id, err := b.prepare()
	if err != nil {
		return nil, err
	}
	params := new(dsa.Parameters)
	if err := dsa.GenerateParameters(params, rand, sizes); err != nil {
		return nil, fmt.Errorf("pkcs11: failed to generate DSA parameters: %w", err)
	}
	signer, err := ctx.GenerateDSAKeyPairWithLabel(id, id, params)
	if err != nil {
		return nil, fmt.Errorf("pkcs11: failed to generate DSA key: %w", err)
	}
	return signer, nil
}

// prepare returns the open context and a fresh object id, used as both
// CKA_ID and CKA_LABEL.
func (b *Backend) prepare() (*crypto11.Context, []byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.ctx == nil {
		return nil, nil, ErrNotInitialized
	}
	return b.ctx, []byte("jwx-" + uuid.NewString()), nil
}

// Close releases the token context. It is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}
	err := b.ctx.Close()
	b.ctx = nil
	if err != nil {
		return fmt.Errorf("pkcs11: failed to close context: %w", err)
	}
	return nil
}
