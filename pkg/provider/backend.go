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

package provider

import (
	"crypto"
	"crypto/dsa"
	"io"
	"sync"

	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// BackendSoftware is the name of the always-available software backend.
const BackendSoftware = "software"

// BackendAuto selects the first available native backend, falling back to
// software.
const BackendAuto = "auto"

// Backend generates key pairs for one key store. Implementations must return
// signers whose Public() is a standard library public key type so that
// verification can stay in software.
type Backend interface {
	// Name returns the unique backend name used in configuration.
	Name() string

	// Available reports whether the backend can be used on this host.
	Available() bool

	// Reentrant reports whether a single key handle may be used from
	// several goroutines at once. Non-reentrant signers are serialized.
	Reentrant() bool

	GenerateRSA(rand io.Reader, bits int) (crypto.Signer, error)
	GenerateECDSA(rand io.Reader, curve types.EllipticCurve) (crypto.Signer, error)
	GenerateDSA(rand io.Reader, sizes dsa.ParameterSizes) (crypto.Signer, error)
}

// lockedSigner serializes access to a signer from a non-reentrant backend.
type lockedSigner struct {
	mu     sync.Mutex
	signer crypto.Signer
}

func newLockedSigner(signer crypto.Signer) *lockedSigner {
	if ls, ok := signer.(*lockedSigner); ok {
		return ls
	}
	return &lockedSigner{signer: signer}
}

func (s *lockedSigner) Public() crypto.PublicKey {
	return s.signer.Public()
}

func (s *lockedSigner) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signer.Sign(rand, digest, opts)
}

// decrypter returns the serialized decrypter of the wrapped key, if any.
func (s *lockedSigner) decrypter() (crypto.Decrypter, bool) {
	d, ok := s.signer.(crypto.Decrypter)
	if !ok {
		return nil, false
	}
	return &lockedDecrypter{s: s, d: d}, true
}

type lockedDecrypter struct {
	s *lockedSigner
	d crypto.Decrypter
}

func (d *lockedDecrypter) Public() crypto.PublicKey {
	return d.d.Public()
}

func (d *lockedDecrypter) Decrypt(rand io.Reader, msg []byte, opts crypto.DecrypterOpts) ([]byte, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return d.d.Decrypt(rand, msg, opts)
}
