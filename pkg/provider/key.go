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
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"math/big"
	"sync"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
	"github.com/jeremyhahn/go-jwx/pkg/encoding"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// KeyMaterial is an asymmetric key pair, or a public key alone, together
// with the metadata the engines need. The public half is always present.
//
// KeyMaterial is safe for concurrent use. Destroy must not race with
// in-flight private key operations.
type KeyMaterial struct {
	// KeyID is a random identifier assigned when the material is created.
	KeyID string

	Kind types.KeyKind

	// Bits is the RSA modulus length, the curve size for ECDSA or L for DSA.
	Bits int

	// Curve is set for ECDSA keys only.
	Curve types.EllipticCurve

	// Backend names the backend holding the private key.
	Backend string

	// Certificate is the leaf certificate for X.509-derived keys.
	Certificate *x509.Certificate

	// Chain holds any further certificates from the container.
	Chain []*x509.Certificate

	Flags StorageFlags

	mu        sync.RWMutex
	public    crypto.PublicKey
	signer    crypto.Signer
	destroyed bool
}

func newKeyMaterial(signer crypto.Signer, public crypto.PublicKey, backend string) (*KeyMaterial, error) {
	if public == nil && signer != nil {
		public = signer.Public()
	}
	kind, bits, curve, err := describePublicKey(public)
	if err != nil {
		return nil, err
	}
	return &KeyMaterial{
		KeyID:   uuid.New().String(),
		Kind:    kind,
		Bits:    bits,
		Curve:   curve,
		Backend: backend,
		public:  public,
		signer:  signer,
	}, nil
}

// describePublicKey returns the family and size of a public key.
func describePublicKey(pub crypto.PublicKey) (types.KeyKind, int, types.EllipticCurve, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return types.KeyKindRSA, k.N.BitLen(), "", nil
	case *ecdsa.PublicKey:
		curve, err := types.CurveFromElliptic(k.Curve)
		if err != nil {
			return "", 0, "", err
		}
		return types.KeyKindECDSA, k.Curve.Params().BitSize, curve, nil
	case *dsa.PublicKey:
		return types.KeyKindDSA, k.P.BitLen(), "", nil
	default:
		return "", 0, "", fmt.Errorf("%w: key type %T", types.ErrUnsupportedAlgorithm, pub)
	}
}

// Public returns the public key.
func (k *KeyMaterial) Public() crypto.PublicKey {
	return k.public
}

// HasPrivateKey reports whether private key operations are possible.
func (k *KeyMaterial) HasPrivateKey() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.signer != nil && !k.destroyed
}

// Signer returns the private key. It fails with ErrKeyUsage for public-only
// or destroyed material.
func (k *KeyMaterial) Signer() (crypto.Signer, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return nil, fmt.Errorf("%w: key %s has been destroyed", types.ErrKeyUsage, k.KeyID)
	}
	if k.signer == nil {
		return nil, fmt.Errorf("%w: key %s has no private key", types.ErrKeyUsage, k.KeyID)
	}
	return k.signer, nil
}

// Decrypter returns the private key as a crypto.Decrypter. Only RSA keys
// decrypt.
func (k *KeyMaterial) Decrypter() (crypto.Decrypter, error) {
	signer, err := k.Signer()
	if err != nil {
		return nil, err
	}
	if k.Kind != types.KeyKindRSA {
		return nil, fmt.Errorf("%w: %s keys cannot decrypt", types.ErrKeyUsage, k.Kind)
	}
	if ls, ok := signer.(*lockedSigner); ok {
		if d, ok := ls.decrypter(); ok {
			return d, nil
		}
	} else if d, ok := signer.(crypto.Decrypter); ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: backend %s key does not support decryption", types.ErrKeyUsage, k.Backend)
}

// RSAPublicKey returns the RSA public key or ErrKeyUsage.
func (k *KeyMaterial) RSAPublicKey() (*rsa.PublicKey, error) {
	pub, ok := k.public.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s key is not RSA", types.ErrKeyUsage, k.Kind)
	}
	return pub, nil
}

// PublicJWK returns the public key as a JSON Web Key with kid set to KeyID.
// use is "enc" for key management algorithms and "sig" otherwise. DSA has
// no JWK representation.
func (k *KeyMaterial) PublicJWK(alg string) (*jose.JSONWebKey, error) {
	if k.Kind == types.KeyKindDSA {
		return nil, fmt.Errorf("%w: DSA keys have no JWK form", types.ErrUnsupportedAlgorithm)
	}
	use := "sig"
	if _, err := types.ParseKeyWrapAlgorithm(alg); err == nil {
		use = "enc"
	}
	jwk := &jose.JSONWebKey{
		Key:       k.public,
		KeyID:     k.KeyID,
		Algorithm: alg,
		Use:       use,
	}
	if k.Certificate != nil {
		jwk.Certificates = append([]*x509.Certificate{k.Certificate}, k.Chain...)
	}
	if !jwk.Valid() {
		return nil, fmt.Errorf("%w: invalid public JWK", types.ErrKeyUsage)
	}
	return jwk, nil
}

// ExportPrivateKeyPEM encodes the private key as PKCS#8 PEM, encrypted when
// password is non-empty. The material must carry FlagExportable and live in
// the software backend.
func (k *KeyMaterial) ExportPrivateKeyPEM(password []byte) ([]byte, error) {
	if !k.Flags.Has(FlagExportable) {
		return nil, fmt.Errorf("%w: key %s is not exportable", types.ErrKeyUsage, k.KeyID)
	}
	signer, err := k.Signer()
	if err != nil {
		return nil, err
	}
	data, err := encoding.EncodePrivateKeyPEM(signer, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrKeyUsage, err)
	}
	return data, nil
}

// ExportPublicKeyPEM encodes the public key as PKIX PEM.
func (k *KeyMaterial) ExportPublicKeyPEM() ([]byte, error) {
	return encoding.EncodePublicKeyPEM(k.public)
}

// Destroy zeroes the private scalars of software keys and drops the private
// key reference. It is idempotent. Later private key operations fail with
// ErrKeyUsage; public key operations keep working.
func (k *KeyMaterial) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return
	}
	k.destroyed = true

	signer := k.signer
	if ls, ok := signer.(*lockedSigner); ok {
		signer = ls.signer
	}
	switch key := signer.(type) {
	case *rsa.PrivateKey:
		zeroInt(key.D)
		for _, p := range key.Primes {
			zeroInt(p)
		}
		zeroInt(key.Precomputed.Dp)
		zeroInt(key.Precomputed.Dq)
		zeroInt(key.Precomputed.Qinv)
	case *ecdsa.PrivateKey:
		zeroInt(key.D)
	case *dsaSigner:
		zeroInt(key.key.X)
	}
	k.signer = nil
}

func zeroInt(x *big.Int) {
	if x == nil {
		return
	}
	clear(x.Bits())
	x.SetInt64(0)
}
