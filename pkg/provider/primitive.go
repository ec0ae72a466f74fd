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
	"fmt"
	"io"

	_ "crypto/md5"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"

	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// Primitive signs and verifies raw bytes under one signature algorithm.
// Hashing happens inside the primitive. ECDSA and DSA signatures use the
// fixed-width r||s encoding of RFC 7518.
type Primitive interface {
	Algorithm() types.SignatureAlgorithm

	// Sign hashes data and signs the digest. It fails with ErrKeyUsage for
	// public-only or destroyed key material.
	Sign(data []byte) ([]byte, error)

	// Verify reports whether sig is a valid signature of data. It never
	// panics, whatever the input.
	Verify(data, sig []byte) bool
}

// SignatureProvider pairs a primitive with the digest it applies. Hash is
// zero for ECDSA, whose digest is implied by the curve.
type SignatureProvider struct {
	Primitive Primitive
	Hash      crypto.Hash
}

// CreateDigitalSigner builds the primitive for alg over key. The key family
// (and curve, for ECDSA) must match the algorithm or ErrUnsupportedAlgorithm
// is returned. Public-only keys yield a primitive that can only verify.
func (f *Factory) CreateDigitalSigner(alg types.SignatureAlgorithm, key *KeyMaterial) (*SignatureProvider, error) {
	desc, err := alg.Describe()
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, fmt.Errorf("%w: nil key material", types.ErrKeyUsage)
	}
	if key.Kind != desc.Kind {
		return nil, fmt.Errorf("%w: %s requires a %s key, got %s", types.ErrUnsupportedAlgorithm, alg, desc.Kind, key.Kind)
	}

	base := basePrimitive{desc: desc, key: key, rand: f.rand}
	var p Primitive
	switch desc.Kind {
	case types.KeyKindRSA:
		pub, ok := key.Public().(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: RSA material without RSA public key", types.ErrKeyUsage)
		}
		p = &rsaPrimitive{basePrimitive: base, pub: pub}
	case types.KeyKindECDSA:
		if key.Curve != desc.Curve {
			return nil, fmt.Errorf("%w: %s requires %s, key is %s", types.ErrUnsupportedAlgorithm, alg, desc.Curve, key.Curve)
		}
		pub, ok := key.Public().(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: ECDSA material without ECDSA public key", types.ErrKeyUsage)
		}
		p = &ecdsaPrimitive{basePrimitive: base, pub: pub, size: (pub.Curve.Params().BitSize + 7) / 8}
	case types.KeyKindDSA:
		pub, ok := key.Public().(*dsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: DSA material without DSA public key", types.ErrKeyUsage)
		}
		p = &dsaPrimitive{basePrimitive: base, pub: pub, size: (pub.Q.BitLen() + 7) / 8}
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedAlgorithm, alg)
	}
	return &SignatureProvider{Primitive: p, Hash: desc.Hash}, nil
}

type basePrimitive struct {
	desc types.SignatureDescriptor
	key  *KeyMaterial
	rand io.Reader
}

func (b *basePrimitive) Algorithm() types.SignatureAlgorithm {
	return b.desc.Algorithm
}

func (b *basePrimitive) digest(data []byte) []byte {
	h := b.desc.Digest().New()
	h.Write(data)
	return h.Sum(nil)
}

func (b *basePrimitive) sign(data []byte, opts crypto.SignerOpts) ([]byte, error) {
	signer, err := b.key.Signer()
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(b.rand, b.digest(data), opts)
	if err != nil {
		return nil, fmt.Errorf("%s sign: %w", b.desc.Algorithm, err)
	}
	return sig, nil
}

// rsaPrimitive covers PKCS#1 v1.5 and PSS. PSS uses a salt as long as the
// hash, as RFC 7518 requires.
type rsaPrimitive struct {
	basePrimitive
	pub *rsa.PublicKey
}

func (p *rsaPrimitive) opts() crypto.SignerOpts {
	if p.desc.PSS {
		return &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: p.desc.Hash}
	}
	return p.desc.Hash
}

func (p *rsaPrimitive) Sign(data []byte) ([]byte, error) {
	return p.sign(data, p.opts())
}

func (p *rsaPrimitive) Verify(data, sig []byte) bool {
	if len(sig) == 0 {
		return false
	}
	digest := p.digest(data)
	if p.desc.PSS {
		opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: p.desc.Hash}
		return rsa.VerifyPSS(p.pub, p.desc.Hash, digest, sig, opts) == nil
	}
	return rsa.VerifyPKCS1v15(p.pub, p.desc.Hash, digest, sig) == nil
}

type ecdsaPrimitive struct {
	basePrimitive
	pub  *ecdsa.PublicKey
	size int
}

func (p *ecdsaPrimitive) Sign(data []byte) ([]byte, error) {
	der, err := p.sign(data, p.desc.Digest())
	if err != nil {
		return nil, err
	}
	raw, err := asn1ToRaw(der, p.size)
	if err != nil {
		return nil, fmt.Errorf("%s sign: %w", p.desc.Algorithm, err)
	}
	return raw, nil
}

func (p *ecdsaPrimitive) Verify(data, sig []byte) bool {
	r, s, ok := rawToInts(sig, p.size)
	if !ok {
		return false
	}
	return ecdsa.Verify(p.pub, p.digest(data), r, s)
}

type dsaPrimitive struct {
	basePrimitive
	pub  *dsa.PublicKey
	size int
}

func (p *dsaPrimitive) Sign(data []byte) ([]byte, error) {
	der, err := p.sign(data, p.desc.Hash)
	if err != nil {
		return nil, err
	}
	raw, err := asn1ToRaw(der, p.size)
	if err != nil {
		return nil, fmt.Errorf("%s sign: %w", p.desc.Algorithm, err)
	}
	return raw, nil
}

func (p *dsaPrimitive) Verify(data, sig []byte) bool {
	r, s, ok := rawToInts(sig, p.size)
	if !ok {
		return false
	}
	return dsa.Verify(p.pub, truncateDigest(p.digest(data), p.size), r, s)
}
