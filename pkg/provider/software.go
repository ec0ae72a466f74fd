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
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/jeremyhahn/go-jwx/pkg/types"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// softwareBackend generates keys in process memory with the standard library.
type softwareBackend struct{}

func (softwareBackend) Name() string    { return BackendSoftware }
func (softwareBackend) Available() bool { return true }
func (softwareBackend) Reentrant() bool { return true }

func (softwareBackend) GenerateRSA(rand io.Reader, bits int) (crypto.Signer, error) {
	key, err := rsa.GenerateKey(rand, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA-%d key: %w", bits, err)
	}
	return key, nil
}

func (softwareBackend) GenerateECDSA(rand io.Reader, curve types.EllipticCurve) (crypto.Signer, error) {
	c := curve.Curve()
	if c == nil {
		return nil, fmt.Errorf("%w: curve %q", types.ErrUnsupportedAlgorithm, curve)
	}
	key, err := ecdsa.GenerateKey(c, rand)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA %s key: %w", curve, err)
	}
	return key, nil
}

func (softwareBackend) GenerateDSA(rand io.Reader, sizes dsa.ParameterSizes) (crypto.Signer, error) {
	key := new(dsa.PrivateKey)
	if err := dsa.GenerateParameters(&key.Parameters, rand, sizes); err != nil {
		return nil, fmt.Errorf("failed to generate DSA parameters: %w", err)
	}
	if err := dsa.GenerateKey(key, rand); err != nil {
		return nil, fmt.Errorf("failed to generate DSA key: %w", err)
	}
	return &dsaSigner{key: key}, nil
}

// dsaSigner adapts *dsa.PrivateKey, which predates crypto.Signer. Signatures
// are returned as an ASN.1 SEQUENCE of r and s, like crypto/ecdsa.
type dsaSigner struct {
	key *dsa.PrivateKey
}

// Public returns *dsa.PublicKey.
func (s *dsaSigner) Public() crypto.PublicKey {
	return &s.key.PublicKey
}

// Sign signs a digest, truncated to the subgroup size as FIPS 186-3 requires.
func (s *dsaSigner) Sign(rand io.Reader, digest []byte, _ crypto.SignerOpts) ([]byte, error) {
	digest = truncateDigest(digest, (s.key.Q.BitLen()+7)/8)
	r, ss, err := dsa.Sign(rand, s.key, digest)
	if err != nil {
		return nil, fmt.Errorf("dsa sign: %w", err)
	}
	return marshalASN1Signature(r, ss)
}

// dsaParameterSizes maps (L, N) back to the stdlib parameter set.
func dsaParameterSizes(l, n int) (dsa.ParameterSizes, error) {
	switch {
	case l == 1024 && n == 160:
		return dsa.L1024N160, nil
	case l == 2048 && n == 224:
		return dsa.L2048N224, nil
	case l == 2048 && n == 256:
		return dsa.L2048N256, nil
	case l == 3072 && n == 256:
		return dsa.L3072N256, nil
	default:
		return 0, fmt.Errorf("%w: DSA L=%d N=%d", types.ErrUnsupportedAlgorithm, l, n)
	}
}

func truncateDigest(digest []byte, size int) []byte {
	if len(digest) > size {
		return digest[:size]
	}
	return digest
}

func marshalASN1Signature(r, s *big.Int) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}

// asn1ToRaw converts an ASN.1 (r, s) signature to the fixed-width r||s form
// used by JWS, each half left-padded to size bytes.
func asn1ToRaw(der []byte, size int) ([]byte, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, errors.New("malformed ASN.1 signature")
	}
	if r.Sign() <= 0 || s.Sign() <= 0 || r.BitLen() > size*8 || s.BitLen() > size*8 {
		return nil, errors.New("signature component out of range")
	}
	out := make([]byte, 2*size)
	r.FillBytes(out[:size])
	s.FillBytes(out[size:])
	return out, nil
}

// rawToInts splits a fixed-width r||s signature. It returns false when the
// length does not match.
func rawToInts(sig []byte, size int) (*big.Int, *big.Int, bool) {
	if size <= 0 || len(sig) != 2*size {
		return nil, nil, false
	}
	r := new(big.Int).SetBytes(sig[:size])
	s := new(big.Int).SetBytes(sig[size:])
	return r, s, true
}
