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

// Package jwtcompat exposes provider signature primitives as golang-jwt
// signing methods, so tokens built with github.com/golang-jwt/jwt/v5 can be
// signed by PKCS#11 or X.509 backed key material.
//
// Methods report the standard JOSE alg (RS256, ES384, ...) so the tokens
// they produce verify with any JOSE implementation. Register installs them
// under prefixed names and never replaces golang-jwt's built-ins:
//
//	jwtcompat.Register(factory)
//	method := jwt.GetSigningMethod("jwx-ES256")
//	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
package jwtcompat

import (
	"crypto"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// NamePrefix is prepended to the JOSE alg when registering methods.
const NamePrefix = "jwx-"

// SigningMethod implements jwt.SigningMethod over provider primitives.
// Sign accepts *provider.KeyMaterial or a crypto.Signer; Verify accepts
// *provider.KeyMaterial or a crypto.PublicKey.
type SigningMethod struct {
	alg     types.SignatureAlgorithm
	jose    string
	factory *provider.Factory
}

var _ jwt.SigningMethod = (*SigningMethod)(nil)

// NewSigningMethod returns the signing method for alg. A nil factory uses
// provider defaults.
func NewSigningMethod(alg types.SignatureAlgorithm, factory *provider.Factory) (*SigningMethod, error) {
	desc, err := alg.Describe()
	if err != nil {
		return nil, err
	}
	if desc.JOSE == "" {
		return nil, fmt.Errorf("%w: %s has no JOSE alg", types.ErrUnsupportedAlgorithm, alg)
	}
	if factory == nil {
		factory = provider.NewFactory()
	}
	return &SigningMethod{alg: alg, jose: desc.JOSE, factory: factory}, nil
}

// Alg returns the JOSE alg header value.
func (m *SigningMethod) Alg() string {
	return m.jose
}

// Algorithm returns the underlying selector.
func (m *SigningMethod) Algorithm() types.SignatureAlgorithm {
	return m.alg
}

// Sign signs signingString with key.
func (m *SigningMethod) Sign(signingString string, key any) ([]byte, error) {
	km, err := m.keyMaterial(key, true)
	if err != nil {
		return nil, err
	}
	sp, err := m.factory.CreateDigitalSigner(m.alg, km)
	if err != nil {
		return nil, err
	}
	return sp.Primitive.Sign([]byte(signingString))
}

// Verify checks sig over signingString. Any failure, including a key of the
// wrong family, is reported as jwt.ErrSignatureInvalid.
func (m *SigningMethod) Verify(signingString string, sig []byte, key any) error {
	km, err := m.keyMaterial(key, false)
	if err != nil {
		return err
	}
	sp, err := m.factory.CreateDigitalSigner(m.alg, km)
	if err != nil {
		return fmt.Errorf("%w: %w", jwt.ErrSignatureInvalid, err)
	}
	if !sp.Primitive.Verify([]byte(signingString), sig) {
		return fmt.Errorf("%w: %w", jwt.ErrSignatureInvalid, types.ErrSignatureInvalid)
	}
	return nil
}

func (m *SigningMethod) keyMaterial(key any, private bool) (*provider.KeyMaterial, error) {
	switch k := key.(type) {
	case *provider.KeyMaterial:
		if k == nil {
			return nil, jwt.ErrInvalidKey
		}
		return k, nil
	case crypto.Signer:
		return m.factory.FromPrivateKey(k)
	default:
		if private {
			return nil, fmt.Errorf("%w: %T", jwt.ErrInvalidKeyType, key)
		}
		km, err := m.factory.FromPublicKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", jwt.ErrInvalidKeyType, err)
		}
		return km, nil
	}
}

// Name returns the registry name for alg, for example "jwx-PS256".
func Name(alg types.SignatureAlgorithm) string {
	return NamePrefix + alg.JOSE()
}

// Register installs a signing method for every JOSE-tagged algorithm under
// its prefixed name and returns the names registered.
func Register(factory *provider.Factory) []string {
	var names []string
	for _, alg := range types.SignatureAlgorithms() {
		method, err := NewSigningMethod(alg, factory)
		if err != nil {
			continue
		}
		name := Name(alg)
		jwt.RegisterSigningMethod(name, func() jwt.SigningMethod { return method })
		names = append(names, name)
	}
	return names
}

// KeyFunc returns a jwt.Keyfunc yielding key's public half. The parser
// resolves the header alg to golang-jwt's own methods, which need the plain
// public key rather than key material.
func KeyFunc(key *provider.KeyMaterial) jwt.Keyfunc {
	return func(*jwt.Token) (any, error) {
		if key == nil {
			return nil, jwt.ErrInvalidKey
		}
		return key.Public(), nil
	}
}
