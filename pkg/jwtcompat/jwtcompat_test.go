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

package jwtcompat

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jeremyhahn/go-jwx/pkg/jws"
	"github.com/jeremyhahn/go-jwx/pkg/logging"
	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/jeremyhahn/go-jwx/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFactory = provider.NewFactory(
	provider.WithLogger(logging.Discard()),
	provider.WithBackend(provider.BackendSoftware),
)

func TestSigningMethod_SignedStringVerifiesEverywhere(t *testing.T) {
	for _, alg := range []types.SignatureAlgorithm{types.RSAPKCS1SHA256, types.RSAPSSSHA384, types.ECDSAP256, types.ECDSAP521} {
		t.Run(alg.JOSE(), func(t *testing.T) {
			key, err := testFactory.Generate(alg)
			require.NoError(t, err)
			method, err := NewSigningMethod(alg, testFactory)
			require.NoError(t, err)
			assert.Equal(t, alg.JOSE(), method.Alg())

			token, err := jwt.NewWithClaims(method, jwt.MapClaims{"sub": "carol"}).SignedString(key)
			require.NoError(t, err)

			// golang-jwt built-in method
			parsed, err := jwt.Parse(token, KeyFunc(key), jwt.WithValidMethods([]string{alg.JOSE()}))
			require.NoError(t, err)
			assert.True(t, parsed.Valid)

			// JWS engine, typ JWT
			engine, err := jws.New(alg, key, jws.WithFactory(testFactory), jws.WithLogger(logging.Discard()))
			require.NoError(t, err)
			assert.True(t, engine.Verify(token))

			// adapter Verify with key material and a bare public key
			signingString := token[:strings.LastIndex(token, ".")]
			raw, err := jwt.NewParser().DecodeSegment(token[strings.LastIndex(token, ".")+1:])
			require.NoError(t, err)
			assert.NoError(t, method.Verify(signingString, raw, key))
			assert.NoError(t, method.Verify(signingString, raw, key.Public()))

			raw[0] ^= 0xff
			assert.ErrorIs(t, method.Verify(signingString, raw, key), jwt.ErrSignatureInvalid)
		})
	}
}

func TestSigningMethod_SignVerify(t *testing.T) {
	for _, alg := range types.SignatureAlgorithms() {
		if alg.JOSE() == "" {
			continue
		}
		t.Run(alg.JOSE(), func(t *testing.T) {
			key, err := testFactory.Generate(alg)
			require.NoError(t, err)
			method, err := NewSigningMethod(alg, testFactory)
			require.NoError(t, err)

			sig, err := method.Sign("header.payload", key)
			require.NoError(t, err)
			require.NotEmpty(t, sig)
			assert.NoError(t, method.Verify("header.payload", sig, key))
			assert.ErrorIs(t, method.Verify("header.other", sig, key), jwt.ErrSignatureInvalid)
		})
	}
}

func TestSigningMethod_EngineTokensVerifyWithAdapter(t *testing.T) {
	key, err := testFactory.Generate(types.ECDSAP384)
	require.NoError(t, err)
	engine, err := jws.New(types.ECDSAP384, key, jws.WithFactory(testFactory), jws.WithLogger(logging.Discard()))
	require.NoError(t, err)
	token, err := engine.Create([]byte(`{"sub":"dave"}`))
	require.NoError(t, err)

	method, err := NewSigningMethod(types.ECDSAP384, testFactory)
	require.NoError(t, err)

	i := strings.LastIndex(token, ".")
	sig, err := jwt.NewParser().DecodeSegment(token[i+1:])
	require.NoError(t, err)
	assert.NoError(t, method.Verify(token[:i], sig, key))
}

func TestSigningMethod_Keys(t *testing.T) {
	rsaKey, err := testFactory.Generate(types.RSAPKCS1SHA256)
	require.NoError(t, err)
	ecKey, err := testFactory.Generate(types.ECDSAP256)
	require.NoError(t, err)

	method, err := NewSigningMethod(types.RSAPKCS1SHA256, testFactory)
	require.NoError(t, err)

	t.Run("crypto.Signer", func(t *testing.T) {
		signer, err := rsaKey.Signer()
		require.NoError(t, err)
		sig, err := method.Sign("a.b", signer)
		require.NoError(t, err)
		assert.NoError(t, method.Verify("a.b", sig, rsaKey.Public()))
	})

	t.Run("public key cannot sign", func(t *testing.T) {
		_, err := method.Sign("a.b", rsaKey.Public())
		assert.ErrorIs(t, err, jwt.ErrInvalidKeyType)
	})

	t.Run("public-only material cannot sign", func(t *testing.T) {
		pub, err := testFactory.FromPublicKey(rsaKey.Public())
		require.NoError(t, err)
		_, err = method.Sign("a.b", pub)
		assert.ErrorIs(t, err, types.ErrKeyUsage)
	})

	t.Run("wrong family", func(t *testing.T) {
		_, err := method.Sign("a.b", ecKey)
		assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
		assert.ErrorIs(t, method.Verify("a.b", []byte("sig"), ecKey), jwt.ErrSignatureInvalid)
	})

	t.Run("unsupported key type", func(t *testing.T) {
		assert.ErrorIs(t, method.Verify("a.b", []byte("sig"), "secret"), jwt.ErrInvalidKeyType)
	})

	t.Run("nil key material", func(t *testing.T) {
		var km *provider.KeyMaterial
		_, err := method.Sign("a.b", km)
		assert.ErrorIs(t, err, jwt.ErrInvalidKey)
	})
}

func TestNewSigningMethod_Errors(t *testing.T) {
	_, err := NewSigningMethod(types.DSASHA1, testFactory)
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)

	_, err = NewSigningMethod("HS256", testFactory)
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
}

func TestRegister(t *testing.T) {
	names := Register(testFactory)
	assert.Len(t, names, 9)
	assert.Contains(t, names, "jwx-RS256")
	assert.Contains(t, names, "jwx-ES512")

	method := jwt.GetSigningMethod("jwx-PS256")
	require.NotNil(t, method)
	assert.Equal(t, "PS256", method.Alg())

	// built-ins stay in place
	_, builtin := jwt.GetSigningMethod("PS256").(*jwt.SigningMethodRSAPSS)
	assert.True(t, builtin)
	assert.Equal(t, "jwx-ES256", Name(types.ECDSAP256))
}
