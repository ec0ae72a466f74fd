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
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-jwx/pkg/logging"
	"github.com/jeremyhahn/go-jwx/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory() *Factory {
	return NewFactory(WithLogger(logging.Discard()), WithBackend(BackendSoftware))
}

// dsaKey is shared because DSA parameter generation is slow.
var dsaKey *KeyMaterial

func testDSAKey(t *testing.T) *KeyMaterial {
	t.Helper()
	if dsaKey == nil {
		key, err := newTestFactory().Generate(types.DSASHA1)
		require.NoError(t, err)
		dsaKey = key
	}
	return dsaKey
}

func TestFactory_Generate(t *testing.T) {
	f := newTestFactory()

	tests := []struct {
		alg   types.SignatureAlgorithm
		kind  types.KeyKind
		bits  int
		curve types.EllipticCurve
	}{
		{types.RSAPKCS1SHA256, types.KeyKindRSA, DefaultRSABits, ""},
		{types.RSAPSSSHA512, types.KeyKindRSA, DefaultRSABits, ""},
		{types.ECDSAP256, types.KeyKindECDSA, 256, types.CurveP256},
		{types.ECDSAP384, types.KeyKindECDSA, 384, types.CurveP384},
		{types.ECDSAP521, types.KeyKindECDSA, 521, types.CurveP521},
	}

	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			key, err := f.Generate(tt.alg)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, key.Kind)
			assert.Equal(t, tt.bits, key.Bits)
			assert.Equal(t, tt.curve, key.Curve)
			assert.Equal(t, BackendSoftware, key.Backend)
			assert.True(t, key.HasPrivateKey())
			assert.True(t, key.Flags.Has(FlagExportable))
			_, err = uuid.Parse(key.KeyID)
			assert.NoError(t, err)
		})
	}
}

func TestFactory_GenerateDSA(t *testing.T) {
	key := testDSAKey(t)
	assert.Equal(t, types.KeyKindDSA, key.Kind)
	assert.Equal(t, 1024, key.Bits)

	pub, ok := key.Public().(*dsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, 160, pub.Q.BitLen())
}

func TestFactory_GenerateUnknownAlgorithm(t *testing.T) {
	_, err := newTestFactory().Generate(types.SignatureAlgorithm("hmac-sha256"))
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
}

func TestFactory_GenerateEncryptionKey(t *testing.T) {
	f := NewFactory(WithLogger(logging.Discard()), WithBackend(BackendSoftware), WithRSABits(3072))

	key, err := f.GenerateEncryptionKey(types.RSAOAEP256A256GCM)
	require.NoError(t, err)
	assert.Equal(t, types.KeyKindRSA, key.Kind)
	assert.Equal(t, 3072, key.Bits)

	_, err = f.GenerateEncryptionKey(types.EncryptionAlgorithm{KeyWrap: "ECDH-ES", Content: types.A128GCM})
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
}

func TestFactory_CreateSameKeySize(t *testing.T) {
	f := newTestFactory()

	t.Run("RSA", func(t *testing.T) {
		priv, err := rsa.GenerateKey(rand.Reader, 3072)
		require.NoError(t, err)
		existing, err := f.FromPrivateKey(priv)
		require.NoError(t, err)

		fresh, err := f.CreateSameKeySize(existing)
		require.NoError(t, err)
		assert.Equal(t, types.KeyKindRSA, fresh.Kind)
		assert.Equal(t, 3072, fresh.Bits)
		assert.NotEqual(t, existing.KeyID, fresh.KeyID)
		assert.False(t, existing.Public().(*rsa.PublicKey).Equal(fresh.Public()))
	})

	t.Run("ECDSA", func(t *testing.T) {
		priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
		require.NoError(t, err)
		existing, err := f.FromPublicKey(&priv.PublicKey)
		require.NoError(t, err)

		fresh, err := f.CreateSameKeySize(existing)
		require.NoError(t, err)
		assert.Equal(t, types.CurveP384, fresh.Curve)
		assert.True(t, fresh.HasPrivateKey())
	})

	t.Run("DSA", func(t *testing.T) {
		existing := testDSAKey(t)
		fresh, err := f.CreateSameKeySize(existing)
		require.NoError(t, err)
		assert.Equal(t, types.KeyKindDSA, fresh.Kind)
		assert.Equal(t, existing.Bits, fresh.Bits)
	})

	t.Run("Nil", func(t *testing.T) {
		_, err := f.CreateSameKeySize(nil)
		assert.ErrorIs(t, err, types.ErrKeyUsage)
	})
}

func TestFactory_FromKeys(t *testing.T) {
	f := newTestFactory()

	_, err := f.FromPrivateKey("not a key")
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)

	_, err = f.FromPublicKey([]byte("not a key"))
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)

	priv, err := ecdsa.GenerateKey(elliptic.P224(), rand.Reader)
	require.NoError(t, err)
	_, err = f.FromPrivateKey(priv)
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm, "P-224 is outside the taxonomy")

	pub, err := f.FromPublicKey(&priv.PublicKey)
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
	assert.Nil(t, pub)
}

func TestStorageFlags(t *testing.T) {
	flags, err := ParseStorageFlags("exportable, PersistKeySet|machine")
	require.NoError(t, err)
	assert.True(t, flags.Has(FlagExportable))
	assert.True(t, flags.Has(FlagPersistKeySet))
	assert.True(t, flags.Has(FlagMachineKeySet))
	assert.Equal(t, "persist,machine,exportable", flags.String())

	flags, err = ParseStorageFlags("")
	require.NoError(t, err)
	assert.Equal(t, FlagDefault, flags)
	assert.Equal(t, "default", flags.String())

	_, err = ParseStorageFlags("userkeyset")
	assert.ErrorIs(t, err, types.ErrUnknownVocabulary)

	var f StorageFlags
	require.NoError(t, f.UnmarshalText([]byte("exportable")))
	assert.Equal(t, FlagExportable, f)
}
