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
	"crypto/ecdsa"
	"crypto/rsa"
	"os"
	"path/filepath"
	"testing"

	"github.com/jeremyhahn/go-jwx/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyMaterial_Destroy(t *testing.T) {
	f := newTestFactory()

	t.Run("RSA", func(t *testing.T) {
		key, err := f.Generate(types.RSAPKCS1SHA256)
		require.NoError(t, err)
		signer, err := key.Signer()
		require.NoError(t, err)
		priv := signer.(*rsa.PrivateKey)

		key.Destroy()
		key.Destroy()

		assert.Zero(t, priv.D.Sign())
		for _, p := range priv.Primes {
			assert.Zero(t, p.Sign())
		}
		assert.False(t, key.HasPrivateKey())
		_, err = key.Signer()
		assert.ErrorIs(t, err, types.ErrKeyUsage)
		_, err = key.Decrypter()
		assert.ErrorIs(t, err, types.ErrKeyUsage)
		assert.NotNil(t, key.Public(), "public key survives Destroy")
	})

	t.Run("ECDSA", func(t *testing.T) {
		key, err := f.Generate(types.ECDSAP384)
		require.NoError(t, err)
		signer, err := key.Signer()
		require.NoError(t, err)
		priv := signer.(*ecdsa.PrivateKey)

		sp, err := f.CreateDigitalSigner(types.ECDSAP384, key)
		require.NoError(t, err)
		sig, err := sp.Primitive.Sign([]byte("before"))
		require.NoError(t, err)

		key.Destroy()
		assert.Zero(t, priv.D.Sign())

		_, err = sp.Primitive.Sign([]byte("after"))
		assert.ErrorIs(t, err, types.ErrKeyUsage)
		assert.True(t, sp.Primitive.Verify([]byte("before"), sig))
	})
}

func TestKeyMaterial_Decrypter(t *testing.T) {
	f := newTestFactory()

	rsaKey, err := f.Generate(types.RSAPKCS1SHA256)
	require.NoError(t, err)
	d, err := rsaKey.Decrypter()
	require.NoError(t, err)
	assert.NotNil(t, d)

	ecKey, err := f.Generate(types.ECDSAP256)
	require.NoError(t, err)
	_, err = ecKey.Decrypter()
	assert.ErrorIs(t, err, types.ErrKeyUsage)

	pub, err := f.FromPublicKey(rsaKey.Public())
	require.NoError(t, err)
	_, err = pub.Decrypter()
	assert.ErrorIs(t, err, types.ErrKeyUsage)

	rsaPub, err := pub.RSAPublicKey()
	require.NoError(t, err)
	assert.True(t, rsaPub.Equal(rsaKey.Public()))
	_, err = ecKey.RSAPublicKey()
	assert.ErrorIs(t, err, types.ErrKeyUsage)
}

func TestKeyMaterial_PublicJWK(t *testing.T) {
	f := newTestFactory()

	key, err := f.Generate(types.ECDSAP256)
	require.NoError(t, err)
	jwk, err := key.PublicJWK(types.ES256)
	require.NoError(t, err)
	assert.Equal(t, key.KeyID, jwk.KeyID)
	assert.Equal(t, types.ES256, jwk.Algorithm)
	assert.True(t, jwk.IsPublic())

	data, err := jwk.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"d"`)
	assert.Equal(t, "sig", jwk.Use)

	rsaKey, err := f.GenerateEncryptionKey(types.RSAOAEP256A256GCM)
	require.NoError(t, err)
	encJWK, err := rsaKey.PublicJWK(string(types.RSAOAEP256))
	require.NoError(t, err)
	assert.Equal(t, "enc", encJWK.Use)

	_, err = testDSAKey(t).PublicJWK("")
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
}

func TestKeyMaterial_ExportPrivateKeyPEM(t *testing.T) {
	f := newTestFactory()
	dir := t.TempDir()

	key, err := f.Generate(types.ECDSAP521)
	require.NoError(t, err)

	data, err := key.ExportPrivateKeyPEM([]byte("hunter2"))
	require.NoError(t, err)
	path := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(path, data, 0600))

	loaded, err := f.LoadPrivateKeyPEM(path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, types.CurveP521, loaded.Curve)
	assert.True(t, loaded.Public().(*ecdsa.PublicKey).Equal(key.Public()))

	_, err = f.LoadPrivateKeyPEM(path, "wrong")
	assert.ErrorIs(t, err, types.ErrKeyLoad)
	_, err = f.LoadPrivateKeyPEM(filepath.Join(dir, "missing.pem"), "")
	assert.ErrorIs(t, err, types.ErrKeyLoad)

	pubData, err := key.ExportPublicKeyPEM()
	require.NoError(t, err)
	pubPath := filepath.Join(dir, "pub.pem")
	require.NoError(t, os.WriteFile(pubPath, pubData, 0600))
	pub, err := f.LoadPublicKeyPEM(pubPath)
	require.NoError(t, err)
	assert.False(t, pub.HasPrivateKey())

	nonExportable := NewFactory(WithBackend(BackendSoftware), WithStorageFlags(FlagDefault))
	locked, err := nonExportable.Generate(types.ECDSAP256)
	require.NoError(t, err)
	_, err = locked.ExportPrivateKeyPEM(nil)
	assert.ErrorIs(t, err, types.ErrKeyUsage)

	_, err = pub.ExportPrivateKeyPEM(nil)
	assert.ErrorIs(t, err, types.ErrKeyUsage)
}
