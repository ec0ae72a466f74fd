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
	"bytes"
	"crypto"
	"crypto/dsa"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeremyhahn/go-jwx/pkg/encoding"
	"github.com/jeremyhahn/go-jwx/pkg/metrics"
	"github.com/jeremyhahn/go-jwx/pkg/types"
	"software.sslmate.com/src/go-pkcs12"
)

// containerFormat is the encoding of an X.509 key container.
type containerFormat string

const (
	formatPKCS12 containerFormat = "pkcs12"
	formatPEM    containerFormat = "pem"
	formatDER    containerFormat = "der"
)

func detectFormat(path string, data []byte) containerFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pfx", ".p12":
		return formatPKCS12
	}
	if bytes.Contains(data, []byte("-----BEGIN ")) {
		return formatPEM
	}
	if _, err := x509.ParseCertificate(data); err == nil {
		return formatDER
	}
	return formatPKCS12
}

// LoadX509 reads a certificate container and returns its key.
//
// Supported containers are PKCS#12 (.pfx, .p12), PEM bundles holding a
// CERTIFICATE and optionally a PKCS#8 private key, and DER certificates.
// With an empty password only the certificate's public key is loaded; with a
// password the private key is decrypted and must match the certificate.
// Every failure, including a wrong password, wraps ErrKeyLoad.
func (f *Factory) LoadX509(path, password string, flags StorageFlags) (key *KeyMaterial, err error) {
	start := time.Now()
	defer func() { metrics.Observe(metrics.OpLoad, "x509", start, err) }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrKeyLoad, err)
	}

	format := detectFormat(path, data)
	var (
		leaf  *x509.Certificate
		chain []*x509.Certificate
		priv  crypto.PrivateKey
	)
	switch format {
	case formatPKCS12:
		leaf, chain, priv, err = decodePKCS12(data, password)
	case formatPEM:
		leaf, chain, priv, err = decodePEMBundle(data, password)
	case formatDER:
		leaf, err = x509.ParseCertificate(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrKeyLoad, filepath.Base(path), err)
	}

	var signer crypto.Signer
	if password != "" {
		if priv == nil {
			return nil, fmt.Errorf("%w: %s: no private key in container", types.ErrKeyLoad, filepath.Base(path))
		}
		var ok bool
		signer, ok = priv.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("%w: %s: private key type %T", types.ErrKeyLoad, filepath.Base(path), priv)
		}
		if !publicKeysEqual(leaf.PublicKey, signer.Public()) {
			return nil, fmt.Errorf("%w: %s: private key does not match certificate", types.ErrKeyLoad, filepath.Base(path))
		}
	}

	key, err = newKeyMaterial(signer, leaf.PublicKey, BackendSoftware)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrKeyLoad, err)
	}
	key.Certificate = leaf
	key.Chain = chain
	key.Flags = flags

	f.logger.Debug("loaded X.509 key",
		"path", filepath.Base(path),
		"format", format,
		"kid", key.KeyID,
		"kind", key.Kind,
		"private", key.HasPrivateKey(),
		"subject", leaf.Subject.CommonName)
	return key, nil
}

// decodePKCS12 opens a PFX. An empty password still has to verify the MAC,
// so password-protected files cannot be opened public-only.
func decodePKCS12(data []byte, password string) (*x509.Certificate, []*x509.Certificate, crypto.PrivateKey, error) {
	priv, leaf, chain, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, nil, nil, errors.New("incorrect password")
		}
		return nil, nil, nil, err
	}
	if password == "" {
		priv = nil
	}
	return leaf, chain, priv, nil
}

func decodePEMBundle(data []byte, password string) (*x509.Certificate, []*x509.Certificate, crypto.PrivateKey, error) {
	bundle, err := encoding.DecodeBundle(data, []byte(password))
	if err != nil {
		return nil, nil, nil, err
	}
	priv := bundle.PrivateKey
	if password == "" {
		priv = nil
	}
	return bundle.Leaf(), bundle.Certificates[1:], priv, nil
}

// LoadPrivateKeyPEM reads a PKCS#8, PKCS#1 or SEC1 PEM private key file, as
// written by ExportPrivateKeyPEM. Failures wrap ErrKeyLoad.
func (f *Factory) LoadPrivateKeyPEM(path, password string) (key *KeyMaterial, err error) {
	start := time.Now()
	defer func() { metrics.Observe(metrics.OpLoad, "pem", start, err) }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrKeyLoad, err)
	}
	priv, err := encoding.DecodePrivateKeyPEM(data, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrKeyLoad, filepath.Base(path), err)
	}
	key, err = f.FromPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrKeyLoad, err)
	}
	key.Flags = FlagExportable
	return key, nil
}

// LoadPublicKeyPEM reads a PKIX PEM public key file.
func (f *Factory) LoadPublicKeyPEM(path string) (*KeyMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrKeyLoad, err)
	}
	pub, err := encoding.DecodePublicKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrKeyLoad, filepath.Base(path), err)
	}
	return f.FromPublicKey(pub)
}

type equaler interface {
	Equal(crypto.PublicKey) bool
}

func publicKeysEqual(a, b crypto.PublicKey) bool {
	if da, ok := a.(*dsa.PublicKey); ok {
		db, ok := b.(*dsa.PublicKey)
		return ok && da.Y.Cmp(db.Y) == 0 && da.P.Cmp(db.P) == 0 &&
			da.Q.Cmp(db.Q) == 0 && da.G.Cmp(db.G) == 0
	}
	eq, ok := a.(equaler)
	return ok && eq.Equal(b)
}
