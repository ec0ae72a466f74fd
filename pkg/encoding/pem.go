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

package encoding

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// PEM block types
const (
	PEMTypeRSAPrivateKey       = "RSA PRIVATE KEY"
	PEMTypeECPrivateKey        = "EC PRIVATE KEY"
	PEMTypePrivateKey          = "PRIVATE KEY"
	PEMTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	PEMTypePublicKey           = "PUBLIC KEY"
	PEMTypeCertificate         = "CERTIFICATE"
)

// Bundle is the content of a PEM certificate bundle: one or more
// certificates, leaf first, and an optional private key.
type Bundle struct {
	Certificates []*x509.Certificate

	// PrivateKey is nil when the bundle carries no key, or when the key is
	// encrypted and no password was supplied.
	PrivateKey crypto.PrivateKey
}

// Leaf returns the first certificate in the bundle.
func (b *Bundle) Leaf() *x509.Certificate {
	if len(b.Certificates) == 0 {
		return nil
	}
	return b.Certificates[0]
}

// EncodePrivateKeyPEM encodes a private key as a PKCS#8 PEM block. With a
// password the block is "ENCRYPTED PRIVATE KEY", otherwise "PRIVATE KEY".
//
// Example:
//
//	pemData, err := encoding.EncodePrivateKeyPEM(privateKey, []byte("password"))
func EncodePrivateKeyPEM(privateKey crypto.PrivateKey, password []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, ErrInvalidPrivateKey
	}

	der, err := EncodePKCS8(privateKey, password)
	if err != nil {
		return nil, err
	}

	blockType := PEMTypePrivateKey
	if len(password) > 0 {
		blockType = PEMTypeEncryptedPrivateKey
	}
	return encodeBlock(blockType, der)
}

// DecodePrivateKeyPEM decodes the first private key block in data. PKCS#8
// (plain or encrypted), PKCS#1 RSA and SEC1 EC blocks are accepted.
//
// Example:
//
//	key, err := encoding.DecodePrivateKeyPEM(pemData, []byte("password"))
//	rsaKey := key.(*rsa.PrivateKey)
func DecodePrivateKeyPEM(data []byte, password []byte) (crypto.PrivateKey, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, ErrInvalidPEMEncoding
		}
		if isPrivateKeyBlock(block.Type) {
			return decodePrivateKeyBlock(block, password)
		}
	}
}

// EncodePublicKeyPEM encodes a public key as a PKIX "PUBLIC KEY" block.
func EncodePublicKeyPEM(publicKey crypto.PublicKey) ([]byte, error) {
	if publicKey == nil {
		return nil, ErrInvalidPublicKey
	}
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal PKIX public key: %w", err)
	}
	return encodeBlock(PEMTypePublicKey, der)
}

// DecodePublicKeyPEM decodes a PKIX "PUBLIC KEY" block.
func DecodePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMEncoding
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKIX public key: %w", err)
	}
	return pub, nil
}

// EncodeCertificatePEM encodes an X.509 certificate to PEM format.
func EncodeCertificatePEM(cert *x509.Certificate) ([]byte, error) {
	if cert == nil {
		return nil, ErrInvalidCertificate
	}
	return encodeBlock(PEMTypeCertificate, cert.Raw)
}

// DecodeBundle parses a PEM bundle of certificates and at most one private
// key. An encrypted key is skipped when password is empty. A bundle without a
// certificate is rejected with ErrInvalidCertificate.
func DecodeBundle(data []byte, password []byte) (*Bundle, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	bundle := &Bundle{}
	rest := data
	found := false
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		found = true

		switch {
		case block.Type == PEMTypeCertificate:
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse certificate in bundle: %w", err)
			}
			bundle.Certificates = append(bundle.Certificates, cert)

		case isPrivateKeyBlock(block.Type):
			if bundle.PrivateKey != nil {
				return nil, fmt.Errorf("%w: more than one private key in bundle", ErrInvalidData)
			}
			if block.Type == PEMTypeEncryptedPrivateKey && len(password) == 0 {
				continue
			}
			key, err := decodePrivateKeyBlock(block, password)
			if err != nil {
				return nil, err
			}
			bundle.PrivateKey = key
		}
	}

	if !found {
		return nil, ErrInvalidPEMEncoding
	}
	if len(bundle.Certificates) == 0 {
		return nil, ErrInvalidCertificate
	}
	return bundle, nil
}

func isPrivateKeyBlock(blockType string) bool {
	switch blockType {
	case PEMTypePrivateKey, PEMTypeEncryptedPrivateKey, PEMTypeRSAPrivateKey, PEMTypeECPrivateKey:
		return true
	}
	return false
}

func decodePrivateKeyBlock(block *pem.Block, password []byte) (crypto.PrivateKey, error) {
	switch block.Type {
	case PEMTypeEncryptedPrivateKey:
		if len(password) == 0 {
			return nil, ErrPasswordRequired
		}
		return DecodePKCS8(block.Bytes, password)
	case PEMTypeRSAPrivateKey:
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#1 key: %w", err)
		}
		return key, nil
	case PEMTypeECPrivateKey:
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SEC1 key: %w", err)
		}
		return key, nil
	default:
		return DecodePKCS8(block.Bytes, nil)
	}
}

func encodeBlock(blockType string, der []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := pem.Encode(&buf, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return nil, fmt.Errorf("failed to encode PEM: %w", err)
	}
	return buf.Bytes(), nil
}
