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

package jwe

import (
	"crypto"
	"crypto/rsa"
	_ "crypto/sha1"
	_ "crypto/sha256"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// wrapKey encrypts the CEK to the recipient's RSA public key.
func wrapKey(rand io.Reader, desc types.KeyWrapDescriptor, pub *rsa.PublicKey, cek []byte) ([]byte, error) {
	if !desc.OAEP {
		return rsa.EncryptPKCS1v15(rand, pub, cek)
	}
	return rsa.EncryptOAEP(desc.Hash.New(), rand, pub, cek, nil)
}

// unwrapKey recovers the CEK. Any failure, including a CEK of the wrong
// length, is reported as ErrDecryption without further detail.
func unwrapKey(rand io.Reader, desc types.KeyWrapDescriptor, d crypto.Decrypter, encryptedKey []byte, keyLen int) ([]byte, error) {
	var opts crypto.DecrypterOpts
	if desc.OAEP {
		opts = &rsa.OAEPOptions{Hash: desc.Hash}
	}
	cek, err := d.Decrypt(rand, encryptedKey, opts)
	if err != nil {
		return nil, fmt.Errorf("jwe: %w: key unwrap failed", types.ErrDecryption)
	}
	if len(cek) != keyLen {
		clear(cek)
		return nil, fmt.Errorf("jwe: %w: unwrapped key has %d bytes, expected %d", types.ErrDecryption, len(cek), keyLen)
	}
	return cek, nil
}
