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
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-jwx/pkg/types"
)

var errPadding = errors.New("invalid padding")

// seal encrypts plaintext under cek and returns ciphertext and tag.
func seal(desc types.ContentDescriptor, cek, iv, plaintext, aad []byte) (ciphertext, tag []byte, err error) {
	switch desc.Kind {
	case types.ContentCipherGCM:
		aead, err := newGCM(cek)
		if err != nil {
			return nil, nil, err
		}
		out := aead.Seal(nil, iv, plaintext, aad)
		split := len(out) - aead.Overhead()
		return out[:split], out[split:], nil
	case types.ContentCipherCBCHMAC:
		macKey, encKey := splitKey(cek)
		block, err := aes.NewCipher(encKey)
		if err != nil {
			return nil, nil, fmt.Errorf("jwe: content cipher: %w", err)
		}
		ciphertext = pad(plaintext, block.BlockSize())
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, ciphertext)
		tag = cbcTag(desc, macKey, aad, iv, ciphertext)
		return ciphertext, tag, nil
	default:
		return nil, nil, fmt.Errorf("jwe: %w: enc %s", types.ErrUnsupportedAlgorithm, desc.Algorithm)
	}
}

// open authenticates then decrypts. No plaintext is returned unless the tag
// verifies.
func open(desc types.ContentDescriptor, cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	if len(tag) != desc.TagLen {
		return nil, fmt.Errorf("jwe: %w: tag length %d", types.ErrIntegrity, len(tag))
	}

	switch desc.Kind {
	case types.ContentCipherGCM:
		aead, err := newGCM(cek)
		if err != nil {
			return nil, err
		}
		sealed := make([]byte, 0, len(ciphertext)+len(tag))
		sealed = append(append(sealed, ciphertext...), tag...)
		plaintext, err := aead.Open([]byte{}, iv, sealed, aad)
		if err != nil {
			return nil, fmt.Errorf("jwe: %w: authentication tag mismatch", types.ErrIntegrity)
		}
		return plaintext, nil
	case types.ContentCipherCBCHMAC:
		macKey, encKey := splitKey(cek)
		expected := cbcTag(desc, macKey, aad, iv, ciphertext)
		if subtle.ConstantTimeCompare(expected, tag) != 1 {
			return nil, fmt.Errorf("jwe: %w: authentication tag mismatch", types.ErrIntegrity)
		}
		block, err := aes.NewCipher(encKey)
		if err != nil {
			return nil, fmt.Errorf("jwe: content cipher: %w", err)
		}
		if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
			return nil, fmt.Errorf("jwe: %w: ciphertext is not block aligned", types.ErrDecryption)
		}
		buf := make([]byte, len(ciphertext))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, ciphertext)
		plaintext, err := unpad(buf, block.BlockSize())
		if err != nil {
			clear(buf)
			return nil, fmt.Errorf("jwe: %w: %v", types.ErrDecryption, err)
		}
		return plaintext, nil
	default:
		return nil, fmt.Errorf("jwe: %w: enc %s", types.ErrUnsupportedAlgorithm, desc.Algorithm)
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("jwe: content cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("jwe: content cipher: %w", err)
	}
	return aead, nil
}

// splitKey returns MAC_KEY || ENC_KEY halves of a CBC-HMAC CEK (RFC 7518
// section 5.2.2.1).
func splitKey(cek []byte) (macKey, encKey []byte) {
	half := len(cek) / 2
	return cek[:half], cek[half:]
}

// cbcTag computes the truncated HMAC over AAD || IV || ciphertext || AL,
// where AL is the AAD length in bits as a 64-bit big-endian integer.
func cbcTag(desc types.ContentDescriptor, macKey, aad, iv, ciphertext []byte) []byte {
	var al [8]byte
	binary.BigEndian.PutUint64(al[:], uint64(len(aad))*8)

	mac := hmac.New(desc.MACHash.New, macKey)
	mac.Write(aad)
	mac.Write(iv)
	mac.Write(ciphertext)
	mac.Write(al[:])
	return mac.Sum(nil)[:desc.TagLen]
}

// pad applies PKCS#7 padding into a new buffer.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errPadding
		}
	}
	return data[:len(data)-n], nil
}
