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

// Package jwe creates and decrypts compact JWE tokens (RFC 7516) with RSA
// key management and AES content encryption.
//
// A token has five base64url segments:
//
//	header.encrypted_key.iv.ciphertext.tag
//
// Every Create draws a fresh content encryption key and IV. Decrypt
// authenticates the ciphertext before any plaintext is returned.
//
// Example:
//
//	key, _ := factory.GenerateEncryptionKey(types.RSAOAEP256A256GCM)
//	engine, _ := jwe.New(types.RSAOAEP256A256GCM, key)
//	token, _ := engine.Create([]byte("secret"))
//	plaintext, _ := engine.Decrypt(token)
package jwe
