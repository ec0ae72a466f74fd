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

package types

import "errors"

// Error taxonomy shared by the codec, provider factory and both engines.
// Callers should match with errors.Is; every error returned by this module
// wraps exactly one of these sentinels.
var (
	// ErrDecode is returned when base64url or UTF-8 decoding fails.
	ErrDecode = errors.New("decode error")

	// ErrUnsupportedAlgorithm is returned for selectors or header tags outside
	// the closed algorithm taxonomy. It is never defaulted to a fallback.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrMalformedToken is returned for a wrong segment count, invalid
	// base64url or an unparseable JSON header.
	ErrMalformedToken = errors.New("malformed token")

	// ErrAlgorithmMismatch is returned when a token's alg, enc or typ
	// disagrees with the engine configuration.
	ErrAlgorithmMismatch = errors.New("algorithm mismatch")

	// ErrSignatureInvalid is returned when a signature does not verify.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrKeyLoad is returned when a certificate or key container cannot be
	// read or decrypted.
	ErrKeyLoad = errors.New("key load error")

	// ErrKeyUsage is returned when a private-key operation is attempted with
	// public-only or destroyed key material, or the key family does not fit.
	ErrKeyUsage = errors.New("key usage error")

	// ErrIntegrity is returned when a JWE authentication tag does not verify.
	// No plaintext is released alongside this error.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrDecryption is returned when key unwrap or content decryption fails
	// for a reason not covered by ErrIntegrity.
	ErrDecryption = errors.New("decryption error")

	// ErrUnknownVocabulary is returned when an OAuth2/OIDC vocabulary value
	// (response mode, auth method, client mode) is not recognized.
	ErrUnknownVocabulary = errors.New("unknown vocabulary value")
)
