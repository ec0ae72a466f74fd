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

// Package base64url implements the base64url encoding of RFC 4648 section 5
// as used by JWS (RFC 7515) and JWE (RFC 7516) compact serializations,
// together with the UTF-8 conversions the token engines need.
//
// Encoding always strips padding. Decoding accepts both padded and unpadded
// input but rejects anything else: characters outside the url-safe alphabet,
// padding in the wrong place, and lengths that cannot come from an encoder.
// Every failure wraps types.ErrDecode.
package base64url
