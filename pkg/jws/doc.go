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

// Package jws creates and verifies JSON Web Signatures in compact
// serialization (RFC 7515).
//
// An Engine is bound to one signature algorithm and one key at construction
// and is immutable afterwards, so a single Engine may be shared between
// goroutines.
//
//	factory := provider.NewFactory()
//	key, err := factory.Generate(types.ECDSAP256)
//	if err != nil {
//		return err
//	}
//	engine, err := jws.New(types.ECDSAP256, key)
//	if err != nil {
//		return err
//	}
//	token, err := engine.Create([]byte(`{"sub":"alice"}`))
//	ok := engine.Verify(token)
//
// Verify fails closed: a malformed token, a header naming a different
// algorithm or type, and a bad signature all return false. Validate returns
// the same decision as a typed error for logging.
package jws
