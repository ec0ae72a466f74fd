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

// Package pkcs11 provides a PKCS#11 key generation backend for the provider
// factory, built on crypto11.
//
// The backend is compiled only with the pkcs11 build tag, since crypto11
// needs cgo. Without the tag New returns a backend that reports itself
// unavailable, so the factory falls back to software keys.
//
//	backend, err := pkcs11.New(&pkcs11.Config{
//		Library:    "/usr/lib/softhsm/libsofthsm2.so",
//		TokenLabel: "jwx",
//		PIN:        "1234",
//	})
//	if err != nil {
//		return err
//	}
//	defer backend.Close()
//	if err := provider.Register(backend); err != nil {
//		return err
//	}
package pkcs11

// Name is the backend name used in configuration.
const Name = "pkcs11"
