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

// Package provider is the key and signature-primitive factory behind the JWS
// and JWE engines.
//
// Keys come from one of three places: fresh generation on a registered
// Backend, X.509 containers (PKCS#12, PEM bundles, DER certificates) loaded
// with LoadX509, or caller-supplied crypto.Signer / crypto.PublicKey values.
// All of them end up as *KeyMaterial, which CreateDigitalSigner turns into a
// Primitive for a given SignatureAlgorithm.
//
// Backends are selected at runtime. Probe inspects every registered backend
// once per process and freezes the registry; the software backend is always
// present and is used when no native backend is available. Signatures are
// always verified with the standard library public-key routines, so a key
// generated on an HSM produces tokens indistinguishable from a software key.
package provider
