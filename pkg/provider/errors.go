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

import "errors"

var (
	// ErrRegistryFrozen is returned by Register once Probe has run.
	ErrRegistryFrozen = errors.New("provider: backend registry is frozen")

	// ErrBackendNotFound is returned when a named backend is not registered.
	ErrBackendNotFound = errors.New("provider: backend not found")

	// ErrBackendUnavailable is returned when a named backend is registered
	// but reports itself unavailable on this host.
	ErrBackendUnavailable = errors.New("provider: backend unavailable")

	// ErrDuplicateBackend is returned when two backends share a name.
	ErrDuplicateBackend = errors.New("provider: duplicate backend")
)
