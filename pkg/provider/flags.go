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

import (
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// StorageFlags records how an X.509 key container was opened. Only
// FlagExportable changes behavior; the others are carried for callers that
// persist key material.
type StorageFlags uint8

const (
	// FlagDefault opens the container with no special handling.
	FlagDefault StorageFlags = 0

	// FlagPersistKeySet marks the key as one the caller intends to persist.
	FlagPersistKeySet StorageFlags = 1 << iota

	// FlagMachineKeySet marks the key as machine-wide rather than per user.
	FlagMachineKeySet

	// FlagExportable permits ExportPrivateKeyPEM.
	FlagExportable
)

var storageFlagNames = []struct {
	flag StorageFlags
	name string
}{
	{FlagPersistKeySet, "persist"},
	{FlagMachineKeySet, "machine"},
	{FlagExportable, "exportable"},
}

// Has reports whether every bit of f is set.
func (s StorageFlags) Has(f StorageFlags) bool {
	return s&f == f
}

// String returns the flags as a comma separated list, or "default".
func (s StorageFlags) String() string {
	var names []string
	for _, n := range storageFlagNames {
		if s.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "default"
	}
	return strings.Join(names, ",")
}

// ParseStorageFlags parses a comma or pipe separated flag list such as
// "exportable,persist". Empty input and "default" yield FlagDefault.
func ParseStorageFlags(s string) (StorageFlags, error) {
	var flags StorageFlags
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "", "default":
			continue
		case "persist", "persistkeyset":
			flags |= FlagPersistKeySet
		case "machine", "machinekeyset":
			flags |= FlagMachineKeySet
		case "exportable":
			flags |= FlagExportable
		default:
			return 0, fmt.Errorf("%w: storage flag %q", types.ErrUnknownVocabulary, part)
		}
	}
	return flags, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StorageFlags) UnmarshalText(text []byte) error {
	flags, err := ParseStorageFlags(string(text))
	if err != nil {
		return err
	}
	*s = flags
	return nil
}
