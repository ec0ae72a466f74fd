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

package pkcs11

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	lib := filepath.Join(t.TempDir(), "libsofthsm2.so")
	require.NoError(t, os.WriteFile(lib, []byte{}, 0600))
	slot := 0

	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{"nil", nil, ErrInvalidConfig},
		{"no library", &Config{TokenLabel: "jwx"}, ErrInvalidConfig},
		{"missing library", &Config{Library: "/nonexistent/lib.so", TokenLabel: "jwx"}, ErrLibraryNotFound},
		{"no token", &Config{Library: lib}, ErrInvalidConfig},
		{"short pin", &Config{Library: lib, TokenLabel: "jwx", PIN: "123"}, ErrInvalidPINLength},
		{"label", &Config{Library: lib, TokenLabel: "jwx", PIN: "1234"}, nil},
		{"slot", &Config{Library: lib, Slot: &slot}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_String(t *testing.T) {
	slot := 3
	c := &Config{Library: "/usr/lib/softhsm/libsofthsm2.so", TokenLabel: "jwx", PIN: "secret", Slot: &slot}
	s := c.String()
	assert.NotContains(t, s, "secret")
	assert.Contains(t, s, "****")
	assert.Contains(t, s, "Slot: 3")
	assert.True(t, c.IsSoftHSM())

	assert.Contains(t, (&Config{}).String(), "PIN: <not set>")
}
