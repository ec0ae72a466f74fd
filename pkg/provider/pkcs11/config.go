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
	"fmt"
	"os"
	"strings"
)

// Config identifies a PKCS#11 token and how to log in to it.
type Config struct {
	// Library is the path to the PKCS#11 module, for example
	// /usr/lib/softhsm/libsofthsm2.so.
	Library string `yaml:"library" json:"library"`

	// TokenLabel is the label of the token to use. Either TokenLabel or
	// Slot must be set.
	TokenLabel string `yaml:"token" json:"token"`

	// Slot is the slot number, used when TokenLabel is empty.
	Slot *int `yaml:"slot,omitempty" json:"slot,omitempty"`

	// PIN is the user PIN.
	PIN string `yaml:"pin,omitempty" json:"pin,omitempty"`

	// Serialize forces one operation at a time per key for tokens that
	// cannot serve concurrent sessions.
	Serialize bool `yaml:"serialize" json:"serialize"`
}

// Validate checks the configuration without touching the token.
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.Library == "" {
		return fmt.Errorf("%w: library path is required", ErrInvalidConfig)
	}
	if _, err := os.Stat(c.Library); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrLibraryNotFound, c.Library)
	}
	if c.TokenLabel == "" && c.Slot == nil {
		return fmt.Errorf("%w: token label or slot is required", ErrInvalidConfig)
	}
	if c.PIN != "" && len(c.PIN) < 4 {
		return ErrInvalidPINLength
	}
	return nil
}

// IsSoftHSM returns true if the library path indicates SoftHSM is being used.
func (c *Config) IsSoftHSM() bool {
	return strings.Contains(c.Library, "libsofthsm")
}

// String returns a string representation of the config with the PIN masked.
func (c *Config) String() string {
	pinMask := "****"
	if c.PIN == "" {
		pinMask = "<not set>"
	}
	slot := "<not set>"
	if c.Slot != nil {
		slot = fmt.Sprintf("%d", *c.Slot)
	}
	return fmt.Sprintf("PKCS#11 Config{Library: %s, TokenLabel: %s, Slot: %s, PIN: %s}",
		c.Library, c.TokenLabel, slot, pinMask)
}
