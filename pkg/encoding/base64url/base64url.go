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

package base64url

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// Encode returns the unpadded base64url encoding of data.
func Encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode returns the bytes represented by the base64url string s.
// Trailing padding is optional; when present it must be complete.
func Decode(s string) ([]byte, error) {
	// The stdlib decoder skips CR and LF; a token segment never contains them.
	if strings.ContainsAny(s, "\r\n") {
		return nil, fmt.Errorf("%w: illegal line break", types.ErrDecode)
	}
	if i := strings.IndexByte(s, '='); i >= 0 {
		if len(s)%4 != 0 {
			return nil, fmt.Errorf("%w: invalid padding", types.ErrDecode)
		}
		pad := s[i:]
		if strings.Trim(pad, "=") != "" || len(pad) > 2 {
			return nil, fmt.Errorf("%w: invalid padding", types.ErrDecode)
		}
		s = s[:i]
	}
	// RawURLEncoding rejects '+', '/', whitespace and non-zero trailing bits
	// in strict mode, which keeps Encode(Decode(s)) == s.
	data, err := base64.RawURLEncoding.Strict().DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecode, err)
	}
	return data, nil
}

// EncodeString encodes the UTF-8 bytes of s.
func EncodeString(s string) string {
	return Encode(StringToBytes(s))
}

// DecodeString decodes s and requires the result to be valid UTF-8.
func DecodeString(s string) (string, error) {
	data, err := Decode(s)
	if err != nil {
		return "", err
	}
	return BytesToString(data)
}

// StringToBytes returns the UTF-8 encoding of s.
func StringToBytes(s string) []byte {
	return []byte(s)
}

// BytesToString converts UTF-8 bytes to a string, rejecting invalid sequences.
func BytesToString(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: invalid UTF-8", types.ErrDecode)
	}
	return string(data), nil
}
