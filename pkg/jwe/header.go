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

package jwe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-jwx/pkg/encoding/base64url"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// Header is the protected JWE header in serialization order.
type Header struct {
	Algorithm  string `json:"alg"`
	Encryption string `json:"enc"`
	Type       string `json:"typ,omitempty"`
	KeyID      string `json:"kid,omitempty"`
}

type incomingHeader struct {
	Algorithm   *string  `json:"alg"`
	Encryption  *string  `json:"enc"`
	Type        string   `json:"typ"`
	KeyID       string   `json:"kid"`
	Compression string   `json:"zip"`
	Critical    []string `json:"crit"`
}

func (h Header) encode() (string, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("jwe: marshal header: %w", err)
	}
	return base64url.Encode(data), nil
}

// DecodeHeader parses the protected header of a compact JWE without
// decrypting anything.
func DecodeHeader(token string) (Header, error) {
	segment, _, ok := strings.Cut(token, ".")
	if !ok {
		return Header{}, fmt.Errorf("jwe: %w: no header segment", types.ErrMalformedToken)
	}
	return decodeHeader(segment)
}

func decodeHeader(segment string) (Header, error) {
	data, err := base64url.Decode(segment)
	if err != nil {
		return Header{}, fmt.Errorf("jwe: %w: header: %w", types.ErrMalformedToken, err)
	}

	var in incomingHeader
	if err := json.Unmarshal(data, &in); err != nil {
		return Header{}, fmt.Errorf("jwe: %w: header JSON: %v", types.ErrMalformedToken, err)
	}
	if in.Algorithm == nil || in.Encryption == nil {
		return Header{}, fmt.Errorf("jwe: %w: header requires alg and enc", types.ErrMalformedToken)
	}
	if len(in.Critical) > 0 {
		return Header{}, fmt.Errorf("jwe: %w: unsupported critical headers %v", types.ErrMalformedToken, in.Critical)
	}
	if in.Compression != "" {
		return Header{}, fmt.Errorf("jwe: %w: zip %q", types.ErrUnsupportedAlgorithm, in.Compression)
	}
	return Header{
		Algorithm:  *in.Algorithm,
		Encryption: *in.Encryption,
		Type:       in.Type,
		KeyID:      in.KeyID,
	}, nil
}
