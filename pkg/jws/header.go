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

package jws

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-jwx/pkg/encoding/base64url"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// Header is the protected JOSE header. Field order is the serialization
// order; empty optional fields are omitted.
type Header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ,omitempty"`
	KeyID     string `json:"kid,omitempty"`
}

// incomingHeader is the decoding form. crit is read only to reject it: this
// engine understands no header extensions.
type incomingHeader struct {
	Algorithm *string  `json:"alg"`
	Type      string   `json:"typ"`
	KeyID     string   `json:"kid"`
	Critical  []string `json:"crit"`
}

func (h Header) encode() (string, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("jws: marshal header: %w", err)
	}
	return base64url.Encode(data), nil
}

// DecodeHeader parses the header segment of a compact JWS without verifying
// anything. It is meant for routing a token to the right Engine, for example
// by kid.
func DecodeHeader(token string) (Header, error) {
	segment, _, ok := strings.Cut(token, ".")
	if !ok {
		return Header{}, fmt.Errorf("jws: %w: no header segment", types.ErrMalformedToken)
	}
	return decodeHeader(segment)
}

func decodeHeader(segment string) (Header, error) {
	data, err := base64url.Decode(segment)
	if err != nil {
		return Header{}, fmt.Errorf("jws: %w: header: %w", types.ErrMalformedToken, err)
	}

	var in incomingHeader
	if err := json.Unmarshal(data, &in); err != nil {
		return Header{}, fmt.Errorf("jws: %w: header JSON: %v", types.ErrMalformedToken, err)
	}
	if in.Algorithm == nil {
		return Header{}, fmt.Errorf("jws: %w: header has no alg", types.ErrMalformedToken)
	}
	if len(in.Critical) > 0 {
		return Header{}, fmt.Errorf("jws: %w: unsupported critical headers %v", types.ErrMalformedToken, in.Critical)
	}
	return Header{Algorithm: *in.Algorithm, Type: in.Type, KeyID: in.KeyID}, nil
}
