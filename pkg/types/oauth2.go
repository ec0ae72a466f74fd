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

package types

import (
	"fmt"
	"strings"
)

// ResponseMode is the OAuth2 response_mode vocabulary.
type ResponseMode string

const (
	ResponseModeQuery    ResponseMode = "query"
	ResponseModeFragment ResponseMode = "fragment"
	ResponseModeFormPost ResponseMode = "form_post"
)

// AuthMethod is the token endpoint client authentication vocabulary
// (token_endpoint_auth_method).
type AuthMethod string

const (
	AuthMethodClientSecretBasic AuthMethod = "client_secret_basic"
	AuthMethodClientSecretPost  AuthMethod = "client_secret_post"
	AuthMethodClientSecretJWT   AuthMethod = "client_secret_jwt"
	AuthMethodPrivateKeyJWT     AuthMethod = "private_key_jwt"
	AuthMethodTLSClientAuth     AuthMethod = "tls_client_auth"
)

// ClientMode selects the security profile a client runs under.
type ClientMode string

const (
	ClientModeNormal ClientMode = "normal"
	ClientModeFAPI1  ClientMode = "fapi1"
	ClientModeFAPI2  ClientMode = "fapi2"
)

var (
	responseModes = []ResponseMode{ResponseModeQuery, ResponseModeFragment, ResponseModeFormPost}
	authMethods   = []AuthMethod{
		AuthMethodClientSecretBasic,
		AuthMethodClientSecretPost,
		AuthMethodClientSecretJWT,
		AuthMethodPrivateKeyJWT,
		AuthMethodTLSClientAuth,
	}
	clientModes = []ClientMode{ClientModeNormal, ClientModeFAPI1, ClientModeFAPI2}
)

func (m ResponseMode) String() string { return string(m) }
func (m AuthMethod) String() string   { return string(m) }
func (m ClientMode) String() string   { return string(m) }

// ParseResponseMode resolves a response_mode value.
func ParseResponseMode(s string) (ResponseMode, error) {
	for _, m := range responseModes {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: response_mode %q", ErrUnknownVocabulary, s)
}

// ParseAuthMethod resolves a token_endpoint_auth_method value.
func ParseAuthMethod(s string) (AuthMethod, error) {
	for _, m := range authMethods {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: auth_method %q", ErrUnknownVocabulary, s)
}

// ParseClientMode resolves a client mode value.
func ParseClientMode(s string) (ClientMode, error) {
	for _, m := range clientModes {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: client_mode %q", ErrUnknownVocabulary, s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ResponseMode) UnmarshalText(text []byte) error {
	v, err := ParseResponseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *AuthMethod) UnmarshalText(text []byte) error {
	v, err := ParseAuthMethod(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ClientMode) UnmarshalText(text []byte) error {
	v, err := ParseClientMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// fapiAlgorithms are the only signature algorithms FAPI profiles permit.
var fapiAlgorithms = []SignatureAlgorithm{RSAPSSSHA256, ECDSAP256}

// SignatureAlgorithmFor selects the signature selector a client assertion
// uses for the negotiated auth method, client mode and alg value.
//
// Only private_key_jwt is backed by an asymmetric signature; every other
// method returns ErrUnsupportedAlgorithm. FAPI modes restrict alg to PS256
// and ES256. An empty alg selects the mode's default (RS256 for normal,
// PS256 for FAPI).
func SignatureAlgorithmFor(method AuthMethod, mode ClientMode, alg string) (SignatureAlgorithm, error) {
	if method != AuthMethodPrivateKeyJWT {
		return "", fmt.Errorf("%w: auth_method %s has no asymmetric signature", ErrUnsupportedAlgorithm, method)
	}

	fapi := mode == ClientModeFAPI1 || mode == ClientModeFAPI2
	if alg == "" {
		if fapi {
			return RSAPSSSHA256, nil
		}
		return RSAPKCS1SHA256, nil
	}

	selected, err := ParseSignatureAlgorithm(alg)
	if err != nil {
		return "", err
	}
	if selected.JOSE() == "" {
		return "", fmt.Errorf("%w: %s has no JOSE alg", ErrUnsupportedAlgorithm, selected)
	}
	if fapi {
		for _, allowed := range fapiAlgorithms {
			if allowed == selected {
				return selected, nil
			}
		}
		return "", fmt.Errorf("%w: %s not permitted in %s", ErrUnsupportedAlgorithm, selected.JOSE(), mode)
	}
	return selected, nil
}
