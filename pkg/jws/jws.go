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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeremyhahn/go-jwx/pkg/encoding/base64url"
	"github.com/jeremyhahn/go-jwx/pkg/logging"
	"github.com/jeremyhahn/go-jwx/pkg/metrics"
	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// Engine creates and verifies compact JWS tokens for one algorithm and key.
type Engine struct {
	alg       types.SignatureAlgorithm
	jose      string
	typ       string
	kid       string
	key       *provider.KeyMaterial
	primitive provider.Primitive
	logger    *logging.Logger
	factory   *provider.Factory

	// header is the encoded protected header, identical for every token.
	header string
}

// Option configures an Engine.
type Option func(*Engine)

// WithType sets the typ header value written by Create and required by
// Verify. The default is "JWT". An empty type is neither written nor
// checked.
func WithType(typ string) Option {
	return func(e *Engine) {
		e.typ = typ
	}
}

// WithKeyID sets the kid header value. It defaults to empty; use
// key.KeyID to publish the key material's id.
func WithKeyID(kid string) Option {
	return func(e *Engine) {
		e.kid = kid
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFactory sets the factory that builds the signature primitive.
func WithFactory(factory *provider.Factory) Option {
	return func(e *Engine) {
		e.factory = factory
	}
}

// New returns an Engine for alg over key. alg must have a JOSE tag and match
// the key family; otherwise ErrUnsupportedAlgorithm is returned and no
// Engine is built. Public-only keys produce an Engine that can verify but
// whose Create fails with ErrKeyUsage.
func New(alg types.SignatureAlgorithm, key *provider.KeyMaterial, opts ...Option) (*Engine, error) {
	desc, err := alg.Describe()
	if err != nil {
		return nil, fmt.Errorf("jws: %w", err)
	}
	if desc.JOSE == "" {
		return nil, fmt.Errorf("jws: %w: %s has no JOSE alg", types.ErrUnsupportedAlgorithm, alg)
	}

	e := &Engine{
		alg:    alg,
		jose:   desc.JOSE,
		typ:    types.TokenTypeJWT,
		key:    key,
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.factory == nil {
		e.factory = provider.NewFactory(provider.WithLogger(e.logger))
	}

	sp, err := e.factory.CreateDigitalSigner(alg, key)
	if err != nil {
		return nil, fmt.Errorf("jws: %w", err)
	}
	e.primitive = sp.Primitive

	header, err := Header{Algorithm: e.jose, Type: e.typ, KeyID: e.kid}.encode()
	if err != nil {
		return nil, err
	}
	e.header = header
	return e, nil
}

// Algorithm returns the configured selector.
func (e *Engine) Algorithm() types.SignatureAlgorithm {
	return e.alg
}

// Key returns the engine's key material.
func (e *Engine) Key() *provider.KeyMaterial {
	return e.key
}

// Create signs payload and returns header.payload.signature.
func (e *Engine) Create(payload []byte) (token string, err error) {
	start := time.Now()
	defer func() { metrics.Observe(metrics.OpSign, e.jose, start, err) }()

	signingInput := e.header + "." + base64url.Encode(payload)
	sig, err := e.primitive.Sign([]byte(signingInput))
	if err != nil {
		return "", fmt.Errorf("jws: %w", err)
	}
	return signingInput + "." + base64url.Encode(sig), nil
}

// CreateJSON marshals v to JSON and signs it.
func (e *Engine) CreateJSON(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("jws: marshal payload: %w", err)
	}
	return e.Create(payload)
}

// Verify reports whether token is a well-formed JWS for the configured
// algorithm and type, signed by the engine's key. Every failure, structural
// or cryptographic, is false.
func (e *Engine) Verify(token string) bool {
	return e.Validate(token) == nil
}

// Validate runs the Verify pipeline and returns why a token was rejected:
// ErrMalformedToken, ErrUnsupportedAlgorithm, ErrAlgorithmMismatch or
// ErrSignatureInvalid, each wrapped.
func (e *Engine) Validate(token string) error {
	_, err := e.verify(token)
	return err
}

// Payload verifies token and returns its decoded payload.
func (e *Engine) Payload(token string) ([]byte, error) {
	segments, err := e.verify(token)
	if err != nil {
		return nil, err
	}
	payload, err := base64url.Decode(segments[1])
	if err != nil {
		return nil, fmt.Errorf("jws: %w: payload: %w", types.ErrMalformedToken, err)
	}
	return payload, nil
}

// Close destroys the engine's key material. The Engine must not be used
// afterwards.
func (e *Engine) Close() error {
	e.key.Destroy()
	return nil
}

func (e *Engine) verify(token string) (segments []string, err error) {
	start := time.Now()
	defer func() {
		metrics.Observe(metrics.OpVerify, e.jose, start, err)
		if err != nil {
			e.logger.Debug("jws verification failed", "alg", e.jose, "reason", err.Error())
		}
	}()
	return e.parse(token)
}

func (e *Engine) parse(token string) ([]string, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("jws: %w: expected 3 segments, got %d", types.ErrMalformedToken, len(segments))
	}

	header, err := decodeHeader(segments[0])
	if err != nil {
		return nil, err
	}
	if err := e.checkHeader(header); err != nil {
		return nil, err
	}

	if _, err := base64url.Decode(segments[1]); err != nil {
		return nil, fmt.Errorf("jws: %w: payload: %w", types.ErrMalformedToken, err)
	}
	sig, err := base64url.Decode(segments[2])
	if err != nil {
		return nil, fmt.Errorf("jws: %w: signature: %w", types.ErrMalformedToken, err)
	}

	signingInput := segments[0] + "." + segments[1]
	if !e.primitive.Verify([]byte(signingInput), sig) {
		return nil, fmt.Errorf("jws: %w", types.ErrSignatureInvalid)
	}
	return segments, nil
}

func (e *Engine) checkHeader(h Header) error {
	if !strings.EqualFold(h.Algorithm, e.jose) {
		if _, err := types.SignatureAlgorithmFromJOSE(h.Algorithm); err != nil {
			return fmt.Errorf("jws: %w", err)
		}
		return fmt.Errorf("jws: %w: alg %q, expected %s", types.ErrAlgorithmMismatch, h.Algorithm, e.jose)
	}
	if e.typ != "" && !strings.EqualFold(h.Type, e.typ) {
		return fmt.Errorf("jws: %w: typ %q, expected %s", types.ErrAlgorithmMismatch, h.Type, e.typ)
	}
	return nil
}

// IsRejection reports whether err is one of the expected verification
// outcomes rather than an operational failure.
func IsRejection(err error) bool {
	return errors.Is(err, types.ErrMalformedToken) ||
		errors.Is(err, types.ErrUnsupportedAlgorithm) ||
		errors.Is(err, types.ErrAlgorithmMismatch) ||
		errors.Is(err, types.ErrSignatureInvalid)
}
