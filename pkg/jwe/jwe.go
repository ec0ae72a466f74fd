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
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeremyhahn/go-jwx/pkg/encoding/base64url"
	"github.com/jeremyhahn/go-jwx/pkg/logging"
	"github.com/jeremyhahn/go-jwx/pkg/metrics"
	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// Engine creates and decrypts compact JWE tokens for one algorithm pair and
// one RSA key.
type Engine struct {
	alg    types.EncryptionAlgorithm
	desc   types.EncryptionDescriptor
	typ    string
	kid    string
	key    *provider.KeyMaterial
	rand   io.Reader
	logger *logging.Logger

	// header is the encoded protected header, identical for every token.
	header string
}

// Option configures an Engine.
type Option func(*Engine)

// WithKeyID sets the kid header value.
func WithKeyID(kid string) Option {
	return func(e *Engine) {
		e.kid = kid
	}
}

// WithType sets the typ header value. It is written but not enforced on
// decryption.
func WithType(typ string) Option {
	return func(e *Engine) {
		e.typ = typ
	}
}

// WithRandom sets the source for CEKs, IVs and RSA padding.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
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

// New returns an Engine for alg over an RSA key. Both halves of alg must
// belong to the supported sets. A public-only key can Create but not
// Decrypt.
func New(alg types.EncryptionAlgorithm, key *provider.KeyMaterial, opts ...Option) (*Engine, error) {
	desc, err := alg.Describe()
	if err != nil {
		return nil, fmt.Errorf("jwe: %w", err)
	}
	if key == nil {
		return nil, fmt.Errorf("jwe: %w: nil key material", types.ErrKeyUsage)
	}
	if key.Kind != desc.KeyWrap.Kind {
		return nil, fmt.Errorf("jwe: %w: %s requires an %s key, got %s",
			types.ErrUnsupportedAlgorithm, alg.KeyWrap, desc.KeyWrap.Kind, key.Kind)
	}

	e := &Engine{
		alg:    alg,
		desc:   desc,
		key:    key,
		rand:   rand.Reader,
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	header, err := Header{
		Algorithm:  string(alg.KeyWrap),
		Encryption: string(alg.Content),
		Type:       e.typ,
		KeyID:      e.kid,
	}.encode()
	if err != nil {
		return nil, err
	}
	e.header = header
	return e, nil
}

// Algorithm returns the configured selector.
func (e *Engine) Algorithm() types.EncryptionAlgorithm {
	return e.alg
}

// Key returns the engine's key material.
func (e *Engine) Key() *provider.KeyMaterial {
	return e.key
}

// Create encrypts payload under a fresh CEK and IV and returns the compact
// serialization.
func (e *Engine) Create(payload []byte) (token string, err error) {
	start := time.Now()
	defer func() { metrics.Observe(metrics.OpEncrypt, e.alg.String(), start, err) }()

	pub, err := e.key.RSAPublicKey()
	if err != nil {
		return "", fmt.Errorf("jwe: %w", err)
	}

	content := e.desc.Content
	cek := make([]byte, content.KeyLen)
	defer clear(cek)
	if _, err := io.ReadFull(e.rand, cek); err != nil {
		return "", fmt.Errorf("jwe: generate CEK: %w", err)
	}
	iv := make([]byte, content.IVLen)
	if _, err := io.ReadFull(e.rand, iv); err != nil {
		return "", fmt.Errorf("jwe: generate IV: %w", err)
	}

	encryptedKey, err := wrapKey(e.rand, e.desc.KeyWrap, pub, cek)
	if err != nil {
		return "", fmt.Errorf("jwe: wrap key: %w", err)
	}

	ciphertext, tag, err := seal(content, cek, iv, payload, []byte(e.header))
	if err != nil {
		return "", err
	}

	return strings.Join([]string{
		e.header,
		base64url.Encode(encryptedKey),
		base64url.Encode(iv),
		base64url.Encode(ciphertext),
		base64url.Encode(tag),
	}, "."), nil
}

// Decrypt authenticates and decrypts token. The plaintext is returned only
// after the authentication tag verifies.
func (e *Engine) Decrypt(token string) (plaintext []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.Observe(metrics.OpDecrypt, e.alg.String(), start, err)
		if err != nil {
			e.logger.Debug("jwe decryption failed", "alg", e.alg.String(), "reason", err.Error())
		}
	}()

	segments := strings.Split(token, ".")
	if len(segments) != 5 {
		return nil, fmt.Errorf("jwe: %w: expected 5 segments, got %d", types.ErrMalformedToken, len(segments))
	}

	header, err := decodeHeader(segments[0])
	if err != nil {
		return nil, err
	}
	if err := e.checkHeader(header); err != nil {
		return nil, err
	}

	decoded := make([][]byte, 4)
	for i, name := range []string{"encrypted key", "iv", "ciphertext", "tag"} {
		decoded[i], err = base64url.Decode(segments[i+1])
		if err != nil {
			return nil, fmt.Errorf("jwe: %w: %s: %w", types.ErrMalformedToken, name, err)
		}
	}
	encryptedKey, iv, ciphertext, tag := decoded[0], decoded[1], decoded[2], decoded[3]

	content := e.desc.Content
	if len(iv) != content.IVLen {
		return nil, fmt.Errorf("jwe: %w: iv has %d bytes, expected %d", types.ErrMalformedToken, len(iv), content.IVLen)
	}

	decrypter, err := e.key.Decrypter()
	if err != nil {
		return nil, fmt.Errorf("jwe: %w", err)
	}
	cek, err := unwrapKey(e.rand, e.desc.KeyWrap, decrypter, encryptedKey, content.KeyLen)
	if err != nil {
		return nil, err
	}
	defer clear(cek)

	return open(content, cek, iv, ciphertext, tag, []byte(segments[0]))
}

// Close destroys the engine's key material.
func (e *Engine) Close() error {
	e.key.Destroy()
	return nil
}

func (e *Engine) checkHeader(h Header) error {
	alg, err := types.ParseKeyWrapAlgorithm(h.Algorithm)
	if err != nil {
		return fmt.Errorf("jwe: %w", err)
	}
	enc, err := types.ParseContentEncryption(h.Encryption)
	if err != nil {
		return fmt.Errorf("jwe: %w", err)
	}
	if alg != e.alg.KeyWrap {
		return fmt.Errorf("jwe: %w: alg %q, expected %s", types.ErrAlgorithmMismatch, h.Algorithm, e.alg.KeyWrap)
	}
	if enc != e.alg.Content {
		return fmt.Errorf("jwe: %w: enc %q, expected %s", types.ErrAlgorithmMismatch, h.Encryption, e.alg.Content)
	}
	return nil
}
