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
	"crypto"
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/jeremyhahn/go-jwx/pkg/logging"
	"github.com/jeremyhahn/go-jwx/pkg/metrics"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// DefaultRSABits is the modulus length of generated RSA keys.
const DefaultRSABits = 2048

// Factory creates KeyMaterial and signature primitives. A Factory holds no
// mutable state after construction and is safe for concurrent use.
type Factory struct {
	logger  *logging.Logger
	backend string
	rand    io.Reader
	rsaBits int
	flags   StorageFlags
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the factory logger.
func WithLogger(logger *logging.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithBackend pins key generation to a named backend. "auto" or an empty
// name uses the probe selection.
func WithBackend(name string) Option {
	return func(f *Factory) {
		f.backend = name
	}
}

// WithRandom sets the entropy source for key generation and signing.
func WithRandom(r io.Reader) Option {
	return func(f *Factory) {
		if r != nil {
			f.rand = r
		}
	}
}

// WithRSABits sets the modulus length of generated RSA keys.
func WithRSABits(bits int) Option {
	return func(f *Factory) {
		if bits > 0 {
			f.rsaBits = bits
		}
	}
}

// WithStorageFlags sets the flags recorded on generated software keys.
// The default is FlagExportable.
func WithStorageFlags(flags StorageFlags) Option {
	return func(f *Factory) {
		f.flags = flags
	}
}

// NewFactory returns a Factory. Construction triggers the one-time backend
// probe.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		logger:  logging.DefaultLogger(),
		backend: BackendAuto,
		rand:    rand.Reader,
		rsaBits: DefaultRSABits,
		flags:   FlagExportable,
	}
	for _, opt := range opts {
		opt(f)
	}
	Probe()
	return f
}

// Random returns the factory entropy source.
func (f *Factory) Random() io.Reader {
	return f.rand
}

// Logger returns the factory logger.
func (f *Factory) Logger() *logging.Logger {
	return f.logger
}

// backendFor resolves the backend used to generate a key of the given family.
func (f *Factory) backendFor(kind types.KeyKind) (Backend, error) {
	name := f.backend
	if name == "" || name == BackendAuto {
		name = Probe().Selected(kind)
	}
	b, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if !b.Available() {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, name)
	}
	return b, nil
}

// Generate creates a key pair suited to a signature algorithm: RSA with the
// configured modulus, ECDSA on the algorithm's curve, or DSA L1024N160.
func (f *Factory) Generate(alg types.SignatureAlgorithm) (key *KeyMaterial, err error) {
	start := time.Now()
	defer func() { metrics.Observe(metrics.OpGenerate, string(alg), start, err) }()

	desc, err := alg.Describe()
	if err != nil {
		return nil, err
	}
	switch desc.Kind {
	case types.KeyKindRSA:
		return f.generate(types.KeyKindRSA, func(b Backend) (crypto.Signer, error) {
			return b.GenerateRSA(f.rand, f.rsaBits)
		})
	case types.KeyKindECDSA:
		return f.generate(types.KeyKindECDSA, func(b Backend) (crypto.Signer, error) {
			return b.GenerateECDSA(f.rand, desc.Curve)
		})
	case types.KeyKindDSA:
		return f.generate(types.KeyKindDSA, func(b Backend) (crypto.Signer, error) {
			return b.GenerateDSA(f.rand, dsa.L1024N160)
		})
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedAlgorithm, alg)
	}
}

// GenerateEncryptionKey creates an RSA key pair for a JWE key management
// algorithm.
func (f *Factory) GenerateEncryptionKey(alg types.EncryptionAlgorithm) (key *KeyMaterial, err error) {
	start := time.Now()
	defer func() { metrics.Observe(metrics.OpGenerate, alg.String(), start, err) }()

	desc, err := alg.Describe()
	if err != nil {
		return nil, err
	}
	if desc.KeyWrap.Kind != types.KeyKindRSA {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedAlgorithm, alg)
	}
	return f.generate(types.KeyKindRSA, func(b Backend) (crypto.Signer, error) {
		return b.GenerateRSA(f.rand, f.rsaBits)
	})
}

// CreateSameKeySize generates a fresh key pair of the same family and size
// as existing: the same RSA modulus length, the same curve, or the same DSA
// (L, N).
func (f *Factory) CreateSameKeySize(existing *KeyMaterial) (key *KeyMaterial, err error) {
	if existing == nil {
		return nil, fmt.Errorf("%w: nil key material", types.ErrKeyUsage)
	}
	start := time.Now()
	defer func() { metrics.Observe(metrics.OpGenerate, string(existing.Kind), start, err) }()

	var gen func(Backend) (crypto.Signer, error)
	switch existing.Kind {
	case types.KeyKindRSA:
		bits := existing.Bits
		gen = func(b Backend) (crypto.Signer, error) { return b.GenerateRSA(f.rand, bits) }
	case types.KeyKindECDSA:
		curve := existing.Curve
		gen = func(b Backend) (crypto.Signer, error) { return b.GenerateECDSA(f.rand, curve) }
	case types.KeyKindDSA:
		pub, ok := existing.Public().(*dsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: DSA material without DSA public key", types.ErrKeyUsage)
		}
		sizes, err := dsaParameterSizes(pub.P.BitLen(), pub.Q.BitLen())
		if err != nil {
			return nil, err
		}
		gen = func(b Backend) (crypto.Signer, error) { return b.GenerateDSA(f.rand, sizes) }
	default:
		return nil, fmt.Errorf("%w: key kind %q", types.ErrUnsupportedAlgorithm, existing.Kind)
	}

	key, err = f.generate(existing.Kind, gen)
	if err != nil {
		return nil, err
	}
	key.Flags = existing.Flags
	return key, nil
}

func (f *Factory) generate(kind types.KeyKind, gen func(Backend) (crypto.Signer, error)) (*KeyMaterial, error) {
	b, err := f.backendFor(kind)
	if err != nil {
		return nil, err
	}
	signer, err := gen(b)
	if err != nil {
		return nil, err
	}
	if !b.Reentrant() {
		signer = newLockedSigner(signer)
	}

	key, err := newKeyMaterial(signer, nil, b.Name())
	if err != nil {
		return nil, err
	}
	if b.Name() == BackendSoftware {
		key.Flags = f.flags
	}
	f.logger.Debug("generated key", "kid", key.KeyID, "kind", key.Kind, "bits", key.Bits, "backend", key.Backend)
	return key, nil
}

// FromPrivateKey wraps a caller-supplied private key. Accepted types are any
// crypto.Signer with an RSA, ECDSA or DSA public key, and *dsa.PrivateKey.
// The material is recorded as software and not exportable.
func (f *Factory) FromPrivateKey(priv crypto.PrivateKey) (*KeyMaterial, error) {
	var signer crypto.Signer
	switch k := priv.(type) {
	case *dsa.PrivateKey:
		signer = &dsaSigner{key: k}
	case crypto.Signer:
		signer = k
	default:
		return nil, fmt.Errorf("%w: private key type %T", types.ErrUnsupportedAlgorithm, priv)
	}
	return newKeyMaterial(signer, nil, BackendSoftware)
}

// FromPublicKey wraps a public key for verification or JWE encryption only.
func (f *Factory) FromPublicKey(pub crypto.PublicKey) (*KeyMaterial, error) {
	if k, ok := pub.(ecdsa.PublicKey); ok {
		pub = &k
	}
	return newKeyMaterial(nil, pub, BackendSoftware)
}
