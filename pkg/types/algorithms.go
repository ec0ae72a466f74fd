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
	"crypto"
	"crypto/elliptic"
	"crypto/x509"
	"fmt"
	"strings"
)

// =============================================================================
// Key families
// =============================================================================

// KeyKind identifies the asymmetric key family a selector operates on.
type KeyKind string

const (
	// KeyKindRSA is an RSA key pair.
	KeyKindRSA KeyKind = "RSA"

	// KeyKindECDSA is an ECDSA key pair over a NIST curve.
	KeyKindECDSA KeyKind = "ECDSA"

	// KeyKindDSA is a (legacy) DSA key pair.
	KeyKindDSA KeyKind = "DSA"
)

// String returns the string representation.
func (k KeyKind) String() string {
	return string(k)
}

// Equals performs case-insensitive comparison for protocol compatibility.
func (k KeyKind) Equals(s string) bool {
	return strings.EqualFold(string(k), s)
}

// ToX509 converts the KeyKind to x509.PublicKeyAlgorithm.
func (k KeyKind) ToX509() x509.PublicKeyAlgorithm {
	switch k {
	case KeyKindRSA:
		return x509.RSA
	case KeyKindECDSA:
		return x509.ECDSA
	case KeyKindDSA:
		return x509.DSA
	default:
		return x509.UnknownPublicKeyAlgorithm
	}
}

// =============================================================================
// Curves
// =============================================================================

// EllipticCurve represents NIST curve identifiers.
type EllipticCurve string

const (
	// CurveP256 is NIST P-256 (secp256r1, prime256v1).
	CurveP256 EllipticCurve = "P-256"

	// CurveP384 is NIST P-384 (secp384r1).
	CurveP384 EllipticCurve = "P-384"

	// CurveP521 is NIST P-521 (secp521r1).
	CurveP521 EllipticCurve = "P-521"
)

// String returns the string representation.
func (c EllipticCurve) String() string {
	return string(c)
}

// Curve returns the elliptic.Curve for the identifier, or nil if unknown.
func (c EllipticCurve) Curve() elliptic.Curve {
	switch c {
	case CurveP256:
		return elliptic.P256()
	case CurveP384:
		return elliptic.P384()
	case CurveP521:
		return elliptic.P521()
	default:
		return nil
	}
}

// Hash returns the hash function RFC 7518 pairs with the curve.
func (c EllipticCurve) Hash() crypto.Hash {
	switch c {
	case CurveP256:
		return crypto.SHA256
	case CurveP384:
		return crypto.SHA384
	case CurveP521:
		return crypto.SHA512
	default:
		return 0
	}
}

// CurveFromElliptic maps a stdlib curve back to its identifier.
func CurveFromElliptic(curve elliptic.Curve) (EllipticCurve, error) {
	if curve == nil || curve.Params() == nil {
		return "", fmt.Errorf("%w: nil curve", ErrUnsupportedAlgorithm)
	}
	switch curve.Params().Name {
	case "P-256":
		return CurveP256, nil
	case "P-384":
		return CurveP384, nil
	case "P-521":
		return CurveP521, nil
	default:
		return "", fmt.Errorf("%w: curve %s", ErrUnsupportedAlgorithm, curve.Params().Name)
	}
}

// =============================================================================
// Signature algorithms
// =============================================================================

// SignatureAlgorithm is the closed selector for every supported signature
// scheme. Adding a value requires adding a descriptor below; there is no
// runtime registration.
type SignatureAlgorithm string

const (
	RSAPKCS1MD5    SignatureAlgorithm = "rsa-pkcs1-md5"
	RSAPKCS1SHA1   SignatureAlgorithm = "rsa-pkcs1-sha1"
	RSAPKCS1SHA256 SignatureAlgorithm = "rsa-pkcs1-sha256" // RS256
	RSAPKCS1SHA384 SignatureAlgorithm = "rsa-pkcs1-sha384" // RS384
	RSAPKCS1SHA512 SignatureAlgorithm = "rsa-pkcs1-sha512" // RS512
	RSAPSSSHA256   SignatureAlgorithm = "rsa-pss-sha256"   // PS256
	RSAPSSSHA384   SignatureAlgorithm = "rsa-pss-sha384"   // PS384
	RSAPSSSHA512   SignatureAlgorithm = "rsa-pss-sha512"   // PS512
	DSASHA1        SignatureAlgorithm = "dsa-sha1"
	ECDSAP256      SignatureAlgorithm = "ecdsa-p256" // ES256
	ECDSAP384      SignatureAlgorithm = "ecdsa-p384" // ES384
	ECDSAP521      SignatureAlgorithm = "ecdsa-p521" // ES512
)

// JOSE algorithm tags (RFC 7518 section 3.1).
const (
	RS256 = "RS256"
	RS384 = "RS384"
	RS512 = "RS512"
	PS256 = "PS256"
	PS384 = "PS384"
	PS512 = "PS512"
	ES256 = "ES256"
	ES384 = "ES384"
	ES512 = "ES512"
)

// TokenTypeJWT is the default JWS typ header value.
const TokenTypeJWT = "JWT"

// SignatureDescriptor is the (KeyKind, HashKind, Curve) tuple a
// SignatureAlgorithm maps to.
type SignatureDescriptor struct {
	Algorithm SignatureAlgorithm

	// JOSE is the RFC 7518 alg tag, empty for legacy schemes that have none.
	JOSE string

	Kind KeyKind

	// Hash is the explicit message digest. Zero for curve-native ECDSA
	// schemes, where the digest is implied by the curve.
	Hash crypto.Hash

	// Curve is set for ECDSA only.
	Curve EllipticCurve

	// PSS selects RSASSA-PSS padding instead of PKCS#1 v1.5.
	PSS bool
}

// Digest returns the hash the primitive applies before signing.
func (d SignatureDescriptor) Digest() crypto.Hash {
	if d.Kind == KeyKindECDSA {
		return d.Curve.Hash()
	}
	return d.Hash
}

// signatureAlgorithms is ordered; SignatureAlgorithms returns this order.
var signatureAlgorithms = []SignatureDescriptor{
	{Algorithm: RSAPKCS1MD5, Kind: KeyKindRSA, Hash: crypto.MD5},
	{Algorithm: RSAPKCS1SHA1, Kind: KeyKindRSA, Hash: crypto.SHA1},
	{Algorithm: RSAPKCS1SHA256, JOSE: RS256, Kind: KeyKindRSA, Hash: crypto.SHA256},
	{Algorithm: RSAPKCS1SHA384, JOSE: RS384, Kind: KeyKindRSA, Hash: crypto.SHA384},
	{Algorithm: RSAPKCS1SHA512, JOSE: RS512, Kind: KeyKindRSA, Hash: crypto.SHA512},
	{Algorithm: RSAPSSSHA256, JOSE: PS256, Kind: KeyKindRSA, Hash: crypto.SHA256, PSS: true},
	{Algorithm: RSAPSSSHA384, JOSE: PS384, Kind: KeyKindRSA, Hash: crypto.SHA384, PSS: true},
	{Algorithm: RSAPSSSHA512, JOSE: PS512, Kind: KeyKindRSA, Hash: crypto.SHA512, PSS: true},
	{Algorithm: DSASHA1, Kind: KeyKindDSA, Hash: crypto.SHA1},
	{Algorithm: ECDSAP256, JOSE: ES256, Kind: KeyKindECDSA, Curve: CurveP256},
	{Algorithm: ECDSAP384, JOSE: ES384, Kind: KeyKindECDSA, Curve: CurveP384},
	{Algorithm: ECDSAP521, JOSE: ES512, Kind: KeyKindECDSA, Curve: CurveP521},
}

// SignatureAlgorithms returns every supported signature selector.
func SignatureAlgorithms() []SignatureAlgorithm {
	algs := make([]SignatureAlgorithm, len(signatureAlgorithms))
	for i, d := range signatureAlgorithms {
		algs[i] = d.Algorithm
	}
	return algs
}

// String returns the selector name.
func (a SignatureAlgorithm) String() string {
	return string(a)
}

// Describe returns the descriptor tuple for the selector.
func (a SignatureAlgorithm) Describe() (SignatureDescriptor, error) {
	for _, d := range signatureAlgorithms {
		if d.Algorithm == a {
			return d, nil
		}
	}
	return SignatureDescriptor{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
}

// JOSE returns the RFC 7518 alg tag or an empty string.
func (a SignatureAlgorithm) JOSE() string {
	d, err := a.Describe()
	if err != nil {
		return ""
	}
	return d.JOSE
}

// ParseSignatureAlgorithm resolves a selector name or a JOSE alg tag,
// case-insensitively. Anything outside the taxonomy is ErrUnsupportedAlgorithm.
func ParseSignatureAlgorithm(s string) (SignatureAlgorithm, error) {
	for _, d := range signatureAlgorithms {
		if strings.EqualFold(string(d.Algorithm), s) {
			return d.Algorithm, nil
		}
		if d.JOSE != "" && strings.EqualFold(d.JOSE, s) {
			return d.Algorithm, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
}

// SignatureAlgorithmFromJOSE resolves a JOSE alg header value only,
// case-insensitively. Selector names and legacy schemes without a JOSE tag
// are ErrUnsupportedAlgorithm.
func SignatureAlgorithmFromJOSE(tag string) (SignatureAlgorithm, error) {
	for _, d := range signatureAlgorithms {
		if d.JOSE != "" && strings.EqualFold(d.JOSE, tag) {
			return d.Algorithm, nil
		}
	}
	return "", fmt.Errorf("%w: alg %q", ErrUnsupportedAlgorithm, tag)
}

// MarshalText implements encoding.TextMarshaler.
func (a SignatureAlgorithm) MarshalText() ([]byte, error) {
	if _, err := a.Describe(); err != nil {
		return nil, err
	}
	return []byte(a), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *SignatureAlgorithm) UnmarshalText(text []byte) error {
	alg, err := ParseSignatureAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}

// =============================================================================
// Encryption algorithms
// =============================================================================

// KeyWrapAlgorithm is the closed set of JWE key management algorithms.
type KeyWrapAlgorithm string

const (
	// RSA1_5 is RSAES-PKCS1-v1_5.
	RSA1_5 KeyWrapAlgorithm = "RSA1_5"

	// RSAOAEP is RSAES OAEP using SHA-1 and MGF1 with SHA-1.
	RSAOAEP KeyWrapAlgorithm = "RSA-OAEP"

	// RSAOAEP256 is RSAES OAEP using SHA-256 and MGF1 with SHA-256.
	RSAOAEP256 KeyWrapAlgorithm = "RSA-OAEP-256"
)

// KeyWrapDescriptor describes a key management algorithm.
type KeyWrapDescriptor struct {
	Algorithm KeyWrapAlgorithm
	Kind      KeyKind
	OAEP      bool
	// Hash is the OAEP hash, zero for PKCS#1 v1.5.
	Hash crypto.Hash
}

var keyWrapAlgorithms = []KeyWrapDescriptor{
	{Algorithm: RSA1_5, Kind: KeyKindRSA},
	{Algorithm: RSAOAEP, Kind: KeyKindRSA, OAEP: true, Hash: crypto.SHA1},
	{Algorithm: RSAOAEP256, Kind: KeyKindRSA, OAEP: true, Hash: crypto.SHA256},
}

// String returns the JOSE tag.
func (a KeyWrapAlgorithm) String() string {
	return string(a)
}

// Describe returns the descriptor for the key management algorithm.
func (a KeyWrapAlgorithm) Describe() (KeyWrapDescriptor, error) {
	for _, d := range keyWrapAlgorithms {
		if d.Algorithm == a {
			return d, nil
		}
	}
	return KeyWrapDescriptor{}, fmt.Errorf("%w: alg %q", ErrUnsupportedAlgorithm, string(a))
}

// ParseKeyWrapAlgorithm resolves a JOSE alg tag case-insensitively.
func ParseKeyWrapAlgorithm(s string) (KeyWrapAlgorithm, error) {
	for _, d := range keyWrapAlgorithms {
		if strings.EqualFold(string(d.Algorithm), s) {
			return d.Algorithm, nil
		}
	}
	return "", fmt.Errorf("%w: alg %q", ErrUnsupportedAlgorithm, s)
}

// KeyWrapAlgorithms returns every supported key management algorithm.
func KeyWrapAlgorithms() []KeyWrapAlgorithm {
	algs := make([]KeyWrapAlgorithm, len(keyWrapAlgorithms))
	for i, d := range keyWrapAlgorithms {
		algs[i] = d.Algorithm
	}
	return algs
}

// ContentEncryption is the closed set of JWE content encryption algorithms.
type ContentEncryption string

const (
	A128CBCHS256 ContentEncryption = "A128CBC-HS256"
	A192CBCHS384 ContentEncryption = "A192CBC-HS384"
	A256CBCHS512 ContentEncryption = "A256CBC-HS512"
	A128GCM      ContentEncryption = "A128GCM"
	A192GCM      ContentEncryption = "A192GCM"
	A256GCM      ContentEncryption = "A256GCM"
)

// ContentCipherKind distinguishes the two authenticated constructions.
type ContentCipherKind string

const (
	// ContentCipherCBCHMAC is AES-CBC with HMAC-SHA2 (encrypt-then-MAC).
	ContentCipherCBCHMAC ContentCipherKind = "AES-CBC-HMAC"

	// ContentCipherGCM is AES-GCM.
	ContentCipherGCM ContentCipherKind = "AES-GCM"
)

// ContentDescriptor sizes a content encryption algorithm. All lengths are bytes.
type ContentDescriptor struct {
	Algorithm ContentEncryption
	Kind      ContentCipherKind
	// KeyLen is the full CEK length (MAC key + ENC key for CBC-HMAC).
	KeyLen int
	IVLen  int
	TagLen int
	// MACHash is the HMAC hash for CBC-HMAC, zero for GCM.
	MACHash crypto.Hash
}

var contentEncryptions = []ContentDescriptor{
	{Algorithm: A128CBCHS256, Kind: ContentCipherCBCHMAC, KeyLen: 32, IVLen: 16, TagLen: 16, MACHash: crypto.SHA256},
	{Algorithm: A192CBCHS384, Kind: ContentCipherCBCHMAC, KeyLen: 48, IVLen: 16, TagLen: 24, MACHash: crypto.SHA384},
	{Algorithm: A256CBCHS512, Kind: ContentCipherCBCHMAC, KeyLen: 64, IVLen: 16, TagLen: 32, MACHash: crypto.SHA512},
	{Algorithm: A128GCM, Kind: ContentCipherGCM, KeyLen: 16, IVLen: 12, TagLen: 16},
	{Algorithm: A192GCM, Kind: ContentCipherGCM, KeyLen: 24, IVLen: 12, TagLen: 16},
	{Algorithm: A256GCM, Kind: ContentCipherGCM, KeyLen: 32, IVLen: 12, TagLen: 16},
}

// String returns the JOSE tag.
func (c ContentEncryption) String() string {
	return string(c)
}

// Describe returns the descriptor for the content encryption algorithm.
func (c ContentEncryption) Describe() (ContentDescriptor, error) {
	for _, d := range contentEncryptions {
		if d.Algorithm == c {
			return d, nil
		}
	}
	return ContentDescriptor{}, fmt.Errorf("%w: enc %q", ErrUnsupportedAlgorithm, string(c))
}

// ParseContentEncryption resolves a JOSE enc tag case-insensitively.
func ParseContentEncryption(s string) (ContentEncryption, error) {
	for _, d := range contentEncryptions {
		if strings.EqualFold(string(d.Algorithm), s) {
			return d.Algorithm, nil
		}
	}
	return "", fmt.Errorf("%w: enc %q", ErrUnsupportedAlgorithm, s)
}

// ContentEncryptions returns every supported content encryption algorithm.
func ContentEncryptions() []ContentEncryption {
	encs := make([]ContentEncryption, len(contentEncryptions))
	for i, d := range contentEncryptions {
		encs[i] = d.Algorithm
	}
	return encs
}

// EncryptionAlgorithm is the JWE selector: one key management algorithm
// paired with one content encryption algorithm, both from the closed sets.
type EncryptionAlgorithm struct {
	KeyWrap KeyWrapAlgorithm
	Content ContentEncryption
}

// Named JWE selectors.
var (
	// RSA15A128CBCHS256 is RSAES-PKCS1-v1_5 and AES_128_CBC_HMAC_SHA_256.
	RSA15A128CBCHS256 = EncryptionAlgorithm{KeyWrap: RSA1_5, Content: A128CBCHS256}

	// RSAOAEPA256GCM is RSAES-OAEP and AES-256-GCM.
	RSAOAEPA256GCM = EncryptionAlgorithm{KeyWrap: RSAOAEP, Content: A256GCM}

	// RSAOAEP256A256GCM is RSAES-OAEP-256 and AES-256-GCM.
	RSAOAEP256A256GCM = EncryptionAlgorithm{KeyWrap: RSAOAEP256, Content: A256GCM}

	// RSAOAEPA128CBCHS256 is RSAES-OAEP and AES_128_CBC_HMAC_SHA_256.
	RSAOAEPA128CBCHS256 = EncryptionAlgorithm{KeyWrap: RSAOAEP, Content: A128CBCHS256}
)

// EncryptionDescriptor is the (KeyKind, HashKind, ContentCipherKind) tuple of
// a JWE selector.
type EncryptionDescriptor struct {
	KeyWrap KeyWrapDescriptor
	Content ContentDescriptor
}

// String returns "alg+enc".
func (e EncryptionAlgorithm) String() string {
	return string(e.KeyWrap) + "+" + string(e.Content)
}

// Describe validates both halves and returns their descriptors.
func (e EncryptionAlgorithm) Describe() (EncryptionDescriptor, error) {
	kw, err := e.KeyWrap.Describe()
	if err != nil {
		return EncryptionDescriptor{}, err
	}
	ce, err := e.Content.Describe()
	if err != nil {
		return EncryptionDescriptor{}, err
	}
	return EncryptionDescriptor{KeyWrap: kw, Content: ce}, nil
}

// ParseEncryptionAlgorithm parses the "alg+enc" form produced by String.
func ParseEncryptionAlgorithm(s string) (EncryptionAlgorithm, error) {
	alg, enc, ok := strings.Cut(s, "+")
	if !ok {
		return EncryptionAlgorithm{}, fmt.Errorf("%w: %q (expected alg+enc)", ErrUnsupportedAlgorithm, s)
	}
	kw, err := ParseKeyWrapAlgorithm(alg)
	if err != nil {
		return EncryptionAlgorithm{}, err
	}
	ce, err := ParseContentEncryption(enc)
	if err != nil {
		return EncryptionAlgorithm{}, err
	}
	return EncryptionAlgorithm{KeyWrap: kw, Content: ce}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (e EncryptionAlgorithm) MarshalText() ([]byte, error) {
	if _, err := e.Describe(); err != nil {
		return nil, err
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EncryptionAlgorithm) UnmarshalText(text []byte) error {
	alg, err := ParseEncryptionAlgorithm(string(text))
	if err != nil {
		return err
	}
	*e = alg
	return nil
}
