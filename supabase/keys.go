package supabase

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrKeyNotFound is returned when no key in the set matches the kid
	ErrKeyNotFound = errors.New("key not found in JWKS")

	// ErrUnsupportedKeyType is returned for a kty other than RSA or EC
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrUnsupportedCurve is returned for an EC key on a curve other than P-256, P-384 or P-521
	ErrUnsupportedCurve = errors.New("unsupported EC curve")

	// ErrMalformedKey is returned when key parameters are missing or cannot be decoded
	ErrMalformedKey = errors.New("malformed key")

	// ErrJWKSFetchFailed is returned when the key set cannot be retrieved
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// KeySet represents the JSON Web Key Set published by the auth server
type KeySet struct {
	Keys []Key `json:"keys"`
}

// Find returns the key with the given kid, or nil
func (s *KeySet) Find(kid string) *Key {
	if s == nil {
		return nil
	}
	for i := range s.Keys {
		if s.Keys[i].Kid == kid {
			return &s.Keys[i]
		}
	}
	return nil
}

// Key represents a single JSON Web Key
type Key struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// PublicKey builds the verification key described by k.
// The result is either *rsa.PublicKey or *ecdsa.PublicKey.
func (k *Key) PublicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		return k.rsaPublicKey()
	case "EC":
		return k.ecPublicKey()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, k.Kty)
	}
}

func (k *Key) rsaPublicKey() (*rsa.PublicKey, error) {
	if k.N == "" || k.E == "" {
		return nil, fmt.Errorf("%w: RSA key requires n and e", ErrMalformedKey)
	}

	n, err := decodeBigInt(k.N)
	if err != nil {
		return nil, fmt.Errorf("%w: modulus: %v", ErrMalformedKey, err)
	}
	e, err := decodeBigInt(k.E)
	if err != nil {
		return nil, fmt.Errorf("%w: exponent: %v", ErrMalformedKey, err)
	}
	if !e.IsInt64() || e.Int64() < 2 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("%w: exponent out of range", ErrMalformedKey)
	}

	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func (k *Key) ecPublicKey() (*ecdsa.PublicKey, error) {
	if k.X == "" || k.Y == "" || k.Crv == "" {
		return nil, fmt.Errorf("%w: EC key requires x, y and crv", ErrMalformedKey)
	}

	curve, err := curveByName(k.Crv)
	if err != nil {
		return nil, err
	}

	x, err := decodeBigInt(k.X)
	if err != nil {
		return nil, fmt.Errorf("%w: x: %v", ErrMalformedKey, err)
	}
	y, err := decodeBigInt(k.Y)
	if err != nil {
		return nil, fmt.Errorf("%w: y: %v", ErrMalformedKey, err)
	}
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("%w: point is not on curve %s", ErrMalformedKey, k.Crv)
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func curveByName(crv string) (elliptic.Curve, error) {
	switch crv {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, crv)
	}
}

// decodeBigInt decodes an unsigned big-endian integer from base64url.
// Some providers pad their values, so trailing '=' is tolerated.
func decodeBigInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("empty value")
	}
	return new(big.Int).SetBytes(b), nil
}
