package supabase

import (
	"errors"
	"fmt"
)

// Verification failure kinds. Every error returned by Validator.ValidateToken
// matches exactly one of these with errors.Is.
var (
	// ErrInvalidTokenFormat is returned when the token is not a well-formed signed JWT
	ErrInvalidTokenFormat = errors.New("invalid token format")

	// ErrKeyResolutionFailed is returned when the signing key cannot be resolved
	ErrKeyResolutionFailed = errors.New("signing key resolution failed")

	// ErrSignatureInvalid is returned when the signature does not match
	ErrSignatureInvalid = errors.New("token signature is invalid")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidClaims is returned when issuer, audience or required claims do not check out
	ErrInvalidClaims = errors.New("invalid token claims")
)

// KeyError reports why a kid could not be turned into a verification key.
// Kind is one of ErrKeyNotFound, ErrUnsupportedKeyType, ErrUnsupportedCurve,
// ErrMalformedKey or ErrJWKSFetchFailed.
type KeyError struct {
	Kind error
	Kid  string
	Err  error
}

func (e *KeyError) Error() string {
	if e.Err != nil && e.Err != e.Kind {
		return fmt.Sprintf("resolve key %q: %v", e.Kid, e.Err)
	}
	return fmt.Sprintf("resolve key %q: %v", e.Kid, e.Kind)
}

func (e *KeyError) Unwrap() []error {
	if e.Err == nil || e.Err == e.Kind {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Is makes every KeyError match ErrKeyResolutionFailed.
func (e *KeyError) Is(target error) bool {
	return target == ErrKeyResolutionFailed
}

// VerifyError is returned by Validator.ValidateToken.
type VerifyError struct {
	Kind error
	Err  error
}

func (e *VerifyError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *VerifyError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func verifyErr(kind, err error) error {
	return &VerifyError{Kind: kind, Err: err}
}

// IsTransportError reports whether err was caused by a failure to reach the
// JWKS endpoint rather than by the token itself.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrJWKSFetchFailed)
}
