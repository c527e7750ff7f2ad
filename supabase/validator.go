package supabase

import (
	"context"
	"crypto"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SigningMethods lists the asymmetric algorithms accepted by the validator.
// HMAC and "none" are never accepted.
var SigningMethods = []string{
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"ES256", "ES384", "ES512",
}

// Config holds configuration for Validator
type Config struct {
	JWKSURL            string
	Issuer             string // optional, checked when set
	Audience           string // optional, checked when set
	HTTPTimeout        time.Duration
	CacheTTL           time.Duration
	MinRefreshInterval time.Duration
	Leeway             time.Duration
}

// Validator validates access tokens issued by Supabase Auth against the
// project's JWKS endpoint.
type Validator struct {
	keys     *KeyCache
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewValidator creates a validator that fetches keys from config.JWKSURL
func NewValidator(config Config, logger *zap.Logger) *Validator {
	fetcher := NewHTTPFetcher(config.JWKSURL, config.HTTPTimeout)
	cache := NewKeyCache(fetcher, CacheConfig{
		TTL:                config.CacheTTL,
		MinRefreshInterval: config.MinRefreshInterval,
	}, logger)
	return NewValidatorWithCache(cache, config, logger)
}

// NewValidatorWithCache creates a validator that resolves keys through cache
func NewValidatorWithCache(cache *KeyCache, config Config, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		keys:     cache,
		issuer:   config.Issuer,
		audience: config.Audience,
		leeway:   config.Leeway,
		now:      time.Now,
		logger:   logger,
	}
}

// ValidateToken verifies tokenString and returns its claims.
//
// Checks run in this order: header and algorithm, expiry, key resolution,
// signature over the raw header and payload segments, then the decoded
// claims (issuer, audience, subject). The payload is only trusted after the
// signature checks out, so any change to its bytes is reported as
// ErrSignatureInvalid. The one exception is a payload that still decodes to
// an expired exp: that is ErrTokenExpired whether or not it was signed,
// and no key is fetched for it.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*ParsedClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, verifyErr(ErrInvalidTokenFormat, errors.New("empty token"))
	}

	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, verifyErr(ErrInvalidTokenFormat, fmt.Errorf("token has %d segments", len(parts)))
	}

	parser := jwt.NewParser()
	header, err := decodeHeader(parser, parts[0])
	if err != nil {
		return nil, verifyErr(ErrInvalidTokenFormat, err)
	}
	alg, _ := header["alg"].(string)
	if !isAllowedMethod(alg) {
		return nil, verifyErr(ErrInvalidTokenFormat, fmt.Errorf("signing method %q is not allowed", alg))
	}
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return nil, verifyErr(ErrInvalidTokenFormat, fmt.Errorf("signing method %q is not registered", alg))
	}

	signature, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, verifyErr(ErrInvalidTokenFormat, fmt.Errorf("signature: %w", err))
	}

	if exp, ok := peekExpiry(parser, parts[1]); ok && !v.now().Before(exp.Add(v.leeway)) {
		return nil, verifyErr(ErrTokenExpired, nil)
	}

	kid, _ := header["kid"].(string)
	key, err := v.keys.Resolve(ctx, kid)
	if err != nil {
		return nil, verifyErr(ErrKeyResolutionFailed, err)
	}

	if err := method.Verify(parts[0]+"."+parts[1], signature, key); err != nil {
		return nil, verifyErr(ErrSignatureInvalid, err)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, v.parserOptions()...)
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !token.Valid {
		return nil, verifyErr(ErrSignatureInvalid, nil)
	}

	parsed, err := parseClaims(claims)
	if err != nil {
		return nil, verifyErr(ErrInvalidClaims, err)
	}
	return parsed, nil
}

// Valid reports whether tokenString verifies. Callers that need to know why
// a token was rejected should use ValidateToken.
func (v *Validator) Valid(ctx context.Context, tokenString string) bool {
	_, err := v.ValidateToken(ctx, tokenString)
	return err == nil
}

// ResolveKey returns the verification key for kid
func (v *Validator) ResolveKey(ctx context.Context, kid string) (crypto.PublicKey, error) {
	return v.keys.Resolve(ctx, kid)
}

// InvalidateCache drops all cached keys, forcing a fetch on next use
func (v *Validator) InvalidateCache() {
	v.keys.Invalidate()
}

// GetCacheStats returns key cache statistics
func (v *Validator) GetCacheStats() CacheStats {
	return v.keys.Stats()
}

func (v *Validator) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(SigningMethods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	return opts
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return verifyErr(ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return verifyErr(ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return verifyErr(ErrInvalidTokenFormat, err)
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return verifyErr(ErrInvalidClaims, err)
	default:
		return verifyErr(ErrSignatureInvalid, err)
	}
}

func decodeHeader(parser *jwt.Parser, segment string) (map[string]interface{}, error) {
	raw, err := parser.DecodeSegment(segment)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	var header map[string]interface{}
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	return header, nil
}

// peekExpiry reads exp from an unverified payload. ok is false when the
// payload does not decode or carries no exp.
func peekExpiry(parser *jwt.Parser, segment string) (time.Time, bool) {
	raw, err := parser.DecodeSegment(segment)
	if err != nil {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if err := json.Unmarshal(raw, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func isAllowedMethod(alg string) bool {
	for _, m := range SigningMethods {
		if m == alg {
			return true
		}
	}
	return false
}
