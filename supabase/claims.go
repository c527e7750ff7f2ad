package supabase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims represents the payload of a Supabase access token
type Claims struct {
	jwt.RegisteredClaims
	Email        string                 `json:"email"`
	Phone        string                 `json:"phone"`
	Role         string                 `json:"role"`
	AAL          string                 `json:"aal"`
	SessionID    string                 `json:"session_id"`
	IsAnonymous  bool                   `json:"is_anonymous"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	AppMetadata  map[string]interface{} `json:"app_metadata"`
}

// ParsedClaims represents parsed and validated claims
type ParsedClaims struct {
	UserID    uuid.UUID
	Email     string
	Nickname  string
	Role      string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Custom holds user_metadata and app_metadata, keyed with their prefix
	// ("user_metadata.nickname", "app_metadata.provider").
	Custom map[string]interface{}
}

// parseClaims converts Claims to ParsedClaims. It fails closed: a token
// without a usable subject never yields an identity.
func parseClaims(claims *Claims) (*ParsedClaims, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid sub UUID: %w", err)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: exp", ErrMissingClaim)
	}

	parsed := &ParsedClaims{
		UserID:    sub,
		Email:     claims.Email,
		Nickname:  nicknameFrom(claims.UserMetadata),
		Role:      claims.Role,
		SessionID: claims.SessionID,
		ExpiresAt: claims.ExpiresAt.Time,
		Custom:    make(map[string]interface{}, len(claims.UserMetadata)+len(claims.AppMetadata)),
	}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	for k, v := range claims.UserMetadata {
		parsed.Custom["user_metadata."+k] = v
	}
	for k, v := range claims.AppMetadata {
		parsed.Custom["app_metadata."+k] = v
	}

	return parsed, nil
}

func nicknameFrom(meta map[string]interface{}) string {
	if nick, ok := meta["nickname"].(string); ok {
		return strings.TrimSpace(nick)
	}
	return ""
}

// IsAuthenticated reports whether the token was issued to a signed-in user
// rather than to the anon key.
func (p *ParsedClaims) IsAuthenticated() bool {
	return p.Role == "authenticated"
}
