package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/campusboard/server/utils"
	"go.uber.org/zap"
)

// TokenValidator defines the interface for validating access tokens
type TokenValidator interface {
	// ValidateToken validates a bearer token and returns the caller's identity
	ValidateToken(ctx context.Context, token string) (*Identity, error)
}

// TransportErrorClassifier is implemented by validators that can tell a key
// server outage apart from a bad token
type TransportErrorClassifier interface {
	IsTransportError(err error) bool
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// Authenticate resolves the caller from the Authorization header. It never
// rejects a request: a missing, malformed or unverifiable token leaves the
// request anonymous and access decisions are made downstream.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := extractBearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logFailure(ctx, err)
			next.ServeHTTP(w, r)
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", GetRequestIDFromContext(ctx)),
			zap.String("user_id", identity.UserID.String()))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
	})
}

// RequireAuth rejects requests that Authenticate left anonymous
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentityFromContext(r.Context()) == nil {
			m.logger.Debug("anonymous request to protected route",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) logFailure(ctx context.Context, err error) {
	fields := []zap.Field{
		zap.String("request_id", GetRequestIDFromContext(ctx)),
		zap.Error(err),
	}
	if c, ok := m.validator.(TransportErrorClassifier); ok && c.IsTransportError(err) {
		m.logger.Error("key server unreachable, request continues unauthenticated", fields...)
		return
	}
	m.logger.Warn("token validation failed", fields...)
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Check if it starts with "Bearer "
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
