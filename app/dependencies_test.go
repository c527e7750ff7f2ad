package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campusboard/server/config"
	"github.com/campusboard/server/models"
	"github.com/campusboard/server/repositories/postgres"
	"github.com/campusboard/server/supabase"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestNewDependencies(t *testing.T) {
	t.Run("database connection failure", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t, "http://127.0.0.1:1/jwks.json")
		cfg.Database.Host = "127.0.0.1"
		cfg.Database.Port = 1
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, cfg, logger)
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})
}

func TestNewDependenciesFromFactory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	cfg := testConfig(t, "http://127.0.0.1:1/jwks.json")
	factory := postgres.NewRepositoryFactoryFromDB(postgres.NewDBFromConn(db, logger), logger)

	deps := NewDependenciesFromFactory(cfg, factory, logger)

	// Verify infrastructure
	assert.NotNil(t, deps.DB)
	assert.NotNil(t, deps.TxManager)

	// Verify repositories
	assert.NotNil(t, deps.Posts)
	assert.NotNil(t, deps.Comments)
	assert.NotNil(t, deps.Users)

	// Verify auth, services and handlers
	assert.NotNil(t, deps.TokenValidator)
	assert.NotNil(t, deps.AuthMiddleware)
	assert.NotNil(t, deps.BoardService)
	assert.NotNil(t, deps.UserService)
	assert.NotNil(t, deps.AuthClient)
	assert.NotNil(t, deps.ImageService)
	assert.NotNil(t, deps.BoardHandler)
	assert.NotNil(t, deps.UserHandler)
	assert.NotNil(t, deps.AuthHandler)
	assert.NotNil(t, deps.ImageHandler)
	assert.NotNil(t, deps.HealthHandler)

	mock.ExpectClose()
	assert.NoError(t, deps.Close(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupabaseTokenValidatorAdapter(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(supabase.KeySet{Keys: []supabase.Key{{
			Kid: "kid-1",
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}}})
	}))
	defer server.Close()

	adapter := &supabaseTokenValidatorAdapter{
		validator: supabase.NewValidator(supabase.Config{JWKSURL: server.URL, HTTPTimeout: time.Second}, zap.NewNop()),
	}

	sign := func(t *testing.T, claims *supabase.Claims) string {
		t.Helper()
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		token.Header["kid"] = "kid-1"
		signed, err := token.SignedString(key)
		require.NoError(t, err)
		return signed
	}

	userID := uuid.New()
	claims := func(meta map[string]interface{}) *supabase.Claims {
		return &supabase.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID.String(),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Email:        "kim@example.com",
			Role:         "authenticated",
			UserMetadata: meta,
		}
	}

	t.Run("maps claims to identity", func(t *testing.T) {
		identity, err := adapter.ValidateToken(context.Background(), sign(t, claims(map[string]interface{}{"nickname": "kim"})))

		require.NoError(t, err)
		assert.Equal(t, userID, identity.UserID)
		assert.Equal(t, "kim@example.com", identity.Email)
		assert.Equal(t, "kim", identity.Nickname)
		assert.Equal(t, "authenticated", identity.Role)
	})

	t.Run("missing nickname falls back to default", func(t *testing.T) {
		identity, err := adapter.ValidateToken(context.Background(), sign(t, claims(nil)))

		require.NoError(t, err)
		assert.Equal(t, models.DefaultNickname, identity.Nickname)
	})

	t.Run("garbage token", func(t *testing.T) {
		identity, err := adapter.ValidateToken(context.Background(), "not-a-jwt")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, supabase.ErrInvalidTokenFormat)
		assert.False(t, adapter.IsTransportError(err))
	})
}

func TestSupabaseTokenValidatorAdapter_KeyServerDown(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	adapter := &supabaseTokenValidatorAdapter{
		validator: supabase.NewValidator(supabase.Config{JWKSURL: url, HTTPTimeout: time.Second}, zap.NewNop()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token.Header["kid"] = "kid-1"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	_, err = adapter.ValidateToken(context.Background(), signed)

	require.Error(t, err)
	assert.ErrorIs(t, err, supabase.ErrKeyResolutionFailed)
	assert.True(t, adapter.IsTransportError(err))
}

// Test helpers

func testConfig(t *testing.T, jwksURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  1 << 20,
		},
		Database: config.DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "postgres",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Supabase: config.SupabaseConfig{
			URL:                "http://127.0.0.1:1",
			JWKSURL:            jwksURL,
			JWKSTimeout:        time.Second,
			MinRefreshInterval: time.Minute,
			AuthTimeout:        time.Second,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}
