package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(extra map[string]string) {
	os.Clearenv()
	os.Setenv("SUPABASE_URL", "https://project.supabase.co")
	for k, v := range extra {
		os.Setenv(k, v)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.False(t, cfg.Server.TLS.Enabled)
				assert.Equal(t, int64(5<<20), cfg.Server.MaxUploadBytes)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.False(t, cfg.Database.InitSchema)
				assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
			},
		},
		{
			name:    "supabase defaults",
			envVars: map[string]string{"SUPABASE_URL": "https://project.supabase.co/"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://project.supabase.co", cfg.Supabase.URL)
				assert.Equal(t, "https://project.supabase.co/auth/v1/.well-known/jwks.json", cfg.Supabase.JWKSURL)
				assert.Equal(t, 5*time.Second, cfg.Supabase.JWKSTimeout)
				assert.Equal(t, time.Duration(0), cfg.Supabase.KeyCacheTTL)
				assert.Equal(t, time.Minute, cfg.Supabase.MinRefreshInterval)
				assert.False(t, cfg.Supabase.CookieSecure)
			},
		},
		{
			name: "supabase overrides",
			envVars: map[string]string{
				"SUPABASE_JWKS_URL":         "https://keys.example.com/jwks.json",
				"SUPABASE_JWT_ISSUER":       "https://project.supabase.co/auth/v1",
				"SUPABASE_JWT_AUDIENCE":     "authenticated",
				"SUPABASE_KEY_CACHE_TTL":    "1h",
				"SUPABASE_JWKS_MIN_REFRESH": "30s",
				"SUPABASE_JWT_LEEWAY":       "10s",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://keys.example.com/jwks.json", cfg.Supabase.JWKSURL)
				assert.Equal(t, "authenticated", cfg.Supabase.Audience)
				assert.Equal(t, time.Hour, cfg.Supabase.KeyCacheTTL)
				assert.Equal(t, 30*time.Second, cfg.Supabase.MinRefreshInterval)
				assert.Equal(t, 10*time.Second, cfg.Supabase.Leeway)
			},
		},
		{
			name: "production configuration",
			envVars: map[string]string{
				"ENVIRONMENT":       "production",
				"SERVER_PORT":       "9000",
				"DB_HOST":           "prod-db.example.com",
				"DB_PORT":           "5433",
				"SUPABASE_ANON_KEY": "anon",
				"GEMINI_API_KEY":    "gemini",
				"COOKIE_SECURE":     "true",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "prod-db.example.com", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.True(t, cfg.Supabase.CookieSecure)
			},
		},
		{
			name: "custom timeouts and pool settings",
			envVars: map[string]string{
				"SERVER_READ_TIMEOUT":  "60s",
				"SERVER_WRITE_TIMEOUT": "90s",
				"DB_MAX_OPEN_CONNS":    "50",
				"DB_MAX_IDLE_CONNS":    "10",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 50, cfg.Database.MaxOpenConns)
				assert.Equal(t, 10, cfg.Database.MaxIdleConns)
			},
		},
		{
			name: "observability configuration",
			envVars: map[string]string{
				"LOG_LEVEL":  "debug",
				"LOG_FORMAT": "text",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Observability.LogLevel)
				assert.Equal(t, "text", cfg.Observability.LogFormat)
			},
		},
		{
			name: "cors origins list",
			envVars: map[string]string{
				"CORS_ALLOWED_ORIGINS": "https://board.example.com, https://admin.example.com,,",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"https://board.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
			},
		},
		{
			name: "DATABASE_URL takes precedence",
			envVars: map[string]string{
				"DATABASE_URL":   "postgres://u:p@db.example.com:6543/postgres",
				"DB_INIT_SCHEMA": "true",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://u:p@db.example.com:6543/postgres", cfg.Database.DSN())
				assert.Equal(t, "host=db.example.com port=6543 database=postgres", cfg.Database.LogString())
				assert.True(t, cfg.Database.InitSchema)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name: "production without supabase anon key",
			envVars: map[string]string{
				"ENVIRONMENT":    "production",
				"GEMINI_API_KEY": "gemini",
				"COOKIE_SECURE":  "true",
			},
			wantErr: true,
		},
		{
			name: "production with insecure cookies",
			envVars: map[string]string{
				"ENVIRONMENT":       "production",
				"SUPABASE_ANON_KEY": "anon",
				"GEMINI_API_KEY":    "gemini",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(tt.envVars)

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestNew_RequiresJWKSSource(t *testing.T) {
	os.Clearenv()

	_, err := New(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWKS URL is required")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid development config",
			config: &Config{
				Environment: "development",
				Database: DatabaseConfig{
					Host:     "localhost",
					User:     "user",
					Database: "db",
				},
				Supabase: SupabaseConfig{
					JWKSURL: "https://project.supabase.co/auth/v1/.well-known/jwks.json",
				},
				Observability: ObservabilityConfig{
					LogLevel: "info",
				},
			},
			wantErr: false,
		},
		{
			name: "missing database host",
			config: &Config{
				Environment: "development",
				Database: DatabaseConfig{
					Host:     "",
					User:     "user",
					Database: "db",
				},
				Supabase: SupabaseConfig{
					JWKSURL: "https://project.supabase.co/auth/v1/.well-known/jwks.json",
				},
				Observability: ObservabilityConfig{
					LogLevel: "info",
				},
			},
			wantErr: true,
			errMsg:  "database configuration required",
		},
		{
			name: "missing database user",
			config: &Config{
				Environment: "development",
				Database: DatabaseConfig{
					Host:     "localhost",
					User:     "",
					Database: "db",
				},
				Supabase: SupabaseConfig{
					JWKSURL: "https://project.supabase.co/auth/v1/.well-known/jwks.json",
				},
				Observability: ObservabilityConfig{
					LogLevel: "info",
				},
			},
			wantErr: true,
			errMsg:  "database user is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"production", "production", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsDevelopment())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, cfg.DSN())
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "0.0.0.0",
		Port: 8080,
	}

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue int
		want         int
	}{
		{"valid int", "TEST_INT", "42", 10, 42},
		{"empty value", "TEST_INT", "", 10, 10},
		{"invalid int", "TEST_INT", "not-a-number", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsInt(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "TEST_BOOL", "true", false, true},
		{"false", "TEST_BOOL", "false", true, false},
		{"empty value", "TEST_BOOL", "", true, true},
		{"invalid bool", "TEST_BOOL", "not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsBool(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"single", "a", []string{"a"}},
		{"trimmed", " a , b ", []string{"a", "b"}},
		{"empty value", "", []string{"default"}},
		{"only separators", ",,", []string{"default"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_LIST", tt.value)
			}
			assert.Equal(t, tt.want, getEnvAsList("TEST_LIST", []string{"default"}))
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "TEST_DURATION", "30s", 10 * time.Second, 30 * time.Second},
		{"empty value", "TEST_DURATION", "", 10 * time.Second, 10 * time.Second},
		{"invalid duration", "TEST_DURATION", "not-a-duration", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsDuration(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}
