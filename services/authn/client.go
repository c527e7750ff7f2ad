package authn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campusboard/server/config"
	"github.com/campusboard/server/services"
	"go.uber.org/zap"
)

// unknownErrorMessage is used when Supabase returns an error body we cannot read
const unknownErrorMessage = "An unknown error occurred"

// maxResponseBytes bounds how much of an auth response is read
const maxResponseBytes = 1 << 20

// User is the Supabase auth user returned by signup, login and refresh
type User struct {
	ID               string     `json:"id"`
	Aud              string     `json:"aud"`
	Role             string     `json:"role"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	Phone            string     `json:"phone"`
	ConfirmedAt      *time.Time `json:"confirmed_at"`
	LastSignInAt     *time.Time `json:"last_sign_in_at"`
	CreatedAt        *time.Time `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// Session is a Supabase token grant
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// ProviderError is a rejection from Supabase Auth. Status is the upstream
// HTTP status and is passed through to the client.
type ProviderError struct {
	Status  int
	Message string
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("supabase auth: %d %s", e.Status, e.Message)
}

// StatusCode returns the upstream HTTP status
func (e *ProviderError) StatusCode() int {
	return e.Status
}

// ClientMessage returns the message Supabase meant for the end user
func (e *ProviderError) ClientMessage() string {
	return e.Message
}

// Client proxies signup, login and token refresh to Supabase Auth
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Supabase Auth client
func NewClient(cfg config.SupabaseConfig, logger *zap.Logger) *Client {
	timeout := cfg.AuthTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SignUp registers a user; the nickname is stored in user metadata
func (c *Client) SignUp(ctx context.Context, email, password, nickname string) (*User, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"nickname": nickname},
	}

	raw, err := c.post(ctx, "/auth/v1/signup", nil, body)
	if err != nil {
		return nil, err
	}

	// With auto-confirm Supabase answers with a session; otherwise with the bare user.
	var session Session
	if err := json.Unmarshal(raw, &session); err == nil && session.User != nil && session.User.ID != "" {
		return session.User, nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, services.ErrIdentityProvider.Wrap(fmt.Errorf("decode signup response: %w", err))
	}
	if user.ID == "" {
		return nil, services.ErrIdentityProvider.Wrap(errors.New("signup response without user"))
	}
	return &user, nil
}

// Login exchanges email and password for a session
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	return c.token(ctx, "password", body)
}

// Refresh exchanges a refresh token for a new session
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, services.ErrUnauthorized
	}
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (c *Client) token(ctx context.Context, grantType string, body interface{}) (*Session, error) {
	raw, err := c.post(ctx, "/auth/v1/token", url.Values{"grant_type": {grantType}}, body)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, services.ErrIdentityProvider.Wrap(fmt.Errorf("decode session: %w", err))
	}
	if session.AccessToken == "" {
		return nil, services.ErrIdentityProvider.Wrap(errors.New("session without access token"))
	}

	return &session, nil
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase auth request failed", zap.String("path", path), zap.Error(err))
		return nil, services.ErrIdentityProvider.Wrap(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, services.ErrIdentityProvider.Wrap(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &ProviderError{Status: resp.StatusCode, Message: errorMessage(raw)}
		c.logger.Warn("supabase auth rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", perr.Message),
		)
		return nil, perr
	}

	return raw, nil
}

// errorMessage picks the first of error_description, msg and message
func errorMessage(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return unknownErrorMessage
	}
	for _, key := range []string{"error_description", "msg", "message"} {
		if v, ok := body[key].(string); ok && v != "" {
			return v
		}
	}
	return unknownErrorMessage
}
