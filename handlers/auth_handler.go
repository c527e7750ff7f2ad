package handlers

import (
	"context"
	"net/http"

	"github.com/campusboard/server/services/authn"
	"github.com/campusboard/server/utils"
	"go.uber.org/zap"
)

const (
	// RefreshCookieName is the cookie holding the Supabase refresh token
	RefreshCookieName = "refreshToken"
	refreshCookiePath = "/api/auth"
)

// SignUpRequest is the body of POST /api/auth/signup
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	Nickname string `json:"nickname" validate:"notblank"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token; the refresh token travels in a cookie
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	User        *authn.User `json:"user"`
}

// AuthService defines the identity provider operations used by the handler
type AuthService interface {
	SignUp(ctx context.Context, email, password, nickname string) (*authn.User, error)
	Login(ctx context.Context, email, password string) (*authn.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*authn.Session, error)
}

// AuthHandler handles signup, login, token refresh and logout
type AuthHandler struct {
	service      AuthService
	cookieSecure bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. cookieSecure controls the Secure
// flag of the refresh token cookie.
func NewAuthHandler(service AuthService, cookieSecure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// HandleSignUp handles POST /api/auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	user, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user signed up", zap.String("user_id", user.ID))
	_ = utils.WriteOK(w, user)
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.writeSession(w, session)
}

// HandleRefresh handles POST /api/auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		_ = utils.WriteUnauthorized(w, "Refresh token missing")
		return
	}

	session, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.writeSession(w, session)
}

// HandleLogout handles POST /api/auth/logout by expiring the refresh cookie
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.refreshCookie("", -1))
	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, session *authn.Session) {
	http.SetCookie(w, h.refreshCookie(session.RefreshToken, session.ExpiresIn))
	_ = utils.WriteOK(w, LoginResponse{
		AccessToken: session.AccessToken,
		User:        session.User,
	})
}

func (h *AuthHandler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
