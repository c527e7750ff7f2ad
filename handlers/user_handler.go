package handlers

import (
	"context"
	"net/http"

	"github.com/campusboard/server/middleware"
	"github.com/campusboard/server/models"
	"github.com/campusboard/server/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileUpdateRequest is the body of PATCH /api/users/me
type ProfileUpdateRequest struct {
	Nickname string `json:"nickname" validate:"notblank"`
}

// UserService defines the profile operations used by the handler
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateNickname(ctx context.Context, userID uuid.UUID, nickname string) (*models.User, error)
}

// UserHandler handles profile HTTP requests
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGetMe handles GET /api/users/me
func (h *UserHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), *userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, profile)
}

// HandleUpdateMe handles PATCH /api/users/me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ProfileUpdateRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if _, err := h.service.UpdateNickname(r.Context(), *userID, req.Nickname); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}
