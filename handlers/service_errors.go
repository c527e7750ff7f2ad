package handlers

import (
	"errors"
	"net/http"

	"github.com/campusboard/server/services"
	"github.com/campusboard/server/utils"
	"go.uber.org/zap"
)

// upstreamError is implemented by provider rejections whose HTTP status and
// message are forwarded to the client as-is
type upstreamError interface {
	StatusCode() int
	ClientMessage() string
}

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var upstream upstreamError
	if errors.As(err, &upstream) && upstream.StatusCode() >= 400 && upstream.StatusCode() < 600 {
		logger.Debug("upstream rejection", zap.Error(err))
		writeOrLog(w, upstream.StatusCode(), upstream.ClientMessage(), logger)
		return
	}

	message := services.GetErrorMessage(err)

	switch {
	case services.IsNotFoundError(err):
		writeOrLog(w, http.StatusNotFound, message, logger)

	case services.IsValidationError(err):
		if err := utils.WriteBadRequest(w, message, nil); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsUnauthorizedError(err):
		writeOrLog(w, http.StatusUnauthorized, message, logger)

	case services.IsForbiddenError(err):
		writeOrLog(w, http.StatusForbidden, message, logger)

	case services.IsConflictError(err):
		writeOrLog(w, http.StatusConflict, message, logger)

	case services.IsExternalError(err):
		// External provider errors are mapped to 502 Bad Gateway
		logger.Error("external service error", zap.Error(err))
		writeOrLog(w, http.StatusBadGateway, message, logger)

	case services.IsInternalError(err):
		// Log internal errors but return generic message
		logger.Error("internal server error", zap.Error(err))
		writeOrLog(w, http.StatusInternalServerError, utils.InternalErrorMessage, logger)

	default:
		logger.Error("unhandled error type", zap.Error(err))
		writeOrLog(w, http.StatusInternalServerError, utils.InternalErrorMessage, logger)
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		if err := utils.WriteBadRequest(w, err.Error(), utils.GetValidationFields(err)); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, "Invalid request body", nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

func writeOrLog(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	if err := utils.WriteError(w, status, message); err != nil {
		logger.Error("failed to write error response", zap.Int("status", status), zap.Error(err))
	}
}
