package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/campusboard/server/middleware"
	"github.com/campusboard/server/services/image"
	"github.com/campusboard/server/utils"
	"go.uber.org/zap"
)

// imageField is the multipart form field carrying the upload
const imageField = "image"

// ImageService defines the image operations used by the handler
type ImageService interface {
	Analyze(ctx context.Context, img image.Image) (*image.Result, error)
}

// ImageHandler handles image analysis HTTP requests
type ImageHandler struct {
	service  ImageService
	maxBytes int64
	logger   *zap.Logger
}

// NewImageHandler creates a new ImageHandler. Request bodies larger than
// maxBytes are rejected.
func NewImageHandler(service ImageService, maxBytes int64, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// HandleAnalyze handles POST /api/images/analyze
func (h *ImageHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if h.maxBytes > 0 {
		if r.ContentLength > h.maxBytes {
			_ = utils.WriteError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = utils.WriteError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		h.logger.Debug("missing image part",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Image file is required", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("failed to read uploaded image",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Failed to read image file", nil)
		return
	}

	result, err := h.service.Analyze(r.Context(), image.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}
