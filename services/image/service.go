package image

import (
	"context"
	"errors"
	"net/http"

	"github.com/campusboard/server/services"
	"go.uber.org/zap"
)

// Image is an uploaded picture
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result wraps whatever JSON document the model produced
type Result struct {
	Data interface{} `json:"data"`
}

// Analyzer describes an image
type Analyzer interface {
	Analyze(ctx context.Context, img Image) (interface{}, error)
}

// Service runs uploaded images through an Analyzer
type Service struct {
	analyzer Analyzer
	logger   *zap.Logger
}

// NewService creates a new image Service
func NewService(analyzer Analyzer, logger *zap.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Analyze rejects empty uploads and forwards the rest to the analyzer
func (s *Service) Analyze(ctx context.Context, img Image) (*Result, error) {
	if len(img.Data) == 0 {
		return nil, services.ErrEmptyImage
	}
	if img.ContentType == "" || img.ContentType == "application/octet-stream" {
		img.ContentType = http.DetectContentType(img.Data)
	}

	data, err := s.analyzer.Analyze(ctx, img)
	if err != nil {
		var domainErr *services.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		s.logger.Error("image analysis failed",
			zap.String("filename", img.Filename),
			zap.Int("size", len(img.Data)),
			zap.Error(err),
		)
		return nil, services.ErrImageAnalysisFailed.Wrap(err)
	}

	return &Result{Data: data}, nil
}
