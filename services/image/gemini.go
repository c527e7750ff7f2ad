package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/campusboard/server/config"
	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the model answers without any text part
var ErrEmptyResponse = errors.New("gemini returned no content")

// maxGeminiResponseBytes bounds the model response
const maxGeminiResponseBytes = 16 << 20

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"response_mime_type"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generation_config"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiAnalyzer asks a Gemini model to describe an image as JSON
type GeminiAnalyzer struct {
	endpoint   string
	apiKey     string
	prompt     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiAnalyzer creates a new GeminiAnalyzer
func NewGeminiAnalyzer(cfg config.GeminiConfig, logger *zap.Logger) *GeminiAnalyzer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &GeminiAnalyzer{
		endpoint:   cfg.URL,
		apiKey:     cfg.APIKey,
		prompt:     cfg.Prompt,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Analyze sends the prompt and the image inline and parses the first
// candidate's first part as JSON
func (g *GeminiAnalyzer) Analyze(ctx context.Context, img Image) (interface{}, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: g.prompt},
				{InlineData: &geminiInlineData{
					MimeType: img.ContentType,
					Data:     base64.StdEncoding.EncodeToString(img.Data),
				}},
			},
		}},
		GenerationConfig: geminiGenerationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode gemini request: %w", err)
	}

	endpoint, err := url.Parse(g.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid gemini url: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", g.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		// *url.Error repeats the URL, which carries the API key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGeminiResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		return nil, ErrEmptyResponse
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	g.logger.Debug("gemini response received",
		zap.Duration("latency", time.Since(start)),
		zap.Int("bytes", len(text)),
	)

	var result interface{}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("gemini response is not JSON: %w", err)
	}

	return result, nil
}
