// Package vision extracts structured scoreboards from photos.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mcoot/scoresnap/internal/model"
)

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrEmptyImage       = errors.New("empty image")
	ErrEmptyResponse    = errors.New("empty extraction response")
)

// SupportedMIMETypes lists the image types accepted for extraction
var SupportedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// Extractor reads a scoreboard photo into a parsed scoreboard
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*model.ParsedScoreboard, error)
}

// ExtractorFunc adapts a function to the Extractor interface
type ExtractorFunc func(ctx context.Context, image []byte, mimeType string) (*model.ParsedScoreboard, error)

// Extract calls f
func (f ExtractorFunc) Extract(ctx context.Context, image []byte, mimeType string) (*model.ParsedScoreboard, error) {
	return f(ctx, image, mimeType)
}

// CheckImage validates an image before it is sent for extraction
func CheckImage(image []byte, mimeType string) error {
	if len(image) == 0 {
		return ErrEmptyImage
	}
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), ";")
	if !SupportedMIMETypes[strings.TrimSpace(base)] {
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, mimeType)
	}
	return nil
}

// DecodeScoreboard parses a model's JSON answer, tolerating markdown code fences
func DecodeScoreboard(text string) (*model.ParsedScoreboard, error) {
	payload := strings.TrimSpace(text)
	payload = strings.TrimPrefix(payload, "```json")
	payload = strings.TrimPrefix(payload, "```")
	payload = strings.TrimSuffix(payload, "```")
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrEmptyResponse
	}

	var parsed model.ParsedScoreboard
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("decode scoreboard: %w", err)
	}
	return &parsed, nil
}
