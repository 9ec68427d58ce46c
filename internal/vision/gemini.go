package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/mcoot/scoresnap/internal/model"
)

// ErrMissingAPIKey is returned when no Gemini API key is configured
var ErrMissingAPIKey = errors.New("missing gemini api key")

const extractionPrompt = `You are reading a photo of a ten-pin bowling scoreboard.
Return every bowler row exactly as printed. For each bowler give the name,
the team if shown, and each game with its number, total score and frames.
Write frames in scoreboard notation (X strike, / spare, - miss) and also as
pin counts per roll. Mark a game partial if it is not finished. Include the
date and time, alley name and lane if they are visible. Leave out anything
you cannot read rather than guessing.`

// GeminiConfig configures the Gemini extractor
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiExtractor extracts scoreboards with a Gemini vision model
type GeminiExtractor struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// Ensure GeminiExtractor implements Extractor
var _ Extractor = (*GeminiExtractor)(nil)

// NewGeminiExtractor creates a Gemini client for scoreboard extraction
func NewGeminiExtractor(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	client, err := genai.NewClient(context.WithoutCancel(ctx), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			Timeout: genai.Ptr(cfg.Timeout),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiExtractor{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Extract sends the image to the model and decodes its structured answer
func (e *GeminiExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*model.ParsedScoreboard, error) {
	if err := CheckImage(image, mimeType); err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(extractionPrompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:        genai.Ptr[float32](0),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: ScoreboardSchema(),
	}

	start := time.Now()
	response, err := e.client.Models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	parsed, err := DecodeScoreboard(response.Text())
	if err != nil {
		return nil, err
	}

	e.logger.Info("scoreboard extracted",
		slog.String("model", e.model),
		slog.Int("bowlers", len(parsed.Bowlers)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return parsed, nil
}

// ScoreboardSchema is the JSON schema the model must answer with
func ScoreboardSchema() map[string]any {
	str := map[string]any{"type": "string"}
	integer := map[string]any{"type": "integer"}

	frame := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"frame_number": integer,
			"rolls":        map[string]any{"type": "array", "items": integer},
			"notation":     str,
		},
		"required": []string{"frame_number"},
	}
	game := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"game_number": integer,
			"total_score": integer,
			"is_partial":  map[string]any{"type": "boolean"},
			"frames":      map[string]any{"type": "array", "items": frame},
		},
		"required": []string{"game_number"},
	}
	bowler := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  str,
			"team":  str,
			"games": map[string]any{"type": "array", "items": game},
		},
		"required": []string{"name", "games"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date_text":          str,
			"location":           str,
			"lane":               str,
			"bowling_alley_name": str,
			"bowlers":            map[string]any{"type": "array", "items": bowler},
		},
		"required": []string{"bowlers"},
	}
}
