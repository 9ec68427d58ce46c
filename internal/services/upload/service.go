// Package upload turns parsed scoreboards into sessions, series and games.
package upload

import (
	"context"
	"log/slog"

	"github.com/mcoot/scoresnap/internal/dependencies/clock"
	"github.com/mcoot/scoresnap/internal/dependencies/ids"
	"github.com/mcoot/scoresnap/internal/metrics"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/bowler"
	"github.com/mcoot/scoresnap/internal/services/series"
	"github.com/mcoot/scoresnap/internal/services/session"
	"github.com/mcoot/scoresnap/internal/storage"
	"github.com/mcoot/scoresnap/internal/vision"
)

// Notifier receives an event after an upload adds data to a session
type Notifier interface {
	SessionUpdated(event model.SessionUpdatedEvent)
}

// Dependencies are the collaborators of the upload Service
type Dependencies struct {
	Storage   storage.Storage
	Clock     clock.Clock
	IDs       ids.Generator
	Bowlers   *bowler.Service
	Sessions  *session.Service
	Matcher   *session.Matcher
	Series    *series.Reconciler
	Extractor vision.Extractor // optional
	Notifier  Notifier         // optional
	Metrics   *metrics.Metrics // optional
	Logger    *slog.Logger
}

// Service runs the upload pipeline
type Service struct {
	storage   storage.Storage
	clock     clock.Clock
	ids       ids.Generator
	cleaner   *Cleaner
	bowlers   *bowler.Service
	sessions  *session.Service
	matcher   *session.Matcher
	series    *series.Reconciler
	extractor vision.Extractor
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a new upload Service
func New(deps Dependencies) *Service {
	return &Service{
		storage:   deps.Storage,
		clock:     deps.Clock,
		ids:       deps.IDs,
		cleaner:   NewCleaner(deps.Clock),
		bowlers:   deps.Bowlers,
		sessions:  deps.Sessions,
		matcher:   deps.Matcher,
		series:    deps.Series,
		extractor: deps.Extractor,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// Clean validates a parsed scoreboard and removes OCR noise
func (s *Service) Clean(parsed *model.ParsedScoreboard) (*model.ParsedScoreboard, error) {
	return s.cleaner.Clean(parsed)
}

// VisionEnabled reports whether image uploads are supported
func (s *Service) VisionEnabled() bool {
	return s.extractor != nil
}

// Submit cleans and stores a parsed scoreboard as a new upload, returning
// it with its name analysis
func (s *Service) Submit(
	ctx context.Context,
	userID model.UserID,
	parsed *model.ParsedScoreboard,
) (*model.Upload, *model.NameAnalysis, error) {
	cleaned, err := s.Clean(parsed)
	if err != nil {
		return nil, nil, err
	}

	analysis, err := s.AnalyzeNameResolution(ctx, cleaned)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	upload := &model.Upload{
		ID:        model.UploadID(s.ids.NewID()),
		UserID:    userID,
		Status:    model.UploadStatusParsed,
		Parsed:    cleaned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if analysis.NeedsResolution {
		upload.Status = model.UploadStatusNeedsResolution
	}
	if err := s.storage.SaveUpload(ctx, upload); err != nil {
		return nil, nil, err
	}

	s.logger.Info("upload submitted",
		slog.String("upload_id", string(upload.ID)),
		slog.String("user_id", string(userID)),
		slog.Int("bowlers", len(cleaned.Bowlers)),
		slog.Int("unresolved", len(analysis.UnresolvedNames)),
	)
	return upload, analysis, nil
}

// SubmitImage extracts a scoreboard from a photo and submits it
func (s *Service) SubmitImage(
	ctx context.Context,
	userID model.UserID,
	image []byte,
	mimeType string,
) (*model.Upload, *model.NameAnalysis, error) {
	if s.extractor == nil {
		return nil, nil, model.ErrVisionUnavailable
	}

	parsed, err := s.extractor.Extract(ctx, image, mimeType)
	if err != nil {
		s.logger.Error("scoreboard extraction failed",
			slog.String("user_id", string(userID)),
			slog.String("error", err.Error()),
		)
		return nil, nil, err
	}
	return s.Submit(ctx, userID, parsed)
}

// Get returns an upload owned by userID
func (s *Service) Get(ctx context.Context, id model.UploadID, userID model.UserID) (*model.Upload, error) {
	upload, err := s.storage.GetUpload(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload.UserID != userID {
		return nil, model.ErrUploadNotFound
	}
	return upload, nil
}

// Analyze re-runs name analysis for a stored upload
func (s *Service) Analyze(ctx context.Context, id model.UploadID, userID model.UserID) (*model.NameAnalysis, error) {
	upload, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeNameResolution(ctx, upload.Parsed)
}

// AnalyzeNameResolution reports which names resolve automatically and which
// need a human decision. Names with no match at all appear in neither list
// and become new bowlers when persisted.
func (s *Service) AnalyzeNameResolution(ctx context.Context, parsed *model.ParsedScoreboard) (*model.NameAnalysis, error) {
	analysis := &model.NameAnalysis{
		UnresolvedNames:  []model.NameResolution{},
		ResolvedMappings: map[string]model.BowlerID{},
	}
	if parsed == nil {
		return analysis, nil
	}

	for _, name := range parsed.BowlerNames() {
		res, err := s.bowlers.ResolveName(ctx, name)
		if err != nil {
			return nil, err
		}
		switch {
		case res.ResolvedBowlerID != nil:
			analysis.ResolvedMappings[name] = *res.ResolvedBowlerID
		case res.NeedsUserInput:
			analysis.UnresolvedNames = append(analysis.UnresolvedNames, *res)
		}
	}
	analysis.NeedsResolution = len(analysis.UnresolvedNames) > 0
	return analysis, nil
}

// PersistUpload persists a stored upload owned by userID. The returned error
// covers only loading the upload; persistence failures are in the result.
func (s *Service) PersistUpload(
	ctx context.Context,
	id model.UploadID,
	userID model.UserID,
	mappings map[string]model.BowlerID,
) (*model.PersistResult, error) {
	upload, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if upload.Status == model.UploadStatusProcessed {
		return nil, model.ErrUploadProcessed
	}
	return s.Persist(ctx, upload.ID, upload.Parsed, mappings, userID), nil
}
