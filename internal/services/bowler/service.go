// Package bowler resolves scoreboard names to bowlers and manages bowler records.
package bowler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/scoresnap/internal/dependencies/clock"
	"github.com/mcoot/scoresnap/internal/dependencies/ids"
	"github.com/mcoot/scoresnap/internal/matching"
	"github.com/mcoot/scoresnap/internal/metrics"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
)

const (
	// DefaultSearchLimit is used when a search does not ask for a limit
	DefaultSearchLimit = 10
	// MaxSearchLimit caps the number of search results
	MaxSearchLimit = 50
)

// Service resolves parsed names and manages bowlers and aliases
type Service struct {
	storage    storage.Storage
	clock      clock.Clock
	ids        ids.Generator
	thresholds matching.Thresholds
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates a new bowler Service
func New(
	storage storage.Storage,
	clock clock.Clock,
	ids ids.Generator,
	thresholds matching.Thresholds,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:    storage,
		clock:      clock,
		ids:        ids,
		thresholds: thresholds,
		metrics:    metrics,
		logger:     logger,
	}
}

// FindMatches ranks every known bowler against a parsed name
func (s *Service) FindMatches(ctx context.Context, parsedName string) ([]model.BowlerMatch, error) {
	bowlers, err := s.storage.ListBowlersWithAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bowlers: %w", err)
	}
	return matching.FindMatches(parsedName, bowlers, s.thresholds), nil
}

// ResolveName decides which bowler a parsed name refers to, whether the
// user must choose, or whether a new bowler is needed
func (s *Service) ResolveName(ctx context.Context, parsedName string) (*model.NameResolution, error) {
	matches, err := s.FindMatches(ctx, parsedName)
	if err != nil {
		return nil, err
	}

	res := matching.Resolve(parsedName, matches, s.thresholds)
	s.metrics.ObserveResolution(res)

	attrs := []any{
		slog.String("parsed_name", parsedName),
		slog.Int("matches", len(matches)),
		slog.Bool("needs_user_input", res.NeedsUserInput),
	}
	if res.ResolvedBowlerID != nil {
		attrs = append(attrs, slog.String("bowler_id", string(*res.ResolvedBowlerID)))
	}
	s.logger.Debug("name resolved", attrs...)

	return res, nil
}

// CreateBowler creates a bowler with the given canonical name
func (s *Service) CreateBowler(ctx context.Context, canonicalName string, createdBy model.UserID) (*model.Bowler, error) {
	name := collapseSpaces(canonicalName)
	if name == "" {
		return nil, model.ErrInvalidBowlerName
	}

	bowler := &model.Bowler{
		ID:              model.BowlerID(s.ids.NewID()),
		CanonicalName:   name,
		CreatedByUserID: createdBy,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.storage.SaveBowler(ctx, bowler); err != nil {
		s.logger.Error("failed to save bowler",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("bowler created",
		slog.String("bowler_id", string(bowler.ID)),
		slog.String("name", name),
	)
	return bowler, nil
}

// AddAlias records an alternate spelling for a bowler.
// An alias that normalizes to an existing alias or to the canonical name is a no-op.
func (s *Service) AddAlias(
	ctx context.Context,
	bowlerID model.BowlerID,
	alias string,
	source model.AliasSource,
	confidence float64,
) error {
	alias = collapseSpaces(alias)
	normalized := matching.NormalizeName(alias)
	if normalized == "" {
		return model.ErrInvalidAlias
	}
	if !source.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidAliasSource, source)
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of range", model.ErrInvalidAlias, confidence)
	}

	bowler, err := s.storage.GetBowler(ctx, bowlerID)
	if err != nil {
		return err
	}
	if matching.NormalizeName(bowler.CanonicalName) == normalized {
		return nil
	}

	existing, err := s.storage.ListBowlerAliases(ctx, bowlerID)
	if err != nil {
		return err
	}
	for _, a := range existing {
		if matching.NormalizeName(a.Alias) == normalized {
			return nil
		}
	}

	if err := s.storage.SaveBowlerAlias(ctx, &model.BowlerAlias{
		BowlerID:        bowlerID,
		Alias:           alias,
		Source:          source,
		ConfidenceScore: confidence,
		CreatedAt:       s.clock.Now(),
	}); err != nil {
		return err
	}

	s.logger.Info("alias added",
		slog.String("bowler_id", string(bowlerID)),
		slog.String("alias", alias),
		slog.String("source", string(source)),
	)
	return nil
}

// Search returns bowlers whose canonical name contains term, ignoring case.
// limit defaults to DefaultSearchLimit and is capped at MaxSearchLimit.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]*model.Bowler, error) {
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	bowlers, err := s.storage.ListBowlers(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	results := make([]*model.Bowler, 0, limit)
	for _, b := range bowlers {
		if len(results) == limit {
			break
		}
		if strings.Contains(strings.ToLower(b.CanonicalName), needle) {
			results = append(results, b)
		}
	}
	return results, nil
}

// Get returns a bowler with its aliases
func (s *Service) Get(ctx context.Context, id model.BowlerID) (*model.BowlerWithAliases, error) {
	bowler, err := s.storage.GetBowler(ctx, id)
	if err != nil {
		return nil, err
	}
	aliases, err := s.storage.ListBowlerAliases(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.BowlerWithAliases{Bowler: *bowler, Aliases: aliases}, nil
}

// List returns every bowler ordered by name
func (s *Service) List(ctx context.Context) ([]*model.Bowler, error) {
	return s.storage.ListBowlers(ctx)
}

// ListAliases returns the aliases of a bowler
func (s *Service) ListAliases(ctx context.Context, id model.BowlerID) ([]model.BowlerAlias, error) {
	if _, err := s.storage.GetBowler(ctx, id); err != nil {
		return nil, err
	}
	return s.storage.ListBowlerAliases(ctx, id)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
