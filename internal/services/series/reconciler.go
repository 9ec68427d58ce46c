// Package series merges newly parsed games into a bowler's series.
package series

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/scoresnap/internal/dependencies/clock"
	"github.com/mcoot/scoresnap/internal/dependencies/ids"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
)

// Reconciler finds or creates series and appends games without overwriting
type Reconciler struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger
}

// New creates a new series Reconciler
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		storage: storage,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// Reconcile decides which of newGameNumbers can be added to the bowler's
// series in the session. Numbers already recorded are conflicts and are
// never overwritten. A missing series is created.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	sessionID model.SessionID,
	bowlerID model.BowlerID,
	newGameNumbers []int,
) (*model.SeriesReconciliation, error) {
	existing, err := r.storage.FindSeries(ctx, sessionID, bowlerID)
	if errors.Is(err, model.ErrSeriesNotFound) {
		return r.createSeries(ctx, sessionID, bowlerID, newGameNumbers)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find series: %w", err)
	}

	games, err := r.storage.ListGamesForSeries(ctx, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for series %s: %w", existing.ID, err)
	}

	recorded := make(map[int]struct{}, len(games))
	result := &model.SeriesReconciliation{
		SeriesID:         existing.ID,
		ExistingGames:    make([]model.ExistingGame, 0, len(games)),
		NewGames:         []int{},
		ConflictingGames: []int{},
	}
	for _, g := range games {
		recorded[g.GameNumber] = struct{}{}
		result.ExistingGames = append(result.ExistingGames, model.ExistingGame{
			GameNumber: g.GameNumber,
			IsPartial:  g.IsPartial,
		})
	}

	for _, n := range newGameNumbers {
		if _, ok := recorded[n]; ok {
			result.ConflictingGames = append(result.ConflictingGames, n)
			continue
		}
		recorded[n] = struct{}{}
		result.NewGames = append(result.NewGames, n)
	}
	result.ShouldAppend = len(result.NewGames) > 0

	if len(result.ConflictingGames) > 0 {
		r.logger.Info("skipping games already recorded",
			slog.String("series_id", string(existing.ID)),
			slog.Any("game_numbers", result.ConflictingGames),
		)
	}
	return result, nil
}

func (r *Reconciler) createSeries(
	ctx context.Context,
	sessionID model.SessionID,
	bowlerID model.BowlerID,
	gameNumbers []int,
) (*model.SeriesReconciliation, error) {
	newGames := make([]int, 0, len(gameNumbers))
	seen := make(map[int]struct{}, len(gameNumbers))
	for _, n := range gameNumbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		newGames = append(newGames, n)
	}

	s := &model.Series{
		ID:         model.SeriesID(r.ids.NewID()),
		SessionID:  sessionID,
		BowlerID:   bowlerID,
		GamesCount: len(newGames),
		CreatedAt:  r.clock.Now(),
	}
	if err := r.storage.SaveSeries(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create series: %w", err)
	}

	r.logger.Info("series created",
		slog.String("series_id", string(s.ID)),
		slog.String("session_id", string(sessionID)),
		slog.String("bowler_id", string(bowlerID)),
	)
	return &model.SeriesReconciliation{
		SeriesID:         s.ID,
		Created:          true,
		ExistingGames:    []model.ExistingGame{},
		NewGames:         newGames,
		ConflictingGames: []int{},
	}, nil
}

// AppendGames stores games in the series, refusing numbers already recorded,
// and updates the series game count
func (r *Reconciler) AppendGames(ctx context.Context, seriesID model.SeriesID, games []*model.Game) ([]model.GameID, error) {
	s, err := r.storage.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	existing, err := r.storage.ListGamesForSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	recorded := make(map[int]struct{}, len(existing))
	for _, g := range existing {
		recorded[g.GameNumber] = struct{}{}
	}

	now := r.clock.Now()
	gameIDs := make([]model.GameID, 0, len(games))
	for _, g := range games {
		if _, ok := recorded[g.GameNumber]; ok {
			return gameIDs, fmt.Errorf("%w: game %d in series %s", model.ErrGameExists, g.GameNumber, seriesID)
		}
		if g.ID == "" {
			g.ID = model.GameID(r.ids.NewID())
		}
		g.SeriesID = seriesID
		if g.CreatedAt.IsZero() {
			g.CreatedAt = now
		}
		if err := r.storage.SaveGame(ctx, g); err != nil {
			return gameIDs, fmt.Errorf("failed to save game %d: %w", g.GameNumber, err)
		}
		recorded[g.GameNumber] = struct{}{}
		gameIDs = append(gameIDs, g.ID)
	}

	if total := len(recorded); total != s.GamesCount {
		s.GamesCount = total
		if err := r.storage.SaveSeries(ctx, s); err != nil {
			return gameIDs, fmt.Errorf("failed to update series: %w", err)
		}
	}
	return gameIDs, nil
}
