package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
)

const (
	// DefaultMatchWindow is how far either side of an upload's time a session may be
	DefaultMatchWindow = 3 * time.Hour
	// DefaultGPSTolerance is the per-axis distance in degrees treated as the same place
	DefaultGPSTolerance = 0.001
)

// MatcherConfig tunes session matching
type MatcherConfig struct {
	Window       time.Duration
	GPSTolerance float64
}

// DefaultMatcherConfig returns the standard matching window and tolerance
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Window:       DefaultMatchWindow,
		GPSTolerance: DefaultGPSTolerance,
	}
}

// Matcher finds the existing session an upload belongs to
type Matcher struct {
	storage storage.Storage
	config  MatcherConfig
	logger  *slog.Logger
}

// NewMatcher creates a new session Matcher
func NewMatcher(storage storage.Storage, cfg MatcherConfig, logger *slog.Logger) *Matcher {
	if cfg.Window == 0 {
		cfg.Window = DefaultMatchWindow
	}
	if cfg.GPSTolerance == 0 {
		cfg.GPSTolerance = DefaultGPSTolerance
	}
	return &Matcher{
		storage: storage,
		config:  cfg,
		logger:  logger,
	}
}

// FindMatchingSession returns the session an upload should merge into, or
// nil when a new session is needed.
//
// Candidates are the user's sessions within the window at the same place.
// The candidate sharing the most bowlers wins; with no shared bowlers the
// most recent candidate is used.
func (m *Matcher) FindMatchingSession(ctx context.Context, criteria model.SessionCriteria) (*model.SessionMatch, error) {
	sessions, err := m.storage.ListSessions(ctx, storage.SessionFilter{
		UserID: criteria.UserID,
		From:   criteria.DateTime.Add(-m.config.Window),
		To:     criteria.DateTime.Add(m.config.Window),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate sessions: %w", err)
	}

	names := make(map[string]struct{}, len(criteria.BowlerNames))
	for _, n := range criteria.BowlerNames {
		if key := rosterKey(n); key != "" {
			names[key] = struct{}{}
		}
	}

	var best, fallback *model.Session
	bestOverlap := 0
	// Sessions arrive most recent first, so strict comparisons keep the more recent on ties
	for _, candidate := range sessions {
		if !m.samePlace(candidate, criteria) {
			continue
		}
		if fallback == nil {
			fallback = candidate
		}

		roster, err := RosterNames(ctx, m.storage, candidate.ID)
		if err != nil {
			return nil, err
		}
		onRoster := make(map[string]struct{}, len(roster))
		for _, r := range roster {
			onRoster[rosterKey(r)] = struct{}{}
		}
		// counts upload names, so bowlers sharing a name on the roster count once
		overlap := 0
		for n := range names {
			if _, ok := onRoster[n]; ok {
				overlap++
			}
		}
		if overlap > bestOverlap {
			best, bestOverlap = candidate, overlap
		}
	}

	switch {
	case best != nil:
		m.logger.Debug("session matched by roster",
			slog.String("session_id", string(best.ID)),
			slog.Int("overlap", bestOverlap),
		)
		return &model.SessionMatch{Session: best, Overlap: bestOverlap, Reason: model.MatchReasonRosterOverlap}, nil
	case fallback != nil:
		m.logger.Debug("session matched without shared bowlers",
			slog.String("session_id", string(fallback.ID)),
		)
		return &model.SessionMatch{Session: fallback, Reason: model.MatchReasonFallback}, nil
	default:
		return nil, nil
	}
}

// samePlace reports whether a session is at the upload's location by
// alley id, GPS proximity or location text
func (m *Matcher) samePlace(s *model.Session, c model.SessionCriteria) bool {
	if c.BowlingAlleyID != "" && s.BowlingAlleyID == c.BowlingAlleyID {
		return true
	}
	if c.GPS != nil && s.GPS != nil &&
		math.Abs(s.GPS.Latitude-c.GPS.Latitude) <= m.config.GPSTolerance &&
		math.Abs(s.GPS.Longitude-c.GPS.Longitude) <= m.config.GPSTolerance {
		return true
	}
	return c.Location != "" && s.Location == c.Location
}

func rosterKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RosterNames returns the canonical names of every bowler with a series in the session
func RosterNames(ctx context.Context, store storage.Storage, sessionID model.SessionID) ([]string, error) {
	series, err := store.ListSeriesForSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list series for session %s: %w", sessionID, err)
	}
	ids := make([]model.BowlerID, 0, len(series))
	for _, s := range series {
		ids = append(ids, s.BowlerID)
	}
	bowlers, err := store.GetBowlers(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(bowlers))
	for _, b := range bowlers {
		names = append(names, b.CanonicalName)
	}
	return names, nil
}
