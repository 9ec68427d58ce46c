// Package stats computes bowling statistics and session exports.
package stats

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
)

// BowlerStats summarises every game a bowler has recorded
type BowlerStats struct {
	Bowler        model.Bowler
	Games         int
	CompleteGames int
	Average       float64 // over complete games
	HighGame      int
	HighSeries    int
	SeriesCount   int
	SessionCount  int
}

// SeriesSummary is one bowler's games within a session
type SeriesSummary struct {
	Series *model.Series
	Bowler *model.Bowler
	Games  []*model.Game
	Total  int // sum of complete games
}

// TeamTotal is the combined score of a team's bowlers in a session
type TeamTotal struct {
	Team      *model.Team
	BowlerIDs []model.BowlerID
	Total     int
}

// SessionSummary is everything recorded for a session
type SessionSummary struct {
	Session *model.Session
	Series  []SeriesSummary
	Teams   []TeamTotal
}

// AlleyStats summarises a user's sessions at one alley
type AlleyStats struct {
	Alley    string
	Sessions int
	Games    int
	Average  float64
}

// Service computes statistics from stored games
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new stats Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// BowlerStats computes lifetime statistics for a bowler
func (s *Service) BowlerStats(ctx context.Context, bowlerID model.BowlerID) (*BowlerStats, error) {
	bowler, err := s.storage.GetBowler(ctx, bowlerID)
	if err != nil {
		return nil, err
	}
	seriesList, err := s.storage.ListSeriesForBowler(ctx, bowlerID)
	if err != nil {
		return nil, err
	}

	stats := &BowlerStats{Bowler: *bowler, SeriesCount: len(seriesList)}
	sessions := make(map[model.SessionID]struct{}, len(seriesList))
	pins := 0
	for _, sr := range seriesList {
		sessions[sr.SessionID] = struct{}{}
		games, err := s.storage.ListGamesForSeries(ctx, sr.ID)
		if err != nil {
			return nil, err
		}

		seriesTotal := 0
		for _, g := range games {
			stats.Games++
			if g.TotalScore == nil {
				continue
			}
			stats.CompleteGames++
			pins += *g.TotalScore
			seriesTotal += *g.TotalScore
			stats.HighGame = max(stats.HighGame, *g.TotalScore)
		}
		stats.HighSeries = max(stats.HighSeries, seriesTotal)
	}
	stats.SessionCount = len(sessions)
	stats.Average = average(pins, stats.CompleteGames)
	return stats, nil
}

// SessionSummary loads a session's series, games and team totals
func (s *Service) SessionSummary(ctx context.Context, sessionID model.SessionID) (*SessionSummary, error) {
	session, err := s.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	seriesList, err := s.storage.ListSeriesForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &SessionSummary{
		Session: session,
		Series:  make([]SeriesSummary, 0, len(seriesList)),
		Teams:   []TeamTotal{},
	}
	totals := make(map[model.BowlerID]int, len(seriesList))
	for _, sr := range seriesList {
		bowler, err := s.storage.GetBowler(ctx, sr.BowlerID)
		if err != nil {
			return nil, err
		}
		games, err := s.storage.ListGamesForSeries(ctx, sr.ID)
		if err != nil {
			return nil, err
		}
		total := seriesTotal(games)
		totals[sr.BowlerID] = total
		summary.Series = append(summary.Series, SeriesSummary{
			Series: sr,
			Bowler: bowler,
			Games:  games,
			Total:  total,
		})
	}

	teams, err := s.storage.ListTeamsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		members, err := s.storage.ListTeamBowlers(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		tt := TeamTotal{Team: t, BowlerIDs: members}
		for _, id := range members {
			tt.Total += totals[id]
		}
		summary.Teams = append(summary.Teams, tt)
	}
	return summary, nil
}

// AlleyStats groups a user's sessions by alley name, falling back to the
// location text, ordered by session count
func (s *Service) AlleyStats(ctx context.Context, userID model.UserID) ([]AlleyStats, error) {
	sessions, err := s.storage.ListSessions(ctx, storage.SessionFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	type acc struct {
		name     string
		sessions int
		games    int
		complete int
		pins     int
	}
	byAlley := map[string]*acc{}
	for _, sess := range sessions {
		name := alleyName(sess)
		key := strings.ToLower(name)
		a, ok := byAlley[key]
		if !ok {
			a = &acc{name: name}
			byAlley[key] = a
		}
		a.sessions++

		seriesList, err := s.storage.ListSeriesForSession(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		for _, sr := range seriesList {
			games, err := s.storage.ListGamesForSeries(ctx, sr.ID)
			if err != nil {
				return nil, err
			}
			for _, g := range games {
				a.games++
				if g.TotalScore != nil {
					a.complete++
					a.pins += *g.TotalScore
				}
			}
		}
	}

	result := make([]AlleyStats, 0, len(byAlley))
	for _, a := range byAlley {
		result = append(result, AlleyStats{
			Alley:    a.name,
			Sessions: a.sessions,
			Games:    a.games,
			Average:  average(a.pins, a.complete),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Sessions != result[j].Sessions {
			return result[i].Sessions > result[j].Sessions
		}
		return result[i].Alley < result[j].Alley
	})
	return result, nil
}

// UnknownAlley names sessions with no alley or location
const UnknownAlley = "Unknown"

func alleyName(s *model.Session) string {
	switch {
	case s.BowlingAlleyName != "":
		return s.BowlingAlleyName
	case s.Location != "":
		return s.Location
	default:
		return UnknownAlley
	}
}

func seriesTotal(games []*model.Game) int {
	total := 0
	for _, g := range games {
		if g.TotalScore != nil {
			total += *g.TotalScore
		}
	}
	return total
}

func average(pins, games int) float64 {
	if games == 0 {
		return 0
	}
	return math.Round(float64(pins)/float64(games)*100) / 100
}
