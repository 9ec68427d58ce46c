// Package session groups uploads into sessions and manages session teams.
package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/scoresnap/internal/dependencies/clock"
	"github.com/mcoot/scoresnap/internal/dependencies/ids"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
)

// CreateParams describes a new session
type CreateParams struct {
	DateTime         time.Time
	Location         string
	Lane             string
	BowlingAlleyID   string
	BowlingAlleyName string
	GPS              *model.Coordinates
}

// TeamMembers is a team with the bowlers attached to it
type TeamMembers struct {
	Team      *model.Team
	BowlerIDs []model.BowlerID
}

// Service manages sessions and their teams
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger
}

// New creates a new session Service
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// Create stores a new session owned by userID
func (s *Service) Create(ctx context.Context, userID model.UserID, params CreateParams) (*model.Session, error) {
	session := &model.Session{
		ID:               model.SessionID(s.ids.NewID()),
		DateTime:         params.DateTime.UTC(),
		Location:         strings.TrimSpace(params.Location),
		Lane:             strings.TrimSpace(params.Lane),
		BowlingAlleyID:   strings.TrimSpace(params.BowlingAlleyID),
		BowlingAlleyName: strings.TrimSpace(params.BowlingAlleyName),
		GPS:              params.GPS,
		CreatedByUserID:  userID,
		CreatedAt:        s.clock.Now(),
	}
	if err := s.storage.SaveSession(ctx, session); err != nil {
		s.logger.Error("failed to save session",
			slog.String("user_id", string(userID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("session created",
		slog.String("session_id", string(session.ID)),
		slog.String("user_id", string(userID)),
		slog.Time("date_time", session.DateTime),
	)
	return session, nil
}

// Get returns a session owned by userID
func (s *Service) Get(ctx context.Context, id model.SessionID, userID model.UserID) (*model.Session, error) {
	session, err := s.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.CreatedByUserID != userID {
		return nil, model.ErrNotSessionOwner
	}
	return session, nil
}

// List returns a user's sessions, most recent first
func (s *Service) List(ctx context.Context, userID model.UserID) ([]*model.Session, error) {
	return s.storage.ListSessions(ctx, storage.SessionFilter{UserID: userID})
}

// Roster returns the bowlers with a series in the session
func (s *Service) Roster(ctx context.Context, sessionID model.SessionID) ([]*model.Bowler, error) {
	series, err := s.storage.ListSeriesForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]model.BowlerID, 0, len(series))
	for _, sr := range series {
		ids = append(ids, sr.BowlerID)
	}
	return s.storage.GetBowlers(ctx, ids)
}

// Teams returns the session's teams with their bowlers
func (s *Service) Teams(ctx context.Context, sessionID model.SessionID) ([]TeamMembers, error) {
	teams, err := s.storage.ListTeamsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result := make([]TeamMembers, 0, len(teams))
	for _, t := range teams {
		bowlerIDs, err := s.storage.ListTeamBowlers(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, TeamMembers{Team: t, BowlerIDs: bowlerIDs})
	}
	return result, nil
}

// EnsureTeam finds the session team with the given name, ignoring case, or
// creates it, then attaches the bowler to it
func (s *Service) EnsureTeam(
	ctx context.Context,
	sessionID model.SessionID,
	name string,
	bowlerID model.BowlerID,
) (*model.Team, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, nil
	}

	teams, err := s.storage.ListTeamsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var team *model.Team
	for _, t := range teams {
		if strings.EqualFold(t.Name, name) {
			team = t
			break
		}
	}

	if team == nil {
		team = &model.Team{
			ID:        model.TeamID(s.ids.NewID()),
			SessionID: sessionID,
			Name:      name,
			CreatedAt: s.clock.Now(),
		}
		if err := s.storage.SaveTeam(ctx, team); err != nil {
			return nil, err
		}
		s.logger.Info("team created",
			slog.String("team_id", string(team.ID)),
			slog.String("session_id", string(sessionID)),
			slog.String("name", name),
		)
	}

	if err := s.storage.AddTeamBowler(ctx, model.TeamBowler{TeamID: team.ID, BowlerID: bowlerID}); err != nil {
		return nil, err
	}
	return team, nil
}
