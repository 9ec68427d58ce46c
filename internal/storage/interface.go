package storage

import (
	"context"
	"time"

	"github.com/mcoot/scoresnap/internal/model"
)

// SessionFilter narrows a session listing
// Zero From or To leaves that side of the range open
type SessionFilter struct {
	UserID model.UserID
	From   time.Time
	To     time.Time
}

// Matches reports whether a session passes the filter
func (f SessionFilter) Matches(session *model.Session) bool {
	if f.UserID != "" && session.CreatedByUserID != f.UserID {
		return false
	}
	if !f.From.IsZero() && session.DateTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && session.DateTime.After(f.To) {
		return false
	}
	return true
}

// Storage defines the interface for data persistence
type Storage interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	SaveCredentials(ctx context.Context, creds *model.Credentials) error
	GetCredentialsByUsername(ctx context.Context, username string) (*model.Credentials, error)

	// Bowler operations
	SaveBowler(ctx context.Context, bowler *model.Bowler) error
	GetBowler(ctx context.Context, id model.BowlerID) (*model.Bowler, error)
	// GetBowlers returns the bowlers that exist among ids, in the order given
	GetBowlers(ctx context.Context, ids []model.BowlerID) ([]*model.Bowler, error)
	// ListBowlers returns all bowlers ordered by canonical name
	ListBowlers(ctx context.Context) ([]*model.Bowler, error)
	// SaveBowlerAlias inserts or replaces the alias keyed by bowler and alias text
	SaveBowlerAlias(ctx context.Context, alias *model.BowlerAlias) error
	ListBowlerAliases(ctx context.Context, bowlerID model.BowlerID) ([]model.BowlerAlias, error)
	// ListBowlersWithAliases returns every bowler with its aliases ordered by canonical name
	ListBowlersWithAliases(ctx context.Context) ([]model.BowlerWithAliases, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	// ListSessions returns matching sessions, most recent first
	ListSessions(ctx context.Context, filter SessionFilter) ([]*model.Session, error)

	// Series operations
	SaveSeries(ctx context.Context, series *model.Series) error
	GetSeries(ctx context.Context, id model.SeriesID) (*model.Series, error)
	// FindSeries returns the series for a bowler in a session, or ErrSeriesNotFound
	FindSeries(ctx context.Context, sessionID model.SessionID, bowlerID model.BowlerID) (*model.Series, error)
	ListSeriesForSession(ctx context.Context, sessionID model.SessionID) ([]*model.Series, error)
	ListSeriesForBowler(ctx context.Context, bowlerID model.BowlerID) ([]*model.Series, error)

	// Game operations
	SaveGame(ctx context.Context, game *model.Game) error
	// ListGamesForSeries returns the games of a series ordered by game number
	ListGamesForSeries(ctx context.Context, seriesID model.SeriesID) ([]*model.Game, error)

	// Team operations
	SaveTeam(ctx context.Context, team *model.Team) error
	ListTeamsForSession(ctx context.Context, sessionID model.SessionID) ([]*model.Team, error)
	// AddTeamBowler links a bowler to a team; linking twice is a no-op
	AddTeamBowler(ctx context.Context, link model.TeamBowler) error
	ListTeamBowlers(ctx context.Context, teamID model.TeamID) ([]model.BowlerID, error)

	// Upload operations
	SaveUpload(ctx context.Context, upload *model.Upload) error
	GetUpload(ctx context.Context, id model.UploadID) (*model.Upload, error)
}
