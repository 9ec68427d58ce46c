package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/mcoot/scoresnap/internal/model"
)

// Row types mirror the schema in migrations/. Optional text columns use
// nullzero so the empty string round-trips as NULL.

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            string    `bun:"id,pk"`
	Username      string    `bun:"username,notnull"`
	DisplayName   string    `bun:"display_name,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type credentialsRow struct {
	bun.BaseModel `bun:"table:credentials,alias:c"`
	Username      string    `bun:"username,pk"`
	UserID        string    `bun:"user_id,notnull"`
	PasswordHash  string    `bun:"password_hash,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

type bowlerRow struct {
	bun.BaseModel   `bun:"table:bowlers,alias:b"`
	ID              string    `bun:"id,pk"`
	CanonicalName   string    `bun:"canonical_name,notnull"`
	PrimaryUserID   *string   `bun:"primary_user_id"`
	CreatedByUserID string    `bun:"created_by_user_id,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
}

type aliasRow struct {
	bun.BaseModel   `bun:"table:bowler_aliases,alias:ba"`
	BowlerID        string    `bun:"bowler_id,pk"`
	Alias           string    `bun:"alias,pk"`
	Source          string    `bun:"source,notnull"`
	ConfidenceScore float64   `bun:"confidence_score,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
}

type sessionRow struct {
	bun.BaseModel    `bun:"table:sessions,alias:s"`
	ID               string    `bun:"id,pk"`
	DateTime         time.Time `bun:"date_time,notnull"`
	Location         string    `bun:"location,nullzero"`
	Lane             string    `bun:"lane,nullzero"`
	BowlingAlleyID   string    `bun:"bowling_alley_id,nullzero"`
	BowlingAlleyName string    `bun:"bowling_alley_name,nullzero"`
	GPSLatitude      *float64  `bun:"gps_latitude"`
	GPSLongitude     *float64  `bun:"gps_longitude"`
	CreatedByUserID  string    `bun:"created_by_user_id,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
}

type seriesRow struct {
	bun.BaseModel `bun:"table:series,alias:sr"`
	ID            string    `bun:"id,pk"`
	SessionID     string    `bun:"session_id,notnull"`
	BowlerID      string    `bun:"bowler_id,notnull"`
	GamesCount    int       `bun:"games_count,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type gameRow struct {
	bun.BaseModel `bun:"table:games,alias:g"`
	ID            string    `bun:"id,pk"`
	SeriesID      string    `bun:"series_id,notnull"`
	GameNumber    int       `bun:"game_number,notnull"`
	TotalScore    *int      `bun:"total_score"`
	IsPartial     bool      `bun:"is_partial,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type frameRow struct {
	bun.BaseModel `bun:"table:frames,alias:f"`
	GameID        string `bun:"game_id,pk"`
	FrameNumber   int    `bun:"frame_number,pk"`
	Roll1         int    `bun:"roll_1,notnull"`
	Roll2         int    `bun:"roll_2,notnull"`
	Roll3         *int   `bun:"roll_3"`
	Notation      string `bun:"notation,notnull"`
}

type teamRow struct {
	bun.BaseModel `bun:"table:teams,alias:t"`
	ID            string    `bun:"id,pk"`
	SessionID     string    `bun:"session_id,notnull"`
	Name          string    `bun:"name,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type teamBowlerRow struct {
	bun.BaseModel `bun:"table:team_bowlers,alias:tb"`
	TeamID        string `bun:"team_id,pk"`
	BowlerID      string `bun:"bowler_id,pk"`
}

type uploadRow struct {
	bun.BaseModel `bun:"table:uploads,alias:up"`
	ID            string                  `bun:"id,pk"`
	UserID        string                  `bun:"user_id,notnull"`
	Status        string                  `bun:"status,notnull"`
	Parsed        *model.ParsedScoreboard `bun:"parsed,type:jsonb"`
	SessionID     *string                 `bun:"session_id"`
	Error         string                  `bun:"error,notnull"`
	CreatedAt     time.Time               `bun:"created_at,notnull"`
	UpdatedAt     time.Time               `bun:"updated_at,notnull"`
}

// Conversions

func toUserRow(u *model.User) *userRow {
	return &userRow{ID: string(u.ID), Username: u.Username, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

func (r *userRow) toModel() *model.User {
	return &model.User{ID: model.UserID(r.ID), Username: r.Username, DisplayName: r.DisplayName, CreatedAt: r.CreatedAt.UTC()}
}

func toCredentialsRow(c *model.Credentials) *credentialsRow {
	return &credentialsRow{
		Username:     c.Username,
		UserID:       string(c.UserID),
		PasswordHash: c.PasswordHash,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r *credentialsRow) toModel() *model.Credentials {
	return &model.Credentials{
		UserID:       model.UserID(r.UserID),
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func toBowlerRow(b *model.Bowler) *bowlerRow {
	row := &bowlerRow{
		ID:              string(b.ID),
		CanonicalName:   b.CanonicalName,
		CreatedByUserID: string(b.CreatedByUserID),
		CreatedAt:       b.CreatedAt,
	}
	if b.PrimaryUserID != nil {
		id := string(*b.PrimaryUserID)
		row.PrimaryUserID = &id
	}
	return row
}

func (r *bowlerRow) toModel() *model.Bowler {
	b := &model.Bowler{
		ID:              model.BowlerID(r.ID),
		CanonicalName:   r.CanonicalName,
		CreatedByUserID: model.UserID(r.CreatedByUserID),
		CreatedAt:       r.CreatedAt.UTC(),
	}
	if r.PrimaryUserID != nil {
		id := model.UserID(*r.PrimaryUserID)
		b.PrimaryUserID = &id
	}
	return b
}

func toAliasRow(a *model.BowlerAlias) *aliasRow {
	return &aliasRow{
		BowlerID:        string(a.BowlerID),
		Alias:           a.Alias,
		Source:          string(a.Source),
		ConfidenceScore: a.ConfidenceScore,
		CreatedAt:       a.CreatedAt,
	}
}

func (r *aliasRow) toModel() model.BowlerAlias {
	return model.BowlerAlias{
		BowlerID:        model.BowlerID(r.BowlerID),
		Alias:           r.Alias,
		Source:          model.AliasSource(r.Source),
		ConfidenceScore: r.ConfidenceScore,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func toSessionRow(s *model.Session) *sessionRow {
	row := &sessionRow{
		ID:               string(s.ID),
		DateTime:         s.DateTime,
		Location:         s.Location,
		Lane:             s.Lane,
		BowlingAlleyID:   s.BowlingAlleyID,
		BowlingAlleyName: s.BowlingAlleyName,
		CreatedByUserID:  string(s.CreatedByUserID),
		CreatedAt:        s.CreatedAt,
	}
	if s.GPS != nil {
		lat, lng := s.GPS.Latitude, s.GPS.Longitude
		row.GPSLatitude = &lat
		row.GPSLongitude = &lng
	}
	return row
}

func (r *sessionRow) toModel() *model.Session {
	s := &model.Session{
		ID:               model.SessionID(r.ID),
		DateTime:         r.DateTime.UTC(),
		Location:         r.Location,
		Lane:             r.Lane,
		BowlingAlleyID:   r.BowlingAlleyID,
		BowlingAlleyName: r.BowlingAlleyName,
		CreatedByUserID:  model.UserID(r.CreatedByUserID),
		CreatedAt:        r.CreatedAt.UTC(),
	}
	if r.GPSLatitude != nil && r.GPSLongitude != nil {
		s.GPS = &model.Coordinates{Latitude: *r.GPSLatitude, Longitude: *r.GPSLongitude}
	}
	return s
}

func toSeriesRow(s *model.Series) *seriesRow {
	return &seriesRow{
		ID:         string(s.ID),
		SessionID:  string(s.SessionID),
		BowlerID:   string(s.BowlerID),
		GamesCount: s.GamesCount,
		CreatedAt:  s.CreatedAt,
	}
}

func (r *seriesRow) toModel() *model.Series {
	return &model.Series{
		ID:         model.SeriesID(r.ID),
		SessionID:  model.SessionID(r.SessionID),
		BowlerID:   model.BowlerID(r.BowlerID),
		GamesCount: r.GamesCount,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func toGameRows(g *model.Game) (*gameRow, []frameRow) {
	game := &gameRow{
		ID:         string(g.ID),
		SeriesID:   string(g.SeriesID),
		GameNumber: g.GameNumber,
		TotalScore: g.TotalScore,
		IsPartial:  g.IsPartial,
		CreatedAt:  g.CreatedAt,
	}
	frames := make([]frameRow, 0, len(g.Frames))
	for _, f := range g.Frames {
		frames = append(frames, frameRow{
			GameID:      string(g.ID),
			FrameNumber: f.FrameNumber,
			Roll1:       f.Roll1,
			Roll2:       f.Roll2,
			Roll3:       f.Roll3,
			Notation:    f.Notation,
		})
	}
	return game, frames
}

func (r *gameRow) toModel(frames []frameRow) *model.Game {
	g := &model.Game{
		ID:         model.GameID(r.ID),
		SeriesID:   model.SeriesID(r.SeriesID),
		GameNumber: r.GameNumber,
		TotalScore: r.TotalScore,
		IsPartial:  r.IsPartial,
		Frames:     make([]model.Frame, 0, len(frames)),
		CreatedAt:  r.CreatedAt.UTC(),
	}
	for _, f := range frames {
		g.Frames = append(g.Frames, model.Frame{
			FrameNumber: f.FrameNumber,
			Roll1:       f.Roll1,
			Roll2:       f.Roll2,
			Roll3:       f.Roll3,
			Notation:    f.Notation,
		})
	}
	return g
}

func toTeamRow(t *model.Team) *teamRow {
	return &teamRow{ID: string(t.ID), SessionID: string(t.SessionID), Name: t.Name, CreatedAt: t.CreatedAt}
}

func (r *teamRow) toModel() *model.Team {
	return &model.Team{ID: model.TeamID(r.ID), SessionID: model.SessionID(r.SessionID), Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

func toUploadRow(u *model.Upload) *uploadRow {
	row := &uploadRow{
		ID:        string(u.ID),
		UserID:    string(u.UserID),
		Status:    string(u.Status),
		Parsed:    u.Parsed,
		Error:     u.Error,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.SessionID != nil {
		id := string(*u.SessionID)
		row.SessionID = &id
	}
	return row
}

func (r *uploadRow) toModel() *model.Upload {
	u := &model.Upload{
		ID:        model.UploadID(r.ID),
		UserID:    model.UserID(r.UserID),
		Status:    model.UploadStatus(r.Status),
		Parsed:    r.Parsed,
		Error:     r.Error,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.SessionID != nil {
		id := model.SessionID(*r.SessionID)
		u.SessionID = &id
	}
	return u
}
