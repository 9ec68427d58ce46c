package response

import (
	"time"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/auth"
	"github.com/mcoot/scoresnap/internal/services/stats"
)

// User represents an account in API responses
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// UserFromModel converts a model.User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.ID),
		Username:    u.Username,
		DisplayName: u.DisplayName,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from an issued token
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:      UserFromModel(&s.User),
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	}
}

// Bowler represents a bowler in API responses
type Bowler struct {
	ID            string    `json:"id"`
	CanonicalName string    `json:"canonical_name"`
	PrimaryUserID *string   `json:"primary_user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// BowlerFromModel converts a model.Bowler
func BowlerFromModel(b *model.Bowler) Bowler {
	var primary *string
	if b.PrimaryUserID != nil {
		p := string(*b.PrimaryUserID)
		primary = &p
	}
	return Bowler{
		ID:            string(b.ID),
		CanonicalName: b.CanonicalName,
		PrimaryUserID: primary,
		CreatedAt:     b.CreatedAt,
	}
}

// BowlersFromModel converts a list of bowlers
func BowlersFromModel(bowlers []*model.Bowler) []Bowler {
	out := make([]Bowler, len(bowlers))
	for i, b := range bowlers {
		out[i] = BowlerFromModel(b)
	}
	return out
}

// Alias represents an alternate spelling of a bowler's name
type Alias struct {
	Alias      string  `json:"alias"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence_score"`
}

func aliasesFromModel(aliases []model.BowlerAlias) []Alias {
	out := make([]Alias, len(aliases))
	for i, a := range aliases {
		out[i] = Alias{Alias: a.Alias, Source: string(a.Source), Confidence: a.ConfidenceScore}
	}
	return out
}

// BowlerDetail is a bowler with its aliases
type BowlerDetail struct {
	Bowler  Bowler  `json:"bowler"`
	Aliases []Alias `json:"aliases"`
}

// BowlerDetailFromModel converts a model.BowlerWithAliases
func BowlerDetailFromModel(b *model.BowlerWithAliases) BowlerDetail {
	return BowlerDetail{
		Bowler:  BowlerFromModel(&b.Bowler),
		Aliases: aliasesFromModel(b.Aliases),
	}
}

// BowlerMatch is a candidate bowler for a name
type BowlerMatch struct {
	Bowler     Bowler  `json:"bowler"`
	Aliases    []Alias `json:"aliases"`
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"match_type"`
}

// NameResolution is the decision reached for one name
type NameResolution struct {
	ParsedName       string        `json:"parsed_name"`
	ResolvedBowlerID *string       `json:"resolved_bowler_id"`
	NeedsUserInput   bool          `json:"needs_user_input"`
	Suggestions      []BowlerMatch `json:"suggestions"`
}

// NameResolutionFromModel converts a model.NameResolution
func NameResolutionFromModel(r *model.NameResolution) NameResolution {
	var resolved *string
	if r.ResolvedBowlerID != nil {
		id := string(*r.ResolvedBowlerID)
		resolved = &id
	}
	suggestions := make([]BowlerMatch, len(r.Suggestions))
	for i, m := range r.Suggestions {
		suggestions[i] = BowlerMatch{
			Bowler:     BowlerFromModel(&m.Bowler),
			Aliases:    aliasesFromModel(m.Aliases),
			Confidence: m.Confidence,
			MatchType:  string(m.MatchType),
		}
	}
	return NameResolution{
		ParsedName:       r.ParsedName,
		ResolvedBowlerID: resolved,
		NeedsUserInput:   r.NeedsUserInput,
		Suggestions:      suggestions,
	}
}

// BowlerStats represents lifetime statistics for a bowler
type BowlerStats struct {
	Bowler        Bowler  `json:"bowler"`
	Games         int     `json:"games"`
	CompleteGames int     `json:"complete_games"`
	Average       float64 `json:"average"`
	HighGame      int     `json:"high_game"`
	HighSeries    int     `json:"high_series"`
	SeriesCount   int     `json:"series_count"`
	SessionCount  int     `json:"session_count"`
}

// BowlerStatsFromModel converts stats.BowlerStats
func BowlerStatsFromModel(s *stats.BowlerStats) BowlerStats {
	return BowlerStats{
		Bowler:        BowlerFromModel(&s.Bowler),
		Games:         s.Games,
		CompleteGames: s.CompleteGames,
		Average:       s.Average,
		HighGame:      s.HighGame,
		HighSeries:    s.HighSeries,
		SeriesCount:   s.SeriesCount,
		SessionCount:  s.SessionCount,
	}
}

// Session represents a session in API responses
type Session struct {
	ID               string             `json:"id"`
	DateTime         time.Time          `json:"date_time"`
	Location         string             `json:"location,omitempty"`
	Lane             string             `json:"lane,omitempty"`
	BowlingAlleyID   string             `json:"bowling_alley_id,omitempty"`
	BowlingAlleyName string             `json:"bowling_alley_name,omitempty"`
	GPS              *model.Coordinates `json:"gps,omitempty"`
}

// SessionFromModel converts a model.Session
func SessionFromModel(s *model.Session) Session {
	return Session{
		ID:               string(s.ID),
		DateTime:         s.DateTime,
		Location:         s.Location,
		Lane:             s.Lane,
		BowlingAlleyID:   s.BowlingAlleyID,
		BowlingAlleyName: s.BowlingAlleyName,
		GPS:              s.GPS,
	}
}

// SessionsFromModel converts a list of sessions
func SessionsFromModel(sessions []*model.Session) []Session {
	out := make([]Session, len(sessions))
	for i, s := range sessions {
		out[i] = SessionFromModel(s)
	}
	return out
}

// Frame represents one frame of a game
type Frame struct {
	FrameNumber int    `json:"frame_number"`
	Roll1       int    `json:"roll1"`
	Roll2       int    `json:"roll2"`
	Roll3       *int   `json:"roll3,omitempty"`
	Notation    string `json:"notation"`
}

// Game represents a recorded game
type Game struct {
	ID         string  `json:"id"`
	GameNumber int     `json:"game_number"`
	TotalScore *int    `json:"total_score"`
	IsPartial  bool    `json:"is_partial"`
	Frames     []Frame `json:"frames,omitempty"`
}

// GameFromModel converts a model.Game
func GameFromModel(g *model.Game) Game {
	frames := make([]Frame, len(g.Frames))
	for i, f := range g.Frames {
		frames[i] = Frame{
			FrameNumber: f.FrameNumber,
			Roll1:       f.Roll1,
			Roll2:       f.Roll2,
			Roll3:       f.Roll3,
			Notation:    f.Notation,
		}
	}
	return Game{
		ID:         string(g.ID),
		GameNumber: g.GameNumber,
		TotalScore: g.TotalScore,
		IsPartial:  g.IsPartial,
		Frames:     frames,
	}
}

// Series is one bowler's games in a session
type Series struct {
	ID     string `json:"id"`
	Bowler Bowler `json:"bowler"`
	Games  []Game `json:"games"`
	Total  int    `json:"total"`
}

// Team is a team's members and combined score
type Team struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	BowlerIDs []string `json:"bowler_ids"`
	Total     int      `json:"total"`
}

// SessionSummary is a session with everything recorded in it
type SessionSummary struct {
	Session Session  `json:"session"`
	Series  []Series `json:"series"`
	Teams   []Team   `json:"teams"`
}

// SessionSummaryFromModel converts stats.SessionSummary
func SessionSummaryFromModel(s *stats.SessionSummary) SessionSummary {
	series := make([]Series, len(s.Series))
	for i, sr := range s.Series {
		games := make([]Game, len(sr.Games))
		for j, g := range sr.Games {
			games[j] = GameFromModel(g)
		}
		series[i] = Series{
			ID:     string(sr.Series.ID),
			Bowler: BowlerFromModel(sr.Bowler),
			Games:  games,
			Total:  sr.Total,
		}
	}
	teams := make([]Team, len(s.Teams))
	for i, t := range s.Teams {
		ids := make([]string, len(t.BowlerIDs))
		for j, id := range t.BowlerIDs {
			ids[j] = string(id)
		}
		teams[i] = Team{
			ID:        string(t.Team.ID),
			Name:      t.Team.Name,
			BowlerIDs: ids,
			Total:     t.Total,
		}
	}
	return SessionSummary{
		Session: SessionFromModel(s.Session),
		Series:  series,
		Teams:   teams,
	}
}

// AlleyStats summarises sessions at one alley
type AlleyStats struct {
	Alley    string  `json:"alley"`
	Sessions int     `json:"sessions"`
	Games    int     `json:"games"`
	Average  float64 `json:"average"`
}

// AlleyStatsFromModel converts alley statistics
func AlleyStatsFromModel(in []stats.AlleyStats) []AlleyStats {
	out := make([]AlleyStats, len(in))
	for i, a := range in {
		out[i] = AlleyStats(a)
	}
	return out
}

// NameAnalysis reports which names need a decision before persisting
type NameAnalysis struct {
	NeedsResolution  bool              `json:"needs_resolution"`
	UnresolvedNames  []NameResolution  `json:"unresolved_names"`
	ResolvedMappings map[string]string `json:"resolved_mappings"`
}

// NameAnalysisFromModel converts a model.NameAnalysis
func NameAnalysisFromModel(a *model.NameAnalysis) NameAnalysis {
	unresolved := make([]NameResolution, len(a.UnresolvedNames))
	for i := range a.UnresolvedNames {
		unresolved[i] = NameResolutionFromModel(&a.UnresolvedNames[i])
	}
	resolved := make(map[string]string, len(a.ResolvedMappings))
	for name, id := range a.ResolvedMappings {
		resolved[name] = string(id)
	}
	return NameAnalysis{
		NeedsResolution:  a.NeedsResolution,
		UnresolvedNames:  unresolved,
		ResolvedMappings: resolved,
	}
}

// Upload represents a submitted scoreboard
type Upload struct {
	ID        string                  `json:"id"`
	Status    string                  `json:"status"`
	Parsed    *model.ParsedScoreboard `json:"parsed"`
	SessionID *string                 `json:"session_id,omitempty"`
	Error     string                  `json:"error,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// UploadFromModel converts a model.Upload
func UploadFromModel(u *model.Upload) Upload {
	var sessionID *string
	if u.SessionID != nil {
		id := string(*u.SessionID)
		sessionID = &id
	}
	return Upload{
		ID:        string(u.ID),
		Status:    string(u.Status),
		Parsed:    u.Parsed,
		SessionID: sessionID,
		Error:     u.Error,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UploadResponse is an upload with its name analysis
type UploadResponse struct {
	Upload   Upload       `json:"upload"`
	Analysis NameAnalysis `json:"analysis"`
}

// PersistResult is the outcome of persisting an upload
type PersistResult struct {
	Success        bool     `json:"success"`
	SessionID      *string  `json:"session_id"`
	SessionMatched bool     `json:"session_matched"`
	BowlerIDs      []string `json:"bowler_ids"`
	SeriesIDs      []string `json:"series_ids"`
	GameIDs        []string `json:"game_ids"`
	SkippedGames   int      `json:"skipped_games"`
	Error          string   `json:"error,omitempty"`
}

// PersistResultFromModel converts a model.PersistResult
func PersistResultFromModel(r *model.PersistResult) PersistResult {
	var sessionID *string
	if r.SessionID != nil {
		id := string(*r.SessionID)
		sessionID = &id
	}
	return PersistResult{
		Success:        r.Success,
		SessionID:      sessionID,
		SessionMatched: r.SessionMatched,
		BowlerIDs:      stringsOf(r.BowlerIDs),
		SeriesIDs:      stringsOf(r.SeriesIDs),
		GameIDs:        stringsOf(r.GameIDs),
		SkippedGames:   r.SkippedGames,
		Error:          r.Error,
	}
}

func stringsOf[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
