package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
// Values are copied in and out so callers never share state with the store
type Storage struct {
	mu sync.RWMutex

	users       map[model.UserID]*model.User
	credentials map[string]*model.Credentials // keyed by username
	bowlers     map[model.BowlerID]*model.Bowler
	aliases     map[model.BowlerID][]model.BowlerAlias
	sessions    map[model.SessionID]*model.Session
	series      map[model.SeriesID]*model.Series
	seriesIndex map[seriesKey]model.SeriesID
	games       map[model.GameID]*model.Game
	teams       map[model.TeamID]*model.Team
	teamBowlers map[model.TeamID][]model.BowlerID
	uploads     map[model.UploadID]*model.Upload
}

type seriesKey struct {
	sessionID model.SessionID
	bowlerID  model.BowlerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:       make(map[model.UserID]*model.User),
		credentials: make(map[string]*model.Credentials),
		bowlers:     make(map[model.BowlerID]*model.Bowler),
		aliases:     make(map[model.BowlerID][]model.BowlerAlias),
		sessions:    make(map[model.SessionID]*model.Session),
		series:      make(map[model.SeriesID]*model.Series),
		seriesIndex: make(map[seriesKey]model.SeriesID),
		games:       make(map[model.GameID]*model.Game),
		teams:       make(map[model.TeamID]*model.Team),
		teamBowlers: make(map[model.TeamID][]model.BowlerID),
		uploads:     make(map[model.UploadID]*model.Upload),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *creds
	s.credentials[creds.Username] = &cp
	return nil
}

func (s *Storage) GetCredentialsByUsername(ctx context.Context, username string) (*model.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.credentials[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *creds
	return &cp, nil
}

// Bowler operations

func (s *Storage) SaveBowler(ctx context.Context, bowler *model.Bowler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *bowler
	s.bowlers[bowler.ID] = &cp
	return nil
}

func (s *Storage) GetBowler(ctx context.Context, id model.BowlerID) (*model.Bowler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bowler, ok := s.bowlers[id]
	if !ok {
		return nil, model.ErrBowlerNotFound
	}
	cp := *bowler
	return &cp, nil
}

func (s *Storage) GetBowlers(ctx context.Context, ids []model.BowlerID) ([]*model.Bowler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.Bowler, 0, len(ids))
	for _, id := range ids {
		if bowler, ok := s.bowlers[id]; ok {
			cp := *bowler
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *Storage) ListBowlers(ctx context.Context) ([]*model.Bowler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listBowlersLocked(), nil
}

func (s *Storage) listBowlersLocked() []*model.Bowler {
	result := make([]*model.Bowler, 0, len(s.bowlers))
	for _, bowler := range s.bowlers {
		cp := *bowler
		result = append(result, &cp)
	}
	storage.SortBowlers(result)
	return result
}

func (s *Storage) SaveBowlerAlias(ctx context.Context, alias *model.BowlerAlias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.aliases[alias.BowlerID]
	for i := range existing {
		if existing[i].Alias == alias.Alias {
			existing[i] = *alias
			return nil
		}
	}
	s.aliases[alias.BowlerID] = append(existing, *alias)
	return nil
}

func (s *Storage) ListBowlerAliases(ctx context.Context, bowlerID model.BowlerID) ([]model.BowlerAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aliasesLocked(bowlerID), nil
}

func (s *Storage) aliasesLocked(bowlerID model.BowlerID) []model.BowlerAlias {
	aliases := make([]model.BowlerAlias, len(s.aliases[bowlerID]))
	copy(aliases, s.aliases[bowlerID])
	return aliases
}

func (s *Storage) ListBowlersWithAliases(ctx context.Context) ([]model.BowlerWithAliases, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bowlers := s.listBowlersLocked()
	result := make([]model.BowlerWithAliases, 0, len(bowlers))
	for _, bowler := range bowlers {
		result = append(result, model.BowlerWithAliases{
			Bowler:  *bowler,
			Aliases: s.aliasesLocked(bowler.ID),
		})
	}
	return result, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return copySession(session), nil
}

func (s *Storage) ListSessions(ctx context.Context, filter storage.SessionFilter) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*model.Session
	for _, session := range s.sessions {
		if filter.Matches(session) {
			result = append(result, copySession(session))
		}
	}
	storage.SortSessions(result)
	return result, nil
}

func copySession(session *model.Session) *model.Session {
	cp := *session
	if session.GPS != nil {
		gps := *session.GPS
		cp.GPS = &gps
	}
	return &cp
}

// Series operations

func (s *Storage) SaveSeries(ctx context.Context, series *model.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *series
	s.series[series.ID] = &cp
	s.seriesIndex[seriesKey{series.SessionID, series.BowlerID}] = series.ID
	return nil
}

func (s *Storage) GetSeries(ctx context.Context, id model.SeriesID) (*model.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.series[id]
	if !ok {
		return nil, model.ErrSeriesNotFound
	}
	cp := *series
	return &cp, nil
}

func (s *Storage) FindSeries(ctx context.Context, sessionID model.SessionID, bowlerID model.BowlerID) (*model.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.seriesIndex[seriesKey{sessionID, bowlerID}]
	if !ok {
		return nil, model.ErrSeriesNotFound
	}
	cp := *s.series[id]
	return &cp, nil
}

func (s *Storage) ListSeriesForSession(ctx context.Context, sessionID model.SessionID) ([]*model.Series, error) {
	return s.filterSeries(func(series *model.Series) bool { return series.SessionID == sessionID }), nil
}

func (s *Storage) ListSeriesForBowler(ctx context.Context, bowlerID model.BowlerID) ([]*model.Series, error) {
	return s.filterSeries(func(series *model.Series) bool { return series.BowlerID == bowlerID }), nil
}

func (s *Storage) filterSeries(keep func(*model.Series) bool) []*model.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*model.Series
	for _, series := range s.series {
		if keep(series) {
			cp := *series
			result = append(result, &cp)
		}
	}
	storage.SortSeries(result)
	return result
}

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = copyGame(game)
	return nil
}

func (s *Storage) ListGamesForSeries(ctx context.Context, seriesID model.SeriesID) ([]*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*model.Game
	for _, game := range s.games {
		if game.SeriesID == seriesID {
			result = append(result, copyGame(game))
		}
	}
	storage.SortGames(result)
	return result, nil
}

func copyGame(game *model.Game) *model.Game {
	cp := *game
	if game.TotalScore != nil {
		total := *game.TotalScore
		cp.TotalScore = &total
	}
	cp.Frames = make([]model.Frame, len(game.Frames))
	copy(cp.Frames, game.Frames)
	return &cp
}

// Team operations

func (s *Storage) SaveTeam(ctx context.Context, team *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *team
	s.teams[team.ID] = &cp
	return nil
}

func (s *Storage) ListTeamsForSession(ctx context.Context, sessionID model.SessionID) ([]*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*model.Team
	for _, team := range s.teams {
		if team.SessionID == sessionID {
			cp := *team
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Storage) AddTeamBowler(ctx context.Context, link model.TeamBowler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[link.TeamID]; !ok {
		return model.ErrTeamNotFound
	}
	for _, id := range s.teamBowlers[link.TeamID] {
		if id == link.BowlerID {
			return nil
		}
	}
	s.teamBowlers[link.TeamID] = append(s.teamBowlers[link.TeamID], link.BowlerID)
	return nil
}

func (s *Storage) ListTeamBowlers(ctx context.Context, teamID model.TeamID) ([]model.BowlerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]model.BowlerID, len(s.teamBowlers[teamID]))
	copy(ids, s.teamBowlers[teamID])
	return ids, nil
}

// Upload operations

func (s *Storage) SaveUpload(ctx context.Context, upload *model.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *upload
	s.uploads[upload.ID] = &cp
	return nil
}

func (s *Storage) GetUpload(ctx context.Context, id model.UploadID) (*model.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	upload, ok := s.uploads[id]
	if !ok {
		return nil, model.ErrUploadNotFound
	}
	cp := *upload
	return &cp, nil
}
