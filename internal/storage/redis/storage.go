package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getJSON loads a single JSON value, mapping a missing key to notFound
func getJSON[T any](ctx context.Context, c *redis.Client, key string, notFound error) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

// mgetJSON loads many JSON values, skipping keys that no longer exist
func mgetJSON[T any](ctx context.Context, c *redis.Client, keys []string) ([]*T, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*T, 0, len(values))
	for i, val := range values {
		if val == nil {
			continue
		}
		str, ok := val.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		result = append(result, &v)
	}
	return result, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userKey(user.ID), data, 0).Err()
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return getJSON[model.User](ctx, s.client, userKey(id), model.ErrUserNotFound)
}

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, credentialsKey(creds.Username), data, 0).Err()
}

func (s *Storage) GetCredentialsByUsername(ctx context.Context, username string) (*model.Credentials, error) {
	return getJSON[model.Credentials](ctx, s.client, credentialsKey(username), model.ErrUserNotFound)
}

// Bowler operations

func (s *Storage) SaveBowler(ctx context.Context, bowler *model.Bowler) error {
	data, err := json.Marshal(bowler)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, bowlerKey(bowler.ID), data, 0)
	pipe.SAdd(ctx, bowlersIndexKey(), string(bowler.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetBowler(ctx context.Context, id model.BowlerID) (*model.Bowler, error) {
	return getJSON[model.Bowler](ctx, s.client, bowlerKey(id), model.ErrBowlerNotFound)
}

func (s *Storage) GetBowlers(ctx context.Context, ids []model.BowlerID) ([]*model.Bowler, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = bowlerKey(id)
	}
	bowlers, err := mgetJSON[model.Bowler](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	if bowlers == nil {
		bowlers = []*model.Bowler{}
	}
	return bowlers, nil
}

func (s *Storage) ListBowlers(ctx context.Context) ([]*model.Bowler, error) {
	ids, err := s.client.SMembers(ctx, bowlersIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = bowlerKey(model.BowlerID(id))
	}
	bowlers, err := mgetJSON[model.Bowler](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	storage.SortBowlers(bowlers)
	return bowlers, nil
}

func (s *Storage) SaveBowlerAlias(ctx context.Context, alias *model.BowlerAlias) error {
	data, err := json.Marshal(alias)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, aliasesKey(alias.BowlerID), alias.Alias, data).Err()
}

func (s *Storage) ListBowlerAliases(ctx context.Context, bowlerID model.BowlerID) ([]model.BowlerAlias, error) {
	values, err := s.client.HGetAll(ctx, aliasesKey(bowlerID)).Result()
	if err != nil {
		return nil, err
	}
	return decodeAliases(values)
}

func decodeAliases(values map[string]string) ([]model.BowlerAlias, error) {
	aliases := make([]model.BowlerAlias, 0, len(values))
	for key, raw := range values {
		var alias model.BowlerAlias
		if err := json.Unmarshal([]byte(raw), &alias); err != nil {
			return nil, fmt.Errorf("decode alias %q: %w", key, err)
		}
		aliases = append(aliases, alias)
	}

	// Hash fields have no order; present aliases oldest first
	sort.Slice(aliases, func(i, j int) bool {
		if !aliases[i].CreatedAt.Equal(aliases[j].CreatedAt) {
			return aliases[i].CreatedAt.Before(aliases[j].CreatedAt)
		}
		return aliases[i].Alias < aliases[j].Alias
	})
	return aliases, nil
}

func (s *Storage) ListBowlersWithAliases(ctx context.Context) ([]model.BowlerWithAliases, error) {
	bowlers, err := s.ListBowlers(ctx)
	if err != nil {
		return nil, err
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(bowlers))
	for i, b := range bowlers {
		cmds[i] = pipe.HGetAll(ctx, aliasesKey(b.ID))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	result := make([]model.BowlerWithAliases, 0, len(bowlers))
	for i, b := range bowlers {
		aliases, err := decodeAliases(cmds[i].Val())
		if err != nil {
			return nil, err
		}
		result = append(result, model.BowlerWithAliases{Bowler: *b, Aliases: aliases})
	}
	return result, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	member := redis.Z{Score: sessionScore(session.DateTime), Member: string(session.ID)}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, 0)
	pipe.ZAdd(ctx, sessionsIndexKey(), member)
	pipe.ZAdd(ctx, userSessionsIndexKey(session.CreatedByUserID), member)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return getJSON[model.Session](ctx, s.client, sessionKey(id), model.ErrSessionNotFound)
}

// ListSessions range-scans the date index, then applies the exact filter
func (s *Storage) ListSessions(ctx context.Context, filter storage.SessionFilter) ([]*model.Session, error) {
	index := sessionsIndexKey()
	if filter.UserID != "" {
		index = userSessionsIndexKey(filter.UserID)
	}

	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !filter.From.IsZero() {
		rng.Min = formatScore(sessionScore(filter.From))
	}
	if !filter.To.IsZero() {
		rng.Max = formatScore(sessionScore(filter.To))
	}

	ids, err := s.client.ZRevRangeByScore(ctx, index, rng).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(model.SessionID(id))
	}
	sessions, err := mgetJSON[model.Session](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}

	result := make([]*model.Session, 0, len(sessions))
	for _, session := range sessions {
		if filter.Matches(session) {
			result = append(result, session)
		}
	}
	storage.SortSessions(result)
	return result, nil
}

// sessionScore converts a session time to its sorted-set score (unix milliseconds)
func sessionScore(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// Series operations

func (s *Storage) SaveSeries(ctx context.Context, series *model.Series) error {
	data, err := json.Marshal(series)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, seriesKey(series.ID), data, 0)
	pipe.Set(ctx, seriesLookupKey(series.SessionID, series.BowlerID), string(series.ID), 0)
	pipe.SAdd(ctx, sessionSeriesIndexKey(series.SessionID), string(series.ID))
	pipe.SAdd(ctx, bowlerSeriesIndexKey(series.BowlerID), string(series.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSeries(ctx context.Context, id model.SeriesID) (*model.Series, error) {
	return getJSON[model.Series](ctx, s.client, seriesKey(id), model.ErrSeriesNotFound)
}

func (s *Storage) FindSeries(ctx context.Context, sessionID model.SessionID, bowlerID model.BowlerID) (*model.Series, error) {
	id, err := s.client.Get(ctx, seriesLookupKey(sessionID, bowlerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSeriesNotFound
		}
		return nil, err
	}
	return s.GetSeries(ctx, model.SeriesID(id))
}

func (s *Storage) ListSeriesForSession(ctx context.Context, sessionID model.SessionID) ([]*model.Series, error) {
	return s.listSeries(ctx, sessionSeriesIndexKey(sessionID))
}

func (s *Storage) ListSeriesForBowler(ctx context.Context, bowlerID model.BowlerID) ([]*model.Series, error) {
	return s.listSeries(ctx, bowlerSeriesIndexKey(bowlerID))
}

func (s *Storage) listSeries(ctx context.Context, indexKey string) ([]*model.Series, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = seriesKey(model.SeriesID(id))
	}
	series, err := mgetJSON[model.Series](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	storage.SortSeries(series)
	return series, nil
}

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, gameKey(game.ID), data, 0)
	pipe.SAdd(ctx, seriesGamesIndexKey(game.SeriesID), string(game.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListGamesForSeries(ctx context.Context, seriesID model.SeriesID) ([]*model.Game, error) {
	ids, err := s.client.SMembers(ctx, seriesGamesIndexKey(seriesID)).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(model.GameID(id))
	}
	games, err := mgetJSON[model.Game](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	storage.SortGames(games)
	return games, nil
}

// Team operations

func (s *Storage) SaveTeam(ctx context.Context, team *model.Team) error {
	data, err := json.Marshal(team)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, teamKey(team.ID), data, 0)
	pipe.SAdd(ctx, sessionTeamsIndexKey(team.SessionID), string(team.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListTeamsForSession(ctx context.Context, sessionID model.SessionID) ([]*model.Team, error) {
	ids, err := s.client.SMembers(ctx, sessionTeamsIndexKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = teamKey(model.TeamID(id))
	}
	teams, err := mgetJSON[model.Team](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	sort.Slice(teams, func(i, j int) bool {
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.Before(teams[j].CreatedAt)
		}
		return teams[i].ID < teams[j].ID
	})
	return teams, nil
}

func (s *Storage) AddTeamBowler(ctx context.Context, link model.TeamBowler) error {
	exists, err := s.client.Exists(ctx, teamKey(link.TeamID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrTeamNotFound
	}
	return s.client.SAdd(ctx, teamBowlersKey(link.TeamID), string(link.BowlerID)).Err()
}

func (s *Storage) ListTeamBowlers(ctx context.Context, teamID model.TeamID) ([]model.BowlerID, error) {
	members, err := s.client.SMembers(ctx, teamBowlersKey(teamID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(members)
	ids := make([]model.BowlerID, len(members))
	for i, m := range members {
		ids[i] = model.BowlerID(m)
	}
	return ids, nil
}

// Upload operations

func (s *Storage) SaveUpload(ctx context.Context, upload *model.Upload) error {
	data, err := json.Marshal(upload)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, uploadKey(upload.ID), data, s.cfg.UploadTTL).Err()
}

func (s *Storage) GetUpload(ctx context.Context, id model.UploadID) (*model.Upload, error) {
	return getJSON[model.Upload](ctx, s.client, uploadKey(id), model.ErrUploadNotFound)
}
