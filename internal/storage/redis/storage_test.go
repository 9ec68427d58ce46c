package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
	"github.com/mcoot/scoresnap/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.UploadTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.NewStorage = func() storage.Storage { return s.storage }
	s.Suite.SetupTest()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Redis-specific tests

func (s *StorageSuite) TestUploadTTL() {
	upload := &model.Upload{ID: "u1", UserID: "user-1", Status: model.UploadStatusParsed}
	s.Require().NoError(s.storage.SaveUpload(s.Ctx, upload))

	ttl := s.mini.TTL(uploadKey("u1"))
	s.Equal(time.Hour, ttl)

	s.mini.FastForward(2 * time.Hour)
	_, err := s.storage.GetUpload(s.Ctx, "u1")
	s.ErrorIs(err, model.ErrUploadNotFound)
}

func (s *StorageSuite) TestScoresNeverExpire() {
	s.Require().NoError(s.storage.SaveBowler(s.Ctx, &model.Bowler{ID: "b1", CanonicalName: "Richie"}))
	s.Require().NoError(s.storage.SaveSession(s.Ctx, &model.Session{ID: "s1", CreatedByUserID: "user-1"}))

	s.Equal(time.Duration(0), s.mini.TTL(bowlerKey("b1")))
	s.Equal(time.Duration(0), s.mini.TTL(sessionKey("s1")))
}

func (s *StorageSuite) TestSessionIndexes() {
	at := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveSession(s.Ctx, &model.Session{ID: "s1", DateTime: at, CreatedByUserID: "user-1"}))

	s.True(s.mini.Exists(sessionsIndexKey()))
	s.True(s.mini.Exists(userSessionsIndexKey("user-1")))

	score, err := s.mini.ZScore(userSessionsIndexKey("user-1"), "s1")
	s.Require().NoError(err)
	s.Equal(float64(at.UnixMilli()), score)
}

func (s *StorageSuite) TestSeriesLookupIndex() {
	s.Require().NoError(s.storage.SaveSeries(s.Ctx, &model.Series{ID: "series-1", SessionID: "s1", BowlerID: "b1"}))

	id, err := s.mini.Get(seriesLookupKey("s1", "b1"))
	s.Require().NoError(err)
	s.Equal("series-1", id)
}

func (s *StorageSuite) TestKeyPrefix() {
	s.Equal("scoresnap:bowler:b1", bowlerKey("b1"))
	s.Equal("scoresnap:idx:series_lookup:s1:b1", seriesLookupKey("s1", "b1"))
}
