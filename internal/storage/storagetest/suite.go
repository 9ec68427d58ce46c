// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
)

// Suite runs the shared storage contract against a backend
// Backends embed it and set NewStorage, which is called before every test
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

var baseTime = time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Store = s.NewStorage()
	s.Ctx = context.Background()
}

func intPtr(v int) *int { return &v }

func (s *Suite) saveUser(id string) *model.User {
	user := &model.User{ID: model.UserID(id), Username: id, DisplayName: id, CreatedAt: baseTime}
	s.Require().NoError(s.Store.SaveUser(s.Ctx, user))
	return user
}

func (s *Suite) saveBowler(id, name string) *model.Bowler {
	bowler := &model.Bowler{ID: model.BowlerID(id), CanonicalName: name, CreatedByUserID: "user-1", CreatedAt: baseTime}
	s.Require().NoError(s.Store.SaveBowler(s.Ctx, bowler))
	return bowler
}

func (s *Suite) saveSession(id string, user model.UserID, at time.Time) *model.Session {
	session := &model.Session{
		ID:              model.SessionID(id),
		DateTime:        at,
		BowlingAlleyID:  "alley-1",
		CreatedByUserID: user,
		CreatedAt:       baseTime,
	}
	s.Require().NoError(s.Store.SaveSession(s.Ctx, session))
	return session
}

func (s *Suite) saveSeries(id string, session model.SessionID, bowler model.BowlerID, offset time.Duration) *model.Series {
	series := &model.Series{
		ID:         model.SeriesID(id),
		SessionID:  session,
		BowlerID:   bowler,
		GamesCount: 1,
		CreatedAt:  baseTime.Add(offset),
	}
	s.Require().NoError(s.Store.SaveSeries(s.Ctx, series))
	return series
}

// User tests

func (s *Suite) TestSaveAndGetUser() {
	s.saveUser("user-1")

	user, err := s.Store.GetUser(s.Ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("user-1", user.Username)
	s.True(baseTime.Equal(user.CreatedAt))
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Store.GetUser(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestCredentialsByUsername() {
	s.saveUser("user-1")
	creds := &model.Credentials{UserID: "user-1", Username: "alice", PasswordHash: "hash", CreatedAt: baseTime, UpdatedAt: baseTime}
	s.Require().NoError(s.Store.SaveCredentials(s.Ctx, creds))

	got, err := s.Store.GetCredentialsByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), got.UserID)
	s.Equal("hash", got.PasswordHash)

	_, err = s.Store.GetCredentialsByUsername(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Bowler tests

func (s *Suite) TestSaveAndGetBowler() {
	s.saveBowler("b1", "Richie")

	bowler, err := s.Store.GetBowler(s.Ctx, "b1")
	s.Require().NoError(err)
	s.Equal("Richie", bowler.CanonicalName)
	s.Nil(bowler.PrimaryUserID)
}

func (s *Suite) TestBowlerPrimaryUser() {
	userID := model.UserID("user-1")
	bowler := &model.Bowler{ID: "b1", CanonicalName: "Richie", PrimaryUserID: &userID, CreatedByUserID: userID, CreatedAt: baseTime}
	s.Require().NoError(s.Store.SaveBowler(s.Ctx, bowler))

	got, err := s.Store.GetBowler(s.Ctx, "b1")
	s.Require().NoError(err)
	s.Require().NotNil(got.PrimaryUserID)
	s.Equal(userID, *got.PrimaryUserID)
}

func (s *Suite) TestGetBowlerNotFound() {
	_, err := s.Store.GetBowler(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrBowlerNotFound)
}

func (s *Suite) TestGetBowlersSkipsMissing() {
	s.saveBowler("b1", "Alice")
	s.saveBowler("b2", "Bob")

	bowlers, err := s.Store.GetBowlers(s.Ctx, []model.BowlerID{"b2", "missing", "b1"})
	s.Require().NoError(err)
	s.Require().Len(bowlers, 2)
	s.Equal(model.BowlerID("b2"), bowlers[0].ID)
	s.Equal(model.BowlerID("b1"), bowlers[1].ID)
}

func (s *Suite) TestListBowlersOrderedByName() {
	s.saveBowler("b1", "carol")
	s.saveBowler("b2", "Alice")
	s.saveBowler("b3", "Bob")

	bowlers, err := s.Store.ListBowlers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(bowlers, 3)
	s.Equal("Alice", bowlers[0].CanonicalName)
	s.Equal("Bob", bowlers[1].CanonicalName)
	s.Equal("carol", bowlers[2].CanonicalName)
}

func (s *Suite) TestAliases() {
	s.saveBowler("b1", "Robert")
	s.saveBowler("b2", "Alice")

	s.Require().NoError(s.Store.SaveBowlerAlias(s.Ctx, &model.BowlerAlias{
		BowlerID: "b1", Alias: "Bob", Source: model.AliasSourceManual, ConfidenceScore: 1, CreatedAt: baseTime,
	}))
	s.Require().NoError(s.Store.SaveBowlerAlias(s.Ctx, &model.BowlerAlias{
		BowlerID: "b1", Alias: "Bobby", Source: model.AliasSourceAutoVision, ConfidenceScore: 0.75, CreatedAt: baseTime.Add(time.Minute),
	}))
	// Replacing an alias keeps one entry
	s.Require().NoError(s.Store.SaveBowlerAlias(s.Ctx, &model.BowlerAlias{
		BowlerID: "b1", Alias: "Bobby", Source: model.AliasSourceManual, ConfidenceScore: 0.9, CreatedAt: baseTime.Add(time.Minute),
	}))

	aliases, err := s.Store.ListBowlerAliases(s.Ctx, "b1")
	s.Require().NoError(err)
	s.Require().Len(aliases, 2)
	s.Equal("Bob", aliases[0].Alias)
	s.Equal("Bobby", aliases[1].Alias)
	s.Equal(model.AliasSourceManual, aliases[1].Source)
	s.InDelta(0.9, aliases[1].ConfidenceScore, 1e-9)

	all, err := s.Store.ListBowlersWithAliases(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("Alice", all[0].Bowler.CanonicalName)
	s.Empty(all[0].Aliases)
	s.Equal("Robert", all[1].Bowler.CanonicalName)
	s.Len(all[1].Aliases, 2)
}

// Session tests

func (s *Suite) TestSaveAndGetSession() {
	session := &model.Session{
		ID:               "s1",
		DateTime:         baseTime,
		Location:         "Main St Lanes",
		Lane:             "12",
		BowlingAlleyID:   "alley-1",
		BowlingAlleyName: "Main Street Lanes",
		GPS:              &model.Coordinates{Latitude: 40.7128, Longitude: -74.006},
		CreatedByUserID:  "user-1",
		CreatedAt:        baseTime,
	}
	s.Require().NoError(s.Store.SaveSession(s.Ctx, session))

	got, err := s.Store.GetSession(s.Ctx, "s1")
	s.Require().NoError(err)
	s.Equal("Main St Lanes", got.Location)
	s.Equal("12", got.Lane)
	s.Equal("alley-1", got.BowlingAlleyID)
	s.Equal("Main Street Lanes", got.BowlingAlleyName)
	s.Require().NotNil(got.GPS)
	s.InDelta(40.7128, got.GPS.Latitude, 1e-9)
	s.InDelta(-74.006, got.GPS.Longitude, 1e-9)
	s.True(baseTime.Equal(got.DateTime))
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Store.GetSession(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestListSessionsFiltersAndOrders() {
	s.saveSession("early", "user-1", baseTime.Add(-2*time.Hour))
	s.saveSession("late", "user-1", baseTime.Add(2*time.Hour))
	s.saveSession("outside", "user-1", baseTime.Add(5*time.Hour))
	s.saveSession("other-user", "user-2", baseTime)

	sessions, err := s.Store.ListSessions(s.Ctx, storage.SessionFilter{
		UserID: "user-1",
		From:   baseTime.Add(-3 * time.Hour),
		To:     baseTime.Add(3 * time.Hour),
	})
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(model.SessionID("late"), sessions[0].ID)
	s.Equal(model.SessionID("early"), sessions[1].ID)

	all, err := s.Store.ListSessions(s.Ctx, storage.SessionFilter{UserID: "user-1"})
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *Suite) TestListSessionsBoundsAreInclusive() {
	s.saveSession("edge", "user-1", baseTime.Add(3*time.Hour))

	sessions, err := s.Store.ListSessions(s.Ctx, storage.SessionFilter{
		UserID: "user-1",
		From:   baseTime.Add(-3 * time.Hour),
		To:     baseTime.Add(3 * time.Hour),
	})
	s.Require().NoError(err)
	s.Len(sessions, 1)
}

// Series tests

func (s *Suite) TestFindSeries() {
	s.saveSession("s1", "user-1", baseTime)
	s.saveSeries("series-1", "s1", "b1", 0)

	series, err := s.Store.FindSeries(s.Ctx, "s1", "b1")
	s.Require().NoError(err)
	s.Equal(model.SeriesID("series-1"), series.ID)

	_, err = s.Store.FindSeries(s.Ctx, "s1", "b2")
	s.ErrorIs(err, model.ErrSeriesNotFound)
}

func (s *Suite) TestUpdateSeriesGamesCount() {
	series := s.saveSeries("series-1", "s1", "b1", 0)
	series.GamesCount = 3
	s.Require().NoError(s.Store.SaveSeries(s.Ctx, series))

	got, err := s.Store.GetSeries(s.Ctx, "series-1")
	s.Require().NoError(err)
	s.Equal(3, got.GamesCount)
}

func (s *Suite) TestGetSeriesNotFound() {
	_, err := s.Store.GetSeries(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrSeriesNotFound)
}

func (s *Suite) TestListSeries() {
	s.saveSeries("series-1", "s1", "b1", 0)
	s.saveSeries("series-2", "s1", "b2", time.Minute)
	s.saveSeries("series-3", "s2", "b1", 2*time.Minute)

	forSession, err := s.Store.ListSeriesForSession(s.Ctx, "s1")
	s.Require().NoError(err)
	s.Require().Len(forSession, 2)
	s.Equal(model.SeriesID("series-1"), forSession[0].ID)
	s.Equal(model.SeriesID("series-2"), forSession[1].ID)

	forBowler, err := s.Store.ListSeriesForBowler(s.Ctx, "b1")
	s.Require().NoError(err)
	s.Require().Len(forBowler, 2)
	s.Equal(model.SeriesID("series-1"), forBowler[0].ID)
	s.Equal(model.SeriesID("series-3"), forBowler[1].ID)
}

// Game tests

func (s *Suite) TestGamesWithFrames() {
	s.saveSeries("series-1", "s1", "b1", 0)

	complete := &model.Game{
		ID:         "g2",
		SeriesID:   "series-1",
		GameNumber: 2,
		TotalScore: intPtr(300),
		Frames: []model.Frame{
			{FrameNumber: 1, Roll1: 10, Notation: "X"},
			{FrameNumber: 10, Roll1: 10, Roll2: 10, Roll3: intPtr(10), Notation: "XXX"},
		},
		CreatedAt: baseTime,
	}
	partial := &model.Game{
		ID:         "g1",
		SeriesID:   "series-1",
		GameNumber: 1,
		IsPartial:  true,
		CreatedAt:  baseTime,
	}
	s.Require().NoError(s.Store.SaveGame(s.Ctx, complete))
	s.Require().NoError(s.Store.SaveGame(s.Ctx, partial))

	games, err := s.Store.ListGamesForSeries(s.Ctx, "series-1")
	s.Require().NoError(err)
	s.Require().Len(games, 2)

	s.Equal(1, games[0].GameNumber)
	s.True(games[0].IsPartial)
	s.Nil(games[0].TotalScore)
	s.Empty(games[0].Frames)

	s.Equal(2, games[1].GameNumber)
	s.Require().NotNil(games[1].TotalScore)
	s.Equal(300, *games[1].TotalScore)
	s.Require().Len(games[1].Frames, 2)
	s.Equal(1, games[1].Frames[0].FrameNumber)
	s.Nil(games[1].Frames[0].Roll3)
	s.Require().NotNil(games[1].Frames[1].Roll3)
	s.Equal(10, *games[1].Frames[1].Roll3)
	s.Equal("XXX", games[1].Frames[1].Notation)
}

func (s *Suite) TestListGamesForUnknownSeries() {
	games, err := s.Store.ListGamesForSeries(s.Ctx, "missing")
	s.Require().NoError(err)
	s.Empty(games)
}

// Team tests

func (s *Suite) TestTeams() {
	s.saveSession("s1", "user-1", baseTime)
	s.Require().NoError(s.Store.SaveTeam(s.Ctx, &model.Team{ID: "t1", SessionID: "s1", Name: "Pin Pals", CreatedAt: baseTime}))
	s.Require().NoError(s.Store.SaveTeam(s.Ctx, &model.Team{ID: "t2", SessionID: "s1", Name: "Gutter Gang", CreatedAt: baseTime.Add(time.Minute)}))

	teams, err := s.Store.ListTeamsForSession(s.Ctx, "s1")
	s.Require().NoError(err)
	s.Require().Len(teams, 2)
	s.Equal("Pin Pals", teams[0].Name)

	s.Require().NoError(s.Store.AddTeamBowler(s.Ctx, model.TeamBowler{TeamID: "t1", BowlerID: "b1"}))
	s.Require().NoError(s.Store.AddTeamBowler(s.Ctx, model.TeamBowler{TeamID: "t1", BowlerID: "b2"}))
	s.Require().NoError(s.Store.AddTeamBowler(s.Ctx, model.TeamBowler{TeamID: "t1", BowlerID: "b1"}))

	members, err := s.Store.ListTeamBowlers(s.Ctx, "t1")
	s.Require().NoError(err)
	s.ElementsMatch([]model.BowlerID{"b1", "b2"}, members)
}

func (s *Suite) TestAddBowlerToUnknownTeam() {
	err := s.Store.AddTeamBowler(s.Ctx, model.TeamBowler{TeamID: "missing", BowlerID: "b1"})
	s.ErrorIs(err, model.ErrTeamNotFound)
}

// Upload tests

func (s *Suite) TestUploads() {
	sessionID := model.SessionID("s1")
	upload := &model.Upload{
		ID:     "u1",
		UserID: "user-1",
		Status: model.UploadStatusParsed,
		Parsed: &model.ParsedScoreboard{
			Location: "Main St",
			Bowlers: []model.ParsedBowler{
				{Name: "Alice", Games: []model.ParsedGame{{GameNumber: 1, TotalScore: intPtr(150)}}},
			},
		},
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	s.Require().NoError(s.Store.SaveUpload(s.Ctx, upload))

	upload.Status = model.UploadStatusProcessed
	upload.SessionID = &sessionID
	s.Require().NoError(s.Store.SaveUpload(s.Ctx, upload))

	got, err := s.Store.GetUpload(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal(model.UploadStatusProcessed, got.Status)
	s.Require().NotNil(got.SessionID)
	s.Equal(sessionID, *got.SessionID)
	s.Require().NotNil(got.Parsed)
	s.Require().Len(got.Parsed.Bowlers, 1)
	s.Equal("Alice", got.Parsed.Bowlers[0].Name)
	s.Equal(150, *got.Parsed.Bowlers[0].Games[0].TotalScore)

	_, err = s.Store.GetUpload(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrUploadNotFound)
}
