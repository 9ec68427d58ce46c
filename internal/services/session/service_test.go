package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scoresnap/internal/dependencies/mocks"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage/memory"
	"github.com/mcoot/scoresnap/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	ids     *mocks.MockIDs
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.service = New(s.storage, s.clock, s.ids, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCreate() {
	s.ids.Queue("s1")
	at := time.Date(2024, 1, 1, 21, 0, 0, 0, time.FixedZone("EST", -5*3600))

	session, err := s.service.Create(s.ctx, "user-1", CreateParams{
		DateTime:         at,
		Location:         " Strike Lanes ",
		Lane:             "7",
		BowlingAlleyID:   "alley-1",
		BowlingAlleyName: "Strike Lanes",
		GPS:              &model.Coordinates{Latitude: 1, Longitude: 2},
	})
	s.Require().NoError(err)

	s.Equal(model.SessionID("s1"), session.ID)
	s.Equal(at.UTC(), session.DateTime)
	s.Equal("Strike Lanes", session.Location)
	s.Equal(model.UserID("user-1"), session.CreatedByUserID)
	s.Equal(s.clock.Now(), session.CreatedAt)

	stored, err := s.service.Get(s.ctx, "s1", "user-1")
	s.Require().NoError(err)
	s.Equal("7", stored.Lane)
	s.Require().NotNil(stored.GPS)
}

func (s *ServiceSuite) TestGetChecksOwnership() {
	s.ids.Queue("s1")
	_, err := s.service.Create(s.ctx, "user-1", CreateParams{DateTime: s.clock.Now()})
	s.Require().NoError(err)

	_, err = s.service.Get(s.ctx, "s1", "user-2")
	s.ErrorIs(err, model.ErrNotSessionOwner)

	_, err = s.service.Get(s.ctx, "missing", "user-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ServiceSuite) TestListReturnsOwnSessionsMostRecentFirst() {
	s.ids.Queue("old", "new", "other")
	_, err := s.service.Create(s.ctx, "user-1", CreateParams{DateTime: s.clock.Now()})
	s.Require().NoError(err)
	_, err = s.service.Create(s.ctx, "user-1", CreateParams{DateTime: s.clock.Now().Add(24 * time.Hour)})
	s.Require().NoError(err)
	_, err = s.service.Create(s.ctx, "user-2", CreateParams{DateTime: s.clock.Now()})
	s.Require().NoError(err)

	sessions, err := s.service.List(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(model.SessionID("new"), sessions[0].ID)
	s.Equal(model.SessionID("old"), sessions[1].ID)
}

func (s *ServiceSuite) TestRoster() {
	s.Require().NoError(s.storage.SaveBowler(s.ctx, &model.Bowler{ID: "b1", CanonicalName: "Alice"}))
	s.Require().NoError(s.storage.SaveSeries(s.ctx, &model.Series{ID: "sr1", SessionID: "s1", BowlerID: "b1"}))

	roster, err := s.service.Roster(s.ctx, "s1")
	s.Require().NoError(err)
	s.Require().Len(roster, 1)
	s.Equal("Alice", roster[0].CanonicalName)
}

func (s *ServiceSuite) TestEnsureTeamCreatesOnceAndAttachesBowlers() {
	s.ids.Queue("t1")

	team, err := s.service.EnsureTeam(s.ctx, "s1", "Pin Pals", "b1")
	s.Require().NoError(err)
	s.Equal(model.TeamID("t1"), team.ID)

	again, err := s.service.EnsureTeam(s.ctx, "s1", "  pin   PALS ", "b2")
	s.Require().NoError(err)
	s.Equal(team.ID, again.ID)

	_, err = s.service.EnsureTeam(s.ctx, "s1", "Pin Pals", "b1")
	s.Require().NoError(err)

	teams, err := s.service.Teams(s.ctx, "s1")
	s.Require().NoError(err)
	s.Require().Len(teams, 1)
	s.Equal("Pin Pals", teams[0].Team.Name)
	s.ElementsMatch([]model.BowlerID{"b1", "b2"}, teams[0].BowlerIDs)
}

func (s *ServiceSuite) TestEnsureTeamIgnoresBlankName() {
	team, err := s.service.EnsureTeam(s.ctx, "s1", "  ", "b1")
	s.Require().NoError(err)
	s.Nil(team)

	teams, err := s.service.Teams(s.ctx, "s1")
	s.Require().NoError(err)
	s.Empty(teams)
}
