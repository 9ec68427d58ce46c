package stats

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage/memory"
	"github.com/mcoot/scoresnap/internal/testutil"
)

type StatsSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
	at      time.Time
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsSuite))
}

func (s *StatsSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testutil.NopLogger())
	s.ctx = context.Background()
	s.at = time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
}

func score(n int) *int { return &n }

func (s *StatsSuite) session(id model.SessionID, alley, location string) {
	s.Require().NoError(s.storage.SaveSession(s.ctx, &model.Session{
		ID: id, DateTime: s.at, BowlingAlleyName: alley, Location: location, CreatedByUserID: "user-1",
	}))
}

func (s *StatsSuite) bowler(id model.BowlerID, name string) {
	s.Require().NoError(s.storage.SaveBowler(s.ctx, &model.Bowler{ID: id, CanonicalName: name}))
}

// series stores a series of games; nil scores are partial games
func (s *StatsSuite) series(session model.SessionID, bowler model.BowlerID, scores ...*int) model.SeriesID {
	id := model.SeriesID(string(session) + "-" + string(bowler))
	s.Require().NoError(s.storage.SaveSeries(s.ctx, &model.Series{
		ID: id, SessionID: session, BowlerID: bowler, GamesCount: len(scores),
	}))
	for i, sc := range scores {
		s.Require().NoError(s.storage.SaveGame(s.ctx, &model.Game{
			ID:         model.GameID(string(id) + "-" + string(rune('1'+i))),
			SeriesID:   id,
			GameNumber: i + 1,
			TotalScore: sc,
			IsPartial:  sc == nil,
		}))
	}
	return id
}

func (s *StatsSuite) TestBowlerStats() {
	s.bowler("b1", "Alice")
	s.session("s1", "Strike Lanes", "")
	s.session("s2", "Strike Lanes", "")
	s.series("s1", "b1", score(150), score(210), nil)
	s.series("s2", "b1", score(180), score(190))

	stats, err := s.service.BowlerStats(s.ctx, "b1")
	s.Require().NoError(err)

	s.Equal("Alice", stats.Bowler.CanonicalName)
	s.Equal(5, stats.Games)
	s.Equal(4, stats.CompleteGames)
	s.Equal(182.5, stats.Average)
	s.Equal(210, stats.HighGame)
	s.Equal(370, stats.HighSeries)
	s.Equal(2, stats.SeriesCount)
	s.Equal(2, stats.SessionCount)
}

func (s *StatsSuite) TestBowlerStatsWithoutGames() {
	s.bowler("b1", "Alice")

	stats, err := s.service.BowlerStats(s.ctx, "b1")
	s.Require().NoError(err)
	s.Zero(stats.Games)
	s.Zero(stats.Average)

	_, err = s.service.BowlerStats(s.ctx, "missing")
	s.ErrorIs(err, model.ErrBowlerNotFound)
}

func (s *StatsSuite) TestSessionSummary() {
	s.session("s1", "Strike Lanes", "")
	s.bowler("b1", "Alice")
	s.bowler("b2", "Bob")
	s.series("s1", "b1", score(150), score(160))
	s.series("s1", "b2", score(100), nil)
	s.Require().NoError(s.storage.SaveTeam(s.ctx, &model.Team{ID: "t1", SessionID: "s1", Name: "Pin Pals"}))
	s.Require().NoError(s.storage.AddTeamBowler(s.ctx, model.TeamBowler{TeamID: "t1", BowlerID: "b1"}))
	s.Require().NoError(s.storage.AddTeamBowler(s.ctx, model.TeamBowler{TeamID: "t1", BowlerID: "b2"}))

	summary, err := s.service.SessionSummary(s.ctx, "s1")
	s.Require().NoError(err)

	s.Equal(model.SessionID("s1"), summary.Session.ID)
	s.Require().Len(summary.Series, 2)
	totals := map[string]int{}
	for _, sr := range summary.Series {
		totals[sr.Bowler.CanonicalName] = sr.Total
	}
	s.Equal(map[string]int{"Alice": 310, "Bob": 100}, totals)
	s.Require().Len(summary.Teams, 1)
	s.Equal(410, summary.Teams[0].Total)
}

func (s *StatsSuite) TestSessionSummaryUnknownSession() {
	_, err := s.service.SessionSummary(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StatsSuite) TestAlleyStats() {
	s.bowler("b1", "Alice")
	s.session("s1", "Strike Lanes", "")
	s.session("s2", "strike lanes", "")
	s.session("s3", "", "Downtown Bowl")
	s.session("s4", "", "")
	s.series("s1", "b1", score(100))
	s.series("s2", "b1", score(200), nil)
	s.series("s3", "b1", score(120))

	stats, err := s.service.AlleyStats(s.ctx, "user-1")
	s.Require().NoError(err)

	s.Require().Len(stats, 3)
	s.Equal(2, stats[0].Sessions)
	s.Equal(3, stats[0].Games)
	s.Equal(150.0, stats[0].Average)
	s.Equal("Downtown Bowl", stats[1].Alley)
	s.Equal(UnknownAlley, stats[2].Alley)
	s.Zero(stats[2].Games)
}

func (s *StatsSuite) TestExportSessionXLSX() {
	s.session("s1", "Strike Lanes", "")
	s.bowler("b1", "Alice")
	seriesID := s.series("s1", "b1", score(150), nil)
	roll3 := 7
	s.Require().NoError(s.storage.SaveGame(s.ctx, &model.Game{
		ID: "g3", SeriesID: seriesID, GameNumber: 3, TotalScore: score(200),
		Frames: []model.Frame{
			{FrameNumber: 1, Roll1: 10, Notation: "X"},
			{FrameNumber: 10, Roll1: 9, Roll2: 1, Roll3: &roll3, Notation: "9/7"},
		},
	}))

	var buf bytes.Buffer
	s.Require().NoError(s.service.ExportSessionXLSX(s.ctx, "s1", &buf))

	f, err := excelize.OpenReader(&buf)
	s.Require().NoError(err)
	defer f.Close()

	s.Equal([]string{SeriesSheet, FramesSheet}, f.GetSheetList())

	rows, err := f.GetRows(SeriesSheet)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal([]string{"Bowler", "Game 1", "Game 2", "Game 3", "Total"}, rows[0])
	s.Equal([]string{"Alice", "150", "", "200", "350"}, rows[1])

	frames, err := f.GetRows(FramesSheet)
	s.Require().NoError(err)
	s.Require().Len(frames, 3)
	s.Equal([]string{"Alice", "3", "1", "10", "0", "", "X"}, frames[1])
	s.Equal([]string{"Alice", "3", "10", "9", "1", "7", "9/7"}, frames[2])
}

func (s *StatsSuite) TestExportUnknownSession() {
	var buf bytes.Buffer
	err := s.service.ExportSessionXLSX(s.ctx, "missing", &buf)
	s.ErrorIs(err, model.ErrSessionNotFound)
}
