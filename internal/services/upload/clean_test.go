package upload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scoresnap/internal/dependencies/mocks"
	"github.com/mcoot/scoresnap/internal/model"
)

type CleanSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	cleaner *Cleaner
}

func TestCleanSuite(t *testing.T) {
	suite.Run(t, new(CleanSuite))
}

func (s *CleanSuite) SetupTest() {
	// Wednesday
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	s.cleaner = NewCleaner(s.clock)
}

func (s *CleanSuite) clean(p *model.ParsedScoreboard) *model.ParsedScoreboard {
	out, err := s.cleaner.Clean(p)
	s.Require().NoError(err)
	return out
}

func frames(notations ...string) []model.ParsedFrame {
	out := make([]model.ParsedFrame, 0, len(notations))
	for i, n := range notations {
		out = append(out, model.ParsedFrame{FrameNumber: i + 1, Notation: n})
	}
	return out
}

func (s *CleanSuite) TestRejectsStructurallyInvalid() {
	_, err := s.cleaner.Clean(nil)
	s.ErrorIs(err, model.ErrEmptyScoreboard)

	_, err = s.cleaner.Clean(&model.ParsedScoreboard{})
	s.ErrorIs(err, model.ErrInvalidScoreboard)
	verrs, ok := ValidationErrors(err)
	s.True(ok)
	s.NotEmpty(verrs)

	_, err = s.cleaner.Clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{Name: ""}}})
	s.ErrorIs(err, model.ErrInvalidScoreboard)

	_, err = s.cleaner.Clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{
		{Name: "Alice", Games: []model.ParsedGame{{GameNumber: -1}}},
	}})
	s.ErrorIs(err, model.ErrInvalidScoreboard)
}

func (s *CleanSuite) TestNamesAreTrimmedAndDeduplicated() {
	out := s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{
		{Name: "  Alice   Smith "},
		{Name: "alice smith"},
		{Name: "   "},
		{Name: "Bob"},
	}})

	s.Equal([]string{"Alice Smith", "Bob"}, out.BowlerNames())
}

func (s *CleanSuite) TestOnlyBlankNamesIsEmpty() {
	_, err := s.cleaner.Clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{Name: "  "}}})
	s.ErrorIs(err, model.ErrEmptyScoreboard)
}

func (s *CleanSuite) TestGameNumbersFilledDedupedAndSorted() {
	out := s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{
		Name: "Alice",
		Games: []model.ParsedGame{
			{GameNumber: 3, TotalScore: score(150)},
			{GameNumber: 0, TotalScore: score(120)},
			{GameNumber: 3, TotalScore: score(99)},
		},
	}}})

	games := out.Bowlers[0].Games
	s.Require().Len(games, 2)
	s.Equal(2, games[0].GameNumber)
	s.Equal(120, *games[0].TotalScore)
	s.Equal(3, games[1].GameNumber)
	s.Equal(150, *games[1].TotalScore)
}

func (s *CleanSuite) TestUnnumberedGameDoesNotDisplaceNumberedGame() {
	out := s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{
		Name: "Alice",
		Games: []model.ParsedGame{
			{GameNumber: 0, TotalScore: score(150)},
			{GameNumber: 1, TotalScore: score(180)},
		},
	}}})

	games := out.Bowlers[0].Games
	s.Require().Len(games, 2)
	s.Equal(1, games[0].GameNumber)
	s.Equal(180, *games[0].TotalScore)
	s.Equal(2, games[1].GameNumber)
	s.Equal(150, *games[1].TotalScore)
}

func (s *CleanSuite) TestUnnumberedGamesSkipClaimedNumbers() {
	out := s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{
		Name: "Alice",
		Games: []model.ParsedGame{
			{GameNumber: 2, TotalScore: score(100)},
			{GameNumber: 0, TotalScore: score(110)},
			{GameNumber: 0, TotalScore: score(120)},
		},
	}}})

	games := out.Bowlers[0].Games
	s.Require().Len(games, 3)
	s.Equal([]int{2, 3, 4}, []int{games[0].GameNumber, games[1].GameNumber, games[2].GameNumber})
	s.Equal(110, *games[1].TotalScore)
	s.Equal(120, *games[2].TotalScore)
}

func (s *CleanSuite) TestOutOfRangeScoresAreNulled() {
	out := s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{
		Name: "Alice",
		Games: []model.ParsedGame{
			{GameNumber: 1, TotalScore: score(301)},
			{GameNumber: 2, TotalScore: score(-5)},
			{GameNumber: 3, TotalScore: score(300)},
			{GameNumber: 4, TotalScore: score(0)},
		},
	}}})

	games := out.Bowlers[0].Games
	s.Nil(games[0].TotalScore)
	s.True(games[0].IsPartial)
	s.Nil(games[1].TotalScore)
	s.Equal(300, *games[2].TotalScore)
	s.False(games[2].IsPartial)
	s.Equal(0, *games[3].TotalScore)
}

func (s *CleanSuite) TestTotalComputedFromCompleteFrames() {
	out := s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{
		Name: "Alice",
		Games: []model.ParsedGame{{
			GameNumber: 1,
			TotalScore: score(999),
			Frames:     frames("X", "7/", "9-", "X", "-8", "8/", "-6", "X", "X", "X81"),
		}},
	}}})

	game := out.Bowlers[0].Games[0]
	s.Require().NotNil(game.TotalScore)
	s.Equal(167, *game.TotalScore)
	s.False(game.IsPartial)
	s.Len(game.Frames, 10)
	s.Equal([]int{10}, game.Frames[0].Rolls)
}

func (s *CleanSuite) TestIncompleteFramesArePartial() {
	out := s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{
		Name:  "Alice",
		Games: []model.ParsedGame{{GameNumber: 1, Frames: frames("X", "7/", "9-")}},
	}}})

	game := out.Bowlers[0].Games[0]
	s.Nil(game.TotalScore)
	s.True(game.IsPartial)
	s.Len(game.Frames, 3)
}

func (s *CleanSuite) TestPartialGamesHaveNoTotal() {
	out := s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{
		Name:  "Alice",
		Games: []model.ParsedGame{{GameNumber: 1, TotalScore: score(87), IsPartial: true}},
	}}})

	s.Nil(out.Bowlers[0].Games[0].TotalScore)
	s.True(out.Bowlers[0].Games[0].IsPartial)
}

func (s *CleanSuite) TestInvalidFramesDropped() {
	out := s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{
		Name: "Alice",
		Games: []model.ParsedGame{{GameNumber: 1, Frames: []model.ParsedFrame{
			{FrameNumber: 0, Notation: "X"},
			{FrameNumber: 11, Notation: "X"},
			{FrameNumber: 2, Rolls: []int{7, 8}},
			{FrameNumber: 3, Rolls: []int{11}},
			{FrameNumber: 4, Notation: "??"},
			{FrameNumber: 1, Rolls: []int{9, 0}},
			{FrameNumber: 1, Notation: "X"},
		}}},
	}}})

	fs := out.Bowlers[0].Games[0].Frames
	s.Require().Len(fs, 1)
	s.Equal(1, fs[0].FrameNumber)
	s.Equal([]int{9, 0}, fs[0].Rolls)
	s.Equal("9-", fs[0].Notation)
}

func (s *CleanSuite) TestDateTimeKept() {
	dt := time.Date(2024, 1, 5, 19, 30, 0, 0, time.FixedZone("PST", -8*3600))
	out := s.clean(&model.ParsedScoreboard{DateTime: &dt, Bowlers: []model.ParsedBowler{{Name: "Alice"}}})

	s.Equal(dt.UTC(), *out.DateTime)
}

func (s *CleanSuite) TestDateTextParsed() {
	out := s.clean(&model.ParsedScoreboard{DateText: "01/05/2024 7:30 PM", Bowlers: []model.ParsedBowler{{Name: "Alice"}}})
	s.Equal(time.Date(2024, 1, 5, 19, 30, 0, 0, time.UTC), *out.DateTime)

	out = s.clean(&model.ParsedScoreboard{DateText: "2024-01-06 20:15", Bowlers: []model.ParsedBowler{{Name: "Alice"}}})
	s.Equal(time.Date(2024, 1, 6, 20, 15, 0, 0, time.UTC), *out.DateTime)
}

func (s *CleanSuite) TestRelativeDateText() {
	out := s.clean(&model.ParsedScoreboard{DateText: "yesterday", Bowlers: []model.ParsedBowler{{Name: "Alice"}}})

	s.Equal(s.clock.Now().AddDate(0, 0, -1).Format("2006-01-02"), out.DateTime.Format("2006-01-02"))
}

func (s *CleanSuite) TestUnreadableDateUsesNow() {
	out := s.clean(&model.ParsedScoreboard{DateText: "%%%", Bowlers: []model.ParsedBowler{{Name: "Alice"}}})
	s.Equal(s.clock.Now(), *out.DateTime)

	out = s.clean(&model.ParsedScoreboard{Bowlers: []model.ParsedBowler{{Name: "Alice"}}})
	s.Equal(s.clock.Now(), *out.DateTime)
}

func (s *CleanSuite) TestInputNotMutated() {
	in := &model.ParsedScoreboard{Location: " Lanes ", Bowlers: []model.ParsedBowler{{Name: " Alice "}}}
	out := s.clean(in)

	s.Equal("Lanes", out.Location)
	s.Equal(" Lanes ", in.Location)
	s.Equal(" Alice ", in.Bowlers[0].Name)
	s.Nil(in.DateTime)
}
