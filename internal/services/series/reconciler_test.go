package series

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scoresnap/internal/dependencies/mocks"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage/memory"
	"github.com/mcoot/scoresnap/internal/testutil"
)

type ReconcilerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	ids        *mocks.MockIDs
	reconciler *Reconciler
	ctx        context.Context
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.reconciler = New(s.storage, s.clock, s.ids, testutil.NopLogger())
	s.ctx = context.Background()
}

func score(n int) *int { return &n }

// seedSeries stores a series with complete games numbered as given
func (s *ReconcilerSuite) seedSeries(numbers ...int) model.SeriesID {
	s.Require().NoError(s.storage.SaveSeries(s.ctx, &model.Series{
		ID: "sr1", SessionID: "s1", BowlerID: "b1", GamesCount: len(numbers),
	}))
	for _, n := range numbers {
		s.Require().NoError(s.storage.SaveGame(s.ctx, &model.Game{
			ID: model.GameID("g" + string(rune('0'+n))), SeriesID: "sr1", GameNumber: n, TotalScore: score(150),
		}))
	}
	return "sr1"
}

func (s *ReconcilerSuite) TestCreatesSeriesWhenMissing() {
	s.ids.Queue("sr-new")

	result, err := s.reconciler.Reconcile(s.ctx, "s1", "b1", []int{1, 2, 3})
	s.Require().NoError(err)

	want := &model.SeriesReconciliation{
		SeriesID:         "sr-new",
		Created:          true,
		ExistingGames:    []model.ExistingGame{},
		NewGames:         []int{1, 2, 3},
		ConflictingGames: []int{},
		ShouldAppend:     false,
	}
	if diff := cmp.Diff(want, result); diff != "" {
		s.Fail("unexpected reconciliation (-want +got)", diff)
	}

	stored, err := s.storage.FindSeries(s.ctx, "s1", "b1")
	s.Require().NoError(err)
	s.Equal(3, stored.GamesCount)
}

func (s *ReconcilerSuite) TestOverlappingGamesAreConflicts() {
	s.seedSeries(1, 2)

	result, err := s.reconciler.Reconcile(s.ctx, "s1", "b1", []int{2, 3})
	s.Require().NoError(err)

	want := &model.SeriesReconciliation{
		SeriesID: "sr1",
		ExistingGames: []model.ExistingGame{
			{GameNumber: 1},
			{GameNumber: 2},
		},
		NewGames:         []int{3},
		ConflictingGames: []int{2},
		ShouldAppend:     true,
	}
	if diff := cmp.Diff(want, result); diff != "" {
		s.Fail("unexpected reconciliation (-want +got)", diff)
	}
}

func (s *ReconcilerSuite) TestAllGamesAlreadyRecorded() {
	s.seedSeries(1, 2)

	result, err := s.reconciler.Reconcile(s.ctx, "s1", "b1", []int{1, 2})
	s.Require().NoError(err)

	s.False(result.Created)
	s.Empty(result.NewGames)
	s.Equal([]int{1, 2}, result.ConflictingGames)
	s.False(result.ShouldAppend)
}

func (s *ReconcilerSuite) TestNeverCreatesSecondSeries() {
	s.ids.Queue("sr-a", "sr-b")

	first, err := s.reconciler.Reconcile(s.ctx, "s1", "b1", []int{1})
	s.Require().NoError(err)
	second, err := s.reconciler.Reconcile(s.ctx, "s1", "b1", []int{2})
	s.Require().NoError(err)

	s.Equal(first.SeriesID, second.SeriesID)
	s.False(second.Created)

	all, err := s.storage.ListSeriesForSession(s.ctx, "s1")
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ReconcilerSuite) TestExistingPartialGamesReported() {
	s.Require().NoError(s.storage.SaveSeries(s.ctx, &model.Series{ID: "sr1", SessionID: "s1", BowlerID: "b1", GamesCount: 1}))
	s.Require().NoError(s.storage.SaveGame(s.ctx, &model.Game{ID: "g1", SeriesID: "sr1", GameNumber: 1, IsPartial: true}))

	result, err := s.reconciler.Reconcile(s.ctx, "s1", "b1", []int{1})
	s.Require().NoError(err)
	s.Equal([]model.ExistingGame{{GameNumber: 1, IsPartial: true}}, result.ExistingGames)
	s.Equal([]int{1}, result.ConflictingGames)
}

// AppendGames tests

func (s *ReconcilerSuite) TestAppendGamesUpdatesCount() {
	seriesID := s.seedSeries(1, 2)
	s.ids.Queue("g3")

	gameIDs, err := s.reconciler.AppendGames(s.ctx, seriesID, []*model.Game{
		{GameNumber: 3, TotalScore: score(201)},
	})
	s.Require().NoError(err)
	s.Equal([]model.GameID{"g3"}, gameIDs)

	stored, err := s.storage.GetSeries(s.ctx, seriesID)
	s.Require().NoError(err)
	s.Equal(3, stored.GamesCount)

	games, err := s.storage.ListGamesForSeries(s.ctx, seriesID)
	s.Require().NoError(err)
	s.Require().Len(games, 3)
	s.Equal(s.clock.Now(), games[2].CreatedAt)
	s.Equal(seriesID, games[2].SeriesID)
}

func (s *ReconcilerSuite) TestAppendGamesRefusesOverwrite() {
	seriesID := s.seedSeries(1)

	_, err := s.reconciler.AppendGames(s.ctx, seriesID, []*model.Game{{GameNumber: 1, TotalScore: score(10)}})
	s.ErrorIs(err, model.ErrGameExists)

	games, err := s.storage.ListGamesForSeries(s.ctx, seriesID)
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal(150, *games[0].TotalScore)
}

func (s *ReconcilerSuite) TestAppendGamesUnknownSeries() {
	_, err := s.reconciler.AppendGames(s.ctx, "missing", nil)
	s.ErrorIs(err, model.ErrSeriesNotFound)
}
