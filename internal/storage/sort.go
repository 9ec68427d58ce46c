package storage

import (
	"sort"
	"strings"

	"github.com/mcoot/scoresnap/internal/model"
)

// SortBowlers orders bowlers by canonical name, case-insensitively, then id
func SortBowlers(bowlers []*model.Bowler) {
	sort.Slice(bowlers, func(i, j int) bool {
		a, b := strings.ToLower(bowlers[i].CanonicalName), strings.ToLower(bowlers[j].CanonicalName)
		if a != b {
			return a < b
		}
		return bowlers[i].ID < bowlers[j].ID
	})
}

// SortSessions orders sessions most recent first, then by id
func SortSessions(sessions []*model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].DateTime.Equal(sessions[j].DateTime) {
			return sessions[i].DateTime.After(sessions[j].DateTime)
		}
		return sessions[i].ID < sessions[j].ID
	})
}

// SortGames orders games by game number
func SortGames(games []*model.Game) {
	sort.Slice(games, func(i, j int) bool {
		return games[i].GameNumber < games[j].GameNumber
	})
}

// SortSeries orders series by creation time, then id
func SortSeries(series []*model.Series) {
	sort.Slice(series, func(i, j int) bool {
		if !series[i].CreatedAt.Equal(series[j].CreatedAt) {
			return series[i].CreatedAt.Before(series[j].CreatedAt)
		}
		return series[i].ID < series[j].ID
	})
}
