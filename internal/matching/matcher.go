package matching

import (
	"sort"

	"github.com/mcoot/scoresnap/internal/model"
)

// FindMatches scores a parsed name against every bowler and returns candidate
// matches ordered by confidence, with at most one entry per bowler.
//
// The canonical name is recorded as an exact match at or above t.Exact and
// each alias as an alias match at or above t.Alias. Only a bowler with neither
// gets a second look at the canonical name against the lower t.Fuzzy.
func FindMatches(parsedName string, bowlers []model.BowlerWithAliases, t Thresholds) []model.BowlerMatch {
	name := NormalizeName(parsedName)

	var matches []model.BowlerMatch
	for _, bw := range bowlers {
		found := false
		record := func(confidence float64, matchType model.MatchType) {
			matches = append(matches, model.BowlerMatch{
				Bowler:     bw.Bowler,
				Aliases:    bw.Aliases,
				Confidence: confidence,
				MatchType:  matchType,
			})
			found = true
		}

		canonical := CalculateSimilarity(name, bw.Bowler.CanonicalName)
		if canonical >= t.Exact {
			record(canonical, model.MatchTypeExact)
		}

		for _, alias := range bw.Aliases {
			if sim := CalculateSimilarity(name, alias.Alias); sim >= t.Alias {
				record(sim, model.MatchTypeAlias)
			}
		}

		if !found && canonical >= t.Fuzzy {
			record(canonical, model.MatchTypeFuzzy)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return dedupeByBowler(matches)
}

// dedupeByBowler keeps the first match for each bowler
func dedupeByBowler(matches []model.BowlerMatch) []model.BowlerMatch {
	seen := make(map[model.BowlerID]bool, len(matches))
	result := make([]model.BowlerMatch, 0, len(matches))
	for _, m := range matches {
		if seen[m.Bowler.ID] {
			continue
		}
		seen[m.Bowler.ID] = true
		result = append(result, m)
	}
	return result
}
