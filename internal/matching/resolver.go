package matching

import "github.com/mcoot/scoresnap/internal/model"

// Resolve applies the confidence policy to ranked matches for a parsed name.
//
//   - top match at or above t.AutoResolve: resolved, no input needed
//   - any weaker match: unresolved, the user must choose
//   - no match: unresolved, no input needed, the caller creates a bowler
func Resolve(parsedName string, matches []model.BowlerMatch, t Thresholds) *model.NameResolution {
	res := &model.NameResolution{
		ParsedName:  parsedName,
		Suggestions: []model.BowlerMatch{},
	}

	if len(matches) == 0 {
		return res
	}

	top := matches[0]
	if top.Confidence >= t.AutoResolve {
		id := top.Bowler.ID
		res.ResolvedBowlerID = &id
		res.Suggestions = firstN(matches, AutoResolvedSuggestions)
		return res
	}

	res.NeedsUserInput = true
	res.Suggestions = firstN(matches, AmbiguousSuggestions)
	return res
}

// NeedsNewBowler reports whether a resolution calls for creating a bowler
func NeedsNewBowler(res *model.NameResolution) bool {
	return res.ResolvedBowlerID == nil && !res.NeedsUserInput
}

func firstN(matches []model.BowlerMatch, n int) []model.BowlerMatch {
	if len(matches) < n {
		n = len(matches)
	}
	out := make([]model.BowlerMatch, n)
	copy(out, matches[:n])
	return out
}
