package matching

import "fmt"

// Default confidence thresholds for name matching
const (
	// DefaultExactThreshold is the canonical-name similarity recorded as an exact match
	DefaultExactThreshold = 0.8
	// DefaultAliasThreshold is the alias similarity recorded as an alias match
	DefaultAliasThreshold = 0.7
	// DefaultFuzzyThreshold is the canonical-name similarity tried when nothing else matched
	DefaultFuzzyThreshold = 0.6
	// DefaultAutoResolveThreshold is the top-match confidence resolved without asking
	DefaultAutoResolveThreshold = 0.8
)

// Number of suggestions returned with a resolution
const (
	AutoResolvedSuggestions = 3
	AmbiguousSuggestions    = 5
)

// Thresholds holds the confidence policy used by the matcher and resolver
type Thresholds struct {
	Exact       float64
	Alias       float64
	Fuzzy       float64
	AutoResolve float64
}

// DefaultThresholds returns the standard matching policy
func DefaultThresholds() Thresholds {
	return Thresholds{
		Exact:       DefaultExactThreshold,
		Alias:       DefaultAliasThreshold,
		Fuzzy:       DefaultFuzzyThreshold,
		AutoResolve: DefaultAutoResolveThreshold,
	}
}

// Validate checks every threshold lies in (0, 1]
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"exact":        t.Exact,
		"alias":        t.Alias,
		"fuzzy":        t.Fuzzy,
		"auto_resolve": t.AutoResolve,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s threshold must be in (0, 1], got %v", name, v)
		}
	}
	return nil
}
