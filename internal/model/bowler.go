package model

import "time"

// BowlerID uniquely identifies a bowler
type BowlerID string

// Bowler is a real person appearing on scoreboards
type Bowler struct {
	ID              BowlerID
	CanonicalName   string
	PrimaryUserID   *UserID // optional claim linking an account
	CreatedByUserID UserID
	CreatedAt       time.Time
}

// AliasSource records how an alias came to exist
type AliasSource string

const (
	AliasSourceManual     AliasSource = "manual"
	AliasSourceAutoVision AliasSource = "auto_vision"
)

// Valid reports whether the source is a known value
func (s AliasSource) Valid() bool {
	return s == AliasSourceManual || s == AliasSourceAutoVision
}

// BowlerAlias is an alternate spelling that refers to a bowler
type BowlerAlias struct {
	BowlerID        BowlerID
	Alias           string
	Source          AliasSource
	ConfidenceScore float64
	CreatedAt       time.Time
}

// BowlerWithAliases pairs a bowler with all of its aliases
type BowlerWithAliases struct {
	Bowler  Bowler
	Aliases []BowlerAlias
}

// MatchType identifies which comparison produced a match
type MatchType string

const (
	MatchTypeExact MatchType = "exact" // canonical name at the highest tier
	MatchTypeAlias MatchType = "alias"
	MatchTypeFuzzy MatchType = "fuzzy"
)

// BowlerMatch is a candidate bowler for a parsed name
type BowlerMatch struct {
	Bowler     Bowler
	Aliases    []BowlerAlias
	Confidence float64
	MatchType  MatchType
}

// NameResolution is the decision reached for one parsed name
type NameResolution struct {
	ParsedName       string
	ResolvedBowlerID *BowlerID // nil when the user must choose or a new bowler is needed
	NeedsUserInput   bool
	Suggestions      []BowlerMatch
}
