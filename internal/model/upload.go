package model

import "time"

// UploadID uniquely identifies an upload
type UploadID string

// UploadStatus tracks an upload through processing
type UploadStatus string

const (
	UploadStatusParsed          UploadStatus = "parsed"
	UploadStatusNeedsResolution UploadStatus = "needs_resolution"
	UploadStatusProcessed       UploadStatus = "processed"
	UploadStatusFailed          UploadStatus = "failed"
)

// Upload is a submitted scoreboard awaiting or after persistence
type Upload struct {
	ID        UploadID
	UserID    UserID
	Status    UploadStatus
	Parsed    *ParsedScoreboard
	SessionID *SessionID
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NameAnalysis reports which scoreboard names need a human decision
type NameAnalysis struct {
	NeedsResolution  bool
	UnresolvedNames  []NameResolution
	ResolvedMappings map[string]BowlerID
}

// PersistResult is the outcome of persisting a parsed scoreboard
// Failures are reported through Success and Error rather than returned
type PersistResult struct {
	Success        bool
	SessionID      *SessionID
	SessionMatched bool
	BowlerIDs      []BowlerID
	SeriesIDs      []SeriesID
	GameIDs        []GameID
	SkippedGames   int
	Error          string
}
