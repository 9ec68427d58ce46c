package model

import "time"

// SessionID uniquely identifies a session
type SessionID string

// Coordinates is a GPS position in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Session is one real-world bowling outing at one place and time
type Session struct {
	ID               SessionID
	DateTime         time.Time
	Location         string
	Lane             string
	BowlingAlleyID   string
	BowlingAlleyName string
	GPS              *Coordinates
	CreatedByUserID  UserID
	CreatedAt        time.Time
}

// SessionCriteria describes an upload when looking for an existing session
type SessionCriteria struct {
	UserID         UserID
	DateTime       time.Time
	BowlingAlleyID string
	Location       string
	GPS            *Coordinates
	BowlerNames    []string
}

// MatchReason explains why a session was chosen
type MatchReason string

const (
	MatchReasonRosterOverlap MatchReason = "roster_overlap"
	MatchReasonFallback      MatchReason = "fallback" // same place and time, different team
)

// SessionMatch is the session an upload should merge into
type SessionMatch struct {
	Session *Session
	Overlap int
	Reason  MatchReason
}

// TeamID uniquely identifies a team
type TeamID string

// Team groups bowlers within a session
type Team struct {
	ID        TeamID
	SessionID SessionID
	Name      string
	CreatedAt time.Time
}

// TeamBowler links a bowler to a team
type TeamBowler struct {
	TeamID   TeamID
	BowlerID BowlerID
}
