package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventSessionUpdated EventType = "session-updated"
)

// SessionUpdatedEvent is published after an upload adds data to a session
type SessionUpdatedEvent struct {
	Type         EventType  `json:"type"`
	Timestamp    time.Time  `json:"timestamp"`
	SessionID    SessionID  `json:"session_id"`
	UploadID     UploadID   `json:"upload_id,omitempty"`
	GameIDs      []GameID   `json:"game_ids"`
	SkippedGames int        `json:"skipped_games"`
	BowlerIDs    []BowlerID `json:"bowler_ids"`
}
