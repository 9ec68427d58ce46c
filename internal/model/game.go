package model

import "time"

// SeriesID uniquely identifies a series
type SeriesID string

// GameID uniquely identifies a game
type GameID string

// MaxScore is the highest possible bowling score
const MaxScore = 300

// FramesPerGame is the number of frames in a complete game
const FramesPerGame = 10

// Series is one bowler's games within one session
type Series struct {
	ID         SeriesID
	SessionID  SessionID
	BowlerID   BowlerID
	GamesCount int
	CreatedAt  time.Time
}

// Game is a single game within a series
type Game struct {
	ID         GameID
	SeriesID   SeriesID
	GameNumber int  // unique within a series
	TotalScore *int // nil while partial
	IsPartial  bool
	Frames     []Frame
	CreatedAt  time.Time
}

// Frame is one frame of a game
// Frames 1-9 use two rolls, frame 10 may use a third
type Frame struct {
	FrameNumber int
	Roll1       int
	Roll2       int
	Roll3       *int
	Notation    string
}

// ExistingGame summarises a game already recorded in a series
type ExistingGame struct {
	GameNumber int
	IsPartial  bool
}

// SeriesReconciliation is the outcome of merging new games into a series
type SeriesReconciliation struct {
	SeriesID         SeriesID
	Created          bool
	ExistingGames    []ExistingGame
	NewGames         []int
	ConflictingGames []int
	ShouldAppend     bool
}
