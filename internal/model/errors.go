package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Bowler errors
	ErrBowlerNotFound     = errors.New("bowler not found")
	ErrInvalidBowlerName  = errors.New("bowler name must not be empty")
	ErrInvalidAlias       = errors.New("alias must not be empty")
	ErrInvalidAliasSource = errors.New("invalid alias source")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session belongs to another user")

	// Series and game errors
	ErrSeriesNotFound = errors.New("series not found")
	ErrGameExists     = errors.New("game number already recorded for series")

	// Team errors
	ErrTeamNotFound = errors.New("team not found")

	// Upload errors
	ErrUploadNotFound    = errors.New("upload not found")
	ErrEmptyScoreboard   = errors.New("scoreboard contains no bowlers")
	ErrInvalidScoreboard = errors.New("invalid scoreboard")
	ErrUploadProcessed   = errors.New("upload has already been processed")
	ErrVisionUnavailable = errors.New("vision extraction is not configured")
)
