package model

import "time"

// UserID uniquely identifies an account
type UserID string

// User is an account that uploads scoreboards
type User struct {
	ID          UserID
	Username    string
	DisplayName string
	CreatedAt   time.Time
}

// Credentials holds authentication data for a user
// Stored separately so password hashes never travel with the user record
type Credentials struct {
	UserID       UserID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
