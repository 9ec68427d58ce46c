package model

import "time"

// ParsedScoreboard is the structured data extracted from a scoreboard photo
type ParsedScoreboard struct {
	DateTime         *time.Time     `json:"date_time,omitempty"`
	DateText         string         `json:"date_text,omitempty"` // raw date as read off the screen
	Location         string         `json:"location,omitempty"`
	Lane             string         `json:"lane,omitempty"`
	BowlingAlleyID   string         `json:"bowling_alley_id,omitempty"`
	BowlingAlleyName string         `json:"bowling_alley_name,omitempty"`
	GPS              *Coordinates   `json:"gps,omitempty" validate:"omitempty"`
	Bowlers          []ParsedBowler `json:"bowlers" validate:"required,min=1,dive"`
}

// ParsedBowler is one row of a scoreboard
type ParsedBowler struct {
	Name  string       `json:"name" validate:"required"`
	Team  string       `json:"team,omitempty"`
	Games []ParsedGame `json:"games" validate:"dive"`
}

// ParsedGame is a single game read off a scoreboard
type ParsedGame struct {
	GameNumber int           `json:"game_number" validate:"gte=0"`
	TotalScore *int          `json:"total_score,omitempty"`
	IsPartial  bool          `json:"is_partial,omitempty"`
	Frames     []ParsedFrame `json:"frames,omitempty" validate:"dive"`
}

// ParsedFrame is a frame read off a scoreboard
// Rolls may be empty when only the notation was legible
type ParsedFrame struct {
	FrameNumber int    `json:"frame_number"`
	Rolls       []int  `json:"rolls,omitempty"`
	Notation    string `json:"notation,omitempty"`
}

// BowlerNames returns the bowler names in scoreboard order
func (p *ParsedScoreboard) BowlerNames() []string {
	names := make([]string, 0, len(p.Bowlers))
	for _, b := range p.Bowlers {
		names = append(names, b.Name)
	}
	return names
}
