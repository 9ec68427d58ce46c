package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		statements := []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL,
				display_name TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS credentials (
				username TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS bowlers (
				id TEXT PRIMARY KEY,
				canonical_name TEXT NOT NULL,
				primary_user_id TEXT,
				created_by_user_id TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_bowlers_lower_name ON bowlers (lower(canonical_name))`,
			`CREATE TABLE IF NOT EXISTS bowler_aliases (
				bowler_id TEXT NOT NULL,
				alias TEXT NOT NULL,
				source TEXT NOT NULL,
				confidence_score DOUBLE PRECISION NOT NULL DEFAULT 1,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (bowler_id, alias)
			)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				date_time TIMESTAMPTZ NOT NULL,
				location TEXT,
				lane TEXT,
				bowling_alley_id TEXT,
				bowling_alley_name TEXT,
				gps_latitude DOUBLE PRECISION,
				gps_longitude DOUBLE PRECISION,
				created_by_user_id TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_user_date ON sessions (created_by_user_id, date_time DESC)`,
			`CREATE TABLE IF NOT EXISTS series (
				id TEXT PRIMARY KEY,
				session_id TEXT NOT NULL,
				bowler_id TEXT NOT NULL,
				games_count INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (session_id, bowler_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_series_bowler ON series (bowler_id)`,
			`CREATE TABLE IF NOT EXISTS games (
				id TEXT PRIMARY KEY,
				series_id TEXT NOT NULL,
				game_number INTEGER NOT NULL,
				total_score INTEGER CHECK (total_score BETWEEN 0 AND 300),
				is_partial BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (series_id, game_number)
			)`,
			`CREATE TABLE IF NOT EXISTS frames (
				game_id TEXT NOT NULL REFERENCES games (id) ON DELETE CASCADE,
				frame_number INTEGER NOT NULL CHECK (frame_number BETWEEN 1 AND 10),
				roll_1 INTEGER NOT NULL,
				roll_2 INTEGER NOT NULL,
				roll_3 INTEGER,
				notation TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (game_id, frame_number)
			)`,
			`CREATE TABLE IF NOT EXISTS teams (
				id TEXT PRIMARY KEY,
				session_id TEXT NOT NULL,
				name TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_teams_session ON teams (session_id)`,
			`CREATE TABLE IF NOT EXISTS team_bowlers (
				team_id TEXT NOT NULL REFERENCES teams (id) ON DELETE CASCADE,
				bowler_id TEXT NOT NULL,
				PRIMARY KEY (team_id, bowler_id)
			)`,
		}

		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create scoring tables: %w", err)
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS
			team_bowlers, teams, frames, games, series, sessions,
			bowler_aliases, bowlers, credentials, users`)
		if err != nil {
			return fmt.Errorf("failed to drop scoring tables: %w", err)
		}
		return nil
	})
}
