package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS uploads (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				status TEXT NOT NULL,
				parsed JSONB,
				session_id TEXT,
				error TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_uploads_user ON uploads (user_id, created_at DESC);
		`)
		if err != nil {
			return fmt.Errorf("failed to create uploads table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS uploads`)
		if err != nil {
			return fmt.Errorf("failed to drop uploads table: %w", err)
		}
		return nil
	})
}
