package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsurePublishSchema creates the publishing tables when missing and adds
// newer columns to pre-existing deployments. Safe to call at startup.
//
// oauth_tokens (the legacy credential layout) is deliberately NOT created
// here: it only exists on deployments that predate platform_credentials, and
// creating an empty copy would make the fallback read path look live.
func EnsurePublishSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS platform_credentials (
			id BIGSERIAL PRIMARY KEY,
			creator_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ,
			scopes TEXT NOT NULL DEFAULT '',
			channel_id TEXT,
			handle TEXT,
			business_account_id TEXT,
			username TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (creator_id, platform)
		)`,
		`CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			creator_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			content_url TEXT,
			thumbnail_url TEXT,
			platform_target TEXT NOT NULL DEFAULT 'internal',
			status TEXT NOT NULL DEFAULT 'draft',
			scheduled_at TIMESTAMPTZ,
			claimed_at TIMESTAMPTZ,
			posted_at TIMESTAMPTZ,
			youtube_url TEXT,
			instagram_url TEXT,
			tiktok_url TEXT,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_pending ON videos (status, scheduled_at)`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensuring publish schema: %w", err)
		}
	}

	// Columns added after the first release; older deployments get them here.
	checks := []struct {
		table  string
		column string
		ddl    string
	}{
		{"videos", "claimed_at", "ALTER TABLE videos ADD COLUMN claimed_at TIMESTAMPTZ"},
		{"videos", "error_message", "ALTER TABLE videos ADD COLUMN error_message TEXT"},
		{"platform_credentials", "business_account_id", "ALTER TABLE platform_credentials ADD COLUMN business_account_id TEXT"},
	}
	for _, c := range checks {
		exists, err := columnExists(ctx, db, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// legacyTableExists reports whether the pre-migration oauth_tokens layout is
// present, so the credential repository knows whether fallback reads make sense.
func legacyTableExists(ctx context.Context, db *sql.DB) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.tables WHERE table_name='oauth_tokens'`)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
