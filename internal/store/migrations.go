package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Token cache (key-value with optional expiry, unix seconds)
		`CREATE TABLE IF NOT EXISTS token_cache (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at INTEGER,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Document pages (local stand-in for Notion databases)
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			database_id TEXT NOT NULL,
			properties TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_pages_database ON pages(database_id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
