package migrations

import (
	"pr-radar/internal/core"
)

// Migration001CreateRadarTables creates the archive and correction tables
var Migration001CreateRadarTables = core.Migration{
	Version:     1,
	Name:        "create_radar_tables",
	Description: "Create archive folders, saved articles and correction requests",
	UpSQL: `
		-- Archive folders, listed in creation order
		CREATE TABLE IF NOT EXISTS radar_folders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		);

		-- Snapshots of promoted articles
		CREATE TABLE IF NOT EXISTS radar_saved_articles (
			saved_id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL UNIQUE,
			folder TEXT NOT NULL,
			saved_at DATETIME NOT NULL,
			title TEXT NOT NULL,
			press TEXT NOT NULL,
			published_at DATETIME NOT NULL,
			link TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			negative_hits TEXT NOT NULL DEFAULT ''
		);

		-- Correction requests against archived articles
		CREATE TABLE IF NOT EXISTS radar_corrections (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL,
			saved_id TEXT NOT NULL,
			press TEXT NOT NULL,
			title TEXT NOT NULL,
			link TEXT NOT NULL,
			published_at DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'requested',
			memo TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_radar_saved_folder ON radar_saved_articles(folder);
		CREATE INDEX IF NOT EXISTS idx_radar_saved_saved_at ON radar_saved_articles(saved_at);
		CREATE INDEX IF NOT EXISTS idx_radar_corrections_published_at ON radar_corrections(published_at);
		CREATE INDEX IF NOT EXISTS idx_radar_corrections_status ON radar_corrections(status);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_radar_corrections_status;
		DROP INDEX IF EXISTS idx_radar_corrections_published_at;
		DROP INDEX IF EXISTS idx_radar_saved_saved_at;
		DROP INDEX IF EXISTS idx_radar_saved_folder;

		DROP TABLE IF EXISTS radar_corrections;
		DROP TABLE IF EXISTS radar_saved_articles;
		DROP TABLE IF EXISTS radar_folders;
	`,
}
