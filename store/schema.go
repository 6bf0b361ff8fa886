package store

const Schema = `
CREATE TABLE IF NOT EXISTS downloads (
	track_id TEXT PRIMARY KEY,

	-- Denormalized metadata captured at queue time
	title TEXT NOT NULL,
	artist TEXT,
	artists TEXT,  -- JSON array
	album_id TEXT,
	album TEXT,
	genre TEXT,
	duration_ms INTEGER DEFAULT 0,
	favorite BOOLEAN DEFAULT 0,
	play_count INTEGER DEFAULT 0,

	-- Transfer bookkeeping
	status TEXT NOT NULL,
	size_bytes INTEGER DEFAULT 0,
	file_path TEXT,
	error TEXT,

	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status);
CREATE INDEX IF NOT EXISTS idx_downloads_album ON downloads(album);
CREATE INDEX IF NOT EXISTS idx_downloads_artist ON downloads(artist);

CREATE TABLE IF NOT EXISTS playlist_snapshots (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	track_ids TEXT NOT NULL,  -- JSON array
	saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
