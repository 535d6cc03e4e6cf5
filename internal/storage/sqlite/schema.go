package sqlite

import "fmt"

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

const historySchema = `
	-- One row per successful parse of an inspected file
	CREATE TABLE IF NOT EXISTS parse_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		path TEXT NOT NULL,
		parsed_at DATETIME NOT NULL,
		page_count INTEGER NOT NULL,
		page_size INTEGER NOT NULL,
		file_size INTEGER NOT NULL,
		free_bytes INTEGER NOT NULL,
		avg_utilization REAL NOT NULL,
		skipped_pages INTEGER NOT NULL DEFAULT 0,
		duration_ms REAL NOT NULL,
		change_counter INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_parse_history_path ON parse_history(path, parsed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_parse_history_session ON parse_history(session_id);
	`

// initSchema creates the history tables and refuses files from a newer release.
func (db *DB) initSchema() error {
	var version int
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: version %d, supported %d", ErrNewerSchema, version, schemaVersion)
	}

	if _, err := db.conn.Exec(historySchema); err != nil {
		return err
	}
	if version < schemaVersion {
		if _, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	}
	return nil
}
