package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Runs table - one row per perception-loop run
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			backend TEXT NOT NULL DEFAULT '',
			frames INTEGER NOT NULL DEFAULT 0,
			detections INTEGER NOT NULL DEFAULT 0,
			actions INTEGER NOT NULL DEFAULT 0
		)`,

		// Events table - one row per dispatched action
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			at DATETIME NOT NULL,
			gesture TEXT NOT NULL,
			outcome TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		)`,

		// Indexes for the event listing queries
		`CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_at ON events(at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
