package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS tasks (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			position          INTEGER NOT NULL,
			name              TEXT NOT NULL,
			planned_duration  INTEGER NOT NULL CHECK(planned_duration > 0),
			adjusted_duration INTEGER,
			completed         INTEGER NOT NULL DEFAULT 0,
			tag_id            INTEGER REFERENCES tags(id),
			paused_elapsed    INTEGER NOT NULL DEFAULT 0,
			started_at_minute INTEGER,
			started_at_date   TEXT NOT NULL DEFAULT '',
			pause_gap_minutes INTEGER NOT NULL DEFAULT 0,
			actual_duration   INTEGER,
			created_at        TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_position ON tasks(position);

		CREATE TABLE IF NOT EXISTS work_segments (
			task_id      INTEGER NOT NULL REFERENCES tasks(id),
			seq          INTEGER NOT NULL,
			date         TEXT NOT NULL,
			start_minute INTEGER NOT NULL,
			end_minute   INTEGER NOT NULL,
			PRIMARY KEY (task_id, seq)
		);

		CREATE TABLE IF NOT EXISTS pauses (
			task_id      INTEGER NOT NULL REFERENCES tasks(id),
			seq          INTEGER NOT NULL,
			date         TEXT NOT NULL,
			start_minute INTEGER NOT NULL,
			end_minute   INTEGER,
			is_open      INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (task_id, seq)
		);

		-- At most one pause may be open across the whole backlog.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_pauses_one_open ON pauses(is_open) WHERE is_open = 1;

		CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			date       TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time   TEXT NOT NULL,
			tag_id     INTEGER REFERENCES tags(id),
			source     TEXT NOT NULL DEFAULT '',
			uid        TEXT NOT NULL DEFAULT '',
			CHECK(end_time > start_time)
		);

		CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
		CREATE INDEX IF NOT EXISTS idx_events_source ON events(source);

		CREATE TABLE IF NOT EXISTS tags (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			name  TEXT NOT NULL UNIQUE,
			color TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS timer (
			id             INTEGER PRIMARY KEY CHECK(id = 1),
			active_task_id INTEGER
		);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}
