package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

const insertEvent = `
	INSERT INTO events (name, date, start_time, end_time, tag_id, source, uid)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

// CreateEvent adds a new event.
func (s *SQLite) CreateEvent(ctx context.Context, e *task.Event) error {
	result, err := s.db.ExecContext(ctx, insertEvent,
		e.Name, string(e.Date), e.Start, e.End, e.TagID, e.Source, e.UID,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// CreateEvents adds multiple events in a single transaction.
func (s *SQLite) CreateEvents(ctx context.Context, events []*task.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReplaceEventsBySource removes every event imported from source and adds
// events in their place, in one transaction. It returns how many events
// were removed. On failure the stored events are left untouched.
func (s *SQLite) ReplaceEventsBySource(ctx context.Context, source string, events []*task.Event) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("deleting events from %q: %w", source, err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted events: %w", err)
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return removed, nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, events []*task.Event) error {
	if len(events) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, insertEvent)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range events {
		result, err := stmt.ExecContext(ctx,
			e.Name, string(e.Date), e.Start, e.End, e.TagID, e.Source, e.UID,
		)
		if err != nil {
			return fmt.Errorf("inserting event %q: %w", e.Name, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}
		e.ID = id
	}
	return nil
}

// UpdateEvent rewrites the name, time and tag of a stored event.
func (s *SQLite) UpdateEvent(ctx context.Context, e *task.Event) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET name = ?, date = ?, start_time = ?, end_time = ?, tag_id = ?
		WHERE id = ?
	`, e.Name, string(e.Date), e.Start, e.End, e.TagID, e.ID)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return task.ErrEventNotFound
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (s *SQLite) GetEvent(ctx context.Context, id int64) (*task.Event, error) {
	events, err := listEvents(ctx, s.db, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, task.ErrEventNotFound
	}
	return &events[0], nil
}

// ListEventsByDateRange returns events within the date range (inclusive).
func (s *SQLite) ListEventsByDateRange(ctx context.Context, start, end dateutil.Date) ([]task.Event, error) {
	return listEvents(ctx, s.db, `WHERE date >= ? AND date <= ?`, string(start), string(end))
}

// ListEvents returns every stored event.
func (s *SQLite) ListEvents(ctx context.Context) ([]task.Event, error) {
	return listEvents(ctx, s.db, "")
}

// DeleteEvent removes an event.
func (s *SQLite) DeleteEvent(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return task.ErrEventNotFound
	}
	return nil
}

func listEvents(ctx context.Context, q querier, where string, args ...any) ([]task.Event, error) {
	query := `
		SELECT id, name, date, start_time, end_time, tag_id, source, uid
		FROM events ` + where + `
		ORDER BY date, start_time, id
	`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []task.Event
	for rows.Next() {
		var (
			e    task.Event
			date string
		)
		if err := rows.Scan(&e.ID, &e.Name, &date, &e.Start, &e.End, &e.TagID, &e.Source, &e.UID); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Date = dateutil.Date(date)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// CreateTag adds a new tag.
func (s *SQLite) CreateTag(ctx context.Context, t *task.Tag) error {
	result, err := s.db.ExecContext(ctx, `INSERT INTO tags (name, color) VALUES (?, ?)`, t.Name, t.Color)
	if err != nil {
		return fmt.Errorf("inserting tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	t.ID = id
	return nil
}

// ListTags returns every tag ordered by name.
func (s *SQLite) ListTags(ctx context.Context) ([]task.Tag, error) {
	return listTags(ctx, s.db)
}

func listTags(ctx context.Context, q querier) ([]task.Tag, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []task.Tag
	for rows.Next() {
		var t task.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

// Snapshot returns the complete stored state read in one transaction.
func (s *SQLite) Snapshot(ctx context.Context) (*task.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	snap := &task.Snapshot{}
	if snap.Tasks, err = listTasks(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Events, err = listEvents(ctx, tx, ""); err != nil {
		return nil, err
	}
	if snap.Tags, err = listTags(ctx, tx); err != nil {
		return nil, err
	}
	if snap.ActiveTaskID, err = activeTaskID(ctx, tx); err != nil {
		return nil, err
	}
	return snap, nil
}

// ReplaceAll wipes every table and writes snap, keeping its IDs.
func (s *SQLite) ReplaceAll(ctx context.Context, snap *task.Snapshot) error {
	b := task.NewBacklog(snap.Tasks, snap.ActiveTaskID)
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"work_segments", "pauses", "tasks", "events", "tags", "timer"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, tag := range snap.Tags {
		_, err := tx.ExecContext(ctx, `INSERT INTO tags (id, name, color) VALUES (?, ?, ?)`, tag.ID, tag.Name, tag.Color)
		if err != nil {
			return fmt.Errorf("inserting tag %q: %w", tag.Name, err)
		}
	}
	for i, t := range snap.Tasks {
		if err := upsertTask(ctx, tx, t, i); err != nil {
			return err
		}
	}
	for _, e := range snap.Events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (id, name, date, start_time, end_time, tag_id, source, uid)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.Name, string(e.Date), e.Start, e.End, e.TagID, e.Source, e.UID)
		if err != nil {
			return fmt.Errorf("inserting event %q: %w", e.Name, err)
		}
	}
	if err := setActiveTaskID(ctx, tx, snap.ActiveTaskID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
