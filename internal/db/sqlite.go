// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

// SQLite implements task.Repository using SQLite.
type SQLite struct {
	db *sql.DB
}

var _ task.Repository = (*SQLite)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateTask appends a task at the end of the backlog.
func (s *SQLite) CreateTask(ctx context.Context, t *task.Task) error {
	var position int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM tasks`).Scan(&position)
	if err != nil {
		return fmt.Errorf("reading next position: %w", err)
	}
	return insertTask(ctx, s.db, t, position)
}

// InsertTasks adds tasks to the backlog before the task at index, keeping
// their order. A negative index or one past the end appends. Nothing is
// stored unless every task is.
func (s *SQLite) InsertTasks(ctx context.Context, tasks []*task.Task, index int) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored, err := taskIDs(ctx, tx)
	if err != nil {
		return err
	}
	if index < 0 || index > len(stored) {
		index = len(stored)
	}

	order := make([]int64, 0, len(stored)+len(tasks))
	order = append(order, stored[:index]...)
	for _, t := range tasks {
		if err := insertTask(ctx, tx, t, 0); err != nil {
			return err
		}
		order = append(order, t.ID)
	}
	order = append(order, stored[index:]...)

	for i, id := range order {
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET position = ? WHERE id = ?`, i, id); err != nil {
			return fmt.Errorf("ordering task %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertTask(ctx context.Context, q querier, t *task.Task, position int) error {
	query := `
		INSERT INTO tasks (
			position, name, planned_duration, adjusted_duration, completed, tag_id,
			paused_elapsed, started_at_minute, started_at_date, pause_gap_minutes,
			actual_duration, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := q.ExecContext(ctx, query,
		position,
		t.Name,
		t.PlannedDuration,
		t.AdjustedDuration,
		t.Completed,
		t.TagID,
		t.PausedElapsed,
		t.StartedAtMinute,
		string(t.StartedAtDate),
		t.PauseGapMinutes,
		t.ActualDuration,
		createdAt(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task %q: %w", t.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	t.ID = id

	return nil
}

// GetTask retrieves a task by ID with its segments and pauses.
func (s *SQLite) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	row := s.db.QueryRowContext(ctx, selectTasks+` WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}

	tasks := []task.Task{*t}
	if err := loadHistory(ctx, s.db, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// ListTasks returns every task in backlog order.
func (s *SQLite) ListTasks(ctx context.Context) ([]task.Task, error) {
	return listTasks(ctx, s.db)
}

// DeleteTask removes a task and its history. A running task is stopped.
func (s *SQLite) DeleteTask(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return task.ErrTaskNotFound
	}
	if err := deleteHistory(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE timer SET active_task_id = NULL WHERE active_task_id = ?`, id); err != nil {
		return fmt.Errorf("clearing timer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LoadBacklog returns the stored backlog with its running task.
func (s *SQLite) LoadBacklog(ctx context.Context) (*task.Backlog, error) {
	tasks, err := listTasks(ctx, s.db)
	if err != nil {
		return nil, err
	}
	active, err := activeTaskID(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return task.NewBacklog(tasks, active), nil
}

// SaveBacklog writes every task of b in order, drops stored tasks b no
// longer holds and records the running task, all in one transaction.
func (s *SQLite) SaveBacklog(ctx context.Context, b *task.Backlog) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid backlog: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The open pause may move between tasks; clear it before rewriting.
	if _, err := tx.ExecContext(ctx, `DELETE FROM pauses WHERE is_open = 1`); err != nil {
		return fmt.Errorf("clearing open pause: %w", err)
	}

	keep := make(map[int64]bool, b.Len())
	for i, t := range b.Tasks() {
		if t.ID == 0 {
			return fmt.Errorf("saving task %q: task has no id", t.Name)
		}
		keep[t.ID] = true
		if err := upsertTask(ctx, tx, t, i); err != nil {
			return err
		}
	}

	stored, err := taskIDs(ctx, tx)
	if err != nil {
		return err
	}
	for _, id := range stored {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting task %d: %w", id, err)
		}
		if err := deleteHistory(ctx, tx, id); err != nil {
			return err
		}
	}

	if err := setActiveTaskID(ctx, tx, b.ActiveID()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const selectTasks = `
	SELECT id, name, planned_duration, adjusted_duration, completed, tag_id,
	       paused_elapsed, started_at_minute, started_at_date, pause_gap_minutes,
	       actual_duration, created_at
	FROM tasks`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*task.Task, error) {
	var (
		t         task.Task
		adjusted  sql.NullInt64
		tagID     sql.NullInt64
		startedAt sql.NullInt64
		actual    sql.NullInt64
		startDate string
		created   sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.PlannedDuration,
		&adjusted,
		&t.Completed,
		&tagID,
		&t.PausedElapsed,
		&startedAt,
		&startDate,
		&t.PauseGapMinutes,
		&actual,
		&created,
	)
	if err != nil {
		return nil, err
	}

	t.AdjustedDuration = intPtr(adjusted)
	t.StartedAtMinute = intPtr(startedAt)
	t.ActualDuration = intPtr(actual)
	if tagID.Valid {
		t.TagID = &tagID.Int64
	}
	t.StartedAtDate = dateutil.Date(startDate)
	if created.Valid {
		t.CreatedAt, err = time.Parse(time.RFC3339, created.String)
		if err != nil {
			return nil, fmt.Errorf("parsing created at: %w", err)
		}
	}
	return &t, nil
}

func listTasks(ctx context.Context, q querier) ([]task.Task, error) {
	rows, err := q.QueryContext(ctx, selectTasks+` ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	if err := loadHistory(ctx, q, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// loadHistory fills the work segments and pauses of tasks in place.
func loadHistory(ctx context.Context, q querier, tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[int64]*task.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	rows, err := q.QueryContext(ctx, `
		SELECT task_id, date, start_minute, end_minute
		FROM work_segments
		ORDER BY task_id, seq
	`)
	if err != nil {
		return fmt.Errorf("querying work segments: %w", err)
	}
	for rows.Next() {
		var (
			id   int64
			date string
			seg  task.WorkSegment
		)
		if err := rows.Scan(&id, &date, &seg.Start, &seg.End); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning work segment: %w", err)
		}
		if t, ok := byID[id]; ok {
			seg.Date = dateutil.Date(date)
			t.WorkSegments = append(t.WorkSegments, seg)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating work segments: %w", err)
	}
	_ = rows.Close()

	rows, err = q.QueryContext(ctx, `
		SELECT task_id, date, start_minute, end_minute
		FROM pauses
		ORDER BY task_id, seq
	`)
	if err != nil {
		return fmt.Errorf("querying pauses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id    int64
			date  string
			start int
			end   sql.NullInt64
		)
		if err := rows.Scan(&id, &date, &start, &end); err != nil {
			return fmt.Errorf("scanning pause: %w", err)
		}
		t, ok := byID[id]
		if !ok {
			continue
		}
		if end.Valid {
			t.Pauses = append(t.Pauses, task.PauseSpan{Start: start, End: int(end.Int64), Date: dateutil.Date(date)})
		} else {
			t.Paused = &task.OpenPause{Start: start, Date: dateutil.Date(date)}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating pauses: %w", err)
	}
	return nil
}

// upsertTask writes t at position, replacing its stored history.
func upsertTask(ctx context.Context, q querier, t task.Task, position int) error {
	query := `
		INSERT INTO tasks (
			id, position, name, planned_duration, adjusted_duration, completed, tag_id,
			paused_elapsed, started_at_minute, started_at_date, pause_gap_minutes,
			actual_duration, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position          = excluded.position,
			name              = excluded.name,
			planned_duration  = excluded.planned_duration,
			adjusted_duration = excluded.adjusted_duration,
			completed         = excluded.completed,
			tag_id            = excluded.tag_id,
			paused_elapsed    = excluded.paused_elapsed,
			started_at_minute = excluded.started_at_minute,
			started_at_date   = excluded.started_at_date,
			pause_gap_minutes = excluded.pause_gap_minutes,
			actual_duration   = excluded.actual_duration
	`

	_, err := q.ExecContext(ctx, query,
		t.ID,
		position,
		t.Name,
		t.PlannedDuration,
		t.AdjustedDuration,
		t.Completed,
		t.TagID,
		t.PausedElapsed,
		t.StartedAtMinute,
		string(t.StartedAtDate),
		t.PauseGapMinutes,
		t.ActualDuration,
		createdAt(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving task %d: %w", t.ID, err)
	}

	if err := deleteHistory(ctx, q, t.ID); err != nil {
		return err
	}

	for i, seg := range t.WorkSegments {
		_, err := q.ExecContext(ctx,
			`INSERT INTO work_segments (task_id, seq, date, start_minute, end_minute) VALUES (?, ?, ?, ?, ?)`,
			t.ID, i, string(seg.Date), seg.Start, seg.End,
		)
		if err != nil {
			return fmt.Errorf("saving work segment of task %d: %w", t.ID, err)
		}
	}

	seq := 0
	for _, p := range t.Pauses {
		_, err := q.ExecContext(ctx,
			`INSERT INTO pauses (task_id, seq, date, start_minute, end_minute, is_open) VALUES (?, ?, ?, ?, ?, 0)`,
			t.ID, seq, string(p.Date), p.Start, p.End,
		)
		if err != nil {
			return fmt.Errorf("saving pause of task %d: %w", t.ID, err)
		}
		seq++
	}
	if t.Paused != nil {
		_, err := q.ExecContext(ctx,
			`INSERT INTO pauses (task_id, seq, date, start_minute, end_minute, is_open) VALUES (?, ?, ?, ?, NULL, 1)`,
			t.ID, seq, string(t.Paused.Date), t.Paused.Start,
		)
		if err != nil {
			return fmt.Errorf("saving open pause of task %d: %w", t.ID, err)
		}
	}
	return nil
}

func deleteHistory(ctx context.Context, q querier, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM work_segments WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("deleting work segments of task %d: %w", id, err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM pauses WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("deleting pauses of task %d: %w", id, err)
	}
	return nil
}

func taskIDs(ctx context.Context, q querier) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM tasks ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying task ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning task id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func activeTaskID(ctx context.Context, q querier) (*int64, error) {
	var id sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT active_task_id FROM timer WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying timer: %w", err)
	}
	if !id.Valid {
		return nil, nil
	}
	return &id.Int64, nil
}

func setActiveTaskID(ctx context.Context, q querier, id *int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO timer (id, active_task_id) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET active_task_id = excluded.active_task_id
	`, id)
	if err != nil {
		return fmt.Errorf("saving timer: %w", err)
	}
	return nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func createdAt(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(time.RFC3339)
}
