package task

import (
	"context"

	"github.com/javiermolinar/dayplan/internal/dateutil"
)

// Snapshot is the complete stored state: the backlog in priority order,
// every event, every tag and the running task.
type Snapshot struct {
	Tasks        []Task
	Events       []Event
	Tags         []Tag
	ActiveTaskID *int64
}

// Repository defines the storage interface for tasks, events and tags.
type Repository interface {
	// CreateTask appends a new task at the lowest priority.
	CreateTask(ctx context.Context, task *Task) error

	// InsertTasks adds tasks before the task at index in one transaction.
	// A negative index appends.
	InsertTasks(ctx context.Context, tasks []*Task, index int) error

	// GetTask retrieves a task by ID, including its segments and pauses.
	// Returns ErrTaskNotFound if it does not exist.
	GetTask(ctx context.Context, id int64) (*Task, error)

	// ListTasks returns every task in backlog order.
	ListTasks(ctx context.Context) ([]Task, error)

	// SaveBacklog persists every task of b, its order and the running task
	// in one transaction.
	SaveBacklog(ctx context.Context, b *Backlog) error

	// DeleteTask removes a task and its history.
	DeleteTask(ctx context.Context, id int64) error

	// LoadBacklog returns the stored backlog with its running task.
	LoadBacklog(ctx context.Context) (*Backlog, error)

	// CreateEvent adds a new event.
	CreateEvent(ctx context.Context, event *Event) error

	// CreateEvents adds multiple events in a batch.
	CreateEvents(ctx context.Context, events []*Event) error

	// GetEvent retrieves an event by ID. Returns ErrEventNotFound if it
	// does not exist.
	GetEvent(ctx context.Context, id int64) (*Event, error)

	// UpdateEvent rewrites the name, date, times and tag of an event.
	UpdateEvent(ctx context.Context, event *Event) error

	// ListEventsByDateRange returns events within the date range (inclusive),
	// ordered by date and start.
	ListEventsByDateRange(ctx context.Context, start, end dateutil.Date) ([]Event, error)

	// ListEvents returns every stored event.
	ListEvents(ctx context.Context) ([]Event, error)

	// DeleteEvent removes an event. Returns ErrEventNotFound if it does not exist.
	DeleteEvent(ctx context.Context, id int64) error

	// ReplaceEventsBySource swaps every event imported from source for
	// events atomically and returns how many were removed.
	ReplaceEventsBySource(ctx context.Context, source string, events []*Event) (int64, error)

	// CreateTag adds a new tag.
	CreateTag(ctx context.Context, tag *Tag) error

	// ListTags returns every tag ordered by name.
	ListTags(ctx context.Context) ([]Tag, error)

	// Snapshot returns the complete stored state.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// ReplaceAll atomically replaces the complete stored state, keeping IDs.
	ReplaceAll(ctx context.Context, s *Snapshot) error

	// Close releases any resources held by the repository.
	Close() error
}
