package task

import (
	"errors"
	"slices"

	"github.com/javiermolinar/dayplan/internal/dateutil"
)

// Backlog is the ordered task list. Order is priority and only changes
// through Append, InsertAt, Move and Remove.
//
// Backlog also drives the timer: at most one task runs at a time and at
// most one task carries an open pause.
type Backlog struct {
	tasks    []Task
	activeID *int64
}

// NewBacklog wraps tasks, already in priority order, with the running task id.
func NewBacklog(tasks []Task, activeID *int64) *Backlog {
	b := &Backlog{tasks: slices.Clone(tasks)}
	if activeID != nil {
		id := *activeID
		b.activeID = &id
	}
	return b
}

// Tasks returns a copy of the tasks in priority order.
func (b *Backlog) Tasks() []Task {
	return slices.Clone(b.tasks)
}

// Len returns the number of tasks.
func (b *Backlog) Len() int {
	return len(b.tasks)
}

// ActiveID returns the id of the running task, or nil.
func (b *Backlog) ActiveID() *int64 {
	if b.activeID == nil {
		return nil
	}
	id := *b.activeID
	return &id
}

// Active returns the running task.
func (b *Backlog) Active() (Task, bool) {
	if b.activeID == nil {
		return Task{}, false
	}
	i := b.index(*b.activeID)
	if i < 0 {
		return Task{}, false
	}
	return b.tasks[i], true
}

func (b *Backlog) index(id int64) int {
	return slices.IndexFunc(b.tasks, func(t Task) bool { return t.ID == id })
}

func (b *Backlog) isActive(id int64) bool {
	return b.activeID != nil && *b.activeID == id
}

// Get returns the task with id.
func (b *Backlog) Get(id int64) (Task, error) {
	i := b.index(id)
	if i < 0 {
		return Task{}, ErrTaskNotFound
	}
	return b.tasks[i], nil
}

// Update replaces the stored task with the same id.
func (b *Backlog) Update(t Task) error {
	i := b.index(t.ID)
	if i < 0 {
		return ErrTaskNotFound
	}
	b.tasks[i] = t
	return nil
}

// Append adds t at the lowest priority.
func (b *Backlog) Append(t Task) {
	b.tasks = append(b.tasks, t)
}

// InsertAt adds t at index, clamped to the list bounds.
func (b *Backlog) InsertAt(t Task, index int) {
	index = min(max(index, 0), len(b.tasks))
	b.tasks = slices.Insert(b.tasks, index, t)
}

// Move relocates the task with id to index, clamped to the list bounds.
// The relative order of every other task is unchanged.
func (b *Backlog) Move(id int64, index int) error {
	i := b.index(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	t := b.tasks[i]
	b.tasks = slices.Delete(b.tasks, i, i+1)
	b.InsertAt(t, index)
	return nil
}

// Remove deletes the task with id. Removing the running task stops the timer.
func (b *Backlog) Remove(id int64) error {
	i := b.index(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	if b.isActive(id) {
		b.activeID = nil
	}
	b.tasks = slices.Delete(b.tasks, i, i+1)
	return nil
}

// Incomplete returns the tasks not yet completed, in priority order.
func (b *Backlog) Incomplete() []Task {
	var out []Task
	for _, t := range b.tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// FirstIncomplete returns the highest-priority task not yet completed.
func (b *Backlog) FirstIncomplete() (Task, bool) {
	for _, t := range b.tasks {
		if !t.Completed {
			return t, true
		}
	}
	return Task{}, false
}

// Validate checks the timer invariants: the running task exists and is not
// completed, no running or completed task is paused, and at most one pause
// is open.
func (b *Backlog) Validate() error {
	if b.activeID != nil {
		t, err := b.Get(*b.activeID)
		if err != nil {
			return err
		}
		if t.Completed {
			return ErrTaskCompleted
		}
	}
	open := 0
	for _, t := range b.tasks {
		if t.Paused == nil {
			continue
		}
		open++
		if t.Completed || b.isActive(t.ID) {
			return ErrInvalidPause
		}
	}
	if open > 1 {
		return ErrMultipleOpenPauses
	}
	return nil
}

// Elapsed returns the running task's worked minutes, or 0 when idle.
func (b *Backlog) Elapsed(now int, today dateutil.Date) int {
	t, ok := b.Active()
	if !ok {
		return 0
	}
	return t.Elapsed(now, today)
}

// Adjust overrides the duration of task id. Values below MinDuration are raised.
func (b *Backlog) Adjust(id int64, minutes int) error {
	i := b.index(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	d := max(MinDuration, minutes)
	b.tasks[i].AdjustedDuration = &d
	return nil
}

// Start runs task id. A different running task is paused first, and any
// other open pause is closed so only the started task's history stays open.
// Starting the running task is a no-op.
func (b *Backlog) Start(id int64, now int, today dateutil.Date) error {
	i := b.index(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	if b.tasks[i].Completed {
		return ErrTaskCompleted
	}
	if b.isActive(id) {
		return nil
	}
	if b.activeID != nil {
		if err := b.Pause(now, today); err != nil {
			return err
		}
	}
	for j := range b.tasks {
		if j != i {
			b.tasks[j].closePause(now)
		}
	}

	t := &b.tasks[i]
	if t.StartedAtMinute == nil {
		start := now
		t.StartedAtMinute = &start
		t.StartedAtDate = today
		t.PausedElapsed = 0
		t.PauseGapMinutes = 0
	} else {
		t.closePause(now)
		// Everything since the first start that was not worked is gap.
		t.PauseGapMinutes = max(0, t.sinceStart(now, today)-t.PausedElapsed)
	}
	active := t.ID
	b.activeID = &active
	return nil
}

// StartNext runs the highest-priority incomplete task.
func (b *Backlog) StartNext(now int, today dateutil.Date) error {
	next, ok := b.FirstIncomplete()
	if !ok {
		return ErrNoIncompleteTask
	}
	return b.Start(next.ID, now, today)
}

// Resume restarts the paused task, or the highest-priority incomplete task
// when nothing is paused.
func (b *Backlog) Resume(now int, today dateutil.Date) error {
	for _, t := range b.tasks {
		if t.IsPaused() && !t.Completed {
			return b.Start(t.ID, now, today)
		}
	}
	return b.StartNext(now, today)
}

// Pause stops the running task: the current run becomes a work segment and
// an open pause starts at now.
func (b *Backlog) Pause(now int, today dateutil.Date) error {
	if b.activeID == nil {
		return ErrNoActiveTask
	}
	i := b.index(*b.activeID)
	if i < 0 {
		return ErrTaskNotFound
	}
	t := &b.tasks[i]
	elapsed := t.Elapsed(now, today)
	t.appendRun(now, today, elapsed)
	t.PausedElapsed = elapsed
	t.Paused = &OpenPause{Start: now, Date: today}
	b.activeID = nil
	return nil
}

// Complete finishes the running task, freezing its actual duration.
// With autoStartNext the next incomplete task starts at now.
func (b *Backlog) Complete(now int, today dateutil.Date, autoStartNext bool) error {
	if b.activeID == nil {
		return ErrNoActiveTask
	}
	i := b.index(*b.activeID)
	if i < 0 {
		return ErrTaskNotFound
	}
	t := &b.tasks[i]
	elapsed := t.Elapsed(now, today)
	t.appendRun(now, today, elapsed)
	t.finish(elapsed)
	b.activeID = nil

	if autoStartNext {
		if err := b.StartNext(now, today); err != nil && !errors.Is(err, ErrNoIncompleteTask) {
			return err
		}
	}
	return nil
}

// MarkDone completes task id whether or not it is running. A task that is
// not running keeps its recorded segments and reports their total as its
// actual duration.
func (b *Backlog) MarkDone(id int64, now int, today dateutil.Date, autoStartNext bool) error {
	if b.isActive(id) {
		return b.Complete(now, today, autoStartNext)
	}
	i := b.index(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	t := &b.tasks[i]
	if t.Completed {
		return ErrTaskCompleted
	}
	t.finish(t.WorkedMinutes())
	return nil
}

// Reopen returns a completed task to the backlog with its progress cleared.
func (b *Backlog) Reopen(id int64) error {
	i := b.index(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	t := &b.tasks[i]
	if !t.Completed {
		return ErrTaskNotCompleted
	}
	t.Completed = false
	t.ActualDuration = nil
	t.resetProgress()
	return nil
}

// Cancel stops the running task and discards all of its progress.
func (b *Backlog) Cancel() error {
	if b.activeID == nil {
		return ErrNoActiveTask
	}
	i := b.index(*b.activeID)
	if i < 0 {
		return ErrTaskNotFound
	}
	b.tasks[i].resetProgress()
	b.activeID = nil
	return nil
}

// appendRun records the current run, which started elapsed-PausedElapsed
// minutes before now.
func (t *Task) appendRun(now int, today dateutil.Date, elapsed int) {
	start := max(0, now-(elapsed-t.PausedElapsed))
	if now > start {
		t.WorkSegments = append(t.WorkSegments, WorkSegment{Start: start, End: now, Date: today})
	}
}

// closePause finishes an open pause at now. Empty pauses leave no trace.
func (t *Task) closePause(now int) {
	if t.Paused == nil {
		return
	}
	if span := t.Paused.Close(now); span.End > span.Start {
		t.Pauses = append(t.Pauses, span)
	}
	t.Paused = nil
}

func (t *Task) finish(actual int) {
	t.Completed = true
	t.ActualDuration = &actual
	t.PausedElapsed = 0
	t.Paused = nil
	t.Pauses = nil
}
