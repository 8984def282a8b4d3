// Package task defines the core domain types for dayplan.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/dayplan/internal/dateutil"
)

// MinDuration is the smallest plannable task length in minutes.
const MinDuration = 5

// Validation errors.
var (
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrInvalidDuration   = fmt.Errorf("duration must be at least %d minutes", MinDuration)
	ErrInvalidTimeFormat = errors.New("time must be in HH:MM format")
	ErrEndBeforeStart    = errors.New("end time must be after start time")
	ErrInvalidColor      = errors.New("color must be in #RRGGBB format")
)

// Domain errors.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrNoActiveTask       = errors.New("no task is running")
	ErrTaskCompleted      = errors.New("task is already completed")
	ErrTaskNotCompleted   = errors.New("task is not completed")
	ErrNoIncompleteTask   = errors.New("no incomplete task to start")
	ErrMultipleOpenPauses = errors.New("more than one open pause")
	ErrInvalidPause       = errors.New("open pause on a running or completed task")
	ErrUnknownTag         = errors.New("tag does not exist")
)

// WorkSegment is a closed span of minutes during which a task was worked.
type WorkSegment struct {
	Start int
	End   int
	Date  dateutil.Date
}

// Duration returns the segment length in minutes, never negative.
func (w WorkSegment) Duration() int {
	return max(0, w.End-w.Start)
}

// PauseSpan is a finished pause.
type PauseSpan struct {
	Start int
	End   int
	Date  dateutil.Date
}

// OpenPause is a pause that is still growing.
type OpenPause struct {
	Start int
	Date  dateutil.Date
}

// Close ends the pause at end.
func (p OpenPause) Close(end int) PauseSpan {
	return PauseSpan{Start: p.Start, End: max(p.Start, end), Date: p.Date}
}

// Task is one backlog item. Its position in the backlog is its priority.
type Task struct {
	ID               int64
	Name             string
	PlannedDuration  int
	AdjustedDuration *int
	Completed        bool
	TagID            *int64

	// Timer state. PausedElapsed is the worked time frozen at the last pause,
	// PauseGapMinutes the total length of finished pauses.
	PausedElapsed   int
	StartedAtMinute *int
	StartedAtDate   dateutil.Date
	PauseGapMinutes int
	WorkSegments    []WorkSegment
	Pauses          []PauseSpan
	Paused          *OpenPause
	ActualDuration  *int

	CreatedAt time.Time
}

// New creates a new Task with validation.
func New(name string, duration int) (*Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if duration < MinDuration {
		return nil, ErrInvalidDuration
	}
	return &Task{
		Name:            name,
		PlannedDuration: duration,
		CreatedAt:       time.Now(),
	}, nil
}

// EffectiveDuration returns the adjusted duration if set, the planned one otherwise.
// The result is never below MinDuration.
func (t Task) EffectiveDuration() int {
	d := t.PlannedDuration
	if t.AdjustedDuration != nil {
		d = *t.AdjustedDuration
	}
	return max(MinDuration, d)
}

// IsStarted reports whether the task has run at least once.
func (t Task) IsStarted() bool {
	return t.StartedAtMinute != nil
}

// IsPaused reports whether the task has an open pause.
func (t Task) IsPaused() bool {
	return t.Paused != nil
}

// PausedAtMinute returns the start of the open pause, if any.
func (t Task) PausedAtMinute() *int {
	if t.Paused == nil {
		return nil
	}
	m := t.Paused.Start
	return &m
}

// Elapsed returns the worked minutes of a running task at now on today.
// Paused tasks report the time frozen at the pause.
func (t Task) Elapsed(now int, today dateutil.Date) int {
	if t.StartedAtMinute == nil {
		return 0
	}
	if t.Paused != nil {
		return t.PausedElapsed
	}
	return max(0, t.sinceStart(now, today)-t.PauseGapMinutes)
}

// WorkedMinutes sums the recorded work segments.
func (t Task) WorkedMinutes() int {
	total := 0
	for _, s := range t.WorkSegments {
		total += s.Duration()
	}
	return total
}

// sinceStart returns the wall minutes between the first start and now,
// counting whole days when the task was started on an earlier date.
func (t Task) sinceStart(now int, today dateutil.Date) int {
	if t.StartedAtMinute == nil {
		return 0
	}
	start := *t.StartedAtMinute
	if t.StartedAtDate != "" && t.StartedAtDate.Before(today) {
		if days, err := dateutil.DaysBetween(t.StartedAtDate, today); err == nil {
			start -= (len(days) - 1) * dateutil.MinutesPerDay
		}
	}
	return now - start
}

// resetProgress returns the task to its never-started state.
func (t *Task) resetProgress() {
	t.StartedAtMinute = nil
	t.StartedAtDate = ""
	t.PausedElapsed = 0
	t.PauseGapMinutes = 0
	t.WorkSegments = nil
	t.Pauses = nil
	t.Paused = nil
}

// Event is a fixed-time calendar entry.
type Event struct {
	ID     int64
	Name   string
	Date   dateutil.Date
	Start  string // "HH:MM"
	End    string // "HH:MM"
	TagID  *int64
	Source string // "" for manual events, "ics" for imported ones
	UID    string
}

// NewEvent creates a new Event with validation.
// date can be empty (defaults to today) or in YYYY-MM-DD format.
func NewEvent(name, date, start, end string) (*Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	d, err := dateutil.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if !dateutil.ValidTime(start) {
		return nil, fmt.Errorf("start time: %w", ErrInvalidTimeFormat)
	}
	if !dateutil.ValidTime(end) {
		return nil, fmt.Errorf("end time: %w", ErrInvalidTimeFormat)
	}
	if end <= start {
		return nil, ErrEndBeforeStart
	}
	return &Event{Name: name, Date: d, Start: start, End: end}, nil
}

// StartMinute returns the event start in minutes since midnight.
func (e Event) StartMinute() int {
	return dateutil.TimeToMinutes(e.Start)
}

// EndMinute returns the event end in minutes since midnight.
func (e Event) EndMinute() int {
	return dateutil.TimeToMinutes(e.End)
}

// Tag is a named color label shared by tasks and events.
type Tag struct {
	ID    int64
	Name  string
	Color string // "#RRGGBB"
}

// NewTag creates a new Tag with validation.
func NewTag(name, color string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !validColor(color) {
		return nil, ErrInvalidColor
	}
	return &Tag{Name: name, Color: strings.ToLower(color)}, nil
}

func validColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
