// Package snapshot converts the stored state to and from the portable sync
// payload used by export and import.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/dayplan/internal/config"
	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

// Version is the payload version written by this build.
const Version = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported payload version")
	ErrInvalidPayload     = errors.New("invalid payload")
)

// Payload is the complete portable state.
type Payload struct {
	Version      int       `json:"version" yaml:"version"`
	Tasks        []Task    `json:"tasks" yaml:"tasks"`
	Events       []Event   `json:"events" yaml:"events"`
	Tags         []Tag     `json:"tags" yaml:"tags"`
	Settings     Settings  `json:"settings" yaml:"settings"`
	ActiveTaskID *int64    `json:"activeTaskId" yaml:"activeTaskId"`
	PushedAt     time.Time `json:"pushedAt" yaml:"pushedAt"`
}

// Task is the wire form of a task. Pauses carry a nullable end; the one
// without an end is the open pause.
type Task struct {
	ID               int64     `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Duration         int       `json:"duration" yaml:"duration"`
	AdjustedDuration *int      `json:"adjustedDuration" yaml:"adjustedDuration"`
	Completed        bool      `json:"completed" yaml:"completed"`
	TagID            *int64    `json:"tagId" yaml:"tagId"`
	PausedElapsed    int       `json:"pausedElapsed" yaml:"pausedElapsed"`
	StartedAtMin     *int      `json:"startedAtMin" yaml:"startedAtMin"`
	StartedAtDate    string    `json:"startedAtDate,omitempty" yaml:"startedAtDate,omitempty"`
	PausedAtMin      *int      `json:"pausedAtMin" yaml:"pausedAtMin"`
	PauseGapMinutes  int       `json:"pauseGapMinutes" yaml:"pauseGapMinutes"`
	WorkSegments     []Segment `json:"workSegments,omitempty" yaml:"workSegments,omitempty"`
	PauseEvents      []Pause   `json:"pauseEvents,omitempty" yaml:"pauseEvents,omitempty"`
	ActualDuration   *int      `json:"actualDuration" yaml:"actualDuration"`
}

// Segment is a worked span.
type Segment struct {
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	Date  string `json:"date" yaml:"date"`
}

// Pause is a pause span; End is nil while the pause is open.
type Pause struct {
	Start int    `json:"start" yaml:"start"`
	End   *int   `json:"end" yaml:"end"`
	Date  string `json:"date" yaml:"date"`
}

// Event is the wire form of an event.
type Event struct {
	ID     int64  `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Date   string `json:"date" yaml:"date"`
	Start  string `json:"start" yaml:"start"`
	End    string `json:"end" yaml:"end"`
	TagID  *int64 `json:"tagId" yaml:"tagId"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	UID    string `json:"uid,omitempty" yaml:"uid,omitempty"`
}

// Tag is the wire form of a tag.
type Tag struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Settings holds the synced preferences. The debug fields are local-only:
// Build leaves them empty and MergeSettings ignores them.
type Settings struct {
	WorkdayStart             string `json:"workdayStart" yaml:"workdayStart"`
	WorkdayEnd               string `json:"workdayEnd" yaml:"workdayEnd"`
	ExtendedStart            string `json:"extendedStart" yaml:"extendedStart"`
	ExtendedEnd              string `json:"extendedEnd" yaml:"extendedEnd"`
	UseExtendedHours         bool   `json:"useExtendedHours" yaml:"useExtendedHours"`
	RestrictTasksToWorkHours bool   `json:"restrictTasksToWorkHours" yaml:"restrictTasksToWorkHours"`
	MinFragmentMinutes       int    `json:"minFragmentMinutes" yaml:"minFragmentMinutes"`
	AutoStartNext            bool   `json:"autoStartNext" yaml:"autoStartNext"`
	DebugMode                bool   `json:"debugMode,omitempty" yaml:"debugMode,omitempty"`
	DebugTimeOffset          int    `json:"debugTimeOffset,omitempty" yaml:"debugTimeOffset,omitempty"`
}

// shared returns s without its local-only fields.
func (s Settings) shared() Settings {
	s.DebugMode = false
	s.DebugTimeOffset = 0
	return s
}

// Build assembles a payload from the stored state and the synced part of cfg.
func Build(snap *task.Snapshot, cfg *config.Config, pushedAt time.Time) *Payload {
	p := &Payload{
		Version:  Version,
		Tasks:    make([]Task, 0, len(snap.Tasks)),
		Events:   make([]Event, 0, len(snap.Events)),
		Tags:     make([]Tag, 0, len(snap.Tags)),
		Settings: settingsOf(cfg),
		PushedAt: pushedAt.UTC().Truncate(time.Second),
	}
	if snap.ActiveTaskID != nil {
		id := *snap.ActiveTaskID
		p.ActiveTaskID = &id
	}
	for _, t := range snap.Tasks {
		p.Tasks = append(p.Tasks, wireTask(t))
	}
	for _, e := range snap.Events {
		p.Events = append(p.Events, Event{
			ID: e.ID, Name: e.Name, Date: string(e.Date), Start: e.Start, End: e.End,
			TagID: e.TagID, Source: e.Source, UID: e.UID,
		})
	}
	for _, t := range snap.Tags {
		p.Tags = append(p.Tags, Tag{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	return p
}

func settingsOf(cfg *config.Config) Settings {
	s := cfg.Schedule
	return Settings{
		WorkdayStart:             s.WorkdayStart,
		WorkdayEnd:               s.WorkdayEnd,
		ExtendedStart:            s.ExtendedStart,
		ExtendedEnd:              s.ExtendedEnd,
		UseExtendedHours:         s.UseExtendedHours,
		RestrictTasksToWorkHours: s.RestrictTasksToWorkHours,
		MinFragmentMinutes:       s.MinFragmentMinutes,
		AutoStartNext:            s.AutoStartNext,
	}
}

func wireTask(t task.Task) Task {
	w := Task{
		ID:               t.ID,
		Name:             t.Name,
		Duration:         t.PlannedDuration,
		AdjustedDuration: t.AdjustedDuration,
		Completed:        t.Completed,
		TagID:            t.TagID,
		PausedElapsed:    t.PausedElapsed,
		StartedAtMin:     t.StartedAtMinute,
		StartedAtDate:    string(t.StartedAtDate),
		PausedAtMin:      t.PausedAtMinute(),
		PauseGapMinutes:  t.PauseGapMinutes,
		ActualDuration:   t.ActualDuration,
	}
	for _, s := range t.WorkSegments {
		w.WorkSegments = append(w.WorkSegments, Segment{Start: s.Start, End: s.End, Date: string(s.Date)})
	}
	for _, p := range t.Pauses {
		end := p.End
		w.PauseEvents = append(w.PauseEvents, Pause{Start: p.Start, End: &end, Date: string(p.Date)})
	}
	if t.Paused != nil {
		w.PauseEvents = append(w.PauseEvents, Pause{Start: t.Paused.Start, Date: string(t.Paused.Date)})
	}
	return w
}

// Snapshot converts p to the stored form. It rejects malformed entries and
// payloads holding more than one open pause.
func (p *Payload) Snapshot() (*task.Snapshot, error) {
	if p.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, p.Version)
	}

	snap := &task.Snapshot{
		Tasks:  make([]task.Task, 0, len(p.Tasks)),
		Events: make([]task.Event, 0, len(p.Events)),
		Tags:   make([]task.Tag, 0, len(p.Tags)),
	}
	if p.ActiveTaskID != nil {
		id := *p.ActiveTaskID
		snap.ActiveTaskID = &id
	}

	for _, w := range p.Tasks {
		t, err := w.domain()
		if err != nil {
			return nil, fmt.Errorf("%w: task %d: %w", ErrInvalidPayload, w.ID, err)
		}
		snap.Tasks = append(snap.Tasks, t)
	}
	for _, w := range p.Events {
		if !dateutil.Date(w.Date).Valid() || !dateutil.ValidTime(w.Start) || !dateutil.ValidTime(w.End) {
			return nil, fmt.Errorf("%w: event %d: bad date or time", ErrInvalidPayload, w.ID)
		}
		snap.Events = append(snap.Events, task.Event{
			ID: w.ID, Name: w.Name, Date: dateutil.Date(w.Date), Start: w.Start, End: w.End,
			TagID: w.TagID, Source: w.Source, UID: w.UID,
		})
	}
	for _, w := range p.Tags {
		snap.Tags = append(snap.Tags, task.Tag{ID: w.ID, Name: w.Name, Color: w.Color})
	}

	if err := task.NewBacklog(snap.Tasks, snap.ActiveTaskID).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return snap, nil
}

func (w Task) domain() (task.Task, error) {
	t := task.Task{
		ID:               w.ID,
		Name:             w.Name,
		PlannedDuration:  w.Duration,
		AdjustedDuration: w.AdjustedDuration,
		Completed:        w.Completed,
		TagID:            w.TagID,
		PausedElapsed:    w.PausedElapsed,
		StartedAtMinute:  w.StartedAtMin,
		StartedAtDate:    dateutil.Date(w.StartedAtDate),
		PauseGapMinutes:  w.PauseGapMinutes,
		ActualDuration:   w.ActualDuration,
	}
	if t.Name == "" {
		return t, task.ErrEmptyName
	}
	if t.PlannedDuration <= 0 {
		return t, task.ErrInvalidDuration
	}

	for _, s := range w.WorkSegments {
		t.WorkSegments = append(t.WorkSegments, task.WorkSegment{Start: s.Start, End: s.End, Date: dateutil.Date(s.Date)})
	}
	for _, p := range w.PauseEvents {
		if p.End != nil {
			t.Pauses = append(t.Pauses, task.PauseSpan{Start: p.Start, End: *p.End, Date: dateutil.Date(p.Date)})
			continue
		}
		if t.Paused != nil {
			return t, task.ErrMultipleOpenPauses
		}
		t.Paused = &task.OpenPause{Start: p.Start, Date: dateutil.Date(p.Date)}
	}
	// Older payloads only carry pausedAtMin.
	if t.Paused == nil && w.PausedAtMin != nil && !w.Completed {
		t.Paused = &task.OpenPause{Start: *w.PausedAtMin, Date: t.StartedAtDate}
	}
	return t, nil
}

// MergeSettings returns a copy of local with the synced settings of remote
// applied. Local-only settings (debug, storage, import, ui) are kept.
func MergeSettings(local *config.Config, remote Settings) *config.Config {
	merged := *local
	merged.Import.ExcludeCategories = append([]string(nil), local.Import.ExcludeCategories...)

	s := &merged.Schedule
	s.WorkdayStart = remote.WorkdayStart
	s.WorkdayEnd = remote.WorkdayEnd
	s.ExtendedStart = remote.ExtendedStart
	s.ExtendedEnd = remote.ExtendedEnd
	s.UseExtendedHours = remote.UseExtendedHours
	s.RestrictTasksToWorkHours = remote.RestrictTasksToWorkHours
	s.MinFragmentMinutes = remote.MinFragmentMinutes
	s.AutoStartNext = remote.AutoStartNext
	return &merged
}

// HasChanges reports whether remote differs from local in anything but the
// push time and local-only settings.
func HasChanges(local, remote *Payload) bool {
	pairs := [][2]any{
		{local.Tasks, remote.Tasks},
		{local.Events, remote.Events},
		{local.Tags, remote.Tags},
		{local.ActiveTaskID, remote.ActiveTaskID},
		{local.Settings.shared(), remote.Settings.shared()},
	}
	for _, pair := range pairs {
		a, errA := json.Marshal(pair[0])
		b, errB := json.Marshal(pair[1])
		if errA != nil || errB != nil || !bytes.Equal(a, b) {
			return true
		}
	}
	return false
}
