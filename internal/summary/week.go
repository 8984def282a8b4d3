// Package summary totals scheduled days into a week overview.
package summary

import (
	"context"
	"fmt"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/scheduler"
	"github.com/javiermolinar/dayplan/internal/task"
)

// DaySummary holds the minute totals of one scheduled day.
type DaySummary struct {
	Date dateutil.Date
	// TaskMinutes is planned work still ahead; CompletedMinutes is work
	// already recorded against completed tasks.
	TaskMinutes      int
	CompletedMinutes int
	EventMinutes     int
	PauseMinutes     int
	// FreeMinutes is the unclaimed part of the task window. Days before
	// today have none.
	FreeMinutes int
	// Tasks names the tasks with planned work on the day, in order.
	Tasks []string
}

// WeekSummary aggregates a range of days.
type WeekSummary struct {
	Start dateutil.Date
	End   dateutil.Date
	Days  []DaySummary

	TaskMinutes      int
	CompletedMinutes int
	EventMinutes     int
	FreeMinutes      int

	// DrainDate is the day the last incomplete task is fully placed, or
	// empty when the backlog outlasts the range.
	DrainDate dateutil.Date
}

// Drained reports whether the backlog runs out within the range.
func (s *WeekSummary) Drained() bool {
	return s.DrainDate != ""
}

// Summarize lays out every day in [from, to] with in and totals the
// results. in.Date is ignored.
func Summarize(in scheduler.Input, from, to dateutil.Date) (*WeekSummary, error) {
	days, err := dateutil.DaysBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("summary range: %w", err)
	}

	last := lastIncomplete(in.Tasks)
	s := &WeekSummary{Start: from, End: to, Days: make([]DaySummary, 0, len(days))}
	for _, date := range days {
		in.Date = date
		blocks := scheduler.ScheduleDay(in)
		ds := summarizeDay(in, blocks)

		s.Days = append(s.Days, ds)
		s.TaskMinutes += ds.TaskMinutes
		s.CompletedMinutes += ds.CompletedMinutes
		s.EventMinutes += ds.EventMinutes
		s.FreeMinutes += ds.FreeMinutes

		if s.DrainDate == "" && (last == nil || placesEnd(blocks, *last)) && !date.Before(in.Today) {
			s.DrainDate = date
		}
	}
	return s, nil
}

// DrainDate returns the day the backlog of in runs out, looking at most
// horizon days past today. It returns "" when the backlog outlasts the horizon.
func DrainDate(in scheduler.Input, horizon int) dateutil.Date {
	last := lastIncomplete(in.Tasks)
	if last == nil {
		return in.Today
	}
	for i := 0; i <= horizon; i++ {
		in.Date = in.Today.AddDays(i)
		if placesEnd(scheduler.ScheduleDay(in), *last) {
			return in.Date
		}
	}
	return ""
}

func lastIncomplete(tasks []task.Task) *int64 {
	for i := len(tasks) - 1; i >= 0; i-- {
		if !tasks[i].Completed {
			id := tasks[i].ID
			return &id
		}
	}
	return nil
}

// placesEnd reports whether blocks hold the final planned fragment of id.
func placesEnd(blocks []scheduler.Block, id int64) bool {
	for _, b := range blocks {
		tb, ok := b.(scheduler.TaskBlock)
		if ok && tb.TaskID == id && !tb.Completed && !tb.ContinuesAfter {
			return true
		}
	}
	return false
}

func summarizeDay(in scheduler.Input, blocks []scheduler.Block) DaySummary {
	ds := DaySummary{Date: in.Date}
	var (
		events []scheduler.Range
		taken  []scheduler.Range
		seen   = make(map[int64]bool)
	)
	for _, b := range blocks {
		base := b.Base()
		r := scheduler.Range{Start: base.Start, End: base.End}
		taken = append(taken, r)

		switch b := b.(type) {
		case scheduler.TaskBlock:
			if b.Completed {
				ds.CompletedMinutes += base.Duration()
				continue
			}
			ds.TaskMinutes += base.Duration()
			if !seen[b.TaskID] {
				seen[b.TaskID] = true
				ds.Tasks = append(ds.Tasks, b.Name)
			}
		case scheduler.EventBlock:
			events = append(events, r)
		case scheduler.PauseBlock:
			ds.PauseMinutes += base.Duration()
		}
	}
	for _, r := range scheduler.Merge(events) {
		ds.EventMinutes += r.Len()
	}

	if in.Date.Before(in.Today) {
		return ds
	}
	window := in.Settings.Windows().Task
	if in.Date == in.Today {
		window.Start = max(window.Start, min(in.Now, window.End))
	}
	for _, g := range scheduler.Gaps(window, taken) {
		ds.FreeMinutes += g.Len()
	}
	return ds
}

// Options configures the repository-backed week summary.
type Options struct {
	// WeekOf is any day of the week to summarize.
	WeekOf   dateutil.Date
	Settings scheduler.Settings
	Today    dateutil.Date
	Now      int
}

// BuildWeekSummary loads the backlog and events and summarizes the ISO week
// containing opts.WeekOf.
func BuildWeekSummary(ctx context.Context, repo task.Repository, opts Options) (*WeekSummary, error) {
	weekOf := opts.WeekOf
	if weekOf == "" {
		weekOf = opts.Today
	}
	start, end := dateutil.WeekRange(weekOf)

	in, _, err := LoadInput(ctx, repo, opts.Settings, start, end, opts.Today, opts.Now)
	if err != nil {
		return nil, err
	}
	return Summarize(in, start, end)
}

// LoadInput reads what ScheduleDay needs to lay out any day in [from, to].
// Events are loaded from today onward as well, since future days depend on
// the free time of every day before them. The returned input is set to from.
func LoadInput(ctx context.Context, repo task.Repository, settings scheduler.Settings, from, to, today dateutil.Date, now int) (scheduler.Input, *task.Backlog, error) {
	backlog, err := repo.LoadBacklog(ctx)
	if err != nil {
		return scheduler.Input{}, nil, fmt.Errorf("loading backlog: %w", err)
	}

	first, last := from, to
	if today.Before(first) {
		first = today
	}
	if today.After(last) {
		last = today
	}
	events, err := repo.ListEventsByDateRange(ctx, first, last)
	if err != nil {
		return scheduler.Input{}, nil, fmt.Errorf("fetching events: %w", err)
	}

	return scheduler.Input{
		Tasks:        backlog.Tasks(),
		Events:       events,
		Settings:     settings,
		ActiveTaskID: backlog.ActiveID(),
		Elapsed:      backlog.Elapsed(now, today),
		Date:         from,
		Today:        today,
		Now:          now,
	}, backlog, nil
}
