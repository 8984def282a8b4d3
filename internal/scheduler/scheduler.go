// Package scheduler lays out one day of tasks and events as a timeline.
//
// ScheduleDay is pure: it never reads the clock, never logs and never fails.
// The caller supplies today's date and the current minute.
package scheduler

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

// DefaultMinFragment replaces a MinFragmentMinutes below 1.
const DefaultMinFragment = 5

// Settings are the scheduling preferences. Times are "HH:MM"; malformed
// values read as midnight.
type Settings struct {
	WorkdayStart             string
	WorkdayEnd               string
	ExtendedStart            string
	ExtendedEnd              string
	UseExtendedHours         bool
	RestrictTasksToWorkHours bool
	MinFragmentMinutes       int
}

// Windows are the minute ranges a day is drawn in and tasks are packed into.
type Windows struct {
	Display Range
	Task    Range
}

// Windows resolves the display and task windows. Without extended hours
// both collapse to the workday.
func (s Settings) Windows() Windows {
	workday := Range{Start: dateutil.TimeToMinutes(s.WorkdayStart), End: dateutil.TimeToMinutes(s.WorkdayEnd)}
	extended := Range{Start: dateutil.TimeToMinutes(s.ExtendedStart), End: dateutil.TimeToMinutes(s.ExtendedEnd)}

	w := Windows{Display: workday, Task: workday}
	if s.UseExtendedHours {
		w.Display = extended
		if !s.RestrictTasksToWorkHours {
			w.Task = extended
		}
	}
	return w
}

// MinFragment returns the smallest mid-task fragment worth emitting.
func (s Settings) MinFragment() int {
	if s.MinFragmentMinutes < 1 {
		return DefaultMinFragment
	}
	return s.MinFragmentMinutes
}

// Input is everything needed to lay out one day.
type Input struct {
	// Tasks in priority order. The order is never changed.
	Tasks        []task.Task
	Events       []task.Event
	Settings     Settings
	ActiveTaskID *int64
	// Elapsed is the worked minutes of the active task.
	Elapsed int
	// Date is the day to lay out.
	Date  dateutil.Date
	Today dateutil.Date
	// Now is minutes since midnight today, debug offset included.
	Now int
}

// ScheduleDay returns the blocks of in.Date sorted by start. Blocks that
// start together keep the order events, tasks, pauses.
// Invalid dates produce no blocks.
func ScheduleDay(in Input) []Block {
	if !in.Date.Valid() || !in.Today.Valid() {
		return nil
	}
	d := newDay(in)

	var out []Block
	for _, b := range d.events {
		out = append(out, b)
	}
	if d.isToday || d.isFuture {
		for _, b := range d.packTasks() {
			out = append(out, b)
		}
	}
	for _, b := range d.history() {
		out = append(out, b)
	}
	if d.isToday {
		for _, b := range d.pauseBlocks() {
			out = append(out, b)
		}
	}

	slices.SortStableFunc(out, func(a, b Block) int {
		return cmp.Compare(a.Base().Start, b.Base().Start)
	})
	return out
}

// day carries the derived state of one ScheduleDay call.
type day struct {
	in       Input
	win      Windows
	isToday  bool
	isFuture bool
	events   []EventBlock

	first    *task.Task
	pauses   []Range // first task's pauses today; an open one ends now
	minFrag  int
	startMin int
}

func newDay(in Input) *day {
	d := &day{
		in:       in,
		win:      in.Settings.Windows(),
		isToday:  in.Date == in.Today,
		isFuture: in.Date.After(in.Today),
		minFrag:  in.Settings.MinFragment(),
	}
	for i := range in.Tasks {
		if !in.Tasks[i].Completed {
			d.first = &in.Tasks[i]
			break
		}
	}
	d.pauses = d.todayPauses()
	d.events = d.eventBlocks()
	d.startMin = d.scheduleStart(d.isFuture)
	return d
}

func (d *day) eventBlocks() []EventBlock {
	var blocks []EventBlock
	for _, e := range d.in.Events {
		if e.Date != d.in.Date {
			continue
		}
		start, end := e.StartMinute(), e.EndMinute()
		if end <= start || start >= d.win.Display.End || end <= d.win.Display.Start {
			continue
		}
		past := !d.isFuture
		if d.isToday {
			past = end <= d.in.Now
		}
		blocks = append(blocks, EventBlock{
			BlockBase: BlockBase{
				ID:    fmt.Sprintf("event-%d", e.ID),
				Name:  e.Name,
				Start: start,
				End:   end,
				Past:  past,
				TagID: e.TagID,
			},
			EventID: e.ID,
		})
	}
	slices.SortStableFunc(blocks, func(a, b EventBlock) int { return cmp.Compare(a.Start, b.Start) })

	ranges := make([]Range, len(blocks))
	for i, b := range blocks {
		ranges[i] = Range{Start: b.Start, End: b.End}
	}
	for i, p := range AssignColumns(ranges) {
		blocks[i].Column = p.Column
		blocks[i].TotalColumns = p.TotalColumns
	}
	return blocks
}

// onToday reports whether a recorded date is today. Records without a
// date predate dated history and count as today.
func (d *day) onToday(date dateutil.Date) bool {
	return date == "" || date == d.in.Today
}

// todayPauses returns the pauses of the first incomplete task taken today,
// with an open pause running until now.
func (d *day) todayPauses() []Range {
	if d.first == nil || !d.first.IsStarted() {
		return nil
	}
	var out []Range
	for _, p := range d.first.Pauses {
		if d.onToday(p.Date) && p.End > p.Start {
			out = append(out, Range{Start: p.Start, End: p.End})
		}
	}
	if p := d.first.Paused; p != nil && d.onToday(p.Date) && d.in.Now > p.Start {
		out = append(out, Range{Start: p.Start, End: d.in.Now})
	}
	return out
}

// scheduleStart is the first minute tasks may take.
func (d *day) scheduleStart(future bool) int {
	tw := d.win.Task
	switch {
	case future:
		return tw.Start
	case d.first != nil && d.first.StartedAtMinute != nil && d.onToday(d.first.StartedAtDate):
		return max(tw.Start, *d.first.StartedAtMinute)
	case d.in.ActiveTaskID != nil:
		return max(tw.Start, d.in.Now-d.in.Elapsed)
	default:
		return max(tw.Start, min(d.in.Now, tw.End))
	}
}

// completedSegments returns the worked spans of completed tasks on date.
func (d *day) completedSegments(date dateutil.Date) []Range {
	var out []Range
	for _, t := range d.in.Tasks {
		if !t.Completed {
			continue
		}
		for _, s := range t.WorkSegments {
			if s.Date == date {
				out = append(out, Range{Start: s.Start, End: s.End})
			}
		}
	}
	return out
}

// carryover returns the backlog minutes absorbed by today and every day
// before the selected future date.
func (d *day) carryover() int {
	tw := d.win.Task
	blockingOn := func(date dateutil.Date) []Range {
		var ranges []Range
		for _, e := range d.in.Events {
			if e.Date == date {
				ranges = append(ranges, Range{Start: e.StartMinute(), End: e.EndMinute()})
			}
		}
		ranges = append(ranges, d.completedSegments(date)...)
		if date == d.in.Today {
			ranges = append(ranges, d.pauses...)
		}
		return ranges
	}

	total := 0
	if start := d.scheduleStart(false); start < tw.End {
		total += AvailableMinutes(blockingOn(d.in.Today), start, tw.End, d.minFrag)
	}
	for date := d.in.Today.AddDays(1); date.Before(d.in.Date); date = date.AddDays(1) {
		total += AvailableMinutes(blockingOn(date), tw.Start, tw.End, d.minFrag)
	}
	return total
}

// slots returns the free ranges tasks are packed into.
func (d *day) slots() []Range {
	clip := Range{Start: d.startMin, End: d.win.Display.End}
	var blocking []Range
	for _, e := range d.events {
		blocking = append(blocking, Range{Start: e.Start, End: e.End}.Clip(clip))
	}
	if d.isToday {
		for _, p := range d.pauses {
			blocking = append(blocking, p.Clip(clip))
		}
	}
	for _, s := range d.completedSegments(d.in.Date) {
		blocking = append(blocking, s.Clip(clip))
	}
	return Gaps(Range{Start: d.startMin, End: d.win.Task.End}, Merge(blocking))
}

// packTasks fills the free slots with incomplete tasks in priority order.
func (d *day) packTasks() []TaskBlock {
	slots := d.slots()
	skip := 0
	if d.isFuture {
		skip = d.carryover()
	}
	firstPaused := d.isToday && d.first != nil && d.first.IsPaused()

	var blocks []TaskBlock
	slotIdx, slotUsed := 0, 0
	for _, t := range d.in.Tasks {
		if t.Completed {
			continue
		}
		active := d.isToday && d.in.ActiveTaskID != nil && *d.in.ActiveTaskID == t.ID
		planned := t.EffectiveDuration()

		var dayDuration int
		switch {
		case d.isFuture && skip > 0:
			if skip >= planned {
				skip -= planned
				continue
			}
			dayDuration = planned - skip
			skip = 0
		case active:
			dayDuration = max(planned, d.in.Elapsed)
		default:
			dayDuration = planned
		}
		fromPrior := d.isFuture && dayDuration < planned

		remaining, idx := dayDuration, 0
		for remaining > 0 && slotIdx < len(slots) {
			slot := slots[slotIdx]
			start := slot.Start + slotUsed
			left := slot.End - start
			if left <= 0 {
				slotIdx, slotUsed = slotIdx+1, 0
				continue
			}
			dur := min(remaining, left)
			// Skip a sliver in the middle of a task; a short tail is fine.
			if dur < d.minFrag && remaining > left {
				slotIdx, slotUsed = slotIdx+1, 0
				continue
			}

			past := d.isToday && start+dur <= d.in.Now
			blocks = append(blocks, TaskBlock{
				BlockBase: BlockBase{
					ID:    fmt.Sprintf("task-%d-%d", t.ID, idx),
					Name:  t.Name,
					Start: start,
					End:   start + dur,
					Past:  past,
					TagID: t.TagID,
				},
				TaskID:          t.ID,
				Active:          active,
				Split:           dayDuration > dur || idx > 0 || fromPrior,
				Index:           idx,
				ContinuesBefore: idx > 0 || fromPrior,
				ContinuesAfter:  remaining-dur > 0,
				PausedRemaining: firstPaused && t.ID == d.first.ID && !past,
			})

			remaining -= dur
			slotUsed += dur
			idx++
			if slotUsed >= slot.Len() {
				slotIdx, slotUsed = slotIdx+1, 0
			}
		}
	}
	return blocks
}

// history returns the worked spans of completed tasks on the selected date.
func (d *day) history() []TaskBlock {
	disp := d.win.Display
	var blocks []TaskBlock
	for _, t := range d.in.Tasks {
		if !t.Completed || t.StartedAtMinute == nil || t.ActualDuration == nil || *t.ActualDuration <= 0 {
			continue
		}

		if len(t.WorkSegments) == 0 {
			// Older records kept only the start and the total.
			if !d.isToday {
				continue
			}
			r := Range{Start: *t.StartedAtMinute, End: *t.StartedAtMinute + *t.ActualDuration}.Clip(disp)
			if r.Empty() {
				continue
			}
			blocks = append(blocks, completedBlock(t, r, 0, 1))
			continue
		}

		var segs []Range
		for _, s := range t.WorkSegments {
			if s.Date == d.in.Date {
				segs = append(segs, Range{Start: s.Start, End: s.End})
			}
		}
		for i, s := range segs {
			r := s.Clip(disp)
			if r.Empty() {
				continue
			}
			blocks = append(blocks, completedBlock(t, r, i, len(segs)))
		}
	}
	return blocks
}

func completedBlock(t task.Task, r Range, idx, count int) TaskBlock {
	return TaskBlock{
		BlockBase: BlockBase{
			ID:    fmt.Sprintf("task-%d-%d", t.ID, idx),
			Name:  t.Name,
			Start: r.Start,
			End:   r.End,
			Past:  true,
			TagID: t.TagID,
		},
		TaskID:          t.ID,
		Completed:       true,
		Split:           count > 1,
		Index:           idx,
		ContinuesBefore: idx > 0,
		ContinuesAfter:  idx < count-1,
	}
}

// pauseBlocks returns today's pauses clamped to the display window. Every
// one has ended by now, the open pause included, so all are past.
func (d *day) pauseBlocks() []PauseBlock {
	disp := d.win.Display
	var blocks []PauseBlock
	for _, p := range d.pauses {
		r := p.Clip(disp)
		if r.Empty() {
			continue
		}
		blocks = append(blocks, PauseBlock{
			BlockBase: BlockBase{
				ID:    fmt.Sprintf("pause-%d-%d", d.first.ID, p.Start),
				Name:  "Paused",
				Start: r.Start,
				End:   r.End,
				Past:  p.End <= d.in.Now,
			},
			TaskID: d.first.ID,
		})
	}
	return blocks
}
