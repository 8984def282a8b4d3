package scheduler

import (
	"reflect"
	"testing"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

const (
	today    = dateutil.Date("2025-01-15")
	tomorrow = dateutil.Date("2025-01-16")
)

func defaultSettings() Settings {
	return Settings{
		WorkdayStart:             "09:00",
		WorkdayEnd:               "17:00",
		ExtendedStart:            "06:00",
		ExtendedEnd:              "23:59",
		UseExtendedHours:         true,
		RestrictTasksToWorkHours: true,
		MinFragmentMinutes:       5,
	}
}

func intPtr(v int) *int       { return &v }
func idPtr(v int64) *int64    { return &v }
func mins(hhmm string) int    { return dateutil.TimeToMinutes(hhmm) }
func newTask(id int64, d int) task.Task {
	return task.Task{ID: id, Name: "task", PlannedDuration: d}
}

func event(id int64, date dateutil.Date, start, end string) task.Event {
	return task.Event{ID: id, Name: "event", Date: date, Start: start, End: end}
}

func taskBlocks(blocks []Block) []TaskBlock {
	var out []TaskBlock
	for _, b := range blocks {
		if tb, ok := b.(TaskBlock); ok {
			out = append(out, tb)
		}
	}
	return out
}

func span(b Block) [2]int {
	base := b.Base()
	return [2]int{base.Start, base.End}
}

func TestSettings_Windows(t *testing.T) {
	tests := []struct {
		name     string
		extended bool
		restrict bool
		want     Windows
	}{
		{
			name:     "extended display, workday tasks",
			extended: true, restrict: true,
			want: Windows{Display: Range{360, 1439}, Task: Range{540, 1020}},
		},
		{
			name:     "extended display and tasks",
			extended: true, restrict: false,
			want: Windows{Display: Range{360, 1439}, Task: Range{360, 1439}},
		},
		{
			name:     "workday only",
			extended: false, restrict: false,
			want: Windows{Display: Range{540, 1020}, Task: Range{540, 1020}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultSettings()
			s.UseExtendedHours = tt.extended
			s.RestrictTasksToWorkHours = tt.restrict
			if got := s.Windows(); got != tt.want {
				t.Errorf("Windows() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSettings_MinFragment(t *testing.T) {
	s := Settings{}
	if got := s.MinFragment(); got != DefaultMinFragment {
		t.Errorf("got %d, want default %d", got, DefaultMinFragment)
	}
	s.MinFragmentMinutes = 1
	if got := s.MinFragment(); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestScheduleDay_Empty(t *testing.T) {
	for _, date := range []dateutil.Date{today.AddDays(-1), today, tomorrow} {
		got := ScheduleDay(Input{Settings: defaultSettings(), Date: date, Today: today, Now: mins("10:00")})
		if len(got) != 0 {
			t.Errorf("%s: got %d blocks, want none", date, len(got))
		}
	}
}

func TestScheduleDay_InvalidDate(t *testing.T) {
	in := Input{
		Tasks:    []task.Task{newTask(1, 30)},
		Settings: defaultSettings(),
		Date:     "someday",
		Today:    today,
	}
	if got := ScheduleDay(in); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestScheduleDay_TasksAfterEvent(t *testing.T) {
	in := Input{
		Tasks:    []task.Task{newTask(1, 30), newTask(2, 45)},
		Events:   []task.Event{event(10, today, "09:00", "10:00")},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("09:00"),
	}
	got := ScheduleDay(in)

	want := [][2]int{{540, 600}, {600, 630}, {630, 675}}
	if len(got) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(got), len(want))
	}
	for i, w := range want {
		if span(got[i]) != w {
			t.Errorf("block %d = %v, want %v", i, span(got[i]), w)
		}
	}
	if got[0].Kind() != KindEvent || got[1].Kind() != KindTask || got[2].Kind() != KindTask {
		t.Errorf("unexpected kinds %v %v %v", got[0].Kind(), got[1].Kind(), got[2].Kind())
	}
	if tb := got[1].(TaskBlock); tb.TaskID != 1 || tb.Split || tb.ID != "task-1-0" {
		t.Errorf("first task block = %+v", tb)
	}
}

func TestScheduleDay_SkipsSliverMidTask(t *testing.T) {
	in := Input{
		Tasks:    []task.Task{newTask(1, 40)},
		Events:   []task.Event{event(10, today, "09:03", "10:00")},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("09:00"),
	}
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 1 {
		t.Fatalf("got %d task blocks, want 1: %+v", len(tasks), tasks)
	}
	if got := span(tasks[0]); got != [2]int{600, 640} {
		t.Errorf("task at %v, want [600 640]", got)
	}
	if tasks[0].Split || tasks[0].ContinuesBefore {
		t.Errorf("task should not be split: %+v", tasks[0])
	}
}

func TestScheduleDay_ShortTailAllowed(t *testing.T) {
	// The last 3 minutes land after the meeting even though they are below
	// the fragment floor.
	tk := newTask(1, 60)
	tk.AdjustedDuration = intPtr(63)
	in := Input{
		Tasks:    []task.Task{tk},
		Events:   []task.Event{event(10, today, "10:00", "11:00")},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("09:00"),
	}
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 2 {
		t.Fatalf("got %d task blocks: %+v", len(tasks), tasks)
	}
	if span(tasks[0]) != [2]int{540, 600} || span(tasks[1]) != [2]int{660, 663} {
		t.Errorf("spans %v %v, want [540 600] [660 663]", span(tasks[0]), span(tasks[1]))
	}
}

func TestScheduleDay_SliverFinishesTask(t *testing.T) {
	// A 3 minute gap is used when it holds everything that is left.
	in := Input{
		Tasks: []task.Task{newTask(1, 33)},
		Events: []task.Event{
			event(10, today, "09:30", "10:00"),
			event(11, today, "10:03", "11:00"),
		},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("09:00"),
	}
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 2 {
		t.Fatalf("got %d task blocks: %+v", len(tasks), tasks)
	}
	if span(tasks[0]) != [2]int{540, 570} || span(tasks[1]) != [2]int{600, 603} {
		t.Errorf("spans %v %v, want [540 570] [600 603]", span(tasks[0]), span(tasks[1]))
	}
}

func TestScheduleDay_SplitAroundEvent(t *testing.T) {
	in := Input{
		Tasks:    []task.Task{newTask(1, 90)},
		Events:   []task.Event{event(10, today, "10:00", "11:00")},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("09:00"),
	}
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 2 {
		t.Fatalf("got %d task blocks, want 2", len(tasks))
	}
	first, second := tasks[0], tasks[1]
	if span(first) != [2]int{540, 600} || span(second) != [2]int{660, 690} {
		t.Errorf("spans %v %v", span(first), span(second))
	}
	if !first.Split || first.ContinuesBefore || !first.ContinuesAfter || first.Index != 0 {
		t.Errorf("first fragment flags: %+v", first)
	}
	if !second.Split || !second.ContinuesBefore || second.ContinuesAfter || second.Index != 1 {
		t.Errorf("second fragment flags: %+v", second)
	}
	if second.ID != "task-1-1" {
		t.Errorf("second id = %q", second.ID)
	}
}

func TestScheduleDay_EventColumns(t *testing.T) {
	in := Input{
		Events: []task.Event{
			event(2, today, "10:30", "11:30"),
			event(1, today, "10:00", "11:00"),
		},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("08:00"),
	}
	got := ScheduleDay(in)
	if len(got) != 2 {
		t.Fatalf("got %d blocks, want 2", len(got))
	}
	a, b := got[0].(EventBlock), got[1].(EventBlock)
	if a.EventID != 1 || b.EventID != 2 {
		t.Fatalf("events out of order: %d %d", a.EventID, b.EventID)
	}
	if a.Column != 0 || b.Column != 1 {
		t.Errorf("columns = %d, %d; want 0, 1", a.Column, b.Column)
	}
	if a.TotalColumns != 2 || b.TotalColumns != 2 {
		t.Errorf("total columns = %d, %d; want 2, 2", a.TotalColumns, b.TotalColumns)
	}
}

func TestScheduleDay_EventFiltering(t *testing.T) {
	s := defaultSettings()
	s.UseExtendedHours = false
	in := Input{
		Events: []task.Event{
			event(1, today, "07:00", "08:00"), // before display window
			event(2, today, "08:30", "09:30"), // straddles start
			event(3, today, "12:00", "12:00"), // empty
			event(4, today, "13:00", "12:00"), // inverted
			event(5, tomorrow, "10:00", "11:00"),
			event(6, today, "bad", "11:00"), // reads as midnight to 11:00
		},
		Settings: s,
		Date:     today,
		Today:    today,
		Now:      mins("08:00"),
	}
	var kept []int64
	for _, b := range ScheduleDay(in) {
		if eb, ok := b.(EventBlock); ok {
			kept = append(kept, eb.EventID)
		}
	}
	if !reflect.DeepEqual(kept, []int64{6, 2}) {
		t.Errorf("kept events %v, want [6 2]", kept)
	}
}

func TestScheduleDay_EventPastFlag(t *testing.T) {
	events := []task.Event{event(1, "", "09:00", "10:00")}
	tests := []struct {
		name string
		date dateutil.Date
		now  int
		want bool
	}{
		{name: "today ended", date: today, now: 600, want: true},
		{name: "today ongoing", date: today, now: 599, want: false},
		{name: "yesterday", date: today.AddDays(-1), now: 0, want: true},
		{name: "tomorrow", date: tomorrow, now: 1439, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evs := append([]task.Event(nil), events...)
			evs[0].Date = tt.date
			got := ScheduleDay(Input{Events: evs, Settings: defaultSettings(), Date: tt.date, Today: today, Now: tt.now})
			if len(got) != 1 {
				t.Fatalf("got %d blocks", len(got))
			}
			if got[0].Base().Past != tt.want {
				t.Errorf("Past = %v, want %v", got[0].Base().Past, tt.want)
			}
		})
	}
}

func TestScheduleDay_ActiveTaskGrows(t *testing.T) {
	tk := newTask(1, 30)
	tk.StartedAtMinute = intPtr(540)
	tk.StartedAtDate = today
	in := Input{
		Tasks:        []task.Task{tk, newTask(2, 30)},
		Settings:     defaultSettings(),
		ActiveTaskID: idPtr(1),
		Elapsed:      50,
		Date:         today,
		Today:        today,
		Now:          mins("09:50"),
	}
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 2 {
		t.Fatalf("got %d task blocks", len(tasks))
	}
	if !tasks[0].Active || tasks[0].Duration() != 50 {
		t.Errorf("active block = %+v, want 50 minutes", tasks[0])
	}
	if span(tasks[1]) != [2]int{590, 620} {
		t.Errorf("next task at %v, want [590 620]", span(tasks[1]))
	}
}

func TestScheduleDay_ActiveWithoutStartUsesElapsed(t *testing.T) {
	in := Input{
		Tasks:        []task.Task{newTask(1, 30)},
		Settings:     defaultSettings(),
		ActiveTaskID: idPtr(1),
		Elapsed:      10,
		Date:         today,
		Today:        today,
		Now:          mins("10:00"),
	}
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 1 || span(tasks[0]) != [2]int{590, 620} {
		t.Fatalf("got %+v, want 590-620", tasks)
	}
}

func TestScheduleDay_ScheduleStartClampsToWindow(t *testing.T) {
	tests := []struct {
		name string
		now  string
		want int
	}{
		{name: "before work", now: "07:00", want: 540},
		{name: "during work", now: "13:20", want: 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				Tasks:    []task.Task{newTask(1, 30)},
				Settings: defaultSettings(),
				Date:     today,
				Today:    today,
				Now:      mins(tt.now),
			}
			tasks := taskBlocks(ScheduleDay(in))
			if len(tasks) != 1 || tasks[0].Start != tt.want {
				t.Fatalf("got %+v, want start %d", tasks, tt.want)
			}
		})
	}

	t.Run("after work", func(t *testing.T) {
		in := Input{
			Tasks:    []task.Task{newTask(1, 30)},
			Settings: defaultSettings(),
			Date:     today,
			Today:    today,
			Now:      mins("18:00"),
		}
		if tasks := taskBlocks(ScheduleDay(in)); len(tasks) != 0 {
			t.Errorf("no task should fit after hours, got %+v", tasks)
		}
	})
}

func TestScheduleDay_OpenPause(t *testing.T) {
	tk := newTask(1, 60)
	tk.StartedAtMinute = intPtr(540)
	tk.StartedAtDate = today
	tk.PausedElapsed = 20
	tk.WorkSegments = []task.WorkSegment{{Start: 540, End: 560, Date: today}}
	tk.Paused = &task.OpenPause{Start: 560, Date: today}

	in := Input{
		Tasks:    []task.Task{tk, newTask(2, 30)},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("09:40"),
	}
	got := ScheduleDay(in)

	var pauses []PauseBlock
	for _, b := range got {
		if pb, ok := b.(PauseBlock); ok {
			pauses = append(pauses, pb)
		}
	}
	if len(pauses) != 1 || span(pauses[0]) != [2]int{560, 580} || pauses[0].TaskID != 1 {
		t.Fatalf("pauses = %+v, want one 560-580", pauses)
	}
	if !pauses[0].Past {
		t.Error("open pause ends at now and counts as past")
	}
	if pauses[0].ID != "pause-1-560" {
		t.Errorf("pause id = %q", pauses[0].ID)
	}

	tasks := taskBlocks(got)
	// 540-560 before the pause, then the rest of the hour after now.
	want := [][2]int{{540, 560}, {580, 620}, {620, 650}}
	if len(tasks) != len(want) {
		t.Fatalf("got %d task blocks: %+v", len(tasks), tasks)
	}
	for i, w := range want {
		if span(tasks[i]) != w {
			t.Errorf("task block %d = %v, want %v", i, span(tasks[i]), w)
		}
	}
	if !tasks[0].Past || tasks[0].PausedRemaining {
		t.Errorf("worked part before the pause is past: %+v", tasks[0])
	}
	if !tasks[1].PausedRemaining {
		t.Error("remaining work of the paused task should be flagged")
	}
	if tasks[2].PausedRemaining {
		t.Error("only the first task carries the paused flag")
	}
}

func TestScheduleDay_ClosedPausesBlock(t *testing.T) {
	tk := newTask(1, 60)
	tk.StartedAtMinute = intPtr(540)
	tk.StartedAtDate = today
	tk.Pauses = []task.PauseSpan{
		{Start: 560, End: 575, Date: today},
		{Start: 300, End: 320, Date: today.AddDays(-1)}, // another day, ignored
	}
	in := Input{
		Tasks:        []task.Task{tk},
		Settings:     defaultSettings(),
		ActiveTaskID: idPtr(1),
		Elapsed:      25,
		Date:         today,
		Today:        today,
		Now:          mins("09:40"),
	}
	got := ScheduleDay(in)
	if len(got) != 3 {
		t.Fatalf("got %d blocks: %+v", len(got), got)
	}
	if got[1].Kind() != KindPause || !got[1].Base().Past {
		t.Errorf("expected finished pause second, got %+v", got[1])
	}
	tasks := taskBlocks(got)
	if span(tasks[0]) != [2]int{540, 560} || span(tasks[1]) != [2]int{575, 615} {
		t.Errorf("task spans %v %v", span(tasks[0]), span(tasks[1]))
	}
}

func TestScheduleDay_PausesIgnoredOnOtherDays(t *testing.T) {
	tk := newTask(1, 30)
	tk.StartedAtMinute = intPtr(540)
	tk.StartedAtDate = today
	tk.Paused = &task.OpenPause{Start: 560, Date: today}
	in := Input{
		Tasks:    []task.Task{tk},
		Settings: defaultSettings(),
		Date:     today.AddDays(-1),
		Today:    today,
		Now:      mins("10:00"),
	}
	if got := ScheduleDay(in); len(got) != 0 {
		t.Errorf("past day should have no blocks, got %+v", got)
	}
}

func TestScheduleDay_Carryover(t *testing.T) {
	in := Input{
		Tasks:    []task.Task{newTask(1, 500)},
		Settings: defaultSettings(),
		Date:     tomorrow,
		Today:    today,
		Now:      mins("08:00"),
	}
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 1 {
		t.Fatalf("got %d task blocks", len(tasks))
	}
	tb := tasks[0]
	if span(tb) != [2]int{540, 560} {
		t.Errorf("remainder at %v, want [540 560]", span(tb))
	}
	if !tb.ContinuesBefore || !tb.Split || tb.ContinuesAfter || tb.Past {
		t.Errorf("flags = %+v", tb)
	}
}

func TestScheduleDay_CarryoverAbsorbsWholeTasks(t *testing.T) {
	in := Input{
		Tasks:    []task.Task{newTask(1, 300), newTask(2, 120), newTask(3, 60), newTask(4, 30)},
		Events:   []task.Event{event(9, today, "12:00", "13:00")},
		Settings: defaultSettings(),
		Date:     tomorrow,
		Today:    today,
		Now:      mins("09:00"),
	}
	// Today has 420 free minutes: tasks 1 and 2 fit, 3 and 4 move on.
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 2 {
		t.Fatalf("got %d task blocks: %+v", len(tasks), tasks)
	}
	if tasks[0].TaskID != 3 || span(tasks[0]) != [2]int{540, 600} || tasks[0].ContinuesBefore {
		t.Errorf("first block = %+v", tasks[0])
	}
	if tasks[1].TaskID != 4 || span(tasks[1]) != [2]int{600, 630} {
		t.Errorf("second block = %+v", tasks[1])
	}
}

func TestScheduleDay_CarryoverSpansDays(t *testing.T) {
	in := Input{
		Tasks:    []task.Task{newTask(1, 1000)},
		Settings: defaultSettings(),
		Date:     today.AddDays(2),
		Today:    today,
		Now:      mins("13:00"),
	}
	// 240 minutes today, 480 tomorrow, 280 left for the third day.
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 1 || span(tasks[0]) != [2]int{540, 820} || !tasks[0].ContinuesBefore {
		t.Fatalf("got %+v, want one continuing block 540-820", tasks)
	}
}

func TestScheduleDay_CompletedHistory(t *testing.T) {
	done := newTask(1, 30)
	done.Completed = true
	done.StartedAtMinute = intPtr(540)
	done.StartedAtDate = today
	done.ActualDuration = intPtr(35)
	done.WorkSegments = []task.WorkSegment{
		{Start: 540, End: 560, Date: today},
		{Start: 580, End: 595, Date: today},
		{Start: 900, End: 960, Date: today.AddDays(-1)},
	}

	in := Input{
		Tasks:    []task.Task{done, newTask(2, 20)},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("09:00"),
	}
	tasks := taskBlocks(ScheduleDay(in))

	var history, planned []TaskBlock
	for _, tb := range tasks {
		if tb.Completed {
			history = append(history, tb)
		} else {
			planned = append(planned, tb)
		}
	}
	if len(history) != 2 {
		t.Fatalf("got %d history blocks", len(history))
	}
	if !history[0].Split || history[0].ContinuesBefore || !history[0].ContinuesAfter || !history[0].Past {
		t.Errorf("history[0] = %+v", history[0])
	}
	if !history[1].ContinuesBefore || history[1].ContinuesAfter {
		t.Errorf("history[1] = %+v", history[1])
	}
	// The open task packs around the worked segments.
	if len(planned) != 1 || span(planned[0]) != [2]int{560, 580} {
		t.Errorf("planned = %+v, want 560-580", planned)
	}

	in.Date = today.AddDays(-1)
	tasks = taskBlocks(ScheduleDay(in))
	if len(tasks) != 1 || span(tasks[0]) != [2]int{900, 960} || tasks[0].Split {
		t.Errorf("yesterday = %+v", tasks)
	}
}

func TestScheduleDay_CompletedLegacy(t *testing.T) {
	done := newTask(1, 30)
	done.Completed = true
	done.StartedAtMinute = intPtr(600)
	done.ActualDuration = intPtr(25)

	in := Input{Tasks: []task.Task{done}, Settings: defaultSettings(), Date: today, Today: today, Now: mins("12:00")}
	tasks := taskBlocks(ScheduleDay(in))
	if len(tasks) != 1 || span(tasks[0]) != [2]int{600, 625} || !tasks[0].Completed {
		t.Fatalf("got %+v, want legacy block 600-625", tasks)
	}

	in.Date = tomorrow
	if tasks := taskBlocks(ScheduleDay(in)); len(tasks) != 0 {
		t.Errorf("legacy block only renders today, got %+v", tasks)
	}

	zero := done
	zero.ActualDuration = intPtr(0)
	in = Input{Tasks: []task.Task{zero}, Settings: defaultSettings(), Date: today, Today: today}
	if tasks := taskBlocks(ScheduleDay(in)); len(tasks) != 0 {
		t.Errorf("zero-length work renders nothing, got %+v", tasks)
	}
}

func TestScheduleDay_TieBreakOrder(t *testing.T) {
	// Event, completed task and pause all start at 10:00.
	done := newTask(1, 30)
	done.Completed = true
	done.StartedAtMinute = intPtr(600)
	done.ActualDuration = intPtr(10)
	done.WorkSegments = []task.WorkSegment{{Start: 600, End: 610, Date: today}}

	paused := newTask(2, 30)
	paused.StartedAtMinute = intPtr(540)
	paused.StartedAtDate = today
	paused.Pauses = []task.PauseSpan{{Start: 600, End: 620, Date: today}}

	in := Input{
		Tasks:    []task.Task{done, paused},
		Events:   []task.Event{event(5, today, "10:00", "10:15")},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("12:00"),
	}
	var at600 []Kind
	for _, b := range ScheduleDay(in) {
		if b.Base().Start == 600 {
			at600 = append(at600, b.Kind())
		}
	}
	want := []Kind{KindEvent, KindTask, KindPause}
	if !reflect.DeepEqual(at600, want) {
		t.Errorf("order at 10:00 = %v, want %v", at600, want)
	}
}

func TestScheduleDay_Sorted(t *testing.T) {
	in := Input{
		Tasks:    []task.Task{newTask(1, 45), newTask(2, 90), newTask(3, 20)},
		Events:   []task.Event{event(1, today, "11:00", "12:00"), event(2, today, "09:30", "10:00")},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("09:00"),
	}
	got := ScheduleDay(in)
	for i := 1; i < len(got); i++ {
		if got[i].Base().Start < got[i-1].Base().Start {
			t.Fatalf("blocks out of order at %d: %v", i, got)
		}
	}
}

func TestScheduleDay_Idempotent(t *testing.T) {
	tk := newTask(1, 60)
	tk.StartedAtMinute = intPtr(540)
	tk.StartedAtDate = today
	tk.Paused = &task.OpenPause{Start: 570, Date: today}
	tk.PausedElapsed = 30
	in := Input{
		Tasks:    []task.Task{tk, newTask(2, 120), newTask(3, 45)},
		Events:   []task.Event{event(1, today, "11:00", "12:00"), event(2, today, "11:30", "12:30")},
		Settings: defaultSettings(),
		Date:     today,
		Today:    today,
		Now:      mins("10:10"),
	}
	first := ScheduleDay(in)
	second := ScheduleDay(in)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical input produced different output")
	}
	if in.Tasks[0].Paused == nil || len(in.Tasks) != 3 {
		t.Error("input was modified")
	}
}

func TestScheduleDay_TaskBlocksStayInWindow(t *testing.T) {
	settings := defaultSettings()
	events := []task.Event{
		event(1, today, "08:00", "09:20"),
		event(2, today, "10:00", "10:02"),
		event(3, today, "12:00", "13:30"),
		event(4, today, "16:45", "18:00"),
		event(5, tomorrow, "09:00", "09:30"),
	}
	durations := []int{5, 25, 60, 90, 240}

	for _, now := range []int{300, 540, 601, 800, 1019, 1200} {
		for _, date := range []dateutil.Date{today, tomorrow} {
			var tasks []task.Task
			for i, d := range durations {
				tasks = append(tasks, newTask(int64(i+1), d))
			}
			in := Input{Tasks: tasks, Events: events, Settings: settings, Date: date, Today: today, Now: now}

			d := newDay(in)
			for _, tb := range taskBlocks(ScheduleDay(in)) {
				if tb.Start < d.startMin || tb.End > d.win.Task.End {
					t.Errorf("now=%d date=%s: block %v outside [%d, %d]", now, date, span(tb), d.startMin, d.win.Task.End)
				}
				if tb.End <= tb.Start {
					t.Errorf("now=%d date=%s: empty block %+v", now, date, tb)
				}
			}
		}
	}
}
