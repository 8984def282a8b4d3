package summary

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/db"
	"github.com/javiermolinar/dayplan/internal/scheduler"
	"github.com/javiermolinar/dayplan/internal/task"
)

const today = dateutil.Date("2025-01-15") // Wednesday

func workday() scheduler.Settings {
	return scheduler.Settings{
		WorkdayStart:       "09:00",
		WorkdayEnd:         "17:00",
		ExtendedStart:      "06:00",
		ExtendedEnd:        "23:59",
		MinFragmentMinutes: 5,
	}
}

func weekInput() scheduler.Input {
	return scheduler.Input{
		Tasks: []task.Task{
			{ID: 1, Name: "a", PlannedDuration: 120},
			{ID: 2, Name: "b", PlannedDuration: 480},
			{ID: 3, Name: "c", PlannedDuration: 60},
		},
		Events: []task.Event{
			{ID: 1, Name: "lunch", Date: today, Start: "12:00", End: "13:00"},
		},
		Settings: workday(),
		Today:    today,
		Now:      540,
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(weekInput(), "2025-01-13", "2025-01-19")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if len(s.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(s.Days))
	}
	if s.DrainDate != "2025-01-16" || !s.Drained() {
		t.Errorf("drain date = %q, want 2025-01-16", s.DrainDate)
	}
	if s.TaskMinutes != 660 {
		t.Errorf("task minutes = %d, want 660", s.TaskMinutes)
	}
	if s.EventMinutes != 60 {
		t.Errorf("event minutes = %d, want 60", s.EventMinutes)
	}
	if s.FreeMinutes != 240+3*480 {
		t.Errorf("free minutes = %d, want %d", s.FreeMinutes, 240+3*480)
	}

	tests := []struct {
		day   int
		tasks []string
		mins  int
		free  int
	}{
		{day: 0, tasks: nil, mins: 0, free: 0},
		{day: 2, tasks: []string{"a", "b"}, mins: 420, free: 0},
		{day: 3, tasks: []string{"b", "c"}, mins: 240, free: 240},
		{day: 4, tasks: nil, mins: 0, free: 480},
	}
	for _, tt := range tests {
		ds := s.Days[tt.day]
		if !reflect.DeepEqual(ds.Tasks, tt.tasks) {
			t.Errorf("%s tasks = %v, want %v", ds.Date, ds.Tasks, tt.tasks)
		}
		if ds.TaskMinutes != tt.mins {
			t.Errorf("%s task minutes = %d, want %d", ds.Date, ds.TaskMinutes, tt.mins)
		}
		if ds.FreeMinutes != tt.free {
			t.Errorf("%s free minutes = %d, want %d", ds.Date, ds.FreeMinutes, tt.free)
		}
	}
}

func TestSummarize_CompletedWork(t *testing.T) {
	in := scheduler.Input{
		Tasks: []task.Task{
			{
				ID: 1, Name: "done", PlannedDuration: 30, Completed: true,
				StartedAtMinute: intPtr(540), StartedAtDate: today, ActualDuration: intPtr(30),
				WorkSegments: []task.WorkSegment{{Start: 540, End: 570, Date: today}},
			},
			{ID: 2, Name: "next", PlannedDuration: 30},
		},
		Settings: workday(),
		Today:    today,
		Now:      600,
	}

	s, err := Summarize(in, today, today)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	ds := s.Days[0]
	if ds.CompletedMinutes != 30 || ds.TaskMinutes != 30 {
		t.Errorf("completed = %d, planned = %d, want 30 and 30", ds.CompletedMinutes, ds.TaskMinutes)
	}
	if ds.FreeMinutes != 390 {
		t.Errorf("free minutes = %d, want 390", ds.FreeMinutes)
	}
	if s.DrainDate != today {
		t.Errorf("drain date = %q, want today", s.DrainDate)
	}
}

func TestSummarize_InvalidRange(t *testing.T) {
	_, err := Summarize(weekInput(), "2025-01-19", "2025-01-13")
	if !errors.Is(err, dateutil.ErrEndDateBeforeStart) {
		t.Errorf("expected ErrEndDateBeforeStart, got %v", err)
	}
}

func TestDrainDate(t *testing.T) {
	tests := []struct {
		name    string
		in      func() scheduler.Input
		horizon int
		want    dateutil.Date
	}{
		{"fits within horizon", weekInput, 7, "2025-01-16"},
		{"outlasts horizon", weekInput, 0, ""},
		{"empty backlog", func() scheduler.Input {
			in := weekInput()
			in.Tasks = nil
			return in
		}, 7, today},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DrainDate(tt.in(), tt.horizon); got != tt.want {
				t.Errorf("DrainDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildWeekSummary(t *testing.T) {
	ctx := context.Background()
	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	for _, tt := range weekInput().Tasks {
		tsk, err := task.New(tt.Name, tt.PlannedDuration)
		if err != nil {
			t.Fatalf("task.New failed: %v", err)
		}
		if err := repo.CreateTask(ctx, tsk); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}
	e, err := task.NewEvent("lunch", string(today), "12:00", "13:00")
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	if err := repo.CreateEvent(ctx, e); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	s, err := BuildWeekSummary(ctx, repo, Options{Settings: workday(), Today: today, Now: 540})
	if err != nil {
		t.Fatalf("BuildWeekSummary failed: %v", err)
	}
	if s.Start != "2025-01-13" || s.End != "2025-01-19" {
		t.Errorf("range = %s..%s, want 2025-01-13..2025-01-19", s.Start, s.End)
	}
	if s.DrainDate != "2025-01-16" {
		t.Errorf("drain date = %q, want 2025-01-16", s.DrainDate)
	}
	if s.EventMinutes != 60 {
		t.Errorf("event minutes = %d, want 60", s.EventMinutes)
	}
}

func intPtr(v int) *int { return &v }

func TestLoadInput_FutureRangeIncludesToday(t *testing.T) {
	ctx := context.Background()
	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	for _, date := range []string{"2025-01-14", string(today), "2025-01-17", "2025-01-20", "2025-01-21"} {
		e, err := task.NewEvent("meeting", date, "10:00", "11:00")
		if err != nil {
			t.Fatalf("NewEvent failed: %v", err)
		}
		if err := repo.CreateEvent(ctx, e); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}

	in, backlog, err := LoadInput(ctx, repo, workday(), "2025-01-20", "2025-01-20", today, 600)
	if err != nil {
		t.Fatalf("LoadInput failed: %v", err)
	}
	if backlog.Len() != 0 {
		t.Errorf("backlog length = %d, want 0", backlog.Len())
	}
	if in.Date != "2025-01-20" || in.Today != today || in.Now != 600 {
		t.Errorf("input = %+v", in)
	}

	var dates []dateutil.Date
	for _, e := range in.Events {
		dates = append(dates, e.Date)
	}
	want := []dateutil.Date{today, "2025-01-17", "2025-01-20"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("event dates = %v, want %v", dates, want)
	}
}
