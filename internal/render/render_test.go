package render

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/dayplan/internal/config"
	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/scheduler"
	"github.com/javiermolinar/dayplan/internal/task"
)

const today = dateutil.Date("2025-01-15")

func idPtr(v int64) *int64 { return &v }

func sampleBlocks() []scheduler.Block {
	return []scheduler.Block{
		scheduler.TaskBlock{
			BlockBase: scheduler.BlockBase{ID: "task-1-0", Name: "write report", Start: 540, End: 600, Past: true},
			TaskID:    1,
			Completed: true,
		},
		scheduler.EventBlock{
			BlockBase:    scheduler.BlockBase{ID: "event-1", Name: "Standup", Start: 600, End: 630},
			EventID:      1,
			Column:       0,
			TotalColumns: 2,
		},
		scheduler.EventBlock{
			BlockBase:    scheduler.BlockBase{ID: "event-2", Name: "1:1", Start: 600, End: 660, TagID: idPtr(7)},
			EventID:      2,
			Column:       1,
			TotalColumns: 2,
		},
		scheduler.TaskBlock{
			BlockBase:      scheduler.BlockBase{ID: "task-2-0", Name: "review", Start: 660, End: 700},
			TaskID:         2,
			Active:         true,
			Split:          true,
			ContinuesAfter: true,
		},
		scheduler.PauseBlock{
			BlockBase: scheduler.BlockBase{ID: "pause-2-700", Name: "Paused", Start: 700, End: 710},
			TaskID:    2,
		},
	}
}

func TestTimeline(t *testing.T) {
	out := Timeline(sampleBlocks(), Options{
		Date:  today,
		Today: today,
		Now:   620,
		Tags:  map[int64]task.Tag{7: {ID: 7, Name: "team", Color: "#a6e3a1"}},
	})

	want := []string{
		"Wednesday 2025-01-15 (today)",
		"09:00–10:00  ✓ write report",
		"10:00–10:30  ◆ Standup",
		"[1/2]",
		"10:00–11:00  ◆ 1:1",
		"[2/2]",
		"#team",
		"── now 10:20 ──",
		"11:00–11:40  ▶ review ↓",
		"11:40–11:50  ‖ Paused",
	}
	last := -1
	for _, w := range want {
		idx := strings.Index(out, w)
		if idx < 0 {
			t.Fatalf("output missing %q:\n%s", w, out)
		}
		if idx < last {
			t.Errorf("%q is out of order:\n%s", w, out)
		}
		last = idx
	}
}

func TestTimeline_NowMarker(t *testing.T) {
	tests := []struct {
		name    string
		date    dateutil.Date
		now     int
		wantNow bool
		last    bool
	}{
		{name: "today after every block", date: today, now: 800, wantNow: true, last: true},
		{name: "today before every block", date: today, now: 500, wantNow: true},
		{name: "other day", date: "2025-01-16", now: 620, wantNow: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Timeline(sampleBlocks(), Options{Date: tt.date, Today: today, Now: tt.now})
			has := strings.Contains(out, "── now")
			if has != tt.wantNow {
				t.Fatalf("now marker present = %v, want %v:\n%s", has, tt.wantNow, out)
			}
			lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
			if tt.last && !strings.Contains(lines[len(lines)-1], "── now") {
				t.Errorf("now marker should be the last line:\n%s", out)
			}
			if tt.wantNow && !tt.last && !strings.Contains(lines[1], "── now") {
				t.Errorf("now marker should follow the header:\n%s", out)
			}
		})
	}
}

func TestTimeline_Empty(t *testing.T) {
	out := Timeline(nil, Options{Date: "2025-01-16", Today: today})
	if !strings.Contains(out, "Thursday 2025-01-16") || !strings.Contains(out, "nothing scheduled") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "today") {
		t.Errorf("future day marked as today:\n%s", out)
	}
}

func TestTimeline_TruncatesLongNames(t *testing.T) {
	blocks := []scheduler.Block{
		scheduler.TaskBlock{BlockBase: scheduler.BlockBase{Name: strings.Repeat("x", 100), Start: 540, End: 600}},
	}
	out := Timeline(blocks, Options{Date: "2025-01-16", Today: today, Width: 40})
	for _, l := range strings.Split(strings.TrimRight(out, "\n"), "\n")[1:] {
		if lipgloss.Width(l) > 40 {
			t.Errorf("line wider than 40 columns: %q", l)
		}
	}
	if !strings.Contains(out, "…") {
		t.Errorf("expected an ellipsis:\n%s", out)
	}
}

func TestTimeline_WithPalette(t *testing.T) {
	th, err := Load("latte")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	out := Timeline(sampleBlocks(), Options{Date: today, Today: today, Now: 620, Palette: NewPalette(th)})
	if !strings.Contains(out, "write report") || !strings.Contains(out, "Standup") {
		t.Errorf("styled output lost block names:\n%s", out)
	}
}

func TestRecords(t *testing.T) {
	records := Records(sampleBlocks())
	if len(records) != 5 {
		t.Fatalf("records = %d, want 5", len(records))
	}

	kinds := make([]scheduler.Kind, len(records))
	for i, r := range records {
		kinds[i] = r.Kind
	}
	wantKinds := []scheduler.Kind{
		scheduler.KindTask, scheduler.KindEvent, scheduler.KindEvent, scheduler.KindTask, scheduler.KindPause,
	}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Errorf("kinds = %v, want %v", kinds, wantKinds)
	}

	active := records[3]
	if active.Start != "11:00" || active.End != "11:40" || active.Minutes != 40 {
		t.Errorf("active record = %+v", active)
	}
	if !active.Active || !active.ContinuesAfter || active.TaskID != 2 {
		t.Errorf("task fields not copied: %+v", active)
	}
	if records[2].Column != 1 || records[2].TotalColumns != 2 || records[2].EventID != 2 {
		t.Errorf("event fields not copied: %+v", records[2])
	}

	data, err := json.Marshal(records[4])
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "column") || !strings.Contains(string(data), `"kind":"pause"`) {
		t.Errorf("unexpected pause json: %s", data)
	}
}

func TestNewDayRecord(t *testing.T) {
	day := NewDayRecord(sampleBlocks(), Options{Date: today, Today: today, Now: 620})
	if day.Now != "10:20" || len(day.Blocks) != 5 {
		t.Errorf("today record = %+v", day)
	}

	other := NewDayRecord(nil, Options{Date: "2025-01-16", Today: today, Now: 620})
	if other.Now != "" {
		t.Errorf("now set for another day: %q", other.Now)
	}
	if other.Blocks == nil {
		t.Error("blocks should encode as an empty list")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		themeName string
		wantName  string
	}{
		{"mocha", "mocha"},
		{"macchiato", "macchiato"},
		{"frappe", "frappe"},
		{"LATTE", "latte"},
		{"", "mocha"},
		{"nonexistent", "mocha"},
	}

	for _, tt := range tests {
		t.Run(tt.themeName, func(t *testing.T) {
			th, err := Load(tt.themeName)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if th.Name != tt.wantName {
				t.Errorf("Load() name = %q, want %q", th.Name, tt.wantName)
			}
			if th.Task == "" || th.Event == "" || th.NowMarker == "" {
				t.Errorf("theme %q has empty colors: %+v", th.Name, th)
			}
		})
	}
}

func TestAvailable_MatchesConfig(t *testing.T) {
	if !reflect.DeepEqual(Available(), config.Themes) {
		t.Errorf("Available() = %v, config.Themes = %v", Available(), config.Themes)
	}
	for _, name := range Available() {
		if !IsAvailable(strings.ToUpper(name)) {
			t.Errorf("IsAvailable(%q) = false", name)
		}
	}
	if IsAvailable("light") {
		t.Error("IsAvailable(light) = true")
	}
}

func TestNewPalette(t *testing.T) {
	dark := &Theme{Bg: "#101010", Fg: "#ffffff", FgMuted: "#aaaaaa", Task: "#112233", Event: "#445566", Pause: "#778899"}
	p := NewPalette(dark)
	if p.TaskBg != lipgloss.Color(scaleColor(dark.Task, 0.50, 40)) {
		t.Errorf("TaskBg = %q", p.TaskBg)
	}
	if p.EventPastBg != lipgloss.Color(scaleColor(dark.Event, 0.30, 30)) {
		t.Errorf("EventPastBg = %q", p.EventPastBg)
	}

	light := &Theme{Bg: "#ffffff", Fg: "#000000", Task: "#1e66f5", Event: "#df8e1d", Pause: "#fe640b"}
	p = NewPalette(light)
	if p.TaskBg != lipgloss.Color(blendColors(light.Task, light.Bg, 0.75)) {
		t.Errorf("light TaskBg = %q", p.TaskBg)
	}

	if NewPalette(nil).Task == "" {
		t.Error("nil theme should fall back to mocha")
	}
}

func TestColorHelpers(t *testing.T) {
	if got := scaleColor("#000000", 0.5, 40); got != "#282828" {
		t.Errorf("scaleColor floor = %q, want #282828", got)
	}
	if got := blendColors("#000000", "#ffffff", 0.5); got != "#7f7f7f" {
		t.Errorf("blendColors = %q, want #7f7f7f", got)
	}
	if got := blendColors("bad", "#ffffff", 0.5); got != "bad" {
		t.Errorf("blendColors(bad) = %q", got)
	}
	if got := TagColor("nope", lipgloss.Color("#123456")); got != lipgloss.Color("#123456") {
		t.Errorf("TagColor fallback = %q", got)
	}
	if got := chooseTextColor("#000000", "#ffffff", "#000000"); got != "#ffffff" {
		t.Errorf("chooseTextColor = %q, want #ffffff", got)
	}
}
