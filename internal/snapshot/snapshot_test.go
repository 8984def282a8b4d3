package snapshot

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/dayplan/internal/config"
	"github.com/javiermolinar/dayplan/internal/task"
)

func intPtr(n int) *int           { return &n }
func idPtr(n int64) *int64        { return &n }
func pushedAt() time.Time         { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }
func testConfig() *config.Config { return config.Default() }

func testSnapshot() *task.Snapshot {
	return &task.Snapshot{
		Tasks: []task.Task{
			{
				ID:              1,
				Name:            "write report",
				PlannedDuration: 60,
				StartedAtMinute: intPtr(540),
				StartedAtDate:   "2025-01-15",
				PauseGapMinutes: 10,
				PausedElapsed:   10,
				WorkSegments:    []task.WorkSegment{{Start: 540, End: 550, Date: "2025-01-15"}},
				Pauses:          []task.PauseSpan{{Start: 550, End: 560, Date: "2025-01-15"}},
			},
			{
				ID:               2,
				Name:             "review",
				PlannedDuration:  30,
				AdjustedDuration: intPtr(45),
				TagID:            idPtr(7),
				StartedAtMinute:  intPtr(500),
				StartedAtDate:    "2025-01-15",
				PausedElapsed:    20,
				WorkSegments:     []task.WorkSegment{{Start: 500, End: 520, Date: "2025-01-15"}},
				Paused:           &task.OpenPause{Start: 520, Date: "2025-01-15"},
			},
			{
				ID:              3,
				Name:            "email",
				PlannedDuration: 15,
				Completed:       true,
				ActualDuration:  intPtr(12),
			},
		},
		Events: []task.Event{
			{ID: 4, Name: "Standup", Date: "2025-01-15", Start: "09:30", End: "09:45", TagID: idPtr(7)},
			{ID: 5, Name: "Sync", Date: "2025-01-16", Start: "10:00", End: "10:30", Source: "ics", UID: "abc"},
		},
		Tags:         []task.Tag{{ID: 7, Name: "deep", Color: "#a6e3a1"}},
		ActiveTaskID: idPtr(1),
	}
}

func TestBuild(t *testing.T) {
	cfg := testConfig()
	cfg.Debug.Enabled = true
	cfg.Debug.TimeOffset = 90

	p := Build(testSnapshot(), cfg, pushedAt())

	if p.Version != Version {
		t.Errorf("version = %d", p.Version)
	}
	if p.Settings.DebugMode || p.Settings.DebugTimeOffset != 0 {
		t.Error("debug settings must not be exported")
	}
	if p.Settings.WorkdayStart != "09:00" || p.Settings.MinFragmentMinutes != 5 {
		t.Errorf("unexpected settings %+v", p.Settings)
	}

	paused := p.Tasks[1]
	if paused.PausedAtMin == nil || *paused.PausedAtMin != 520 {
		t.Errorf("pausedAtMin = %v, want 520", paused.PausedAtMin)
	}
	if len(paused.PauseEvents) != 1 || paused.PauseEvents[0].End != nil {
		t.Errorf("open pause should be written with a null end: %+v", paused.PauseEvents)
	}
	closed := p.Tasks[0].PauseEvents
	if len(closed) != 1 || closed[0].End == nil || *closed[0].End != 560 {
		t.Errorf("closed pause = %+v", closed)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"state.json", "state.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			want := testSnapshot()

			if err := WriteFile(path, Build(want, testConfig(), pushedAt())); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			p, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			if !p.PushedAt.Equal(pushedAt()) {
				t.Errorf("pushedAt = %s", p.PushedAt)
			}

			got, err := p.Snapshot()
			if err != nil {
				t.Fatalf("Snapshot failed: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json":  FormatJSON,
		"a.YAML":  FormatYAML,
		"a.yml":   FormatYAML,
		"a":       FormatJSON,
		"a.state": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestDecode_OriginalFormat(t *testing.T) {
	// Written by an older client: no version, legacy pausedAtMin only.
	raw := `{
		"tasks": [
			{"id": 1, "name": "plan", "duration": 30, "completed": false,
			 "pausedElapsed": 5, "startedAtMin": 540, "startedAtDate": "2025-01-15",
			 "pausedAtMin": 545, "workSegments": [{"start": 540, "end": 545, "date": "2025-01-15"}]}
		],
		"events": [],
		"tags": [],
		"settings": {"workdayStart": "08:00", "workdayEnd": "16:00", "debugMode": true},
		"activeTaskId": null,
		"pushedAt": "2025-01-15T09:10:00Z"
	}`

	p, err := Decode(strings.NewReader(raw), FormatJSON)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if p.Version != 1 {
		t.Errorf("missing version should read as 1, got %d", p.Version)
	}

	snap, err := p.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	got := snap.Tasks[0]
	if got.Paused == nil || got.Paused.Start != 545 || got.Paused.Date != "2025-01-15" {
		t.Errorf("legacy pausedAtMin not converted: %+v", got.Paused)
	}
}

func TestSnapshot_Rejects(t *testing.T) {
	open := func(start int) Pause { return Pause{Start: start, Date: "2025-01-15"} }

	tests := []struct {
		name    string
		payload Payload
		want    error
	}{
		{
			name:    "future version",
			payload: Payload{Version: Version + 1},
			want:    ErrUnsupportedVersion,
		},
		{
			name: "two open pauses on one task",
			payload: Payload{Tasks: []Task{
				{ID: 1, Name: "a", Duration: 30, PauseEvents: []Pause{open(540), open(560)}},
			}},
			want: task.ErrMultipleOpenPauses,
		},
		{
			name: "open pauses on two tasks",
			payload: Payload{Tasks: []Task{
				{ID: 1, Name: "a", Duration: 30, PauseEvents: []Pause{open(540)}},
				{ID: 2, Name: "b", Duration: 30, PauseEvents: []Pause{open(560)}},
			}},
			want: task.ErrMultipleOpenPauses,
		},
		{
			name: "active task missing",
			payload: Payload{
				Tasks:        []Task{{ID: 1, Name: "a", Duration: 30}},
				ActiveTaskID: idPtr(9),
			},
			want: task.ErrTaskNotFound,
		},
		{
			name:    "unnamed task",
			payload: Payload{Tasks: []Task{{ID: 1, Duration: 30}}},
			want:    task.ErrEmptyName,
		},
		{
			name:    "bad event time",
			payload: Payload{Events: []Event{{ID: 1, Name: "x", Date: "2025-01-15", Start: "9:00", End: "10:00"}}},
			want:    ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.payload
			if p.Version == 0 {
				p.Version = Version
			}
			if _, err := p.Snapshot(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMergeSettings(t *testing.T) {
	local := testConfig()
	local.Debug.Enabled = true
	local.Debug.TimeOffset = -15
	local.UI.Theme = "latte"
	local.Import.ExcludeCategories = []string{"Holiday"}

	remote := Settings{
		WorkdayStart:       "08:00",
		WorkdayEnd:         "16:00",
		ExtendedStart:      "07:00",
		ExtendedEnd:        "22:00",
		UseExtendedHours:   true,
		MinFragmentMinutes: 10,
		AutoStartNext:      true,
		DebugMode:          false,
		DebugTimeOffset:    300,
	}

	merged := MergeSettings(local, remote)

	if merged.Schedule.WorkdayStart != "08:00" || merged.Schedule.MinFragmentMinutes != 10 || !merged.Schedule.AutoStartNext {
		t.Errorf("remote schedule not applied: %+v", merged.Schedule)
	}
	if !merged.Debug.Enabled || merged.Debug.TimeOffset != -15 {
		t.Errorf("local debug settings lost: %+v", merged.Debug)
	}
	if merged.UI.Theme != "latte" || merged.Storage.DBPath != local.Storage.DBPath {
		t.Error("local-only sections must be kept")
	}
	if local.Schedule.WorkdayStart != "09:00" {
		t.Error("MergeSettings must not modify local")
	}

	merged.Import.ExcludeCategories[0] = "changed"
	if local.Import.ExcludeCategories[0] != "Holiday" {
		t.Error("merged config shares slices with local")
	}
}

func TestHasChanges(t *testing.T) {
	base := func() *Payload { return Build(testSnapshot(), testConfig(), pushedAt()) }

	tests := []struct {
		name   string
		modify func(*Payload)
		want   bool
	}{
		{"identical", func(*Payload) {}, false},
		{"pushed later", func(p *Payload) { p.PushedAt = p.PushedAt.Add(time.Hour) }, false},
		{"debug differs", func(p *Payload) { p.Settings.DebugMode = true; p.Settings.DebugTimeOffset = 30 }, false},
		{"task renamed", func(p *Payload) { p.Tasks[0].Name = "renamed" }, true},
		{"event removed", func(p *Payload) { p.Events = p.Events[:1] }, true},
		{"timer stopped", func(p *Payload) { p.ActiveTaskID = nil }, true},
		{"setting changed", func(p *Payload) { p.Settings.WorkdayEnd = "18:00" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := base()
			tt.modify(remote)
			if got := HasChanges(base(), remote); got != tt.want {
				t.Errorf("HasChanges() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, &Payload{}, Format("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
}
