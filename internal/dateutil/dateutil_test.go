package dateutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		got, err := ParseDate("2025-01-15")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "2025-01-15" {
			t.Errorf("got %v, want 2025-01-15", got)
		}
	})

	t.Run("empty defaults to today", func(t *testing.T) {
		got, err := ParseDate("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != Today() {
			t.Errorf("got %v, want %v", got, Today())
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := ParseDate("01-15-2025")
		if !errors.Is(err, ErrInvalidDateFormat) {
			t.Errorf("got error %v, want %v", err, ErrInvalidDateFormat)
		}
	})
}

func TestDate_AddDays(t *testing.T) {
	tests := []struct {
		name string
		date Date
		n    int
		want Date
	}{
		{name: "next day", date: "2025-01-15", n: 1, want: "2025-01-16"},
		{name: "previous day", date: "2025-01-15", n: -1, want: "2025-01-14"},
		{name: "month boundary", date: "2025-01-31", n: 1, want: "2025-02-01"},
		{name: "leap day", date: "2024-02-28", n: 1, want: "2024-02-29"},
		{name: "year boundary", date: "2024-12-31", n: 1, want: "2025-01-01"},
		{name: "across DST start", date: "2025-03-08", n: 2, want: "2025-03-10"},
		{name: "invalid unchanged", date: "garbage", n: 3, want: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.date.AddDays(tt.n); got != tt.want {
				t.Errorf("AddDays(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestDate_Ordering(t *testing.T) {
	a, b := Date("2025-01-09"), Date("2025-01-10")
	if !a.Before(b) || b.Before(a) {
		t.Errorf("expected %v before %v", a, b)
	}
	if !b.After(a) || a.After(b) {
		t.Errorf("expected %v after %v", b, a)
	}
	if a.Before(a) || a.After(a) {
		t.Error("a date is neither before nor after itself")
	}
}

func TestDate_Time(t *testing.T) {
	got, err := Date("2025-01-15").Time(time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := Date("nope").Time(time.UTC); !errors.Is(err, ErrInvalidDateFormat) {
		t.Errorf("got error %v, want %v", err, ErrInvalidDateFormat)
	}
}

func TestDaysBetween(t *testing.T) {
	days, err := DaysBetween("2025-01-30", "2025-02-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Date{"2025-01-30", "2025-01-31", "2025-02-01", "2025-02-02"}
	if len(days) != len(want) {
		t.Fatalf("got %d days, want %d", len(days), len(want))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day %d = %v, want %v", i, days[i], want[i])
		}
	}

	if _, err := DaysBetween("2025-02-02", "2025-01-30"); !errors.Is(err, ErrEndDateBeforeStart) {
		t.Errorf("got error %v, want %v", err, ErrEndDateBeforeStart)
	}
}

func TestWeekRange(t *testing.T) {
	tests := []struct {
		name       string
		input      Date
		wantMonday Date
		wantSunday Date
	}{
		{name: "wednesday", input: "2025-01-15", wantMonday: "2025-01-13", wantSunday: "2025-01-19"},
		{name: "monday", input: "2025-01-13", wantMonday: "2025-01-13", wantSunday: "2025-01-19"},
		{name: "sunday", input: "2025-01-19", wantMonday: "2025-01-13", wantSunday: "2025-01-19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monday, sunday := WeekRange(tt.input)
			if monday != tt.wantMonday {
				t.Errorf("monday = %v, want %v", monday, tt.wantMonday)
			}
			if sunday != tt.wantSunday {
				t.Errorf("sunday = %v, want %v", sunday, tt.wantSunday)
			}
		})
	}
}

func TestTruncateToDay(t *testing.T) {
	input := time.Date(2025, 1, 15, 14, 30, 45, 123, time.UTC)
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := TruncateToDay(input); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseRelativeDate(t *testing.T) {
	// Wednesday
	ref := Date("2025-01-15")

	tests := []struct {
		name  string
		input string
		want  Date
	}{
		{name: "empty", input: "", want: "2025-01-15"},
		{name: "today", input: "Today", want: "2025-01-15"},
		{name: "tomorrow", input: "tomorrow", want: "2025-01-16"},
		{name: "yesterday", input: "yesterday", want: "2025-01-14"},
		{name: "next week", input: "next-week", want: "2025-01-22"},
		{name: "plus offset", input: "+3", want: "2025-01-18"},
		{name: "minus offset", input: "-2", want: "2025-01-13"},
		{name: "weekday later this week", input: "friday", want: "2025-01-17"},
		{name: "same weekday is next week", input: "wednesday", want: "2025-01-22"},
		{name: "next prefixed", input: "NEXT-MONDAY", want: "2025-01-20"},
		{name: "absolute", input: "2025-03-01", want: "2025-03-01"},
		{name: "absolute in past", input: "2024-12-31", want: "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeDate(tt.input, ref)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseRelativeDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRelativeDate_Errors(t *testing.T) {
	ref := Date("2025-01-15")
	for _, input := range []string{"someday", "next-monthday", "+x", "2025-13-01"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseRelativeDate(input, ref); !errors.Is(err, ErrInvalidDateFormat) {
				t.Errorf("got error %v, want %v", err, ErrInvalidDateFormat)
			}
		})
	}
}
