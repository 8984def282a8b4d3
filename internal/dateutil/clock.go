package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the length of a calendar day in minutes.
const MinutesPerDay = 24 * 60

// TimeToMinutes converts "HH:MM" to minutes since midnight.
// Malformed or missing input returns 0 so corrupt stored records still schedule.
func TimeToMinutes(t string) int {
	hh, mm, ok := strings.Cut(strings.TrimSpace(t), ":")
	if !ok {
		return 0
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 {
		return 0
	}
	mins, err := strconv.Atoi(mm)
	if err != nil || mins < 0 {
		return 0
	}
	return hours*60 + mins
}

// MinutesToTime converts minutes since midnight to "HH:MM" format.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m >= MinutesPerDay {
		m = MinutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ValidTime reports whether s is a strict 24-hour "HH:MM" value.
func ValidTime(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// MinutesOf returns the wall-clock minutes of t plus offset.
func MinutesOf(t time.Time, offset int) int {
	return t.Hour()*60 + t.Minute() + offset
}

// CurrentMinutes returns the local wall-clock minutes since midnight plus offset.
// The offset is always supplied by the caller; nothing here reads debug state.
func CurrentMinutes(offset int) int {
	return MinutesOf(time.Now(), offset)
}

// FormatDuration renders minutes as "45m", "2h" or "2h 30m".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// Format12h renders minutes since midnight as "9:05 AM".
func Format12h(minutes int) string {
	hours, mins := minutes/60, minutes%60
	period := "AM"
	if hours >= 12 {
		period = "PM"
	}
	display := hours
	switch {
	case hours == 0:
		display = 12
	case hours > 12:
		display = hours - 12
	}
	return fmt.Sprintf("%d:%02d %s", display, mins, period)
}
