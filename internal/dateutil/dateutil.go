// Package dateutil provides calendar-day and clock arithmetic for the planner.
package dateutil

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat  = errors.New("date must be in YYYY-MM-DD format")
	ErrEndDateBeforeStart = errors.New("end date must be on or after start date")
)

// DateLayout is the storage and wire layout of a Date.
const DateLayout = "2006-01-02"

// weekdayMap maps weekday names to time.Weekday values.
var weekdayMap = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Date is a calendar day in YYYY-MM-DD form.
// Lexical order of valid dates matches chronological order.
type Date string

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// Valid reports whether d is a well-formed YYYY-MM-DD date.
func (d Date) Valid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return string(d)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, string(d), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// AddDays returns d shifted by n days. Arithmetic happens at noon UTC so
// daylight-saving transitions never skip or repeat a day.
// An invalid date is returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return d
	}
	t = time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return DateOf(t)
}

// Weekday returns the day of the week of d. Invalid dates report Sunday.
func (d Date) Weekday() time.Weekday {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d < other
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d > other
}

// DaysBetween returns the dates in [start, end], or ErrEndDateBeforeStart.
func DaysBetween(start, end Date) ([]Date, error) {
	if !start.Valid() || !end.Valid() {
		return nil, ErrInvalidDateFormat
	}
	if end.Before(start) {
		return nil, ErrEndDateBeforeStart
	}
	var days []Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days, nil
}

// ParseDate parses a date string in YYYY-MM-DD format.
// If the string is empty, returns today's date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Today(), nil
	}
	d := Date(s)
	if !d.Valid() {
		return "", ErrInvalidDateFormat
	}
	return d, nil
}

// WeekRange returns the Monday and Sunday of the ISO week containing d.
func WeekRange(d Date) (monday, sunday Date) {
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday becomes day 7 in ISO week
	}
	monday = d.AddDays(-(weekday - 1))
	sunday = monday.AddDays(6)
	return monday, sunday
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseRelativeDate parses a date string that can be:
//   - Empty string or "today": returns relativeTo
//   - "tomorrow" or "yesterday"
//   - Absolute date: "2025-01-15" (YYYY-MM-DD)
//   - Day offsets: "+3", "-1"
//   - Weekday names: "monday" through "sunday" (next occurrence, always future)
//   - Next prefixed: "next-monday" through "next-sunday", "next-week"
//
// All inputs are case-insensitive. Past dates are allowed: rendering
// history is a valid request.
// Returns ErrInvalidDateFormat for unrecognized input.
func ParseRelativeDate(s string, relativeTo Date) (Date, error) {
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "today":
		return relativeTo, nil
	case "tomorrow":
		return relativeTo.AddDays(1), nil
	case "yesterday":
		return relativeTo.AddDays(-1), nil
	case "next-week":
		return relativeTo.AddDays(7), nil
	}

	if strings.HasPrefix(input, "+") || strings.HasPrefix(input, "-") {
		n, err := strconv.Atoi(input)
		if err != nil {
			return "", ErrInvalidDateFormat
		}
		return relativeTo.AddDays(n), nil
	}

	if strings.HasPrefix(input, "next-") {
		if targetDay, ok := weekdayMap[strings.TrimPrefix(input, "next-")]; ok {
			return nextWeekday(relativeTo, targetDay), nil
		}
		return "", ErrInvalidDateFormat
	}

	if targetDay, ok := weekdayMap[input]; ok {
		return nextWeekday(relativeTo, targetDay), nil
	}

	d := Date(input)
	if !d.Valid() {
		return "", ErrInvalidDateFormat
	}
	return d, nil
}

// nextWeekday returns the next occurrence of the given weekday after today.
// If today is the target weekday, returns one week from today.
func nextWeekday(today Date, target time.Weekday) Date {
	daysUntil := int(target) - int(today.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	return today.AddDays(daysUntil)
}
