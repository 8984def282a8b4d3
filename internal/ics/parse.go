// Package ics imports fixed events from iCalendar feeds: parsing, recurrence
// expansion, import filters and HTTP fetching.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Status is the free/busy state of a calendar entry.
type Status string

// Known statuses. StatusUnknown is treated like StatusBusy when filtering
// but lets a recurrence override inherit its parent's status.
const (
	StatusUnknown          Status = ""
	StatusBusy             Status = "BUSY"
	StatusOOF              Status = "OOF"
	StatusTentative        Status = "TENTATIVE"
	StatusFree             Status = "FREE"
	StatusWorkingElsewhere Status = "WORKING-ELSEWHERE"
)

var ErrEmptyCalendar = errors.New("empty ICS body")

// Properties not covered by the library's constants.
const (
	propRecurrenceID = ical.ComponentProperty("RECURRENCE-ID")
	propBusyStatus   = ical.ComponentProperty("X-MICROSOFT-CDO-BUSYSTATUS")
)

// ParsedEvent is one VEVENT with the fields an import needs.
type ParsedEvent struct {
	UID        string
	Summary    string
	Start      time.Time
	End        time.Time
	AllDay     bool
	Status     Status
	IsMeeting  bool
	Categories []string

	RRule        string
	ExDates      []time.Time
	RecurrenceID *time.Time // set on overrides of a recurring instance
}

// Parse reads every VEVENT of an ICS payload. Floating times are read in loc.
// Events without a usable DTSTART are skipped.
func Parse(body []byte, loc *time.Location) ([]ParsedEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyCalendar
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	var events []ParsedEvent
	for _, ve := range cal.Events() {
		ev, ok := parseVEvent(ve, loc)
		if ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (ParsedEvent, bool) {
	var out ParsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = strings.TrimSpace(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, false
	}
	start, allDay, err := propertyTime(dtStart, loc)
	if err != nil {
		return out, false
	}
	out.Start = start
	out.AllDay = allDay

	out.End = start
	if allDay {
		out.End = start.AddDate(0, 0, 1)
	}
	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		if end, _, err := propertyTime(dtEnd, loc); err == nil {
			out.End = end
		}
	}

	out.Status = busyStatus(ve)
	out.IsMeeting = len(ve.GetProperties(ical.ComponentPropertyAttendee)) > 0

	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out.Categories = append(out.Categories, c)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		tzid := param(p, "TZID")
		for _, part := range strings.Split(p.Value, ",") {
			if t, _, err := parseTime(strings.TrimSpace(part), tzid, loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(propRecurrenceID); p != nil && out.UID != "" {
		if t, _, err := propertyTime(p, loc); err == nil {
			out.RecurrenceID = &t
		}
	}

	return out, true
}

// busyStatus picks the entry's status. The Outlook busy-status property wins,
// then the attendee participation status, then TRANSP.
func busyStatus(ve *ical.VEvent) Status {
	if p := ve.GetProperty(propBusyStatus); p != nil && strings.TrimSpace(p.Value) != "" {
		return Status(strings.ToUpper(strings.TrimSpace(p.Value)))
	}

	partstat := ""
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		if v := param(p, "PARTSTAT"); v != "" {
			partstat = strings.ToUpper(v)
		}
	}
	switch partstat {
	case "DECLINED":
		return StatusFree
	case "TENTATIVE":
		return StatusTentative
	}

	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		return StatusFree
	}
	return StatusUnknown
}

func param(p *ical.IANAProperty, name string) string {
	if p == nil || p.ICalParameters == nil {
		return ""
	}
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return strings.Trim(vs[0], `"`)
	}
	return ""
}

// propertyTime reads a DATE or DATE-TIME property, honouring VALUE and TZID.
func propertyTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	t, allDay, err := parseTime(strings.TrimSpace(p.Value), param(p, "TZID"), loc)
	if err != nil {
		return t, false, err
	}
	if strings.EqualFold(param(p, "VALUE"), "DATE") {
		allDay = true
	}
	return t, allDay, nil
}

// parseTime parses the three RFC 5545 forms: UTC ("...Z"), zoned through
// tzid, and floating (read in loc). Date-only values report allDay.
func parseTime(v, tzid string, loc *time.Location) (time.Time, bool, error) {
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t, false, err
	}

	in := loc
	if tzid != "" {
		if zone, err := lookupZone(tzid); err == nil {
			in = zone
		}
	}

	if strings.Contains(v, "T") {
		t, err := time.ParseInLocation("20060102T150405", v, in)
		return t, false, err
	}
	t, err := time.ParseInLocation("20060102", v, loc)
	return t, true, err
}

// windowsZones maps the Windows zone names Outlook exports to IANA names.
var windowsZones = map[string]string{
	"Eastern Standard Time":          "America/New_York",
	"Central Standard Time":          "America/Chicago",
	"Mountain Standard Time":         "America/Denver",
	"Pacific Standard Time":          "America/Los_Angeles",
	"US Mountain Standard Time":      "America/Phoenix",
	"Alaska Standard Time":           "America/Anchorage",
	"Hawaiian Standard Time":         "Pacific/Honolulu",
	"Atlantic Standard Time":         "America/Halifax",
	"GMT Standard Time":              "Europe/London",
	"Greenwich Standard Time":        "Atlantic/Reykjavik",
	"W. Europe Standard Time":        "Europe/Berlin",
	"Central European Standard Time": "Europe/Warsaw",
	"Romance Standard Time":          "Europe/Paris",
	"Central Europe Standard Time":   "Europe/Budapest",
	"E. Europe Standard Time":        "Europe/Chisinau",
	"FLE Standard Time":              "Europe/Kiev",
	"GTB Standard Time":              "Europe/Bucharest",
	"Russian Standard Time":          "Europe/Moscow",
	"Israel Standard Time":           "Asia/Jerusalem",
	"India Standard Time":            "Asia/Kolkata",
	"China Standard Time":            "Asia/Shanghai",
	"Tokyo Standard Time":            "Asia/Tokyo",
	"AUS Eastern Standard Time":      "Australia/Sydney",
	"New Zealand Standard Time":      "Pacific/Auckland",
}

func lookupZone(tzid string) (*time.Location, error) {
	if name, ok := windowsZones[tzid]; ok {
		tzid = name
	}
	return time.LoadLocation(tzid)
}
