package ics

import (
	"strings"
	"time"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

// Source marks events created by an import.
const Source = "ics"

// DefaultName names imported entries without a summary.
const DefaultName = "Imported Event"

// Rules selects which occurrences an import keeps.
type Rules struct {
	Busy              bool
	OOF               bool
	Tentative         bool
	Free              bool
	WorkingElsewhere  bool
	MeetingsOnly      bool
	ExcludeCategories []string
	Categories        []CategoryRule
}

// CategoryRule maps a calendar category to a decision: drop the entry, or
// keep it and label it with a tag.
type CategoryRule struct {
	Category string
	Exclude  bool
	TagID    *int64
}

// allows reports whether occurrences with status s are imported. Unknown
// statuses follow the Busy setting.
func (r Rules) allows(s Status) bool {
	switch s {
	case StatusOOF:
		return r.OOF
	case StatusTentative:
		return r.Tentative
	case StatusFree:
		return r.Free
	case StatusWorkingElsewhere:
		return r.WorkingElsewhere
	default:
		return r.Busy
	}
}

// Categorize applies the category rules to an entry. It is dropped when
// any of its categories is excluded; otherwise it takes the tag of the
// first category with a tagged rule. Matching ignores case.
func (r Rules) Categorize(categories []string) (include bool, tagID *int64) {
	for _, c := range categories {
		c = strings.TrimSpace(c)
		for _, x := range r.ExcludeCategories {
			if strings.EqualFold(strings.TrimSpace(x), c) {
				return false, nil
			}
		}
		for _, rule := range r.Categories {
			if !strings.EqualFold(strings.TrimSpace(rule.Category), c) {
				continue
			}
			if rule.Exclude {
				return false, nil
			}
			if tagID == nil && rule.TagID != nil {
				tagID = rule.TagID
			}
		}
	}
	return true, tagID
}

// Filter keeps the occurrences allowed by rules whose day in loc falls in
// [minDate, maxDate]. All-day and zero-length entries are dropped: they have
// no minute range to block.
func Filter(occs []Occurrence, rules Rules, minDate, maxDate dateutil.Date, loc *time.Location) []Occurrence {
	if loc == nil {
		loc = time.Local
	}

	var out []Occurrence
	for _, o := range occs {
		if o.AllDay || !o.End.After(o.Start) {
			continue
		}
		if !rules.allows(o.Status) {
			continue
		}
		d := dateutil.DateOf(o.Start.In(loc))
		if d.Before(minDate) || d.After(maxDate) {
			continue
		}
		if rules.MeetingsOnly && !o.IsMeeting {
			continue
		}
		if include, _ := rules.Categorize(o.Categories); !include {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ToEvents converts occurrences to events on their start day in loc, tagged
// by the category rules. Entries running past midnight end at 23:59.
func ToEvents(occs []Occurrence, rules Rules, loc *time.Location) []*task.Event {
	if loc == nil {
		loc = time.Local
	}

	events := make([]*task.Event, 0, len(occs))
	for _, o := range occs {
		start := o.Start.In(loc)
		end := o.End.In(loc)

		startMin := dateutil.MinutesOf(start, 0)
		endMin := dateutil.MinutesOf(end, 0)
		if dateutil.DateOf(end) != dateutil.DateOf(start) {
			endMin = dateutil.MinutesPerDay - 1
		}
		if endMin <= startMin {
			continue
		}

		name := o.Summary
		if name == "" {
			name = DefaultName
		}
		_, tagID := rules.Categorize(o.Categories)
		events = append(events, &task.Event{
			Name:   name,
			TagID:  tagID,
			Date:   dateutil.DateOf(start),
			Start:  dateutil.MinutesToTime(startMin),
			End:    dateutil.MinutesToTime(endMin),
			Source: Source,
			UID:    o.UID,
		})
	}
	return events
}

// Dedupe drops incoming events that duplicate an existing manual event
// (same name, date, start and end).
func Dedupe(existing []task.Event, incoming []*task.Event) []*task.Event {
	type key struct {
		name, start, end string
		date             dateutil.Date
	}
	manual := make(map[key]bool)
	for _, e := range existing {
		if e.Source == "" {
			manual[key{e.Name, e.Start, e.End, e.Date}] = true
		}
	}

	out := make([]*task.Event, 0, len(incoming))
	for _, e := range incoming {
		if !manual[key{e.Name, e.Start, e.End, e.Date}] {
			out = append(out, e)
		}
	}
	return out
}
