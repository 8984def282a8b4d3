package ics

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/javiermolinar/dayplan/internal/dateutil"
)

// maxOccurrences caps how many instances a single rule may produce.
const maxOccurrences = 5000

// Occurrence is one concrete instance of a calendar entry.
type Occurrence struct {
	UID        string
	Summary    string
	Start      time.Time
	End        time.Time
	AllDay     bool
	Status     Status
	IsMeeting  bool
	Categories []string
	Override   bool
}

// Expand turns parsed events into the occurrences that intersect [from, to).
//
// RRULEs are expanded with their EXDATEs removed. An override (an event with
// RECURRENCE-ID) replaces the base occurrence on the same day in loc and
// inherits any name, categories, status or meeting flag it lacks from its
// parent. Overrides without a parent and without a name are dropped.
func Expand(events []ParsedEvent, from, to time.Time, loc *time.Location) ([]Occurrence, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("expand: range end %s before start %s", to, from)
	}
	if loc == nil {
		loc = time.Local
	}

	parents := make(map[string]ParsedEvent)
	for _, ev := range events {
		if ev.RecurrenceID == nil && ev.UID != "" {
			parents[ev.UID] = ev
		}
	}

	var (
		overrides []ParsedEvent
		replaced  = make(map[string]bool)
	)
	for _, ev := range events {
		if ev.RecurrenceID == nil {
			continue
		}
		parent, ok := parents[ev.UID]
		if !ok && ev.Summary == "" {
			continue
		}
		if ok {
			ev = inherit(ev, parent)
		}
		overrides = append(overrides, ev)
		replaced[instanceKey(ev.UID, *ev.RecurrenceID, loc)] = true
	}

	var out []Occurrence
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			continue
		}
		starts, err := instanceStarts(ev, from, to)
		if err != nil {
			return nil, err
		}
		for _, start := range starts {
			if replaced[instanceKey(ev.UID, start, loc)] {
				continue
			}
			out = append(out, occurrence(ev, start, start.Add(ev.End.Sub(ev.Start)), false))
		}
	}

	for _, ov := range overrides {
		if overlaps(ov.Start, ov.End, from, to) {
			out = append(out, occurrence(ov, ov.Start, ov.End, true))
		}
	}

	slices.SortStableFunc(out, func(a, b Occurrence) int {
		return a.Start.Compare(b.Start)
	})
	return out, nil
}

// instanceStarts returns the start of every instance of ev within [from, to).
func instanceStarts(ev ParsedEvent, from, to time.Time) ([]time.Time, error) {
	if ev.RRule == "" {
		if overlaps(ev.Start, ev.End, from, to) {
			return []time.Time{ev.Start}, nil
		}
		return nil, nil
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		return nil, fmt.Errorf("parsing RRULE of %q: %w", ev.UID, err)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Instances starting before from may still run into the range.
	dur := ev.End.Sub(ev.Start)
	starts := set.Between(from.Add(-dur), to, true)
	if len(starts) > maxOccurrences {
		starts = starts[:maxOccurrences]
	}

	out := starts[:0]
	for _, s := range starts {
		if overlaps(s, s.Add(dur), from, to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func inherit(ov, parent ParsedEvent) ParsedEvent {
	if ov.Summary == "" {
		ov.Summary = parent.Summary
	}
	if len(ov.Categories) == 0 {
		ov.Categories = parent.Categories
	}
	if !ov.IsMeeting {
		ov.IsMeeting = parent.IsMeeting
	}
	if ov.Status == StatusUnknown {
		ov.Status = parent.Status
	}
	return ov
}

func instanceKey(uid string, t time.Time, loc *time.Location) string {
	return uid + "|" + dateutil.DateOf(t.In(loc)).String()
}

func occurrence(ev ParsedEvent, start, end time.Time, override bool) Occurrence {
	return Occurrence{
		UID:        ev.UID,
		Summary:    ev.Summary,
		Start:      start,
		End:        end,
		AllDay:     ev.AllDay,
		Status:     ev.Status,
		IsMeeting:  ev.IsMeeting,
		Categories: ev.Categories,
		Override:   override,
	}
}

// overlaps reports whether [aStart, aEnd) intersects [bStart, bEnd).
// Zero-length entries count when they start inside the range.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aEnd.After(aStart) {
		return !aStart.Before(bStart) && aStart.Before(bEnd)
	}
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
