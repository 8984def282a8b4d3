package task

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	tagSuffix      = regexp.MustCompile(`^(.+?)\s+\[(.+?)\]$`)
	durationSuffix = regexp.MustCompile(`^(.+?)\s+(\d+)$`)
	eventLine      = regexp.MustCompile(`^(.+?)\s+(\d{1,2}:\d{2})\s*-\s*(\d{1,2}:\d{2})\s+(\d{4}-\d{2}-\d{2})(?:\s+\[(.+?)\])?$`)
)

// TaskLine is one entry of a task list typed one task per line.
type TaskLine struct {
	Name     string
	Duration int
	Tag      string // tag name, "" when the line names none
}

// SplitLines returns the trimmed, non-blank lines of text.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ParseTaskLine reads "name [minutes] [[tag]]". With smart unset, a
// trailing number stays part of the name and fallback is the duration.
func ParseTaskLine(line string, fallback int, smart bool) TaskLine {
	tl := TaskLine{Name: strings.TrimSpace(line), Duration: fallback}

	if m := tagSuffix.FindStringSubmatch(tl.Name); m != nil {
		tl.Name, tl.Tag = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if !smart {
		return tl
	}
	if m := durationSuffix.FindStringSubmatch(tl.Name); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil {
			tl.Name, tl.Duration = strings.TrimSpace(m[1]), n
		}
	}
	return tl
}

// ParseTasks builds a task from each line. Tasks take tagID unless their
// line names a tag of tags.
func ParseTasks(lines []string, fallback int, smart bool, tags []Tag, tagID *int64) ([]*Task, error) {
	tasks := make([]*Task, 0, len(lines))
	for _, line := range lines {
		tl := ParseTaskLine(line, fallback, smart)
		t, err := New(tl.Name, tl.Duration)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", line, err)
		}
		t.TagID = tagID
		if tl.Tag != "" {
			tag, ok := FindTag(tags, tl.Tag)
			if !ok {
				return nil, fmt.Errorf("task %q: %w: %s", line, ErrUnknownTag, tl.Tag)
			}
			t.TagID = &tag.ID
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// ParseEventLine reads "name HH:MM-HH:MM YYYY-MM-DD [[tag]]" and returns the
// event with the tag name. ok is false for lines that do not hold a valid
// event.
func ParseEventLine(line string) (e *Event, tag string, ok bool) {
	m := eventLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, "", false
	}
	e, err := NewEvent(m[1], m[4], padTime(m[2]), padTime(m[3]))
	if err != nil {
		return nil, "", false
	}
	return e, strings.TrimSpace(m[5]), true
}

// "9:30" -> "09:30"
func padTime(s string) string {
	if len(s) < 5 {
		return strings.Repeat("0", 5-len(s)) + s
	}
	return s
}

// FindTag returns the tag called name, ignoring case.
func FindTag(tags []Tag, name string) (*Tag, bool) {
	for i := range tags {
		if strings.EqualFold(tags[i].Name, name) {
			return &tags[i], true
		}
	}
	return nil, false
}

// SameSlot reports whether e and o share name, date and times.
func (e Event) SameSlot(o Event) bool {
	return e.Name == o.Name && e.Date == o.Date && e.Start == o.Start && e.End == o.End
}
