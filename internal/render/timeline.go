// Package render draws scheduled days for the terminal and converts them to
// plain records for machine-readable output.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/scheduler"
	"github.com/javiermolinar/dayplan/internal/task"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// Block markers.
const (
	markTask      = "■"
	markActive    = "▶"
	markCompleted = "✓"
	markEvent     = "◆"
	markPause     = "‖"
	arrowBefore   = "↑"
	arrowAfter    = "↓"
)

// Options configures Timeline.
type Options struct {
	Date  dateutil.Date
	Today dateutil.Date
	// Now is minutes since midnight; the now marker is drawn only on Today.
	Now   int
	Width int
	// Palette colors the output. A nil palette renders plain text.
	Palette *Palette
	Tags    map[int64]task.Tag
}

// Timeline renders blocks as one line per block under a date header.
func Timeline(blocks []scheduler.Block, opts Options) string {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	st := newStyles(opts.Palette)

	var b strings.Builder
	b.WriteString(st.header.Render(header(opts.Date, opts.Today)))
	b.WriteString("\n")

	if len(blocks) == 0 {
		b.WriteString(st.muted.Render("  nothing scheduled"))
		b.WriteString("\n")
		return b.String()
	}

	showNow := opts.Date != "" && opts.Date == opts.Today
	for _, blk := range blocks {
		if showNow && blk.Base().Start >= opts.Now {
			b.WriteString(st.now.Render(nowLine(opts.Now)))
			b.WriteString("\n")
			showNow = false
		}
		b.WriteString(line(blk, opts, st, width))
		b.WriteString("\n")
	}
	if showNow {
		b.WriteString(st.now.Render(nowLine(opts.Now)))
		b.WriteString("\n")
	}
	return b.String()
}

func header(date, today dateutil.Date) string {
	if !date.Valid() {
		return string(date)
	}
	h := fmt.Sprintf("%s %s", date.Weekday(), date)
	if date == today {
		h += " (today)"
	}
	return h
}

func nowLine(now int) string {
	return fmt.Sprintf("  ── now %s ──", dateutil.MinutesToTime(now))
}

// line renders a block as "  HH:MM–HH:MM  M name  detail".
func line(blk scheduler.Block, opts Options, st styles, width int) string {
	base := blk.Base()
	span := fmt.Sprintf("%s–%s", dateutil.MinutesToTime(base.Start), dateutil.MinutesToTime(base.End))

	var (
		mark   string
		name   = base.Name
		detail []string
		style  lipgloss.Style
	)
	switch b := blk.(type) {
	case scheduler.TaskBlock:
		switch {
		case b.Completed:
			mark, style = markCompleted, st.done
		case b.Active:
			mark, style = markActive, st.current
		default:
			mark, style = markTask, st.task
		}
		if b.ContinuesBefore {
			name = arrowBefore + " " + name
		}
		if b.ContinuesAfter {
			name = name + " " + arrowAfter
		}
		if b.PausedRemaining {
			detail = append(detail, "paused")
		}
	case scheduler.EventBlock:
		mark, style = markEvent, st.event
		if b.TotalColumns > 1 {
			detail = append(detail, fmt.Sprintf("[%d/%d]", b.Column+1, b.TotalColumns))
		}
	case scheduler.PauseBlock:
		mark, style = markPause, st.pause
	}
	if base.Past {
		style = st.muted
	}
	if tag, ok := opts.Tags[derefID(base.TagID)]; ok && base.TagID != nil {
		detail = append(detail, "#"+tag.Name)
		if st.enabled && !base.Past {
			style = style.Foreground(TagColor(tag.Color, st.palette.Task))
		}
	}
	detail = append([]string{dateutil.FormatDuration(base.Duration())}, detail...)

	suffix := strings.Join(detail, "  ")
	nameWidth := width - lipgloss.Width(span) - lipgloss.Width(suffix) - 10
	name = padRight(truncate(name, max(nameWidth, 8)), max(nameWidth, 8))

	return fmt.Sprintf("  %s  %s %s  %s", span, style.Render(mark), style.Render(name), st.muted.Render(suffix))
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

type styles struct {
	enabled bool
	palette *Palette

	header  lipgloss.Style
	muted   lipgloss.Style
	now     lipgloss.Style
	task    lipgloss.Style
	done    lipgloss.Style
	current lipgloss.Style
	event   lipgloss.Style
	pause   lipgloss.Style
}

func newStyles(p *Palette) styles {
	if p == nil {
		plain := lipgloss.NewStyle()
		return styles{
			header: plain, muted: plain, now: plain, task: plain,
			done: plain, current: plain, event: plain, pause: plain,
		}
	}
	return styles{
		enabled: true,
		palette: p,
		header:  lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		muted:   lipgloss.NewStyle().Foreground(p.FgMuted),
		now:     lipgloss.NewStyle().Bold(true).Foreground(p.Now),
		task:    lipgloss.NewStyle().Foreground(p.Task),
		done:    lipgloss.NewStyle().Foreground(p.Done),
		current: lipgloss.NewStyle().Bold(true).Foreground(p.Current),
		event:   lipgloss.NewStyle().Foreground(p.Event),
		pause:   lipgloss.NewStyle().Italic(true).Foreground(p.Pause),
	}
}
