package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/render"
)

const helpText = "←/→ day · ↑/↓ scroll · t today · n now · space timer · d done · x cancel · a add · c copy · q quit"

// View renders the model.
func (m Model) View() string {
	if !m.loaded {
		if m.err != nil {
			return fmt.Sprintf("error: %v\n\npress q to quit\n", m.err)
		}
		return "loading…\n"
	}

	footer := m.footer()
	var b strings.Builder
	if m.height > 0 {
		// The footer's height changes with the status line.
		vp := m.viewport
		vp.Height = max(1, m.height-strings.Count(footer, "\n"))
		b.WriteString(vp.View())
	} else {
		b.WriteString(render.Timeline(m.blocks, m.timelineOptions()))
	}
	b.WriteString("\n")
	b.WriteString(footer)
	return b.String()
}

func (m Model) footerHeight() int {
	return strings.Count(m.footer(), "\n")
}

// footer shows the running or paused task, the last status or error, and
// the key help.
func (m Model) footer() string {
	muted := lipgloss.NewStyle()
	accent := lipgloss.NewStyle().Bold(true)
	if m.palette != nil {
		muted = muted.Foreground(m.palette.FgMuted)
		accent = accent.Foreground(m.palette.Current)
	}

	var lines []string
	if t, ok := m.backlog.Active(); ok {
		elapsed := m.backlog.Elapsed(m.now, m.today)
		lines = append(lines, accent.Render(fmt.Sprintf("▶ %s  %s / %s",
			t.Name, dateutil.FormatDuration(elapsed), dateutil.FormatDuration(t.EffectiveDuration()))))
	} else {
		for _, t := range m.backlog.Tasks() {
			if t.IsPaused() {
				lines = append(lines, accent.Render(fmt.Sprintf("‖ %s paused at %s",
					t.Name, dateutil.MinutesToTime(t.Paused.Start))))
				break
			}
		}
	}

	switch {
	case m.err != nil:
		lines = append(lines, "error: "+m.err.Error())
	case m.status != "":
		lines = append(lines, m.status)
	}
	if m.adding {
		lines = append(lines, m.prompt.View())
	}
	lines = append(lines, muted.Render(helpText))
	return strings.Join(lines, "\n") + "\n"
}
