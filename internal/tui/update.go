package tui

import (
	"errors"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/dayplan/internal/render"
	"github.com/javiermolinar/dayplan/internal/task"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.loaded {
			m.refreshViewport()
		}
		return m, nil

	case tickMsg:
		if msg.gen != m.tickGen {
			return m, nil
		}
		previous := m.today
		m.syncClock()
		if m.date == previous && m.today != previous {
			// Follow the day over midnight when today was selected.
			m.date = m.today
		}
		m.schedule()
		return m, tea.Batch(m.load(), m.tick())

	case loadedMsg:
		// A load started before the latest save may read the old backlog.
		if m.saving > 0 || msg.gen != m.saveGen {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("load failed", "date", string(m.date), "error", msg.err)
			return m, nil
		}
		m.err = nil
		m.stale = false
		wasRunning := m.backlog != nil && m.backlog.ActiveID() != nil
		m.input = msg.input
		m.backlog = msg.backlog
		m.tags = msg.tags
		m.loaded = true
		m.schedule()
		if running := m.backlog.ActiveID() != nil; running != wasRunning {
			return m, m.restartTick()
		}
		return m, nil

	case savedMsg:
		m.saving--
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("save failed", "action", msg.action, "error", msg.err)
			return m, m.load()
		}
		m.logger.Debug("timer action saved", "action", msg.action, "now", m.now)
		return m, m.load()

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "timeline copied"
		}
		return m, nil
	}

	// Cursor blinks of the add prompt.
	if m.adding {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.logger.Debug("key press", "key", msg.String())
	if m.adding {
		return m.handlePromptKey(msg)
	}
	m.status = ""

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit

	case "h", "left":
		m.date = m.date.AddDays(-1)
		m.follow = true
		return m, m.load()
	case "l", "right":
		m.date = m.date.AddDays(1)
		m.follow = true
		return m, m.load()
	case "t":
		m.syncClock()
		m.date = m.today
		m.follow = true
		return m, m.load()

	case "k", "up":
		m.scroll(-1)
	case "j", "down":
		m.scroll(1)
	case "pgup":
		m.scroll(-m.viewport.Height)
	case "pgdown":
		m.scroll(m.viewport.Height)
	case "n":
		m.follow = true
		m.refreshViewport()

	case "a":
		if !m.loaded {
			return m, nil
		}
		m.adding = true
		m.prompt.Reset()
		m.prompt.Focus()
		m.refreshViewport()
		return m, textinput.Blink

	case " ", "s":
		return m.timerAction("toggle", Model.toggle)
	case "d":
		return m.timerAction("complete", func(m Model) error {
			return m.backlog.Complete(m.now, m.today, m.config.Schedule.AutoStartNext)
		})
	case "x":
		return m.timerAction("cancel", func(m Model) error { return m.backlog.Cancel() })

	case "c":
		text := render.Timeline(m.blocks, render.Options{
			Date: m.date, Today: m.today, Now: m.now, Width: m.width, Tags: m.tags,
		})
		return m, copyToClipboard(text)
	}
	return m, nil
}

// handlePromptKey edits the add prompt. Enter stores the typed tasks and esc
// drops them.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.adding = false
		m.prompt.Blur()
		m.refreshViewport()
		return m, nil
	case "enter":
		text := m.prompt.Value()
		m.adding = false
		m.prompt.Blur()
		m.prompt.Reset()
		cmd := m.addTasks(text)
		m.refreshViewport()
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// scroll moves the timeline by n lines and stops following the now line.
func (m *Model) scroll(n int) {
	if !m.loaded {
		return
	}
	m.follow = false
	m.viewport.SetYOffset(m.viewport.YOffset + n)
}

// timerAction applies fn to the backlog and saves it.
func (m Model) timerAction(name string, fn func(Model) error) (tea.Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	// The local backlog must match storage before it is written back whole.
	if m.saving > 0 || m.stale {
		m.status = "saving…"
		return m, nil
	}
	m.syncClock()
	if err := fn(m); err != nil {
		m.status = describe(err)
		return m, nil
	}
	m.schedule()
	save := m.save(name)
	// The tick interval depends on whether a task runs now.
	return m, tea.Batch(save, m.restartTick())
}

// toggle pauses the running task, resumes the paused one, or starts the
// first incomplete task.
func (m Model) toggle() error {
	if m.backlog.ActiveID() != nil {
		return m.backlog.Pause(m.now, m.today)
	}
	return m.backlog.Resume(m.now, m.today)
}

func describe(err error) string {
	switch {
	case errors.Is(err, task.ErrNoActiveTask):
		return "no task is running"
	case errors.Is(err, task.ErrNoIncompleteTask):
		return "backlog is empty"
	default:
		return err.Error()
	}
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(text)}
	}
}
