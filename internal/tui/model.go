// Package tui provides the live terminal view of the day plan.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/dayplan/internal/config"
	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/render"
	"github.com/javiermolinar/dayplan/internal/scheduler"
	"github.com/javiermolinar/dayplan/internal/summary"
	"github.com/javiermolinar/dayplan/internal/task"
)

// Refresh intervals.
const (
	RunningInterval = time.Second
	IdleInterval    = 15 * time.Second
)

// Model is the watch view: one day of the plan, redrawn on every tick.
type Model struct {
	repo    task.Repository
	config  *config.Config
	logger  *slog.Logger
	palette *render.Palette
	nowFunc func() time.Time

	date  dateutil.Date // selected day
	today dateutil.Date
	now   int

	input   scheduler.Input
	backlog *task.Backlog
	tags    map[int64]task.Tag
	blocks  []scheduler.Block
	loaded  bool
	saving  int  // saves in flight; loads are ignored until they land
	saveGen int  // bumped per save; loads started before the last one are stale
	stale   bool // the backlog changed in storage and is not reloaded yet
	tickGen int

	viewport viewport.Model
	follow   bool // keep the now line in view
	adding   bool
	prompt   textinput.Model

	width  int
	height int
	status string
	err    error
}

// Option configures a Model.
type Option func(*Model)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.nowFunc = now }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithPalette sets the colors. A nil palette renders plain text.
func WithPalette(p *render.Palette) Option {
	return func(m *Model) { m.palette = p }
}

// New creates the watch model for today.
func New(repo task.Repository, cfg *config.Config, opts ...Option) Model {
	prompt := textinput.New()
	prompt.Prompt = "add: "
	prompt.Placeholder = "name 30 [tag], several separated by ;"
	prompt.CharLimit = 512

	m := Model{
		repo:     repo,
		config:   cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		nowFunc:  time.Now,
		viewport: viewport.New(0, 0),
		follow:   true,
		prompt:   prompt,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.syncClock()
	m.date = m.today
	return m
}

// Run starts the full-screen watch view and blocks until it exits.
func Run(repo task.Repository, cfg *config.Config, opts ...Option) error {
	m := New(repo, cfg, opts...)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running watch view: %w", err)
	}
	return nil
}

type (
	tickMsg struct {
		at  time.Time
		gen int
	}
	loadedMsg struct {
		gen     int
		input   scheduler.Input
		backlog *task.Backlog
		tags    map[int64]task.Tag
		err     error
	}
	savedMsg struct {
		action string
		err    error
	}
	copiedMsg struct{ err error }
)

// Init loads the first frame and starts the clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

// interval is fast while a task runs so its elapsed time stays current.
func (m Model) interval() time.Duration {
	if m.backlog != nil && m.backlog.ActiveID() != nil {
		return RunningInterval
	}
	return IdleInterval
}

func (m Model) tick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.interval(), func(t time.Time) tea.Msg { return tickMsg{at: t, gen: gen} })
}

// restartTick replaces the running tick chain, for when the interval changes.
func (m *Model) restartTick() tea.Cmd {
	m.tickGen++
	return m.tick()
}

func (m *Model) syncClock() {
	t := m.nowFunc()
	m.today = dateutil.DateOf(t)
	m.now = m.config.Now(t)
}

// load reads the backlog, events and tags for the selected day.
func (m Model) load() tea.Cmd {
	repo, settings := m.repo, m.config.Settings()
	date, today, now := m.date, m.today, m.now
	gen := m.saveGen
	return func() tea.Msg {
		ctx := context.Background()
		in, backlog, err := summary.LoadInput(ctx, repo, settings, date, date, today, now)
		if err != nil {
			return loadedMsg{gen: gen, err: err}
		}
		tags, err := repo.ListTags(ctx)
		if err != nil {
			return loadedMsg{gen: gen, err: fmt.Errorf("fetching tags: %w", err)}
		}
		byID := make(map[int64]task.Tag, len(tags))
		for _, t := range tags {
			byID[t.ID] = t
		}
		return loadedMsg{gen: gen, input: in, backlog: backlog, tags: byID}
	}
}

// save persists a copy of the backlog after a timer action.
func (m *Model) save(action string) tea.Cmd {
	m.saving++
	m.saveGen++
	repo := m.repo
	backlog := task.NewBacklog(m.backlog.Tasks(), m.backlog.ActiveID())
	return func() tea.Msg {
		return savedMsg{action: action, err: repo.SaveBacklog(context.Background(), backlog)}
	}
}

// addTasks stores the tasks typed in the prompt at the end of the backlog.
// Entries are separated by ";" or new lines.
func (m *Model) addTasks(text string) tea.Cmd {
	tags := make([]task.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		tags = append(tags, t)
	}
	lines := task.SplitLines(strings.ReplaceAll(text, ";", "\n"))
	tasks, err := task.ParseTasks(lines, m.config.UI.DefaultDuration, m.config.UI.SmartDuration, tags, nil)
	if err != nil {
		m.status = describe(err)
		return nil
	}
	if len(tasks) == 0 {
		return nil
	}

	m.saving++
	m.saveGen++
	m.stale = true
	m.status = fmt.Sprintf("added %d tasks", len(tasks))
	repo := m.repo
	return func() tea.Msg {
		return savedMsg{action: "add", err: repo.InsertTasks(context.Background(), tasks, -1)}
	}
}

// schedule recomputes the blocks of the selected day from the loaded input.
func (m *Model) schedule() {
	if !m.loaded {
		return
	}
	in := m.input
	in.Tasks = m.backlog.Tasks()
	in.Date = m.date
	in.Today = m.today
	in.Now = m.now
	in.ActiveTaskID = m.backlog.ActiveID()
	in.Elapsed = m.backlog.Elapsed(m.now, m.today)
	m.blocks = scheduler.ScheduleDay(in)
	m.refreshViewport()
}

// refreshViewport renders the timeline into the viewport and, when
// following, scrolls so the now line stays visible.
func (m *Model) refreshViewport() {
	content := render.Timeline(m.blocks, m.timelineOptions())
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-m.footerHeight())
	m.viewport.SetContent(content)
	if !m.follow {
		return
	}

	line := nowLine(content)
	if line < 0 {
		m.viewport.SetYOffset(0)
		return
	}
	top := m.viewport.YOffset
	if line < top || line >= top+m.viewport.Height {
		m.viewport.SetYOffset(line - m.viewport.Height/3)
	}
}

// nowLine returns the index of the now marker in a rendered timeline, or -1.
func nowLine(timeline string) int {
	for i, line := range strings.Split(timeline, "\n") {
		if strings.Contains(line, "── now ") {
			return i
		}
	}
	return -1
}

func (m Model) timelineOptions() render.Options {
	return render.Options{
		Date:    m.date,
		Today:   m.today,
		Now:     m.now,
		Width:   m.width,
		Palette: m.palette,
		Tags:    m.tags,
	}
}
