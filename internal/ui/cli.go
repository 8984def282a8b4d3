package ui

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/config"
	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/db"
	"github.com/javiermolinar/dayplan/internal/render"
	"github.com/javiermolinar/dayplan/internal/task"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	repo       task.Repository
	ownsRepo   bool
	config     *config.Config
	configPath string
	root       *cobra.Command
	debug      bool // Enable debug logging
	logger     *slog.Logger
	closeLog   func() error
	clock      func() time.Time
}

// NewApp creates a new CLI application with the given repository and config.
// A nil repository is opened from the configured database path on first use.
func NewApp(repo task.Repository, cfg *config.Config) *App {
	a := &App{
		repo:       repo,
		config:     cfg,
		configPath: config.DefaultConfigPath(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:      time.Now,
	}

	a.root = &cobra.Command{
		Use:   "dayplan",
		Short: "A day planner that packs a task backlog around fixed events",
		Long: `Dayplan keeps a prioritized backlog of tasks and a calendar of fixed events.

Tasks are laid out in order into the free time of each day, around events,
pauses and the work already done. A task timer tracks how long each task
really takes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !a.debug || a.closeLog != nil {
				return nil
			}
			logger, closeLog, err := openDebugLog()
			if err != nil {
				return err
			}
			a.logger, a.closeLog = logger, closeLog
			return nil
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.show(cmd.OutOrStdout(), "", showOptions{output: "text"})
		},
	}

	// Add global flags
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to temp file)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.showCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.listCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.removeCmd())
	a.root.AddCommand(a.adjustCmd())
	a.root.AddCommand(a.editCmd())
	a.root.AddCommand(a.startCmd())
	a.root.AddCommand(a.pauseCmd())
	a.root.AddCommand(a.doneCmd())
	a.root.AddCommand(a.cancelCmd())
	a.root.AddCommand(a.reopenCmd())
	a.root.AddCommand(a.eventCmd())
	a.root.AddCommand(a.tagCmd())
	a.root.AddCommand(a.importICSCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.importCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.watchCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dayplan %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// ensureRepo opens the configured database unless a repository was given.
func (a *App) ensureRepo() error {
	if a.repo != nil {
		return nil
	}

	path := a.config.Storage.DBPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	repo, err := db.New(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.logger.Debug("database opened", "path", path)
	a.repo = repo
	a.ownsRepo = true
	return nil
}

// Close releases the database opened by ensureRepo and the debug log.
func (a *App) Close() error {
	var errs []error
	if a.ownsRepo && a.repo != nil {
		errs = append(errs, a.repo.Close())
		a.repo = nil
		a.ownsRepo = false
	}
	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
		a.closeLog = nil
	}
	return errors.Join(errs...)
}

// now returns today's date and the current minute, with the debug offset
// applied.
func (a *App) now() (dateutil.Date, int) {
	t := a.clock()
	return dateutil.DateOf(t), a.config.Now(t)
}

// palette returns the colors of the configured theme.
func (a *App) palette() *render.Palette {
	theme, err := render.Load(a.config.UI.Theme)
	if err != nil {
		a.logger.Warn("theme unavailable, using plain output", "theme", a.config.UI.Theme, "error", err)
		return nil
	}
	return render.NewPalette(theme)
}
