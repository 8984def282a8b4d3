// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/scheduler"
	"github.com/javiermolinar/dayplan/internal/task"
)

// envPrefix is prepended to every environment override.
const envPrefix = "DAYPLAN_"

// Themes lists the accepted ui.theme values.
var Themes = []string{"mocha", "macchiato", "frappe", "latte"}

// Config holds the application configuration.
type Config struct {
	Schedule ScheduleConfig `toml:"schedule"`
	Debug    DebugConfig    `toml:"debug"`
	Storage  StorageConfig  `toml:"storage"`
	Import   ImportConfig   `toml:"import"`
	UI       UIConfig       `toml:"ui"`
}

// ScheduleConfig holds the working hours and packing preferences.
type ScheduleConfig struct {
	WorkdayStart             string `toml:"workday_start"`  // e.g., "09:00"
	WorkdayEnd               string `toml:"workday_end"`    // e.g., "17:00"
	ExtendedStart            string `toml:"extended_start"` // first minute drawn when extended hours are on
	ExtendedEnd              string `toml:"extended_end"`
	UseExtendedHours         bool   `toml:"use_extended_hours"`
	RestrictTasksToWorkHours bool   `toml:"restrict_tasks_to_work_hours"`
	MinFragmentMinutes       int    `toml:"min_fragment_minutes"`
	AutoStartNext            bool   `toml:"auto_start_next"`
}

// DebugConfig shifts the clock for testing a day at another time.
type DebugConfig struct {
	Enabled    bool `toml:"enabled"`
	TimeOffset int  `toml:"time_offset"` // minutes, applied only when enabled
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// ImportConfig selects which calendar entries an ICS import keeps.
type ImportConfig struct {
	Busy              bool     `toml:"busy"`
	OOF               bool     `toml:"oof"`
	Tentative         bool     `toml:"tentative"`
	Free              bool     `toml:"free"`
	WorkingElsewhere  bool     `toml:"working_elsewhere"`
	MeetingsOnly      bool     `toml:"meetings_only"`
	ExcludeCategories []string       `toml:"exclude_categories"`
	CategoryRules     []CategoryRule `toml:"category_rules"`
	ReplaceOnImport   bool           `toml:"replace_on_import"`
	Refresh           string         `toml:"refresh"` // cron schedule for periodic re-import, empty disables
}

// CategoryRule drops or tags imported entries of one calendar category.
type CategoryRule struct {
	Category string `toml:"category"`
	Exclude  bool   `toml:"exclude"`
	Tag      string `toml:"tag,omitempty"` // tag name
}

// UIConfig holds rendering and task entry settings.
type UIConfig struct {
	Theme           string `toml:"theme"`            // "mocha", "macchiato", "frappe", "latte"
	SmartDuration   bool   `toml:"smart_duration"`   // read a trailing number on a task line as its minutes
	DefaultDuration int    `toml:"default_duration"` // minutes for task lines without one
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			WorkdayStart:             "09:00",
			WorkdayEnd:               "17:00",
			ExtendedStart:            "06:00",
			ExtendedEnd:              "23:59",
			UseExtendedHours:         true,
			RestrictTasksToWorkHours: true,
			MinFragmentMinutes:       scheduler.DefaultMinFragment,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Import: ImportConfig{
			Busy:            true,
			OOF:             true,
			ReplaceOnImport: true,
		},
		UI: UIConfig{
			Theme:           "mocha",
			SmartDuration:   true,
			DefaultDuration: 30,
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dayplan.db"
	}
	return filepath.Join(home, ".local", "share", "dayplan", "dayplan.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "dayplan", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"WORKDAY_START":  &cfg.Schedule.WorkdayStart,
		"WORKDAY_END":    &cfg.Schedule.WorkdayEnd,
		"EXTENDED_START": &cfg.Schedule.ExtendedStart,
		"EXTENDED_END":   &cfg.Schedule.ExtendedEnd,
		"DB_PATH":        &cfg.Storage.DBPath,
		"UI_THEME":       &cfg.UI.Theme,
		"IMPORT_REFRESH": &cfg.Import.Refresh,
	}
	for name, field := range strs {
		if v := os.Getenv(envPrefix + name); v != "" {
			*field = v
		}
	}

	bools := map[string]*bool{
		"USE_EXTENDED_HOURS":           &cfg.Schedule.UseExtendedHours,
		"RESTRICT_TASKS_TO_WORK_HOURS": &cfg.Schedule.RestrictTasksToWorkHours,
		"AUTO_START_NEXT":              &cfg.Schedule.AutoStartNext,
		"DEBUG":                        &cfg.Debug.Enabled,
		"SMART_DURATION":               &cfg.UI.SmartDuration,
	}
	for name, field := range bools {
		if v := os.Getenv(envPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*field = b
		}
	}

	ints := map[string]*int{
		"MIN_FRAGMENT_MINUTES": &cfg.Schedule.MinFragmentMinutes,
		"DEBUG_TIME_OFFSET":    &cfg.Debug.TimeOffset,
		"DEFAULT_DURATION":     &cfg.UI.DefaultDuration,
	}
	for name, field := range ints {
		if v := os.Getenv(envPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*field = n
		}
	}

	if v := os.Getenv(envPrefix + "IMPORT_EXCLUDE_CATEGORIES"); v != "" {
		cfg.Import.ExcludeCategories = strings.Split(v, ",")
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	s := c.Schedule
	for _, f := range []struct{ name, value string }{
		{"workday_start", s.WorkdayStart},
		{"workday_end", s.WorkdayEnd},
		{"extended_start", s.ExtendedStart},
		{"extended_end", s.ExtendedEnd},
	} {
		if !dateutil.ValidTime(f.value) {
			return fmt.Errorf("%s must be in HH:MM format, got %q", f.name, f.value)
		}
	}
	if s.WorkdayStart >= s.WorkdayEnd {
		return errors.New("workday_start must be before workday_end")
	}
	if s.ExtendedStart >= s.ExtendedEnd {
		return errors.New("extended_start must be before extended_end")
	}
	if s.MinFragmentMinutes < 1 {
		return errors.New("min_fragment_minutes must be at least 1")
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if !isValidTheme(c.UI.Theme) {
		return fmt.Errorf("unknown theme %q (valid: %s)", c.UI.Theme, strings.Join(Themes, ", "))
	}
	if c.UI.DefaultDuration < task.MinDuration {
		return fmt.Errorf("default_duration must be at least %d", task.MinDuration)
	}
	for i, r := range c.Import.CategoryRules {
		if strings.TrimSpace(r.Category) == "" {
			return fmt.Errorf("category_rules[%d]: category must be set", i)
		}
		if r.Exclude && r.Tag != "" {
			return fmt.Errorf("category_rules[%d]: %q cannot both exclude and tag", i, r.Category)
		}
	}
	return nil
}

func isValidTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}

// Settings returns the scheduling preferences of the config.
func (c *Config) Settings() scheduler.Settings {
	return scheduler.Settings{
		WorkdayStart:             c.Schedule.WorkdayStart,
		WorkdayEnd:               c.Schedule.WorkdayEnd,
		ExtendedStart:            c.Schedule.ExtendedStart,
		ExtendedEnd:              c.Schedule.ExtendedEnd,
		UseExtendedHours:         c.Schedule.UseExtendedHours,
		RestrictTasksToWorkHours: c.Schedule.RestrictTasksToWorkHours,
		MinFragmentMinutes:       c.Schedule.MinFragmentMinutes,
	}
}

// TimeOffset returns the clock shift in minutes, zero unless debug is enabled.
func (c *Config) TimeOffset() int {
	if !c.Debug.Enabled {
		return 0
	}
	return c.Debug.TimeOffset
}

// Now returns the current minute of t with the debug offset applied.
func (c *Config) Now(t time.Time) int {
	return dateutil.MinutesOf(t, c.TimeOffset())
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
