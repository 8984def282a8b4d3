package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/config"
	"github.com/javiermolinar/dayplan/internal/render"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  dayplan config`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), a.configPath)
		},
	}
}

func runConfigInteractive(in io.Reader, w io.Writer, configPath string) error {
	fmt.Fprintf(w, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Check if file exists
	_, fileErr := os.Stat(configPath)
	isNew := os.IsNotExist(fileErr)

	if isNew {
		fmt.Fprintln(w, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(w, "Created %s\n\n", configPath)
	}

	// Display current config
	printConfig(w, cfg)

	reader := bufio.NewReader(in)

	// Ask if user wants to edit
	if !promptYesNo(reader, w, "\nWould you like to edit the configuration?") {
		return nil
	}

	// Interactive editing
	s := &cfg.Schedule
	s.WorkdayStart = promptValue(reader, w, "Workday start", s.WorkdayStart)
	s.WorkdayEnd = promptValue(reader, w, "Workday end", s.WorkdayEnd)
	s.UseExtendedHours = promptBool(reader, w, "Show extended hours", s.UseExtendedHours)
	if s.UseExtendedHours {
		s.ExtendedStart = promptValue(reader, w, "Extended start", s.ExtendedStart)
		s.ExtendedEnd = promptValue(reader, w, "Extended end", s.ExtendedEnd)
	}
	s.RestrictTasksToWorkHours = promptBool(reader, w, "Keep tasks within work hours", s.RestrictTasksToWorkHours)
	s.MinFragmentMinutes = promptInt(reader, w, "Shortest task fragment (minutes)", s.MinFragmentMinutes)
	s.AutoStartNext = promptBool(reader, w, "Start the next task on done", s.AutoStartNext)
	cfg.Import.ReplaceOnImport = promptBool(reader, w, "Replace imported events on import", cfg.Import.ReplaceOnImport)
	cfg.Import.Refresh = promptValue(reader, w, "Import refresh schedule (cron, empty to disable)", cfg.Import.Refresh)
	cfg.Storage.DBPath = promptValue(reader, w, "Database path", cfg.Storage.DBPath)
	cfg.UI.Theme = promptTheme(reader, w, cfg.UI.Theme)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Save
	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(w, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	s := cfg.Schedule
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[schedule]")
	fmt.Fprintf(w, "  workday_start                = %s\n", s.WorkdayStart)
	fmt.Fprintf(w, "  workday_end                  = %s\n", s.WorkdayEnd)
	fmt.Fprintf(w, "  use_extended_hours           = %t\n", s.UseExtendedHours)
	if s.UseExtendedHours {
		fmt.Fprintf(w, "  extended_start               = %s\n", s.ExtendedStart)
		fmt.Fprintf(w, "  extended_end                 = %s\n", s.ExtendedEnd)
	}
	fmt.Fprintf(w, "  restrict_tasks_to_work_hours = %t\n", s.RestrictTasksToWorkHours)
	fmt.Fprintf(w, "  min_fragment_minutes         = %d\n", s.MinFragmentMinutes)
	fmt.Fprintf(w, "  auto_start_next              = %t\n", s.AutoStartNext)
	if cfg.Debug.Enabled {
		fmt.Fprintln(w, "\n[debug]")
		fmt.Fprintf(w, "  time_offset                  = %d\n", cfg.Debug.TimeOffset)
	}
	fmt.Fprintln(w, "\n[import]")
	fmt.Fprintf(w, "  statuses                     = %s\n", strings.Join(importedStatuses(cfg.Import), ", "))
	fmt.Fprintf(w, "  meetings_only                = %t\n", cfg.Import.MeetingsOnly)
	if len(cfg.Import.ExcludeCategories) > 0 {
		fmt.Fprintf(w, "  exclude_categories           = %s\n", strings.Join(cfg.Import.ExcludeCategories, ", "))
	}
	for _, r := range cfg.Import.CategoryRules {
		action := "keep"
		switch {
		case r.Exclude:
			action = "exclude"
		case r.Tag != "":
			action = "tag " + r.Tag
		}
		fmt.Fprintf(w, "  category %-21q= %s\n", r.Category, action)
	}
	fmt.Fprintf(w, "  replace_on_import            = %t\n", cfg.Import.ReplaceOnImport)
	if cfg.Import.Refresh != "" {
		fmt.Fprintf(w, "  refresh                      = %s\n", cfg.Import.Refresh)
	}
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path                      = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme                        = %s\n", cfg.UI.Theme)
	fmt.Fprintf(w, "  smart_duration               = %t\n", cfg.UI.SmartDuration)
	fmt.Fprintf(w, "  default_duration             = %d\n", cfg.UI.DefaultDuration)
}

func importedStatuses(c config.ImportConfig) []string {
	var out []string
	for _, s := range []struct {
		name string
		on   bool
	}{
		{"busy", c.Busy},
		{"oof", c.OOF},
		{"tentative", c.Tentative},
		{"free", c.Free},
		{"working_elsewhere", c.WorkingElsewhere},
	} {
		if s.on {
			out = append(out, s.name)
		}
	}
	if len(out) == 0 {
		return []string{"none"}
	}
	return out
}

func promptYesNo(reader *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, w io.Writer, label, current string) string {
	if current == "" {
		fmt.Fprintf(w, "  %s: ", label)
	} else {
		fmt.Fprintf(w, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptBool(reader *bufio.Reader, w io.Writer, label string, current bool) bool {
	def := "no"
	if current {
		def = "yes"
	}
	for {
		switch strings.ToLower(promptValue(reader, w, label+" (yes/no)", def)) {
		case "y", "yes", "true":
			return true
		case "n", "no", "false":
			return false
		}
		fmt.Fprintln(w, "  Please answer yes or no.")
		if _, err := reader.Peek(1); err != nil {
			return current
		}
	}
}

func promptInt(reader *bufio.Reader, w io.Writer, label string, current int) int {
	for {
		value := promptValue(reader, w, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil && n > 0 {
			return n
		}
		fmt.Fprintf(w, "  Invalid number %q.\n", value)
		if _, err := reader.Peek(1); err != nil {
			return current
		}
	}
}

func promptTheme(reader *bufio.Reader, w io.Writer, current string) string {
	options := strings.Join(render.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(promptValue(reader, w, label, current))
		if render.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(w, "  Invalid theme %q. Available: %s\n", value, options)
		if _, err := reader.Peek(1); err != nil {
			return current
		}
	}
}
