package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/render"
	"github.com/javiermolinar/dayplan/internal/scheduler"
	"github.com/javiermolinar/dayplan/internal/summary"
	"github.com/javiermolinar/dayplan/internal/task"
)

type showOptions struct {
	output  string // text, json or yaml
	copy    bool
	noColor bool
}

// copyText is replaced in tests.
var copyText = clipboard.WriteAll

func (a *App) showCmd() *cobra.Command {
	var opts showOptions

	cmd := &cobra.Command{
		Use:   "show [date]",
		Short: "Show the timeline of a day",
		Long: `Show the scheduled timeline of a day: events, task fragments and pauses.

The date can be YYYY-MM-DD, today, tomorrow, yesterday, +N, -N, a weekday
name or next-<weekday>. Without a date, today is shown.`,
		Example: `  dayplan show
  dayplan show tomorrow
  dayplan show 2025-01-15 --output json
  dayplan show --copy`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var date string
			if len(args) == 1 {
				date = args[0]
			}
			return a.show(cmd.OutOrStdout(), date, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the plain timeline to the clipboard")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (a *App) show(w io.Writer, arg string, opts showOptions) error {
	if opts.noColor {
		DisableColor()
	}
	if err := a.ensureRepo(); err != nil {
		return err
	}

	today, now := a.now()
	date, err := dateutil.ParseRelativeDate(arg, today)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", arg, err)
	}

	ctx := context.Background()
	blocks, tags, err := a.scheduleDay(ctx, date, today, now)
	if err != nil {
		return err
	}
	a.logger.Debug("day scheduled", "date", string(date), "blocks", len(blocks))

	ropts := render.Options{
		Date:  date,
		Today: today,
		Now:   now,
		Width: termWidth(w),
		Tags:  tags,
	}

	switch opts.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(render.NewDayRecord(blocks, ropts)); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(render.NewDayRecord(blocks, ropts)); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", opts.output)
	}

	plain := render.Timeline(blocks, ropts)
	if opts.copy {
		if err := copyText(plain); err != nil {
			return fmt.Errorf("copying timeline: %w", err)
		}
	}

	text := plain
	if !opts.noColor && isTerminal(w) {
		ropts.Palette = a.palette()
		text = render.Timeline(blocks, ropts)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return err
	}
	if opts.copy {
		fmt.Fprintln(w, formatMuted("copied to clipboard"))
	}
	return nil
}

// scheduleDay lays out date and returns its blocks with the tags by ID.
func (a *App) scheduleDay(ctx context.Context, date, today dateutil.Date, now int) ([]scheduler.Block, map[int64]task.Tag, error) {
	in, _, err := summary.LoadInput(ctx, a.repo, a.config.Settings(), date, date, today, now)
	if err != nil {
		return nil, nil, err
	}
	tags, err := a.tagsByID(ctx)
	if err != nil {
		return nil, nil, err
	}
	return scheduler.ScheduleDay(in), tags, nil
}

func (a *App) tagsByID(ctx context.Context) (map[int64]task.Tag, error) {
	tags, err := a.repo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching tags: %w", err)
	}
	byID := make(map[int64]task.Tag, len(tags))
	for _, t := range tags {
		byID[t.ID] = t
	}
	return byID, nil
}
