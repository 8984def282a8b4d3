package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/config"
	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/ics"
	"github.com/javiermolinar/dayplan/internal/task"
)

// DefaultImportDays is how many days from today an ICS import covers.
const DefaultImportDays = 14

type icsOptions struct {
	from    string
	to      string
	days    int
	replace bool
	follow  bool
	refresh string
}

type importResult struct {
	Imported int
	Removed  int64
	Skipped  int
}

func (a *App) importICSCmd() *cobra.Command {
	var opts icsOptions

	cmd := &cobra.Command{
		Use:   "import-ics [file or url]",
		Short: "Import calendar events from an ICS file or URL",
		Long: `Import events from an iCalendar file or URL.

Recurring events are expanded, and entries are kept according to the
[import] settings: busy status, meetings only and excluded categories.
Category rules ([[import.category_rules]]) drop entries of a category or
label them with a tag.
With import.replace_on_import, previously imported events are replaced.
Manual events with the same name and time are not duplicated.

With --follow the import repeats on the cron schedule given by --refresh
(or import.refresh) until interrupted.`,
		Example: `  dayplan import-ics ~/calendar.ics
  dayplan import-ics https://example.com/cal.ics --days 7
  dayplan import-ics https://example.com/cal.ics --follow --refresh "*/15 * * * *"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("replace") {
				opts.replace = a.config.Import.ReplaceOnImport
			}
			if opts.refresh == "" {
				opts.refresh = a.config.Import.Refresh
			}

			src := args[0]
			if !ics.IsURL(src) {
				path, err := resolvePath(src)
				if err != nil {
					return err
				}
				src = path
			}

			w := cmd.OutOrStdout()
			if !opts.follow {
				return a.runImport(context.Background(), w, src, opts)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.followImport(ctx, w, src, opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "First day to import (default: today)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last day to import (default: from + days - 1)")
	cmd.Flags().IntVar(&opts.days, "days", DefaultImportDays, "Number of days to import")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Replace previously imported events (default: import.replace_on_import)")
	cmd.Flags().BoolVar(&opts.follow, "follow", false, "Keep running and re-import on the refresh schedule")
	cmd.Flags().StringVar(&opts.refresh, "refresh", "", "Cron schedule for --follow (default: import.refresh)")

	return cmd
}

// importRange resolves the days an import covers.
func (o icsOptions) importRange(today dateutil.Date) (dateutil.Date, dateutil.Date, error) {
	from, err := dateutil.ParseRelativeDate(o.from, today)
	if err != nil {
		return "", "", fmt.Errorf("parsing --from: %w", err)
	}
	if o.to != "" {
		to, err := dateutil.ParseRelativeDate(o.to, today)
		if err != nil {
			return "", "", fmt.Errorf("parsing --to: %w", err)
		}
		if to.Before(from) {
			return "", "", dateutil.ErrEndDateBeforeStart
		}
		return from, to, nil
	}
	if o.days < 1 {
		return "", "", fmt.Errorf("--days must be at least 1")
	}
	return from, from.AddDays(o.days - 1), nil
}

func (a *App) runImport(ctx context.Context, w io.Writer, src string, opts icsOptions) error {
	today, _ := a.now()
	from, to, err := opts.importRange(today)
	if err != nil {
		return err
	}

	res, err := a.importCalendar(ctx, src, from, to, opts.replace)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Imported %d events for %s to %s", res.Imported, from, to)
	if res.Removed > 0 {
		fmt.Fprintf(w, " (replaced %d)", res.Removed)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(w, " (%d already present)", res.Skipped)
	}
	fmt.Fprintln(w)
	return nil
}

// importCalendar reads src and stores the events falling in [from, to].
// With replace, earlier imports are swapped for the new events in one
// transaction.
func (a *App) importCalendar(ctx context.Context, src string, from, to dateutil.Date, replace bool) (importResult, error) {
	tags, err := a.repo.ListTags(ctx)
	if err != nil {
		return importResult{}, fmt.Errorf("fetching tags: %w", err)
	}
	rules, err := importRules(a.config.Import, tags)
	if err != nil {
		return importResult{}, err
	}

	im := &ics.Importer{
		Client: ics.NewClient(),
		Rules:  rules,
		Logger: a.logger,
	}
	incoming, err := im.Import(ctx, src, from, to)
	if err != nil {
		return importResult{}, fmt.Errorf("importing %s: %w", src, err)
	}

	existing, err := a.repo.ListEventsByDateRange(ctx, from, to)
	if err != nil {
		return importResult{}, fmt.Errorf("fetching events: %w", err)
	}
	fresh := ics.Dedupe(existing, incoming)

	var res importResult
	if replace {
		if res.Removed, err = a.repo.ReplaceEventsBySource(ctx, ics.Source, fresh); err != nil {
			return importResult{}, fmt.Errorf("replacing imported events: %w", err)
		}
	} else {
		fresh = skipImported(existing, fresh)
		if err := a.repo.CreateEvents(ctx, fresh); err != nil {
			return importResult{}, fmt.Errorf("saving events: %w", err)
		}
	}
	res.Imported = len(fresh)
	res.Skipped = len(incoming) - len(fresh)

	a.logger.Info("calendar imported",
		"source", src,
		"from", string(from),
		"to", string(to),
		"imported", res.Imported,
		"removed", res.Removed,
		"skipped", res.Skipped,
	)
	return res, nil
}

// followImport imports once, then again on every tick of the refresh
// schedule until ctx ends.
func (a *App) followImport(ctx context.Context, w io.Writer, src string, opts icsOptions) error {
	if opts.refresh == "" {
		return fmt.Errorf("--follow needs a --refresh schedule or import.refresh")
	}
	schedule, err := cron.ParseStandard(opts.refresh)
	if err != nil {
		return fmt.Errorf("parsing refresh schedule %q: %w", opts.refresh, err)
	}

	if err := a.runImport(ctx, w, src, opts); err != nil {
		return err
	}

	c := cron.New(cron.WithLogger(cronLogger{a.logger}))
	c.Schedule(schedule, cron.FuncJob(func() {
		if err := a.runImport(ctx, w, src, opts); err != nil {
			fmt.Fprintf(w, "%s %v\n", formatWarn("import failed:"), err)
		}
	}))
	c.Start()
	fmt.Fprintf(w, "Refreshing on %q, next at %s. Press Ctrl+C to stop.\n",
		opts.refresh, schedule.Next(a.clock()).Format("15:04"))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// importRules builds the import filter from c, resolving the tag names of
// the category rules.
func importRules(c config.ImportConfig, tags []task.Tag) (ics.Rules, error) {
	rules := ics.Rules{
		Busy:              c.Busy,
		OOF:               c.OOF,
		Tentative:         c.Tentative,
		Free:              c.Free,
		WorkingElsewhere:  c.WorkingElsewhere,
		MeetingsOnly:      c.MeetingsOnly,
		ExcludeCategories: c.ExcludeCategories,
	}
	for _, r := range c.CategoryRules {
		rule := ics.CategoryRule{Category: r.Category, Exclude: r.Exclude}
		if r.Tag != "" {
			tag, ok := task.FindTag(tags, r.Tag)
			if !ok {
				return ics.Rules{}, fmt.Errorf("category rule %q: tag %q does not exist", r.Category, r.Tag)
			}
			rule.TagID = &tag.ID
		}
		rules.Categories = append(rules.Categories, rule)
	}
	return rules, nil
}

// skipImported drops incoming events already stored by an earlier import
// of the same calendar instance.
func skipImported(existing []task.Event, incoming []*task.Event) []*task.Event {
	type key struct {
		uid, start string
		date       dateutil.Date
	}
	seen := make(map[key]bool)
	for _, e := range existing {
		if e.Source == ics.Source && e.UID != "" {
			seen[key{e.UID, e.Start, e.Date}] = true
		}
	}

	out := make([]*task.Event, 0, len(incoming))
	for _, e := range incoming {
		if e.UID != "" && seen[key{e.UID, e.Start, e.Date}] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// cronLogger sends cron's own messages to the debug logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
