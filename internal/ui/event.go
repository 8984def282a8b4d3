package ui

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

func (a *App) eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage fixed-time events",
	}
	cmd.AddCommand(a.eventAddCmd())
	cmd.AddCommand(a.eventBulkCmd())
	cmd.AddCommand(a.eventEditCmd())
	cmd.AddCommand(a.eventListCmd())
	cmd.AddCommand(a.eventRemoveCmd())
	return cmd
}

func (a *App) eventAddCmd() *cobra.Command {
	var (
		date  string
		start string
		end   string
		tag   int64
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add an event",
		Long: `Add a fixed-time event. Tasks are laid out around it.

Example:
  dayplan event add "Standup" --start=09:30 --end=09:45
  dayplan event add "Dentist" --date=tomorrow --start=14:00 --end=15:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			today, _ := a.now()
			d, err := dateutil.ParseRelativeDate(date, today)
			if err != nil {
				return fmt.Errorf("parsing date %q: %w", date, err)
			}
			e, err := task.NewEvent(args[0], string(d), start, end)
			if err != nil {
				return err
			}

			ctx := context.Background()
			if cmd.Flags().Changed("tag") {
				if err := a.checkTag(ctx, tag); err != nil {
					return err
				}
				e.TagID = &tag
			}
			if err := a.repo.CreateEvent(ctx, e); err != nil {
				return fmt.Errorf("creating event: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created event #%d: %s %s %s-%s\n", e.ID, e.Name, e.Date, e.Start, e.End)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Event date (YYYY-MM-DD or relative, default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM, required)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM, required)")
	cmd.Flags().Int64Var(&tag, "tag", 0, "Tag ID")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

type bulkResult struct {
	Added    int
	Skipped  int
	Retagged int
	Ignored  int
}

func (a *App) eventBulkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk [file]",
		Short: "Add events from lines of text",
		Long: `Add one event per line of file, or of standard input when no file or
"-" is given. A line reads:

  name HH:MM-HH:MM YYYY-MM-DD [tag]

An event already stored with the same name, date and times is skipped; if
it has no tag and the line names one, it takes that tag. Lines that do not
describe an event are ignored.`,
		Example: `  dayplan event bulk meetings.txt
  echo "Standup 9:30-9:45 2025-01-16 [meetings]" | dayplan event bulk`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			var lines []string
			if src == "-" {
				var err error
				if lines, err = readLines(cmd.InOrStdin(), []string{"-"}); err != nil {
					return err
				}
			} else {
				path, err := resolvePath(src)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				lines = task.SplitLines(string(data))
			}

			res, err := a.addEventLines(context.Background(), lines)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Added %d events, skipped %d duplicates", res.Added, res.Skipped)
			if res.Retagged > 0 {
				fmt.Fprintf(w, " (%d tagged)", res.Retagged)
			}
			fmt.Fprintln(w)
			if res.Ignored > 0 {
				fmt.Fprintf(w, "%s %d lines are not events\n", formatWarn("ignored:"), res.Ignored)
			}
			return nil
		},
	}
}

// addEventLines stores the events described by lines. Duplicates of stored
// events lend them their tag when they have none.
func (a *App) addEventLines(ctx context.Context, lines []string) (bulkResult, error) {
	var res bulkResult

	tags, err := a.repo.ListTags(ctx)
	if err != nil {
		return res, fmt.Errorf("fetching tags: %w", err)
	}
	existing, err := a.repo.ListEvents(ctx)
	if err != nil {
		return res, fmt.Errorf("fetching events: %w", err)
	}

	var fresh, retag []*task.Event
	for _, line := range lines {
		e, tagName, ok := task.ParseEventLine(line)
		if !ok {
			res.Ignored++
			continue
		}
		if tagName != "" {
			tag, found := task.FindTag(tags, tagName)
			if !found {
				return res, fmt.Errorf("event %q: %w: %s", line, task.ErrUnknownTag, tagName)
			}
			e.TagID = &tag.ID
		}

		dup := sameSlot(existing, fresh, *e)
		if dup == nil {
			fresh = append(fresh, e)
			continue
		}
		res.Skipped++
		if dup.TagID == nil && e.TagID != nil {
			dup.TagID = e.TagID
			if dup.ID != 0 {
				retag = append(retag, dup)
			}
		}
	}

	if err := a.repo.CreateEvents(ctx, fresh); err != nil {
		return res, fmt.Errorf("saving events: %w", err)
	}
	res.Added = len(fresh)
	for _, e := range retag {
		if err := a.repo.UpdateEvent(ctx, e); err != nil {
			return res, fmt.Errorf("tagging event #%d: %w", e.ID, err)
		}
	}
	res.Retagged = len(retag)

	a.logger.Debug("events added from lines",
		"added", res.Added, "skipped", res.Skipped, "retagged", res.Retagged, "ignored", res.Ignored)
	return res, nil
}

// sameSlot returns the stored or pending event sharing e's slot.
func sameSlot(existing []task.Event, pending []*task.Event, e task.Event) *task.Event {
	for i := range existing {
		if existing[i].SameSlot(e) {
			return &existing[i]
		}
	}
	for _, p := range pending {
		if p.SameSlot(e) {
			return p
		}
	}
	return nil
}

func (a *App) eventEditCmd() *cobra.Command {
	var (
		name  string
		date  string
		start string
		end   string
		tag   int64
		untag bool
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Rename, retag or move an event",
		Example: `  dayplan event edit 4 --name "Design review"
  dayplan event edit 4 --date tomorrow --start 15:00 --end 16:00
  dayplan event edit 4 --tag 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := context.Background()
			e, err := a.repo.GetEvent(ctx, id)
			if err != nil {
				return fmt.Errorf("editing event #%d: %w", id, err)
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				e.Name = name
			}
			if flags.Changed("date") {
				today, _ := a.now()
				d, err := dateutil.ParseRelativeDate(date, today)
				if err != nil {
					return fmt.Errorf("parsing date %q: %w", date, err)
				}
				e.Date = d
			}
			if flags.Changed("start") {
				e.Start = start
			}
			if flags.Changed("end") {
				e.End = end
			}
			switch {
			case untag:
				e.TagID = nil
			case flags.Changed("tag"):
				if err := a.checkTag(ctx, tag); err != nil {
					return err
				}
				e.TagID = &tag
			}

			valid, err := task.NewEvent(e.Name, string(e.Date), e.Start, e.End)
			if err != nil {
				return err
			}
			e.Name = valid.Name
			if err := a.repo.UpdateEvent(ctx, e); err != nil {
				return fmt.Errorf("editing event #%d: %w", id, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated event #%d: %s %s %s-%s\n", e.ID, e.Name, e.Date, e.Start, e.End)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&date, "date", "", "New date (YYYY-MM-DD or relative)")
	cmd.Flags().StringVar(&start, "start", "", "New start time (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "New end time (HH:MM)")
	cmd.Flags().Int64Var(&tag, "tag", 0, "New tag ID")
	cmd.Flags().BoolVar(&untag, "untag", false, "Remove the tag")

	cmd.MarkFlagsMutuallyExclusive("tag", "untag")

	return cmd
}

func (a *App) eventListCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events in a date range",
		Long: `List all events within a date range.

If no dates are specified, lists today's events.
If only --start is specified, lists events for that single day.
If both --start and --end are specified, lists events in that range (inclusive).`,
		Example: `  dayplan event list
  dayplan event list --start=2025-01-15
  dayplan event list --start=monday --end=+6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			today, _ := a.now()
			from, err := dateutil.ParseRelativeDate(startDate, today)
			if err != nil {
				return fmt.Errorf("parsing start date: %w", err)
			}
			to := from
			if endDate != "" {
				if to, err = dateutil.ParseRelativeDate(endDate, today); err != nil {
					return fmt.Errorf("parsing end date: %w", err)
				}
			}
			if to.Before(from) {
				return dateutil.ErrEndDateBeforeStart
			}

			events, err := a.repo.ListEventsByDateRange(context.Background(), from, to)
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(w, "No events found in the specified date range.")
				return nil
			}

			// Print events grouped by date
			var currentDate dateutil.Date
			for _, e := range events {
				if e.Date != currentDate {
					if currentDate != "" {
						fmt.Fprintln(w)
					}
					fmt.Fprintf(w, "=== %s ===\n", e.Date)
					currentDate = e.Date
				}
				source := ""
				if e.Source != "" {
					source = formatMuted(" [" + e.Source + "]")
				}
				fmt.Fprintf(w, "  #%d %s-%s %s%s\n", e.ID, e.Start, e.End, formatEvent(e.Name), source)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Start date (defaults to today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (defaults to start date)")

	return cmd
}

func (a *App) eventRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"remove"},
		Short:   "Remove an event",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if err := a.repo.DeleteEvent(context.Background(), id); err != nil {
				return fmt.Errorf("removing event #%d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed event #%d\n", id)
			return nil
		},
	}
}
