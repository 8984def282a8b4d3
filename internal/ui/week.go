package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/summary"
)

func (a *App) weekCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "week [date]",
		Short: "Show the week's planned work, events and free time",
		Long: `Display Monday through Sunday of the ISO week containing the date
(default: today): planned and completed task time, event time and free time
per day, and the day the backlog runs out.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				DisableColor()
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			today, now := a.now()
			weekOf := today
			if len(args) == 1 {
				var err error
				if weekOf, err = dateutil.ParseRelativeDate(args[0], today); err != nil {
					return fmt.Errorf("parsing date %q: %w", args[0], err)
				}
			}

			s, err := summary.BuildWeekSummary(context.Background(), a.repo, summary.Options{
				WeekOf:   weekOf,
				Settings: a.config.Settings(),
				Today:    today,
				Now:      now,
			})
			if err != nil {
				return fmt.Errorf("building week summary: %w", err)
			}

			printWeek(cmd.OutOrStdout(), s, today)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

func printWeek(w io.Writer, s *summary.WeekSummary, today dateutil.Date) {
	header := fmt.Sprintf("WEEK: %s - %s", s.Start, s.End)
	fmt.Fprintf(w, "\n  %s\n", formatHeader(header))
	fmt.Fprintln(w, strings.Repeat("─", 74))

	for _, d := range s.Days {
		day := fmt.Sprintf("%s %s", d.Date.Weekday().String()[:3], string(d.Date)[5:])
		if d.Date == today {
			day = formatHeader(day + "*")
		} else {
			day += " "
		}
		fmt.Fprintf(w, "  %s  %s  %s  %s  %s\n",
			day,
			formatTask(fmt.Sprintf("tasks %-7s", dateutil.FormatDuration(d.TaskMinutes))),
			formatDone(fmt.Sprintf("done %-7s", dateutil.FormatDuration(d.CompletedMinutes))),
			formatEvent(fmt.Sprintf("events %-7s", dateutil.FormatDuration(d.EventMinutes))),
			formatMuted(fmt.Sprintf("free %s", dateutil.FormatDuration(d.FreeMinutes))),
		)
		if len(d.Tasks) > 0 {
			fmt.Fprintf(w, "             %s\n", formatMuted(strings.Join(d.Tasks, ", ")))
		}
	}

	fmt.Fprintln(w, strings.Repeat("─", 74))
	fmt.Fprintf(w, "  Planned: %s  |  Done: %s  |  Events: %s  |  Free: %s\n",
		dateutil.FormatDuration(s.TaskMinutes),
		dateutil.FormatDuration(s.CompletedMinutes),
		dateutil.FormatDuration(s.EventMinutes),
		dateutil.FormatDuration(s.FreeMinutes),
	)
	switch {
	case s.End.Before(today):
		// past weeks have nothing left to drain
	case s.Drained():
		fmt.Fprintf(w, "  Backlog clears on %s %s\n", s.DrainDate.Weekday(), s.DrainDate)
	default:
		fmt.Fprintf(w, "  %s\n", formatWarn("Backlog extends past this week"))
	}
	fmt.Fprintln(w)
}
