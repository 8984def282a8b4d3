package ui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/summary"
	"github.com/javiermolinar/dayplan/internal/task"
)

func (a *App) listCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the backlog in priority order",
		Long: `List every task in the backlog, highest priority first.

Markers: ▶ running, ‖ paused, ✓ completed, ○ pending.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			today, now := a.now()
			in, b, err := summary.LoadInput(context.Background(), a.repo, a.config.Settings(),
				today, today.AddDays(DrainHorizon), today, now)
			if err != nil {
				return err
			}
			printBacklog(cmd.OutOrStdout(), b, today, now, summary.DrainDate(in, DrainHorizon))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

// DrainHorizon is how many days past today list looks for the day the
// backlog clears.
const DrainHorizon = 60

// printBacklog lists b in order. drain is the day the backlog clears, ""
// when it outlasts DrainHorizon.
func printBacklog(w io.Writer, b *task.Backlog, today dateutil.Date, now int, drain dateutil.Date) {
	if b.Len() == 0 {
		fmt.Fprintln(w, "Backlog is empty.")
		return
	}

	remaining := 0
	incomplete := b.Incomplete()
	for _, t := range incomplete {
		remaining += max(0, t.EffectiveDuration()-t.Elapsed(now, today))
	}
	header := fmt.Sprintf("%d tasks, %s left", b.Len(), dateutil.FormatDuration(remaining))
	switch {
	case len(incomplete) == 0:
	case drain != "":
		header += fmt.Sprintf(", clears %s %s", drain.Weekday(), drain)
	default:
		header += fmt.Sprintf(", runs past %s", today.AddDays(DrainHorizon))
	}
	fmt.Fprintf(w, "%s  %s\n", formatHeader("Backlog"), formatMuted(header))

	active := b.ActiveID()
	for i, t := range b.Tasks() {
		running := active != nil && *active == t.ID
		mark, name := "○", formatTask(t.Name)
		switch {
		case running:
			mark, name = "▶", formatActive(t.Name)
		case t.Completed:
			mark, name = "✓", formatDone(t.Name)
		case t.IsPaused():
			mark = "‖"
		}

		detail := dateutil.FormatDuration(t.EffectiveDuration())
		switch {
		case t.Completed && t.ActualDuration != nil:
			detail = "took " + dateutil.FormatDuration(*t.ActualDuration)
		case running || t.IsStarted():
			detail = fmt.Sprintf("%s / %s", dateutil.FormatDuration(t.Elapsed(now, today)), detail)
		}

		fmt.Fprintf(w, "  %2d. %s #%-3d %s  %s\n", i+1, mark, t.ID, name, formatMuted(detail))
	}
}

func (a *App) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move [id] [position]",
		Short: "Move a task to another backlog position",
		Long: `Move a task to a backlog position, 1 being the top.
Positions past the end move the task to the bottom.`,
		Example: `  dayplan move 4 1`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil || pos < 1 {
				return fmt.Errorf("invalid position %q", args[1])
			}

			err = a.updateBacklog(context.Background(), "move", func(b *task.Backlog, _ dateutil.Date, _ int) error {
				return b.Move(id, pos-1)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved task #%d to position %d\n", id, pos)
			return nil
		},
	}
}

func (a *App) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"remove"},
		Short:   "Remove a task and its history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if err := a.repo.DeleteTask(context.Background(), id); err != nil {
				return fmt.Errorf("removing task #%d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed task #%d\n", id)
			return nil
		},
	}
}

func (a *App) editCmd() *cobra.Command {
	var (
		name     string
		tag      int64
		untag    bool
		duration int
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Rename or retag a task",
		Long: `Change the name, tag or expected duration of a task. A new duration
works like adjust: the original plan is kept.`,
		Example: `  dayplan edit 3 --name "Write the report"
  dayplan edit 3 --tag 2 --duration 45
  dayplan edit 3 --untag`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("tag") && !untag && !flags.Changed("duration") {
				return fmt.Errorf("nothing to change: use --name, --tag, --untag or --duration")
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := context.Background()
			if flags.Changed("tag") {
				if err := a.checkTag(ctx, tag); err != nil {
					return err
				}
			}

			var edited task.Task
			err = a.updateBacklog(ctx, "edit", func(b *task.Backlog, _ dateutil.Date, _ int) error {
				t, err := b.Get(id)
				if err != nil {
					return err
				}
				if flags.Changed("name") {
					if t.Name = strings.TrimSpace(name); t.Name == "" {
						return task.ErrEmptyName
					}
				}
				switch {
				case untag:
					t.TagID = nil
				case flags.Changed("tag"):
					t.TagID = &tag
				}
				if err := b.Update(t); err != nil {
					return err
				}
				if flags.Changed("duration") {
					if err := b.Adjust(id, duration); err != nil {
						return err
					}
				}
				edited, err = b.Get(id)
				return err
			})
			if err != nil {
				return fmt.Errorf("editing task #%d: %w", id, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated task #%d: %s (%s)\n",
				id, edited.Name, dateutil.FormatDuration(edited.EffectiveDuration()))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().Int64Var(&tag, "tag", 0, "New tag ID")
	cmd.Flags().BoolVar(&untag, "untag", false, "Remove the tag")
	cmd.Flags().IntVarP(&duration, "duration", "d", 0, "New expected duration in minutes")

	cmd.MarkFlagsMutuallyExclusive("tag", "untag")

	return cmd
}

func (a *App) adjustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adjust [id] [minutes]",
		Short: "Change the expected duration of a task",
		Long: `Override the duration of a task without losing the original plan.
The task is laid out with the adjusted duration from now on.`,
		Example: `  dayplan adjust 3 45`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			minutes, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid duration %q", args[1])
			}

			err = a.updateBacklog(context.Background(), "adjust", func(b *task.Backlog, _ dateutil.Date, _ int) error {
				return b.Adjust(id, minutes)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task #%d now takes %s\n",
				id, dateutil.FormatDuration(max(task.MinDuration, minutes)))
			return nil
		},
	}
}
