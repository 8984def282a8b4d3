package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

func (a *App) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [id]",
		Short: "Start the task timer",
		Long: `Start working on a task. Without an id, the paused task is resumed,
or the first incomplete task is started. Starting another task pauses the
running one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}

			var started task.Task
			err := a.updateBacklog(context.Background(), "start", func(b *task.Backlog, today dateutil.Date, now int) error {
				var err error
				switch {
				case id != 0:
					err = b.Start(id, now, today)
				case b.ActiveID() != nil:
					// Already running; nothing to do.
				default:
					err = b.Resume(now, today)
				}
				if err != nil {
					return err
				}
				started, _ = b.Active()
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s\n", formatActive("▶"), started.ID, started.Name)
			return nil
		},
	}
}

func (a *App) pauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var paused task.Task
			var at int
			err := a.updateBacklog(context.Background(), "pause", func(b *task.Backlog, today dateutil.Date, now int) error {
				paused, _ = b.Active()
				at = now
				return b.Pause(now, today)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "‖ #%d %s paused at %s\n", paused.ID, paused.Name, dateutil.MinutesToTime(at))
			return nil
		},
	}
}

func (a *App) doneCmd() *cobra.Command {
	var next bool

	cmd := &cobra.Command{
		Use:   "done [id]",
		Short: "Complete the running task, or the task with the given id",
		Long: `Mark a task completed. Without an id, the running task is completed
and its elapsed time becomes its actual duration. A task that is not running
keeps the time already recorded for it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			autoStart := a.config.Schedule.AutoStartNext
			if cmd.Flags().Changed("next") {
				autoStart = next
			}

			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}

			var done task.Task
			var following *task.Task
			err := a.updateBacklog(context.Background(), "done", func(b *task.Backlog, today dateutil.Date, now int) error {
				if id == 0 {
					active, ok := b.Active()
					if !ok {
						return task.ErrNoActiveTask
					}
					id = active.ID
				}
				if err := b.MarkDone(id, now, today, autoStart); err != nil {
					return err
				}
				done, _ = b.Get(id)
				if t, ok := b.Active(); ok {
					following = &t
				}
				return nil
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			took := 0
			if done.ActualDuration != nil {
				took = *done.ActualDuration
			}
			fmt.Fprintf(w, "%s #%d %s (took %s)\n", formatDone("✓"), done.ID, done.Name, dateutil.FormatDuration(took))
			if following != nil {
				fmt.Fprintf(w, "%s #%d %s\n", formatActive("▶"), following.ID, following.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&next, "next", false, "Start the next task (default: schedule.auto_start_next)")

	return cmd
}

func (a *App) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Stop the running task and discard its progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cancelled task.Task
			err := a.updateBacklog(context.Background(), "cancel", func(b *task.Backlog, _ dateutil.Date, _ int) error {
				cancelled, _ = b.Active()
				return b.Cancel()
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled #%d %s\n", cancelled.ID, cancelled.Name)
			return nil
		},
	}
}

func (a *App) reopenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen [id]",
		Short: "Return a completed task to the backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			err = a.updateBacklog(context.Background(), "reopen", func(b *task.Backlog, _ dateutil.Date, _ int) error {
				return b.Reopen(id)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reopened task #%d\n", id)
			return nil
		},
	}
}
