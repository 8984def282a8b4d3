package ui

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

func (a *App) addCmd() *cobra.Command {
	var (
		duration int
		literal  bool
		top      bool
		at       int
		tag      int64
	)

	cmd := &cobra.Command{
		Use:   "add [task...]",
		Short: "Add tasks to the backlog",
		Long: `Add one task per argument, or one per line of standard input with "-".

A task line reads "name [minutes] [[tag]]". A trailing number is the
planned duration in minutes, unless --literal is given or ui.smart_duration
is off. Lines without one take --duration (default: ui.default_duration).
A tag name in brackets labels the task and wins over --tag.

New tasks go to the end of the backlog unless --top or --at gives a
position (1 is the top). Either every task is added or none is.`,
		Example: `  dayplan add "Write documentation 90"
  dayplan add "Reply to reviews" -d 30 --at 1 --tag 2
  dayplan add "Plan sprint 45 [focus]" "Inbox zero 15"
  dayplan add - --top < todo.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("duration") {
				duration = a.config.UI.DefaultDuration
			}

			lines, err := readLines(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return fmt.Errorf("no tasks given")
			}

			ctx := context.Background()
			tags, err := a.repo.ListTags(ctx)
			if err != nil {
				return fmt.Errorf("fetching tags: %w", err)
			}
			var tagID *int64
			if cmd.Flags().Changed("tag") {
				if !hasTag(tags, tag) {
					return fmt.Errorf("tag %d: %w", tag, task.ErrUnknownTag)
				}
				tagID = &tag
			}

			tasks, err := task.ParseTasks(lines, duration, a.config.UI.SmartDuration && !literal, tags, tagID)
			if err != nil {
				return err
			}

			index := -1
			switch {
			case top:
				index = 0
			case at > 0:
				index = at - 1
			}
			if err := a.repo.InsertTasks(ctx, tasks, index); err != nil {
				return fmt.Errorf("creating tasks: %w", err)
			}
			a.logger.Debug("tasks added", "count", len(tasks), "index", index)

			w := cmd.OutOrStdout()
			for _, t := range tasks {
				fmt.Fprintf(w, "Created task #%d: %s (%s)\n",
					t.ID, t.Name, dateutil.FormatDuration(t.PlannedDuration))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&duration, "duration", "d", 0, "Minutes for tasks without a duration (default: ui.default_duration)")
	cmd.Flags().BoolVar(&literal, "literal", false, "Keep a trailing number as part of the name")
	cmd.Flags().BoolVar(&top, "top", false, "Add at the top of the backlog")
	cmd.Flags().IntVar(&at, "at", 0, "Backlog position, 1 is the top (default: end)")
	cmd.Flags().Int64Var(&tag, "tag", 0, "Tag ID for tasks that name no tag")

	cmd.MarkFlagsMutuallyExclusive("top", "at")

	return cmd
}

// readLines collects the lines of args, where "-" stands for all of in.
func readLines(in io.Reader, args []string) ([]string, error) {
	var lines []string
	for _, arg := range args {
		if arg != "-" {
			lines = append(lines, task.SplitLines(arg)...)
			continue
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		lines = append(lines, task.SplitLines(string(data))...)
	}
	return lines, nil
}

// updateBacklog loads the backlog, applies fn at the current time and saves
// the result.
func (a *App) updateBacklog(ctx context.Context, action string, fn func(b *task.Backlog, today dateutil.Date, now int) error) error {
	if err := a.ensureRepo(); err != nil {
		return err
	}

	b, err := a.repo.LoadBacklog(ctx)
	if err != nil {
		return fmt.Errorf("loading backlog: %w", err)
	}
	today, now := a.now()
	if err := fn(b, today, now); err != nil {
		return err
	}
	if err := a.repo.SaveBacklog(ctx, b); err != nil {
		return fmt.Errorf("saving backlog: %w", err)
	}

	a.logger.Debug("backlog updated", "action", action, "today", string(today), "now", now)
	return nil
}

func (a *App) checkTag(ctx context.Context, id int64) error {
	tags, err := a.repo.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("fetching tags: %w", err)
	}
	if !hasTag(tags, id) {
		return fmt.Errorf("tag %d: %w", id, task.ErrUnknownTag)
	}
	return nil
}

func hasTag(tags []task.Tag, id int64) bool {
	return slices.ContainsFunc(tags, func(t task.Tag) bool { return t.ID == id })
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
