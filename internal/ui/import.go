package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/db"
	"github.com/javiermolinar/dayplan/internal/snapshot"
	"github.com/javiermolinar/dayplan/internal/task"
)

func (a *App) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the complete state to a JSON or YAML file",
		Long: `Write every task with its timer history, every event, every tag and the
shared settings to a file. The format follows the extension: .yaml or .yml
for YAML, anything else for JSON.

Example:
  dayplan export ~/dayplan.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}

			snap, err := a.repo.Snapshot(context.Background())
			if err != nil {
				return fmt.Errorf("reading state: %w", err)
			}
			p := snapshot.Build(snap, a.config, a.clock())
			if err := snapshot.WriteFile(path, p); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks, %d events and %d tags to %s\n",
				len(p.Tasks), len(p.Events), len(p.Tags), path)
			return nil
		},
	}
}

func (a *App) importCmd() *cobra.Command {
	var keepSettings bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the state with an exported file, or merge another database",
		Long: `Import a file written by export, replacing every task, event and tag.
The shared settings of the file are saved to the config file unless
--keep-settings is given. Debug, storage, import and ui settings stay local.

A .db file is read as another dayplan database instead: its tags, tasks
and events are appended to the current ones.

Example:
  dayplan import ~/dayplan.json
  dayplan import /path/to/other.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			sourcePath, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(sourcePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("source does not exist: %s", sourcePath)
				}
				return fmt.Errorf("checking source: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source path is a directory: %s", sourcePath)
			}

			ctx := context.Background()
			w := cmd.OutOrStdout()
			if strings.EqualFold(filepath.Ext(sourcePath), ".db") {
				return a.mergeDatabase(ctx, w, sourcePath)
			}
			return a.importPayload(ctx, w, sourcePath, keepSettings)
		},
	}

	cmd.Flags().BoolVar(&keepSettings, "keep-settings", false, "Do not apply the settings of the file")

	return cmd
}

func (a *App) importPayload(ctx context.Context, w io.Writer, path string, keepSettings bool) error {
	remote, err := snapshot.ReadFile(path)
	if err != nil {
		return err
	}
	snap, err := remote.Snapshot()
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	current, err := a.repo.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	if !snapshot.HasChanges(snapshot.Build(current, a.config, a.clock()), remote) {
		fmt.Fprintln(w, "Already up to date.")
		return nil
	}

	merged := a.config
	if !keepSettings {
		merged = snapshot.MergeSettings(a.config, remote.Settings)
		if err := merged.Validate(); err != nil {
			return fmt.Errorf("imported settings: %w", err)
		}
	}

	if err := a.repo.ReplaceAll(ctx, snap); err != nil {
		return fmt.Errorf("replacing state: %w", err)
	}
	if !keepSettings {
		if err := merged.SaveTo(a.configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		a.config = merged
	}

	a.logger.Info("state imported", "path", path, "pushed_at", remote.PushedAt,
		"tasks", len(snap.Tasks), "events", len(snap.Events), "tags", len(snap.Tags))
	fmt.Fprintf(w, "Imported %d tasks, %d events and %d tags from %s\n",
		len(snap.Tasks), len(snap.Events), len(snap.Tags), path)
	return nil
}

func (a *App) mergeDatabase(ctx context.Context, w io.Writer, sourcePath string) error {
	destPath, err := resolvePath(a.config.Storage.DBPath)
	if err != nil {
		return err
	}
	if sourcePath == destPath {
		return fmt.Errorf("source database matches current database")
	}

	counts, err := importDatabase(ctx, a.repo, sourcePath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Imported %d tasks, %d events and %d tags from %s\n",
		counts.tasks, counts.events, counts.tags, sourcePath)
	return nil
}

type importCounts struct {
	tasks, events, tags int
}

// importDatabase appends the tags, tasks and events of another database to
// dest. Tasks keep their completion but not their timer history.
func importDatabase(ctx context.Context, dest task.Repository, sourcePath string) (importCounts, error) {
	var counts importCounts

	sourceRepo, err := db.New(sourcePath)
	if err != nil {
		return counts, fmt.Errorf("opening source database: %w", err)
	}
	defer func() { _ = sourceRepo.Close() }()

	src, err := sourceRepo.Snapshot(ctx)
	if err != nil {
		return counts, fmt.Errorf("reading source database: %w", err)
	}

	tagIDs := make(map[int64]int64, len(src.Tags))
	for _, sourceTag := range src.Tags {
		t := &task.Tag{Name: sourceTag.Name, Color: sourceTag.Color}
		if err := dest.CreateTag(ctx, t); err != nil {
			return counts, fmt.Errorf("importing tag %q: %w", sourceTag.Name, err)
		}
		tagIDs[sourceTag.ID] = t.ID
		counts.tags++
	}
	remap := func(id *int64) *int64 {
		if id == nil {
			return nil
		}
		newID, ok := tagIDs[*id]
		if !ok {
			return nil
		}
		return &newID
	}

	for _, sourceTask := range src.Tasks {
		newTask := &task.Task{
			Name:             sourceTask.Name,
			PlannedDuration:  sourceTask.PlannedDuration,
			AdjustedDuration: sourceTask.AdjustedDuration,
			Completed:        sourceTask.Completed,
			ActualDuration:   sourceTask.ActualDuration,
			TagID:            remap(sourceTask.TagID),
			CreatedAt:        sourceTask.CreatedAt,
		}
		if err := dest.CreateTask(ctx, newTask); err != nil {
			return counts, fmt.Errorf("importing task %q: %w", sourceTask.Name, err)
		}
		counts.tasks++
	}

	events := make([]*task.Event, 0, len(src.Events))
	for _, e := range src.Events {
		e.ID = 0
		e.TagID = remap(e.TagID)
		events = append(events, &e)
	}
	if err := dest.CreateEvents(ctx, events); err != nil {
		return counts, fmt.Errorf("importing events: %w", err)
	}
	counts.events = len(events)

	return counts, nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
