package ui

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/task"
)

func (a *App) tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage color tags for tasks and events",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "add [name] [color]",
		Short:   "Add a tag",
		Example: `  dayplan tag add focus "#89b4fa"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			t, err := task.NewTag(args[0], args[1])
			if err != nil {
				return err
			}
			if err := a.repo.CreateTag(context.Background(), t); err != nil {
				return fmt.Errorf("creating tag: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created tag #%d: %s %s\n", t.ID, t.Name, t.Color)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			tags, err := a.repo.ListTags(context.Background())
			if err != nil {
				return fmt.Errorf("listing tags: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(tags) == 0 {
				fmt.Fprintln(w, "No tags defined.")
				return nil
			}
			for _, t := range tags {
				fmt.Fprintf(w, "  #%d %s %s\n", t.ID, swatch(t.Color), t.Name)
			}
			return nil
		},
	})
	return cmd
}

// swatch prints a colored block followed by the hex value.
func swatch(hex string) string {
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return hex
	}
	return color.RGB(r, g, b).Sprint("■") + " " + hex
}
