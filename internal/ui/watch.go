package ui

import (
	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayplan/internal/tui"
)

func (a *App) watchCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live timeline view",
		Long: `Open a full-screen view of the day that redraws every second while a
task runs and every 15 seconds otherwise.

Keys: ←/→ change day, t back to today, space start/pause, d done,
x cancel, c copy the timeline, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			opts := []tui.Option{tui.WithLogger(a.logger), tui.WithClock(a.clock)}
			if !noColor {
				opts = append(opts, tui.WithPalette(a.palette()))
			}
			return tui.Run(a.repo, a.config, opts...)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")
	return cmd
}
