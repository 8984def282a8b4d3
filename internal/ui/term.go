package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Pending tasks: cyan
	colorTask = color.New(color.FgCyan)

	// Running task: bold green so it stands out in a list
	colorActive = color.New(color.FgGreen, color.Bold)

	// Completed tasks: dim
	colorDone = color.New(color.FgWhite, color.Faint)

	// Events: magenta
	colorEvent = color.New(color.FgMagenta)

	// Warnings: yellow to make it pop
	colorWarn = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// isTerminal reports whether w writes to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the width of the terminal behind w, or 0 when w is not
// a terminal.
func termWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

func formatTask(s string) string {
	return colorTask.Sprint(s)
}

func formatActive(s string) string {
	return colorActive.Sprint(s)
}

func formatDone(s string) string {
	return colorDone.Sprint(s)
}

func formatEvent(s string) string {
	return colorEvent.Sprint(s)
}

func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
