package ui

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// DebugLogPath is the fixed path for debug logs
const DebugLogPath = "dayplan-debug.log"

// openDebugLog creates the debug log in the current directory and returns a
// JSON logger writing to it. The returned func writes the closing entry and
// closes the file.
func openDebugLog() (*slog.Logger, func() error, error) {
	f, err := os.Create(DebugLogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("creating debug log: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("debug start", "log_file", DebugLogPath, "time", time.Now().Format(time.RFC3339))

	return logger, func() error {
		logger.Info("debug end", "time", time.Now().Format(time.RFC3339))
		return f.Close()
	}, nil
}
