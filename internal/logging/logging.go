package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Setup builds the process logger: JSON to the log file, text to stderr.
// The TUI owns the terminal while it runs, so the file is the primary sink;
// withStderr is false there and true for one-shot CLI commands.
// The returned cleanup closes the log file.
func Setup(logFile, level string, withStderr bool) (*slog.Logger, func() error) {
	lvl := ParseLevel(level)

	var handlers []slog.Handler
	if withStderr {
		handlers = append(handlers, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	}

	cleanup := func() error { return nil }
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err == nil {
			file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: lvl}))
				cleanup = file.Close
			}
		}
	}

	if len(handlers) == 0 {
		// Nothing usable was configured. Swallow output rather than
		// corrupting the TUI's screen.
		handlers = append(handlers, slog.NewTextHandler(io.Discard, nil))
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	slog.SetDefault(logger)
	return logger, cleanup
}

// ParseLevel maps a config string to a slog level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
