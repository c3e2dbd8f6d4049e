package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ── Logging ────────────────────────────────────────────────
// One slog text handler writing to both the console and a persistent
// log file. The logger is created once in main and injected into every
// component; nothing in the repo reads a logging singleton.

// New creates a logger at the given level. When logFile is non-empty,
// lines go to both stdout and the file (appended across runs). The
// returned closer releases the file handle.
func New(level, logFile string) (*slog.Logger, func() error, error) {
	var w io.Writer = os.Stdout
	closer := func() error { return nil }

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closer = f.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(handler), closer, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
