package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures the process logger.
type Options struct {
	// Level is one of debug|info|warn|error. Defaults to info.
	Level string
	// File, when set, receives a copy of every record (appended).
	File string
	// Debug forces debug level.
	Debug bool
	// Stderr overrides the console sink; nil means os.Stderr.
	Stderr io.Writer
}

// New builds a text logger writing to the console and optionally a file.
// The returned close func releases the file handle.
func New(opt Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, nil, err
	}
	if opt.Debug {
		level = slog.LevelDebug
	}
	var out io.Writer = os.Stderr
	if opt.Stderr != nil {
		out = opt.Stderr
	}
	closer := func() error { return nil }
	if opt.File != "" {
		if err := os.MkdirAll(filepath.Dir(opt.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
		}
		f, err := os.OpenFile(opt.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(out, f)
		closer = f.Close
	}
	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(h), closer, nil
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %s (use debug|info|warn|error)", s)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// OrDiscard returns l, or a logger that drops everything when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return discard
	}
	return l
}
