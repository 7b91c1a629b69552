package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger setup.
type Config struct {
	Level         string // debug, info, warn, error
	FilePath      string
	MaxSizeMB     int
	MaxFiles      int
	WriteToStderr bool
}

// DefaultConfig returns the standard logging configuration: info level,
// writing to the default log path, 10MB rotation, 5 files kept.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		FilePath:  DefaultLogPath(),
		MaxSizeMB: 10,
		MaxFiles:  5,
	}
}

// DebugConfig returns a configuration useful for local debugging: debug
// level, logging to both the file and stderr.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.WriteToStderr = true
	return cfg
}

// Setup builds a slog.Logger backed by a rotating file writer (and
// optionally stderr). The returned cleanup func must be called to flush
// and close the underlying writer.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	path := cfg.FilePath
	if path == "" {
		path = DefaultLogPath()
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 5
	}

	rw, err := NewRotatingWriter(path, maxSize, maxFiles)
	if err != nil {
		return nil, func() {}, fmt.Errorf("logging: setup: %w", err)
	}

	var out io.Writer = rw
	if cfg.WriteToStderr {
		out = io.MultiWriter(rw, os.Stderr)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	logger := slog.New(handler)

	cleanup := func() {
		_ = rw.Sync()
		_ = rw.Close()
	}
	return logger, cleanup, nil
}

// SetupDefault builds a logger using DefaultConfig, discarding the setup
// error in favor of a stderr-only fallback logger so callers can always
// get a usable logger.
func SetupDefault() (*slog.Logger, func()) {
	logger, cleanup, err := Setup(DefaultConfig())
	if err != nil {
		fallback := slog.New(slog.NewTextHandler(os.Stderr, nil))
		fallback.Warn("falling back to stderr logging", "error", err)
		return fallback, func() {}
	}
	return logger, cleanup
}

// parseLevel maps a level name to a slog.Level, defaulting to Info for
// unrecognized values.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString is exported for callers (e.g. CLI flag parsing) that
// need to validate a level string without constructing a full Config.
func LevelFromString(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", level)
	}
}
