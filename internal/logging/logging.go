// Package logging configures structured JSON logging for Passage.
// Logs are written to a size-rotated file with optional stderr echo.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the log file. Empty means no file logging.
	FilePath string
	// MaxSizeMB is the maximum size in MB before rotation (default: 10).
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep (default: 5).
	MaxFiles int
	// WriteToStderr whether to also write to stderr (default: true).
	WriteToStderr bool
}

// DefaultConfig returns sensible defaults for file logging.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// DebugConfig returns configuration for debug mode.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup initializes file-based logging and returns a cleanup function.
// The cleanup function should be called to close the log file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	logger := slog.New(handler)

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}

	return logger, cleanup, nil
}

// SetupDefault sets up logging with the given configuration and installs
// the logger as the process default. Returns a cleanup function.
func SetupDefault(cfg Config) (func(), error) {
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	return cleanup, nil
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
