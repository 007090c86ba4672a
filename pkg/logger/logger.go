// Package logger wraps log/slog behind a package-level logger the whole
// module shares. The controller logs iterations at debug level,
// termination at info level, and solver or pricing failures at error
// level; bzworker configures output and rotation once at startup.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the shared logger. It defaults to an info-level JSON handler on
// stdout so library callers that never call Init still get output instead
// of a nil dereference.
var Log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Config controls level, format, and output destination.
type Config struct {
	Level      string
	Format     string // json, text
	Output     string // stdout, stderr, file
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Init configures the logger with the given level and JSON output on stdout.
func Init(level string) {
	InitWithConfig(Config{
		Level:  level,
		Format: "json",
		Output: "stdout",
	})
}

// InitWithConfig configures the logger from a full Config.
func InitWithConfig(cfg Config) {
	var lvl slog.Level
	switch cfg.Level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var writer io.Writer
	switch cfg.Output {
	case "stderr":
		writer = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			cfg.FilePath = "logs/app.log"
		}
		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			writer = os.Stdout
		} else {
			// lumberjack handles rotation
			writer = &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
		}
	default:
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	Log = slog.New(handler)
}

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return Log.With(args...)
}

// WithComponent returns a child logger tagged with the originating
// component (e.g. "controller", "master", "pricer").
func WithComponent(component string) *slog.Logger {
	return Log.With("component", component)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Fatal logs an error message and exits the process.
func Fatal(msg string, args ...any) {
	Log.Error(msg, args...)
	os.Exit(1)
}
