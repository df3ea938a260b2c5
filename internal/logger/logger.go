package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/toolguide/internal/env"
	"github.com/ekisa-team/toolguide/internal/xfs"
)

type options struct {
	level      slog.Level
	format     string
	logToFile  bool
	logFile    string
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	output     io.Writer
}

// Option configures the logger.
type Option func(*options)

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithFormat forces the console format ("text" or "json").
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// WithLogToFile enables the rotating log file.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.logToFile = enabled }
}

// WithLogFile sets the rotating log file path.
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithRotation sets lumberjack rotation limits.
func WithRotation(maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(o *options) {
		o.maxSizeMB = maxSizeMB
		o.maxBackups = maxBackups
		o.maxAgeDays = maxAgeDays
	}
}

// WithOutput replaces stdout as console destination.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// New builds the process logger. Development gets a colored tint handler,
// production gets JSON. File output is always JSON.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	o := &options{
		level:      slog.LevelInfo,
		logFile:    filepath.Join("logs", "toolguide.log"),
		maxSizeMB:  50,
		maxBackups: 5,
		maxAgeDays: 28,
		output:     os.Stdout,
	}
	if !environment.IsProduction() {
		o.level = slog.LevelDebug
	}
	for _, opt := range opts {
		opt(o)
	}

	format := o.format
	if format == "" {
		format = "text"
		if environment.IsProduction() {
			format = "json"
		}
	}

	var console slog.Handler
	if format == "json" {
		console = slog.NewJSONHandler(o.output, &slog.HandlerOptions{Level: o.level})
	} else {
		console = tint.NewHandler(o.output, &tint.Options{
			Level:      o.level,
			TimeFormat: time.Kitchen,
			NoColor:    environment == env.Test,
		})
	}

	if !o.logToFile {
		return slog.New(console)
	}

	path := xfs.ExpandTilde(o.logFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.New(console).Warn("Failed to create log directory, file logging disabled", "path", path, "error", err)
		return slog.New(console)
	}

	file := slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    o.maxSizeMB,
		MaxBackups: o.maxBackups,
		MaxAge:     o.maxAgeDays,
		Compress:   true,
	}, &slog.HandlerOptions{Level: o.level})

	return slog.New(&fanout{handlers: []slog.Handler{console, file}})
}

// ParseLevel maps a config level name onto a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
