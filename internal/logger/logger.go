package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger interface for structured logging.
// Fields are passed as alternating key/value pairs.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Fatal(msg string, err error, fields ...interface{})
	With(fields ...interface{}) Logger
}

// Options configures a zerolog-backed logger
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	File   string // optional path; rotated with lumberjack
	Output io.Writer
}

// ZeroLogger implements Logger on top of zerolog
type ZeroLogger struct {
	z zerolog.Logger
}

// New creates a logger from options
func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if opts.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	zl := zerolog.New(out).
		Level(parseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", "vistoenmaps-api").
		Logger()

	return &ZeroLogger{z: zl}
}

// NewSimpleLogger creates a JSON logger at info level on stdout
func NewSimpleLogger() Logger {
	return New(Options{Level: "info", Format: "json"})
}

// NewNop returns a logger that discards everything, used in tests
func NewNop() Logger {
	return &ZeroLogger{z: zerolog.Nop()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Info logs an info message
func (l *ZeroLogger) Info(msg string, fields ...interface{}) {
	l.z.Info().Fields(fields).Msg(msg)
}

// Error logs an error message
func (l *ZeroLogger) Error(msg string, err error, fields ...interface{}) {
	l.z.Error().Err(err).Fields(fields).Msg(msg)
}

// Warn logs a warning message
func (l *ZeroLogger) Warn(msg string, fields ...interface{}) {
	l.z.Warn().Fields(fields).Msg(msg)
}

// Debug logs a debug message
func (l *ZeroLogger) Debug(msg string, fields ...interface{}) {
	l.z.Debug().Fields(fields).Msg(msg)
}

// Fatal logs a fatal error and exits
func (l *ZeroLogger) Fatal(msg string, err error, fields ...interface{}) {
	l.z.Fatal().Err(err).Fields(fields).Msg(msg)
}

// With returns a child logger carrying the given fields
func (l *ZeroLogger) With(fields ...interface{}) Logger {
	return &ZeroLogger{z: l.z.With().Fields(fields).Logger()}
}
