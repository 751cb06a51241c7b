package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a structured logger wrapper around zerolog. All logging goes
// through this package; internal components derive component-scoped
// zerolog.Logger instances via Zerolog().
type Logger struct {
	zlog zerolog.Logger
}

// Options control output format and level.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json (default) or console
	Env    string
}

// New creates a new Logger instance.
func New(opts Options) *Logger {
	var output io.Writer = os.Stdout
	if opts.Format == "console" || opts.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.SetGlobalLevel(parseLevel(opts.Level))

	zlog := zerolog.New(output).
		With().
		Timestamp().
		Str("env", opts.Env).
		Logger()

	return &Logger{zlog: zlog}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }

// Info logs an info message.
func (l *Logger) Info(msg string) { l.zlog.Info().Msg(msg) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string) { l.zlog.Warn().Msg(msg) }

// Error logs an error message.
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...any) { l.zlog.Info().Msgf(format, args...) }

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...any) { l.zlog.Error().Msgf(format, args...) }

// WithField returns a new logger with an additional field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a new logger with multiple fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a new logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// Zerolog returns the underlying zerolog.Logger for component loggers.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}
