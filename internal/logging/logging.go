// Package logging provides structured logging for knowns using slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

var (
	defaultLogger *slog.Logger
	defaultOnce   sync.Once
)

// Options configures the logger behavior.
type Options struct {
	// Level sets the minimum log level. Defaults to slog.LevelInfo.
	Level slog.Level
	// Output sets the output destination. Defaults to os.Stderr.
	Output io.Writer
	// JSON enables JSON output format. Defaults to false (text format).
	JSON bool
}

// New creates a new logger with the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}
	return slog.New(handler)
}

// Default returns the default logger, creating it if necessary.
// The default logger writes text output to stderr at Info level.
func Default() *slog.Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(Options{Level: slog.LevelInfo})
	})
	return defaultLogger
}

// SetDefault sets the default logger and also sets it as slog's default.
func SetDefault(logger *slog.Logger) {
	defaultOnce.Do(func() {})
	defaultLogger = logger
	slog.SetDefault(logger)
}

// Debug logs at debug level using the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }

// Info logs at info level using the default logger.
func Info(msg string, args ...any) { Default().Info(msg, args...) }

// Warn logs at warn level using the default logger.
func Warn(msg string, args ...any) { Default().Warn(msg, args...) }

// Error logs at error level using the default logger.
func Error(msg string, args ...any) { Default().Error(msg, args...) }

// Err wraps an error as a slog attribute.
func Err(err error) slog.Attr { return slog.Any("error", err) }

// Path wraps a filesystem path as a slog attribute.
func Path(p string) slog.Attr { return slog.String("path", p) }

// Import wraps an import name as a slog attribute.
func Import(name string) slog.Attr { return slog.String("import", name) }

// Source wraps a source descriptor as a slog attribute.
func Source(s string) slog.Attr { return slog.String("source", s) }

// Operation wraps an operation name as a slog attribute.
func Operation(op string) slog.Attr { return slog.String("operation", op) }

// Count wraps an item count as a slog attribute.
func Count(n int) slog.Attr { return slog.Int("count", n) }

// Timer returns a function that logs the elapsed time for an operation
// when called. Intended for use with defer.
func Timer(operation string) func() {
	start := time.Now()
	return func() {
		Default().Debug("operation completed",
			slog.String("operation", operation),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
