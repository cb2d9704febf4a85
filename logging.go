package crate

import (
	"log/slog"
	"time"
)

// Logger receives advisory diagnostics. Nothing emitted here is part of the
// compatibility surface; messages are text for operators, not machines.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// NoopLogger returns a logger that discards everything.
func NoopLogger() Logger {
	return noopLogger{}
}

type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts a slog.Logger to the crate Logger interface. A nil
// argument falls back to slog.Default().
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{logger: logger}
}

func (l slogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l slogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func defaultLogger() Logger {
	return NewSlogLogger(nil)
}

// MiddlewareRunEvent describes one middleware invocation for logging.
type MiddlewareRunEvent struct {
	Key      string
	Duration time.Duration
	Budget   time.Duration
	Exceeded bool
}

// MiddlewareLogger records middleware runs.
type MiddlewareLogger interface {
	LogRun(MiddlewareRunEvent)
}

// MiddlewareLoggerFunc adapts a function to MiddlewareLogger.
type MiddlewareLoggerFunc func(MiddlewareRunEvent)

// LogRun implements MiddlewareLogger.
func (f MiddlewareLoggerFunc) LogRun(event MiddlewareRunEvent) {
	if f != nil {
		f(event)
	}
}

type noopMiddlewareLogger struct{}

func (noopMiddlewareLogger) LogRun(MiddlewareRunEvent) {}
