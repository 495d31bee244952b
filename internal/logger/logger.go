// Package logger wraps github.com/charmbracelet/log behind a small surface
// every component is handed explicitly (never a package-global), so tests
// can capture or silence output per call site.
package logger

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

// Level is charmbracelet/log's level type, re-exported so callers never
// import charmlog directly.
type Level = charmlog.Level

const (
	LevelDebug = charmlog.DebugLevel
	LevelInfo  = charmlog.InfoLevel
	LevelWarn  = charmlog.WarnLevel
	LevelError = charmlog.ErrorLevel
)

// ParseLevel delegates to charmlog's own level parser.
func ParseLevel(s string) (Level, error) {
	return charmlog.ParseLevel(s)
}

// Logger is an injected, structured logger. Quiet suppresses Debug/Info/Warn
// but never Error, matching the teacher's quiet-mode contract.
type Logger struct {
	backend *charmlog.Logger
	quiet   bool
}

// New builds a Logger writing to w at the given level.
func New(w io.Writer, level Level, quiet bool) *Logger {
	backend := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: false,
	})
	return &Logger{backend: backend, quiet: quiet}
}

// WithPrefix returns a child logger tagging every message with prefix
// (typically a repository name), sharing quiet mode with its parent.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{backend: l.backend.WithPrefix(prefix), quiet: l.quiet}
}

func (l *Logger) Debug(msg string, keyvals ...any) {
	if !l.quiet {
		l.backend.Debug(msg, keyvals...)
	}
}

func (l *Logger) Info(msg string, keyvals ...any) {
	if !l.quiet {
		l.backend.Info(msg, keyvals...)
	}
}

func (l *Logger) Warn(msg string, keyvals ...any) {
	if !l.quiet {
		l.backend.Warn(msg, keyvals...)
	}
}

// Error is never suppressed by quiet mode.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.backend.Error(msg, keyvals...)
}

// SetLevel changes the logger's minimum reported level.
func (l *Logger) SetLevel(level Level) {
	l.backend.SetLevel(level)
}

// SetQuiet enables or disables quiet mode.
func (l *Logger) SetQuiet(quiet bool) {
	l.quiet = quiet
}
