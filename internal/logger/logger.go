// Package logger provides the leveled, field-based logging used by the
// engine and the CLI front-end. It wraps logrus the way the rest of the
// corpus wraps a base logging library: call sites pass a message and an
// optional field map, never a logrus entry directly.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is a structured log context, e.g. logger.Debug("waited for guest", logger.Fields{"pid": pid}).
type Fields = map[string]any

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbosity maps the CLI's repeatable -v flag to a logrus level.
// 0 verbosity still allows Warn/Error; -v enables Info; -vv enables Debug.
func SetVerbosity(count int) {
	switch {
	case count >= 2:
		base.SetLevel(logrus.DebugLevel)
	case count == 1:
		base.SetLevel(logrus.InfoLevel)
	default:
		base.SetLevel(logrus.WarnLevel)
	}
}

// SetOutput redirects log output; tests use this to capture and assert on log lines.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

func entry(fields Fields) *logrus.Entry {
	if len(fields) == 0 {
		return logrus.NewEntry(base)
	}

	return base.WithFields(logrus.Fields(fields))
}

// Debug logs a diagnostic message not meant for end users.
func Debug(msg string, fields ...Fields) {
	entry(merge(fields)).Debug(msg)
}

// Info logs a user-facing informational message.
func Info(msg string, fields ...Fields) {
	entry(merge(fields)).Info(msg)
}

// Warn logs a recoverable, degraded-path condition.
func Warn(msg string, fields ...Fields) {
	entry(merge(fields)).Warn(msg)
}

// Error logs a failure that the caller will also receive as an error value.
func Error(msg string, fields ...Fields) {
	entry(merge(fields)).Error(msg)
}

func merge(fields []Fields) Fields {
	if len(fields) == 0 {
		return nil
	}

	return fields[0]
}
