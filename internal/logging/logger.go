package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// TimestampFormat is used by both formatters
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// New builds a logger writing to stderr with the given level and format.
// Unknown levels fall back to info and unknown formats to json.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(ParseLevel(level))
	logger.SetFormatter(Formatter(format))
	return logger
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// ParseLevel maps a level name to a logrus level
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Formatter returns the formatter for "json" or "text"
func Formatter(format string) logrus.Formatter {
	switch format {
	case "text":
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: TimestampFormat,
		}
	default:
		return &logrus.JSONFormatter{
			TimestampFormat: TimestampFormat,
		}
	}
}

// ValidLevel reports whether level is one ParseLevel recognizes
func ValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// ValidFormat reports whether format is "json" or "text"
func ValidFormat(format string) bool {
	return format == "json" || format == "text"
}
