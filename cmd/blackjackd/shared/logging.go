package shared

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures console logging for a command.
func SetupLogger(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}

// SetupFileLogger writes logs to the given file instead of the console,
// falling back to stderr when the file cannot be opened.
func SetupFileLogger(path string, debug bool) (*log.Logger, func()) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := SetupLogger(debug)
		logger.Warn("could not open log file, logging to stderr", "path", path, "error", err)
		return logger, func() {}
	}

	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(f, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return logger, func() { _ = f.Close() }
}
