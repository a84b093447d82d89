// Package logging builds the application's structured file logger
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// TimeFormat is the timestamp layout of every log line
const TimeFormat = "15:04:05.000"

// New creates a logger writing to w at the named level
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		lvl = parsed
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      TimeFormat,
		Prefix:          "codeterm",
	}), nil
}

// Open creates a logger appending to the file at path. The screen belongs
// to the terminal UI, so logs never go to stdout or stderr.
func Open(path, level string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger, err := New(f, level)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, f, nil
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard)
}
