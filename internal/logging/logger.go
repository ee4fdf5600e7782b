// Package logging opens the structured data-layer log under
// .dutyroster/logs so failures can be inspected after the TUI exits.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileLogger owns the log file behind a slog.Logger.
type FileLogger struct {
	*slog.Logger
	file *os.File
}

// New creates (or reuses) the log file in the given directory.
func New(logsDir string) (*FileLogger, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logsDir, "dutyroster.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &FileLogger{
		Logger: slog.New(slog.NewTextHandler(f, nil)),
		file:   f,
	}, nil
}

// Close releases the file handle.
func (l *FileLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
