package logging

import (
	"log/slog"
	"strings"
)

// Writer is an io.Writer implementation that forwards subprocess output to slog.
// It is handed to kubectl so that apply output shows up as structured stage lines.
type Writer struct {
	logger *slog.Logger
	stage  string
}

// NewWriter constructs a Writer bound to the provided logger and stage label.
func NewWriter(logger *slog.Logger, stage string) *Writer {
	return &Writer{logger: logger, stage: stage}
}

// Write logs the given bytes line by line at info level.
func (w *Writer) Write(p []byte) (int, error) {
	if w.logger != nil {
		for _, line := range strings.Split(string(p), "\n") {
			line = strings.TrimRight(line, "\r")
			if line != "" {
				w.logger.Info("command output", "stage", w.stage, "line", line)
			}
		}
	}
	return len(p), nil
}
