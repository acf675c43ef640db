package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"  DEBUG  ", LevelDebug},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)

	logger.Info("hidden")
	require.Empty(t, buf.String())

	logger.Warn("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestWriter_ForwardsLines(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	w := NewWriter(logger, "registering")

	n, err := w.Write([]byte("application.argoproj.io/inventory-api created\r\n\n"))
	require.NoError(t, err)
	require.Equal(t, 48, n)

	out := buf.String()
	require.Contains(t, out, "registering")
	require.Contains(t, out, "application.argoproj.io/inventory-api created")
	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")), "blank lines are dropped")
}

func TestWriter_NilLoggerDiscards(t *testing.T) {
	w := NewWriter(nil, "stage")
	n, err := w.Write([]byte("anything"))
	require.NoError(t, err)
	require.Equal(t, 8, n)
}
