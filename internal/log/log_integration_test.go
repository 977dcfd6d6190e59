package log

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")

	// Create logger with debug level
	logger, err := New(Config{
		Level:    "debug",
		FilePath: logPath,
	})
	require.NoError(t, err)

	SetDefaultLogger(logger)
	t.Cleanup(func() { SetDefaultLogger(nil) })

	// Log test messages at different levels
	Debug("Debug message", "test", true)
	Info("Info message", "test", true)
	Warn("Warning message", "test", true)
	Error("Error message", "error", fmt.Errorf("test error"))
	Trace("Trace message", "test", true)

	// Close logger to ensure file is written
	logger.Close()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)

	contentStr := string(content)
	assert.Contains(t, contentStr, "Debug message")
	assert.Contains(t, contentStr, "Info message")
	assert.Contains(t, contentStr, "Warning message")
	assert.Contains(t, contentStr, "Error message")
	assert.Contains(t, contentStr, "test error")
	// Trace is only emitted when the level is explicitly 'trace'
	assert.NotContains(t, contentStr, "Trace message")
}

func TestWithCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewWriter(&buf, "trace"))
	t.Cleanup(func() { SetDefaultLogger(nil) })

	session := With("session_id", "abc-123")
	session.Info("Playback started")
	session.Trace("Tick", "position", 12.5)

	out := buf.String()
	assert.Contains(t, out, `"session_id":"abc-123"`)
	assert.Contains(t, out, "Playback started")
	assert.Contains(t, out, "TRACE: Tick")
}

func TestWithoutDefaultLoggerDiscards(t *testing.T) {
	SetDefaultLogger(nil)

	assert.NotPanics(t, func() {
		With("session_id", "x").Info("nobody is listening")
		Info("nobody is listening")
	})
}
