package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLogLevel("warning"))
	assert.Equal(t, INFO, ParseLogLevel("bogus"))
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(INFO, zapcore.AddSync(&buf))
	require.NoError(t, err)

	l.Debug("hidden %d", 1)
	l.Info("project %s created", "p1")
	l.Sync()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "project p1 created", entry["message"])
	assert.Contains(t, entry, "timestamp")
}
