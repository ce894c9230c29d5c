package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_JSONWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf, Component: "agent"})
	With(l, "run_id", "r1").Info("agent.run.start", "subject", "s1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "agent.run.start", entry["msg"])
	assert.Equal(t, "agent", entry["component"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "s1", entry["subject"])
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})
	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

type captureLogger struct {
	NoOpLogger
	msgs []string
	args [][]any
}

func (c *captureLogger) Error(msg string, args ...any) {
	c.msgs = append(c.msgs, msg)
	c.args = append(c.args, args)
}

func (c *captureLogger) Info(msg string, args ...any) {
	c.msgs = append(c.msgs, msg)
	c.args = append(c.args, args)
}

func TestWith_WrapsForeignLogger(t *testing.T) {
	c := &captureLogger{}
	With(c, "k", "v").Info("m", "a", 1)
	require.Len(t, c.args, 1)
	assert.Equal(t, []any{"k", "v", "a", 1}, c.args[0])
}

func TestLogHelpers(t *testing.T) {
	c := &captureLogger{}
	LogCapabilityCall(c, "x", time.Millisecond, nil)
	LogCapabilityCall(c, "x", time.Millisecond, errors.New("boom"))
	LogModelCall(c, "intent", "mock", 10, time.Millisecond, nil)
	assert.Equal(t, []string{"capability.call.completed", "capability.call.failed", "model.call.completed"}, c.msgs)
}
