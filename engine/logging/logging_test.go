package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_FanoutToBothSinks(t *testing.T) {
	var console, file bytes.Buffer
	l := New(Options{Level: "info", Console: &console, File: &file})
	l.Info("unit moved", "unit", 3)
	l.Debug("hidden")

	assert.Contains(t, console.String(), "unit moved")
	assert.Contains(t, file.String(), "unit=3")
	assert.NotContains(t, console.String(), "hidden")
}

func TestNew_JSONWithRFC3339Time(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Console: &buf, JSON: true})
	l.Debug("step", "command", "MOVE")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "MOVE", rec["command"])
	ts, ok := rec["time"].(string)
	require.True(t, ok)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`, ts)
}

func TestFanout_WithAttrs(t *testing.T) {
	var a, b bytes.Buffer
	l := New(Options{Level: "info", Console: &a, File: &b}).With("session", "s1")
	l.Info("hello")
	assert.Contains(t, a.String(), "session=s1")
	assert.Contains(t, b.String(), "session=s1")
}

func TestOr(t *testing.T) {
	assert.Equal(t, slog.Default(), Or(nil))
	l := New(Options{})
	assert.Equal(t, l, Or(l))
}
