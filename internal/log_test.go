package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{"INFO", LogLevelInfo},
		{" debug ", LogLevelDebug},
		{"TRACE", LogLevelTrace},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, LogLevelWarn)

	l.Info("hidden %d", 1)
	l.Debug("hidden")
	l.Warn("shown %s", "warning")
	l.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warning")
	assert.Contains(t, out, "shown error")
	assert.Contains(t, out, "level=WARN")
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, LogLevelTrace).With("run_id", "abc")

	l.Trace("fold %d", 3)
	assert.Contains(t, buf.String(), "run_id=abc")
	assert.Contains(t, buf.String(), "fold 3")
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("nothing") })
}
