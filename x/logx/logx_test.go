package logx

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestJSONOutput(t *testing.T) {
	t.Setenv("ENV", "")
	var buf bytes.Buffer
	l := New(&buf, InfoLevel).With("svc", "hal")

	l.Debug("hidden")
	l.Info("configured", "devices", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "configured", rec["msg"])
	assert.Equal(t, "hal", rec["svc"])
	assert.Equal(t, float64(2), rec["devices"])
	assert.Contains(t, rec, "ts")
}

func TestSetLevel(t *testing.T) {
	t.Setenv("ENV", "")
	var buf bytes.Buffer
	l := New(&buf, ErrorLevel)
	assert.Equal(t, ErrorLevel, l.Level())

	l.Warn("dropped")
	assert.Zero(t, buf.Len())

	l.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, l.Level())
	l.Debug("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestConsoleHandlerInDevelopment(t *testing.T) {
	t.Setenv("ENV", "development")
	var buf bytes.Buffer
	New(&buf, InfoLevel).Info("hello", "k", "v")
	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.False(t, json.Valid([]byte(strings.TrimSpace(out))))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}

func TestDefaultDelegates(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	m := NewMockLogger()
	m.On("Info", "boot", mock.Anything).Return()
	SetDefault(m)

	Info("boot", "device", "host")
	m.AssertExpectations(t)
}
