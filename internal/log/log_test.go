package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, test := range tests {
		got, err := ParseLevel(test.in)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, test.in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatAuto, slog.LevelInfo)

	ctx := With(context.Background(), slog.String("backend", "window"))
	logger.InfoContext(ctx, "started", "width", 1280)
	logger.Debug("hidden")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "started", record["msg"])
	assert.Equal(t, "window", record["backend"])
	assert.EqualValues(t, 1280, record["width"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatText, slog.LevelDebug).With("zone", "UTC").Debug("tick")
	assert.Contains(t, buf.String(), "msg=tick")
	assert.Contains(t, buf.String(), "zone=UTC")
}

func TestWithDoesNotShareAttrs(t *testing.T) {
	base := With(context.Background(), slog.String("a", "1"))
	one := With(base, slog.String("b", "2"))
	two := With(base, slog.String("c", "3"))

	assert.Len(t, one.Value(contextKey{}), 2)
	assert.Equal(t, "c", two.Value(contextKey{}).([]slog.Attr)[1].Key)
}
