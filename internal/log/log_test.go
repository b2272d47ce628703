package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDropsTime(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, slog.LevelInfo).Info("hello", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.NotContains(t, entry, slog.TimeKey)
	require.Equal(t, "hello", entry[slog.MessageKey])
	require.Equal(t, "v", entry["k"])
}

func TestNewHonorsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)
	logger.Info("quiet")
	require.Zero(t, buf.Len())
	logger.Warn("loud")
	require.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range testCases {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestContext(t *testing.T) {
	t.Parallel()

	require.Same(t, discardLogger, FromContextOrDiscard(context.Background()))

	logger := New(&bytes.Buffer{}, slog.LevelInfo)
	require.Same(t, logger, FromContextOrDiscard(NewContext(context.Background(), logger)))
}
