package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewWritesJSONWithServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Service: "lessonpath", Version: "test", Env: "prod", Level: "info"}, &buf)
	logger.Debug("hidden")
	logger.Info("hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["msg"])
	require.Equal(t, "lessonpath", line["service"])
	require.Equal(t, "v", line["k"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.Default(), FromContext(context.Background()))

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithContext(context.Background(), custom)
	require.Same(t, custom, FromContext(ctx))
}

func TestDailyFileRotatesAndPrunes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stale := filepath.Join(dir, "app-2026-01-01.log")
	require.NoError(t, os.WriteFile(stale, []byte("old\n"), 0o644))
	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep\n"), 0o644))

	now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	f, err := openDailyFile(dir, 3, func() time.Time { return now })
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("first\n"))
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = f.Write([]byte("second\n"))
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "app-2026-03-10.log"))
	require.NoError(t, err)
	require.Equal(t, "first\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "app-2026-03-11.log"))
	require.NoError(t, err)
	require.Equal(t, "second\n", string(second))

	require.NoFileExists(t, stale)
	require.FileExists(t, unrelated)
}

func TestDailyFileClampsRetention(t *testing.T) {
	t.Parallel()

	f, err := openDailyFile(t.TempDir(), 30, time.Now)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, maxRetentionDays, f.retentionDays)
}
