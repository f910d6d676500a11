package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lessonpath-backend-go/internal/config"

	"github.com/stretchr/testify/require"
)

func TestServeClosesLogFileOnFailure(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	dir := t.TempDir()
	cfg := config.Config{LogDir: dir, LogRetentionDays: 7, LogLevel: "info", LogFormat: "json"}
	var stdout bytes.Buffer

	code := serve(cfg, &stdout, func(config.Config, *slog.Logger) error {
		return errors.New("db: connection refused")
	})
	require.Equal(t, 1, code)

	// serve installed its logger as the default; the file behind it is closed now.
	slog.Info("after exit")

	raw, err := os.ReadFile(filepath.Join(dir, "app-"+time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "server stopped")
	require.Contains(t, string(raw), "connection refused")
	require.NotContains(t, string(raw), "after exit")
	require.Contains(t, stdout.String(), "after exit")
}

func TestServeReturnsZeroOnCleanShutdown(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	cfg := config.Config{LogDir: t.TempDir(), LogRetentionDays: 7, LogLevel: "info", LogFormat: "text"}
	code := serve(cfg, &bytes.Buffer{}, func(config.Config, *slog.Logger) error { return nil })
	require.Equal(t, 0, code)
}
