package services

import (
	"context"
	"math"
	"testing"

	"lessonpath-backend-go/internal/store/memory"

	"github.com/stretchr/testify/require"
)

var (
	adminActor   = Actor{UserID: "admin-1", IsAdmin: true}
	studentActor = Actor{UserID: "student-1"}
)

func TestSettingsThreshold(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewSettingsService(memory.New(), DefaultUnlockThreshold)

	value, err := svc.Threshold(ctx)
	require.NoError(t, err)
	require.Equal(t, 120.0, value)

	require.NoError(t, svc.SetThreshold(ctx, adminActor, 45.5))
	value, err = svc.Threshold(ctx)
	require.NoError(t, err)
	require.Equal(t, 45.5, value)

	require.NoError(t, svc.SetThreshold(ctx, adminActor, 0))
	value, err = svc.Threshold(ctx)
	require.NoError(t, err)
	require.Equal(t, 0.0, value)
}

func TestSettingsSetThresholdRejects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewSettingsService(memory.New(), DefaultUnlockThreshold)

	err := svc.SetThreshold(ctx, studentActor, 10)
	require.Equal(t, 403, StatusOf(err))

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		err := svc.SetThreshold(ctx, adminActor, bad)
		require.Equal(t, 400, StatusOf(err))
	}

	value, err := svc.Threshold(ctx)
	require.NoError(t, err)
	require.Equal(t, 120.0, value)
}

func TestParseThreshold(t *testing.T) {
	t.Parallel()

	value, err := ParseThreshold(float64(30))
	require.NoError(t, err)
	require.Equal(t, 30.0, value)

	value, err = ParseThreshold(" 12.5 ")
	require.NoError(t, err)
	require.Equal(t, 12.5, value)

	for _, bad := range []any{"abc", "-3", "Inf", nil, true, float64(-0.5)} {
		_, err := ParseThreshold(bad)
		require.Equal(t, 400, StatusOf(err), "%v", bad)
	}
}
