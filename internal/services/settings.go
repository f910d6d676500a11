package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store"
)

const (
	UnlockThresholdKey     = "unlock_threshold_seconds"
	DefaultUnlockThreshold = 120.0
)

type SettingsService struct {
	Store            store.Store
	DefaultThreshold float64
}

func NewSettingsService(s store.Store, defaultThreshold float64) *SettingsService {
	return &SettingsService{Store: s, DefaultThreshold: defaultThreshold}
}

// Threshold returns the stored unlock threshold, or the default when unset.
func (s *SettingsService) Threshold(ctx context.Context) (float64, error) {
	setting, err := s.Store.Settings().GetSetting(ctx, UnlockThresholdKey)
	if errors.Is(err, store.ErrNotFound) {
		return s.DefaultThreshold, nil
	}
	if err != nil {
		return 0, WrapError(err, "load unlock threshold")
	}
	return setting.Value, nil
}

func (s *SettingsService) SetThreshold(ctx context.Context, actor Actor, value float64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return ErrBadRequest("Invalid threshold. Must be a non-negative number of seconds.")
	}
	if err := s.Store.Settings().PutSetting(ctx, models.Setting{Key: UnlockThresholdKey, Value: value}); err != nil {
		return WrapError(err, "save unlock threshold")
	}
	return nil
}

// ParseThreshold accepts a decoded JSON number or a numeric string.
func ParseThreshold(raw any) (float64, error) {
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, ErrBadRequest("Invalid threshold. Must be a non-negative number of seconds.")
		}
		value = parsed
	default:
		return 0, ErrBadRequest("Invalid threshold. Must be a non-negative number of seconds.")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, ErrBadRequest("Invalid threshold. Must be a non-negative number of seconds.")
	}
	return value, nil
}
