package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, DriverMemory, cfg.StoreDriver)
	require.Equal(t, 24*time.Hour, cfg.AccessTTL())
	require.Equal(t, 14*24*time.Hour, cfg.RefreshTTL())
	require.Equal(t, 120.0, cfg.DefaultUnlockThreshold)
	require.Equal(t, 7, cfg.LogRetentionDays)
	require.Nil(t, cfg.CorsOrigins)
	require.False(t, cfg.AuthRateLimitTrustProxy)
}

func TestLoadTrustProxy(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATELIMIT_TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.AuthRateLimitTrustProxy)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "memory")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDriverValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Run("postgres needs a database url", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		require.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("mongo needs a url", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "Mongo")
		t.Setenv("MONGODB_URL", "")
		_, err := Load()
		require.ErrorContains(t, err, "MONGODB_URL")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")
		_, err := Load()
		require.ErrorContains(t, err, "unknown STORE_DRIVER")
	})
}

func TestLoadCorsOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ORIGINS", " http://a.test, ,http://b.test ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CorsOrigins)
}
