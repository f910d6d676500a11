package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"prod"`

	StoreDriver         string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL         string        `env:"DATABASE_URL"`
	MongoURL            string        `env:"MONGODB_URL"`
	MongoDatabase       string        `env:"MONGODB_DATABASE" envDefault:"lessonpath"`
	MongoConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`

	JWTSecret         string `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer         string `env:"JWT_ISSUER" envDefault:"lessonpath"`
	AccessTTLSeconds  int64  `env:"ACCESS_TTL_SECONDS" envDefault:"86400"`
	RefreshTTLSeconds int64  `env:"REFRESH_TTL_SECONDS" envDefault:"1209600"`

	CorsOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	MediaStoragePath     string `env:"MEDIA_STORAGE_PATH" envDefault:"storage/media"`
	MetricsDiskPath      string `env:"METRICS_DISK_PATH" envDefault:"storage/media"`
	MetricsSampleSeconds int    `env:"METRICS_SAMPLE_INTERVAL" envDefault:"5"`

	LogDir           string `env:"LOG_DIR" envDefault:"logs"`
	LogRetentionDays int    `env:"LOG_RETENTION_DAYS" envDefault:"7"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"json"`

	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	BootstrapAdminName     string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"Administrator"`

	AuthRateLimitRequests      int  `env:"RATELIMIT_AUTH_REQUESTS" envDefault:"10"`
	AuthRateLimitWindowSeconds int  `env:"RATELIMIT_AUTH_WINDOW_SECONDS" envDefault:"60"`
	AuthRateLimitTrustProxy    bool `env:"RATELIMIT_TRUST_PROXY" envDefault:"false"`

	DefaultUnlockThreshold float64 `env:"DEFAULT_UNLOCK_THRESHOLD" envDefault:"120"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	cfg.CorsOrigins = cleanList(cfg.CorsOrigins)
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the %s driver", c.StoreDriver)
		}
	case DriverMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("config: MONGODB_URL is required for the %s driver", c.StoreDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.DefaultUnlockThreshold < 0 {
		return fmt.Errorf("config: DEFAULT_UNLOCK_THRESHOLD must be >= 0")
	}
	if c.AuthRateLimitRequests <= 0 || c.AuthRateLimitWindowSeconds <= 0 {
		return fmt.Errorf("config: auth rate limit must be positive")
	}
	return nil
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLSeconds) * time.Second
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLSeconds) * time.Second
}

func cleanList(raw []string) []string {
	items := make([]string, 0, len(raw))
	for _, part := range raw {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
