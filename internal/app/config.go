package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Store backends selectable via configuration.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds the complete application configuration, loadable from
// environment variables (STUDIO_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Store        string `default:"postgres" usage:"Storage backend: postgres or memory"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (STUDIO_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for menu item images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	AdminEmail   string `default:"" usage:"Back-office address for new order alerts" flag:"admin-email"`
	RateLimit    RateLimitConfig
	Notify       NotifyConfig
	Graceful     GracefulConfig
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// NotifyConfig tunes the background notification dispatcher.
type NotifyConfig struct {
	QueueSize      int           `default:"64" usage:"Buffered notification queue capacity" flag:"notify-queue-size"`
	Workers        int           `default:"2" usage:"Notification delivery workers" flag:"notify-workers"`
	MaxAttempts    int           `default:"3" usage:"Delivery attempts per notification" flag:"notify-max-attempts"`
	InitialBackoff time.Duration `default:"500ms" usage:"Delay before the first delivery retry" flag:"notify-initial-backoff"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STUDIO",
		Files:     []string{"config.yaml", "/etc/studio/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Store {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("database URL is required: set STUDIO_DATABASE_URL or DATABASE_URL")
		}
	case StoreMemory:
	default:
		return nil, errors.Errorf("unknown store backend %q", cfg.Store)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STUDIO_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
