// Package config loads client configuration from a TOML file with
// environment-variable overrides.
//
// Resolution order: built-in defaults, then the config file (if present),
// then OLIVE_* environment variables. A missing config file is not an
// error; the defaults plus environment are enough to run.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"

	oerrors "github.com/olivekit/oliveapi/pkg/errors"
)

// appName is used for default config and cache directories.
const appName = "oliveapi"

// Config holds all client settings.
type Config struct {
	// BaseURL resolves relative request paths.
	BaseURL string `toml:"base_url" env:"OLIVE_BASE_URL"`

	// Retries is the number of re-attempts after a failed send.
	// 0 means a single attempt.
	Retries int `toml:"retries" env:"OLIVE_RETRIES"`

	// RetryPause is the wait between attempts.
	RetryPause time.Duration `toml:"retry_pause" env:"OLIVE_RETRY_PAUSE"`

	Breaker BreakerConfig `toml:"breaker" env:", prefix=OLIVE_BREAKER_"`
	Cache   CacheConfig   `toml:"cache" env:", prefix=OLIVE_CACHE_"`
	Queue   QueueConfig   `toml:"queue" env:", prefix=OLIVE_QUEUE_"`
	Auth    AuthConfig    `toml:"auth" env:", prefix=OLIVE_AUTH_"`
}

// BreakerConfig controls the per-host circuit breaker.
type BreakerConfig struct {
	// Enabled turns circuit breaking on.
	Enabled bool `toml:"enabled" env:"ENABLED"`

	// Threshold is the consecutive transport failures that trip the breaker.
	Threshold int `toml:"threshold" env:"THRESHOLD"`

	// Cooldown is how long a tripped breaker rejects calls.
	Cooldown time.Duration `toml:"cooldown" env:"COOLDOWN"`
}

// CacheConfig selects and configures the response-cache backend.
type CacheConfig struct {
	// Backend is one of "file", "memory", "redis", "none".
	Backend string `toml:"backend" env:"BACKEND"`

	// Dir is the file backend's root directory.
	Dir string `toml:"dir" env:"DIR"`

	Redis RedisConfig `toml:"redis" env:", prefix=REDIS_"`
}

// RedisConfig holds redis connection settings for the cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr" env:"ADDR"`
	Password string `toml:"password" env:"PASSWORD"`
	DB       int    `toml:"db" env:"DB"`
}

// QueueConfig selects and configures the offline-queue backend.
type QueueConfig struct {
	// Backend is one of "file", "mongo".
	Backend string `toml:"backend" env:"BACKEND"`

	// Path is the file backend's queue file.
	Path string `toml:"path" env:"PATH"`

	Mongo MongoConfig `toml:"mongo" env:", prefix=MONGO_"`
}

// MongoConfig holds mongo connection settings for the queue backend.
type MongoConfig struct {
	URI        string `toml:"uri" env:"URI"`
	Database   string `toml:"database" env:"DATABASE"`
	Collection string `toml:"collection" env:"COLLECTION"`
}

// AuthConfig holds the outbound authentication settings.
type AuthConfig struct {
	// Token is a static bearer token. Programs needing rotating tokens
	// supply a provider function to the client instead.
	Token string `toml:"token" env:"TOKEN"`

	// ServiceName and ServiceSecret identify a pre-registered service user
	// for machine-to-machine calls.
	ServiceName   string `toml:"service_name" env:"SERVICE_NAME"`
	ServiceSecret string `toml:"service_secret" env:"SERVICE_SECRET"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Retries:    0,
		RetryPause: 2 * time.Second,
		Breaker: BreakerConfig{
			Enabled:   false,
			Threshold: 3,
			Cooldown:  30 * time.Second,
		},
		Cache: CacheConfig{
			Backend: "file",
			Dir:     defaultCacheDir(),
		},
		Queue: QueueConfig{
			Backend: "file",
			Path:    defaultQueuePath(),
		},
	}
}

// Load reads configuration from path, falling back to the default location
// (~/.config/oliveapi/config.toml) when path is empty, then applies OLIVE_*
// environment overrides. A missing file yields defaults plus environment.
func Load(ctx context.Context, path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !os.IsNotExist(err) {
			return cfg, oerrors.Wrap(oerrors.ErrCodeInvalidConfig, err, "reading %s", path)
		}
	}

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return cfg, oerrors.Wrap(oerrors.ErrCodeInvalidConfig, err, "environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the client cannot run with.
func (c Config) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return oerrors.New(oerrors.ErrCodeInvalidConfig, "base_url %q is not an absolute URL", c.BaseURL)
		}
	}
	if c.Retries < 0 {
		return oerrors.New(oerrors.ErrCodeInvalidConfig, "retries must be >= 0, got %d", c.Retries)
	}
	if c.Breaker.Enabled {
		if c.Breaker.Threshold < 1 {
			return oerrors.New(oerrors.ErrCodeInvalidConfig, "breaker threshold must be >= 1, got %d", c.Breaker.Threshold)
		}
		if c.Breaker.Cooldown < time.Second {
			return oerrors.New(oerrors.ErrCodeInvalidConfig, "breaker cooldown must be >= 1s, got %s", c.Breaker.Cooldown)
		}
	}
	switch c.Cache.Backend {
	case "file", "memory", "redis", "none":
	default:
		return oerrors.New(oerrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Queue.Backend {
	case "file", "mongo":
	default:
		return oerrors.New(oerrors.ErrCodeInvalidConfig, "unknown queue backend %q", c.Queue.Backend)
	}
	return nil
}

// DefaultPath returns the default config file location
// (~/.config/oliveapi/config.toml, honoring XDG_CONFIG_HOME).
func DefaultPath() string {
	return filepath.Join(configHome(), appName, "config.toml")
}

func configHome() string {
	if h := os.Getenv("XDG_CONFIG_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

// defaultCacheDir returns ~/.cache/oliveapi (honoring XDG_CACHE_HOME).
func defaultCacheDir() string {
	if h := os.Getenv("XDG_CACHE_HOME"); h != "" {
		return filepath.Join(h, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".cache", appName)
	}
	return filepath.Join(home, ".cache", appName)
}

// defaultQueuePath returns ~/.config/oliveapi/queue.json.
func defaultQueuePath() string {
	return filepath.Join(configHome(), appName, "queue.json")
}

// String renders the effective configuration for debug output, masking
// secrets.
func (c Config) String() string {
	token := c.Auth.Token
	if token != "" {
		token = "***"
	}
	secret := c.Auth.ServiceSecret
	if secret != "" {
		secret = "***"
	}
	return fmt.Sprintf(
		"base_url=%s retries=%d pause=%s breaker=%v cache=%s queue=%s token=%s service=%s/%s",
		c.BaseURL, c.Retries, c.RetryPause, c.Breaker.Enabled,
		c.Cache.Backend, c.Queue.Backend, token, c.Auth.ServiceName, secret,
	)
}
