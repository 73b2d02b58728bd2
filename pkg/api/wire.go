package api

import (
	"context"

	oerrors "github.com/olivekit/oliveapi/pkg/errors"

	"github.com/olivekit/oliveapi/pkg/cache"
	"github.com/olivekit/oliveapi/pkg/config"
	"github.com/olivekit/oliveapi/pkg/queue"
)

// FromConfig assembles a Client from a loaded configuration, constructing
// the selected cache and queue backends. The context bounds backend
// connection setup (redis ping, mongo connect).
func FromConfig(ctx context.Context, cfg config.Config, extra ...ClientOption) (*Client, error) {
	store, err := storeFromConfig(ctx, cfg.Queue)
	if err != nil {
		return nil, err
	}
	backend, err := cacheFromConfig(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	opts := []ClientOption{
		WithBaseURL(cfg.BaseURL),
		WithRetries(cfg.Retries, cfg.RetryPause),
		WithCache(backend),
		WithQueue(store),
	}
	if cfg.Breaker.Enabled {
		opts = append(opts, WithCircuitBreaker(cfg.Breaker.Threshold, cfg.Breaker.Cooldown))
	}
	if cfg.Auth.Token != "" {
		opts = append(opts, WithToken(cfg.Auth.Token))
	}
	if cfg.Auth.ServiceName != "" {
		opts = append(opts, WithServiceIdentity(cfg.Auth.ServiceName, cfg.Auth.ServiceSecret))
	}
	opts = append(opts, extra...)

	return NewClient(opts...)
}

func cacheFromConfig(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "file":
		return cache.NewFileCache(cfg.Dir)
	case "memory":
		return cache.NewMemoryCache(256)
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case "none", "":
		return cache.NewNullCache(), nil
	default:
		return nil, oerrors.New(oerrors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Backend)
	}
}

func storeFromConfig(ctx context.Context, cfg config.QueueConfig) (queue.Store, error) {
	switch cfg.Backend {
	case "file":
		return queue.NewFileStore(cfg.Path)
	case "mongo":
		return queue.NewMongoStore(ctx, queue.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	default:
		return nil, oerrors.New(oerrors.ErrCodeInvalidConfig, "unknown queue backend %q", cfg.Backend)
	}
}
