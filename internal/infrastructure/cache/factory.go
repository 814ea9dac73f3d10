package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Factory builds Redis-backed stores when Redis is enabled and reachable,
// and in-memory stores otherwise
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to memory.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithClient makes the factory use an existing Redis client
func WithClient(client *redis.Client) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Client returns the shared Redis client, connecting on first use.
// It returns nil without error when Redis is disabled.
func (f *Factory) Client() (*redis.Client, error) {
	if f.client != nil {
		return f.client, nil
	}
	if !f.redisConfig.Enabled {
		return nil, nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory stores",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return nil, nil
	}
	f.client = client
	return client, nil
}

// CreateIdempotencyStore creates the store that deduplicates event delivery
func (f *Factory) CreateIdempotencyStore() (shared.IdempotencyStore, error) {
	client, err := f.Client()
	if err != nil {
		return nil, err
	}
	if client == nil {
		f.logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}
	f.logger.Info("using Redis idempotency store")
	return NewRedisIdempotencyStore(client, ""), nil
}

// CreateStore creates the catalog read cache
func (f *Factory) CreateStore() (Store, error) {
	client, err := f.Client()
	if err != nil {
		return nil, err
	}
	if client == nil {
		return NewInMemoryStore(), nil
	}
	return NewRedisStore(client, "shop:cache:"), nil
}

// Close releases the shared Redis client
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
