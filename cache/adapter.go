package cache

import (
	"context"
	"time"

	"github.com/hakoniwa-games/questforge/cache/local"
	cacheredis "github.com/hakoniwa-games/questforge/cache/redis"
)

// Cache defines the KV and sorted-set operations the server relies on:
// session tokens, the save-in-progress lock, and the level leaderboard.
type Cache interface {
	// KV
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// ZSet
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZScore(ctx context.Context, key, member string) (float64, error)
}

// Config holds settings for both Redis and the in-process cache.
type Config struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	LocalGC       time.Duration `mapstructure:"local_gc_interval"`
}

// New returns a Redis-backed cache when RedisAddr is set, otherwise an
// in-process cache suitable for single-node deployments and tests.
func New(cfg Config) (Cache, error) {
	if cfg.RedisAddr == "" {
		return local.NewCache(local.Config{GCInterval: cfg.LocalGC})
	}
	return cacheredis.NewCache(cacheredis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
