package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/utils"
)

type redisCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis returns a redis-backed Cache, keyed under a run prefix so two
// batch invocations never read each other's memos. Reads REDIS_ADDR and
// optional REDIS_PASSWORD / REDIS_DB from the environment.
func NewRedis(log *logger.Logger, runPrefix string) (Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    utils.GetEnv("REDIS_PASSWORD", "", nil),
		DB:          utils.GetEnvAsInt("REDIS_DB", 0, nil),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisCache{
		log:    log.With("service", "RedisCache"),
		rdb:    rdb,
		prefix: runPrefix + ":",
		ttl:    time.Duration(utils.GetEnvAsInt("REDIS_CACHE_TTL_SECONDS", 86400, nil)) * time.Second,
	}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err == goredis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (c *redisCache) Set(ctx context.Context, key string, val []byte) error {
	if err := c.rdb.Set(ctx, c.prefix+key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
