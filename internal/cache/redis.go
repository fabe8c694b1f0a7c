package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "elocation:perms:"

// NewRedisClient connects and pings; callers fall back to MemoryCache on error
func NewRedisClient(ctx context.Context, addr, password string, db int, log *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	log.Info("connected to redis", zap.String("address", addr))
	return rdb, nil
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: log.Named("perm_cache")}
}

func (r *RedisCache) Get(ctx context.Context, role string) ([]string, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+role).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", role, err)
	}

	var codes []string
	if err := json.Unmarshal(raw, &codes); err != nil {
		r.log.Warn("dropping corrupt permission entry", zap.String("role", role), zap.Error(err))
		_ = r.client.Del(ctx, keyPrefix+role).Err()
		return nil, false, nil
	}
	return codes, true, nil
}

func (r *RedisCache) Set(ctx context.Context, role string, codes []string) error {
	if codes == nil {
		codes = []string{}
	}
	raw, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+role, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", role, err)
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context, role string) error {
	if role != "" {
		return r.client.Del(ctx, keyPrefix+role).Err()
	}

	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
