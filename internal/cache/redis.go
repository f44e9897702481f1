package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/travelagency/config"
	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds price facet option lists and short confirmation locks.
type RedisCache struct {
	client     *redis.Client
	optionsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, optionsTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		optionsTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, optionsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, optionsTTL: optionsTTL}
}

// GetOptions returns nil, nil on a cache miss.
func (c *RedisCache) GetOptions(ctx context.Context, kind domain.Kind, chosen []string, date *time.Time) ([]string, error) {
	data, err := c.client.Get(ctx, optionsKey(kind, chosen, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var options []string
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, err
	}
	return options, nil
}

func (c *RedisCache) SetOptions(ctx context.Context, kind domain.Kind, chosen []string, date *time.Time, options []string) error {
	payload, err := json.Marshal(options)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, optionsKey(kind, chosen, date), payload, c.optionsTTL).Err()
}

// InvalidateOptions drops every cached option list of kind.
func (c *RedisCache) InvalidateOptions(ctx context.Context, kind domain.Kind) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("cache:options:%s:*", kind), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *RedisCache) AcquireConfirmLock(ctx context.Context, quoteID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, confirmLockKey(quoteID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseConfirmLock(ctx context.Context, quoteID string) error {
	return c.client.Del(ctx, confirmLockKey(quoteID)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func optionsKey(kind domain.Kind, chosen []string, date *time.Time) string {
	day := "-"
	if date != nil {
		day = date.Format(time.DateOnly)
	}
	return fmt.Sprintf("cache:options:%s:%s:%s", kind, day, strings.Join(chosen, "\x1f"))
}

func confirmLockKey(quoteID string) string {
	return "lock:quote:" + quoteID + ":confirm"
}
