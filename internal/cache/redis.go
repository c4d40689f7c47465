package cache

import (
	"context"
	"errors"
	"time"

	"github.com/nasulife/nasutomo/internal/config"
	"github.com/redis/go-redis/v9"
)

// MatchListTTL bounds how stale a cached dashboard may get; writes that
// change the outcome (profile save, connection send) also invalidate
// eagerly.
const MatchListTTL = time.Minute

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Get returns "" on a cache miss rather than an error.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForMatchList generates the cache key for a viewer's ranked
// dashboard.
func (c *RedisCache) KeyForMatchList(userID string) string {
	return "matches:list:" + userID
}

// InvalidateMatchList drops the viewer's cached dashboard. Called after
// any write that changes ranking inputs.
func (c *RedisCache) InvalidateMatchList(ctx context.Context, userID string) error {
	return c.Del(ctx, c.KeyForMatchList(userID))
}

// channelForRoom names the pub/sub channel carrying a room's realtime
// message feed. One channel per room lets subscribers on any server
// instance receive sends from every other instance.
func channelForRoom(roomID string) string {
	return "chat:room:" + roomID
}

// PublishMessage fans a freshly stored message out to the room's
// realtime subscribers.
func (c *RedisCache) PublishMessage(ctx context.Context, roomID string, payload []byte) error {
	return c.Client.Publish(ctx, channelForRoom(roomID), payload).Err()
}

// SubscribeRoom opens a pub/sub subscription on the room's channel.
// The caller owns the subscription and must Close it on teardown.
func (c *RedisCache) SubscribeRoom(ctx context.Context, roomID string) *redis.PubSub {
	return c.Client.Subscribe(ctx, channelForRoom(roomID))
}
