package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Entry 一次分割的结果，Mask 为 PNG 字节
type Entry struct {
	Mask      []byte  `json:"mask"`
	Score     float64 `json:"score"`
	Model     string  `json:"model"`
	Timestamp int64   `json:"timestamp"`
}

type Cache interface {
	// Get 未命中时返回 nil, nil
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg *config.RedisConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		util.Logger.Error("failed to unmarshal cache entry", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return &entry, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, entry *Entry) error {
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop redis 不可用时使用，永远未命中
type Nop struct{}

func (Nop) Get(context.Context, string) (*Entry, error) { return nil, nil }
func (Nop) Set(context.Context, string, *Entry) error   { return nil }
func (Nop) Close() error                                { return nil }

// New 按配置创建缓存，redis 未启用或连不上时退化为 Nop
func New(ctx context.Context, cfg *config.RedisConfig) Cache {
	if !cfg.Enabled {
		util.Logger.Info("redis disabled, cache disabled")
		return Nop{}
	}

	rc := NewRedisCache(cfg)
	if err := rc.Ping(ctx); err != nil {
		util.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
		_ = rc.Close()
		return Nop{}
	}
	util.Logger.Info("redis connected successfully", zap.String("addr", cfg.Addr))
	return rc
}
