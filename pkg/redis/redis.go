package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redsync/redsync/v4"
	rsgoredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/config"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("缓存未命中")

// Client Redis 客户端封装
// 用于接口限流、工作日分布式锁、实时事件中继与档案缓存
type Client struct {
	rdb    *goredis.Client
	rs     *redsync.Redsync
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{
		rdb:    rdb,
		rs:     redsync.New(rsgoredis.NewPool(rdb)),
		logger: logger,
	}, nil
}

// ── 限流 ──

// CheckRateLimit 滑动窗口限流：窗口内请求数未超过 limit 时返回 true
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return card.Val() <= int64(limit), nil
}

// ── 分布式锁 ──

// NewMutex 创建 redsync 互斥锁
// 锁只尝试一次：已被持有时调用方应立即返回"处理中"而不是排队
func (c *Client) NewMutex(name string, expiry time.Duration) *redsync.Mutex {
	return c.rs.NewMutex("mutex:"+name,
		redsync.WithExpiry(expiry),
		redsync.WithTries(1),
		redsync.WithRetryDelay(100*time.Millisecond),
	)
}

// ── 发布订阅 ──

// Publish 向频道发布消息
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe 订阅频道，返回的 PubSub 由调用方负责关闭
func (c *Client) Subscribe(ctx context.Context, channel string) *goredis.PubSub {
	return c.rdb.Subscribe(ctx, channel)
}

// ── 缓存 ──

const cachePrefix = "cache:"

// CacheGet 读取缓存，未命中返回 ErrCacheMiss
func (c *Client) CacheGet(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, cachePrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

// CacheSet 写入缓存
func (c *Client) CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, cachePrefix+key, value, ttl).Err()
}

// CacheDel 删除缓存
func (c *Client) CacheDel(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, cachePrefix+key).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
