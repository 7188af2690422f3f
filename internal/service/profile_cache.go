package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/pkg/redis"
)

// ProfileCache 档案缓存，鉴权中间件每个请求都会读取档案
type ProfileCache interface {
	// Get 未命中返回 (nil, false)
	Get(ctx context.Context, id string) (*model.Profile, bool)
	Set(ctx context.Context, p *model.Profile)
	Invalidate(ctx context.Context, id string)
}

const profileCacheTTL = 5 * time.Minute

type redisProfileCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisProfileCache rdb 为 nil 时返回 nil（不缓存）
func NewRedisProfileCache(rdb *redis.Client, logger *zap.Logger) ProfileCache {
	if rdb == nil {
		return nil
	}
	return &redisProfileCache{rdb: rdb, logger: logger}
}

func profileCacheKey(id string) string { return "profile:" + id }

func (c *redisProfileCache) Get(ctx context.Context, id string) (*model.Profile, bool) {
	b, err := c.rdb.CacheGet(ctx, profileCacheKey(id))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			c.logger.Warn("读取档案缓存失败", zap.String("user_id", id), zap.Error(err))
		}
		return nil, false
	}
	var p model.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *redisProfileCache) Set(ctx context.Context, p *model.Profile) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.CacheSet(ctx, profileCacheKey(p.ID), b, profileCacheTTL); err != nil {
		c.logger.Warn("写入档案缓存失败", zap.String("user_id", p.ID), zap.Error(err))
	}
}

func (c *redisProfileCache) Invalidate(ctx context.Context, id string) {
	if err := c.rdb.CacheDel(ctx, profileCacheKey(id)); err != nil {
		c.logger.Warn("清除档案缓存失败", zap.String("user_id", id), zap.Error(err))
	}
}
