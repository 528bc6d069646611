// 包 cache：地块读缓存（Redis），按 id 缓存对外交换形态的 JSON
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"landplot/internal/logger"
	"landplot/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "plot:"

const defaultTTL = time.Hour

// PlotCache：客户端为 nil 时所有操作为空操作
// 约束：缓存失败不影响主流程，只记录日志；写路径必须调用 Invalidate
type PlotCache struct {
	rc  *redis.Client
	ttl time.Duration
}

func New(rc *redis.Client, ttl time.Duration) *PlotCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &PlotCache{rc: rc, ttl: ttl}
}

func (c *PlotCache) Enabled() bool { return c != nil && c.rc != nil }

func key(id int64) string { return keyPrefix + strconv.FormatInt(id, 10) }

// Get：命中时解码到 dst 并返回 true
func (c *PlotCache) Get(ctx context.Context, id int64, dst any) bool {
	if !c.Enabled() {
		return false
	}
	s, err := c.rc.Get(ctx, key(id)).Result()
	if err != nil || s == "" {
		if err != nil && err != redis.Nil {
			logger.L().Warn("cache_get_error", "id", id, "err", err)
		}
		metrics.CacheMissesTotal.Inc()
		return false
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		logger.L().Warn("cache_decode_error", "id", id, "err", err)
		metrics.CacheMissesTotal.Inc()
		return false
	}
	metrics.CacheHitsTotal.Inc()
	return true
}

func (c *PlotCache) Set(ctx context.Context, id int64, v any) {
	if !c.Enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rc.Set(ctx, key(id), string(b), c.ttl).Err(); err != nil {
		logger.L().Warn("cache_set_error", "id", id, "err", err)
	}
}

func (c *PlotCache) Invalidate(ctx context.Context, id int64) {
	if !c.Enabled() {
		return
	}
	if err := c.rc.Del(ctx, key(id)).Err(); err != nil {
		logger.L().Warn("cache_invalidate_error", "id", id, "err", err)
	}
}
