package utils

import (
	"context"

	"landplot/internal/config"
	"landplot/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：按配置打开 Redis 客户端
// 约束：未启用时返回 nil（缓存关闭）；探活失败只记录告警并返回 nil，不阻断主流程
func OpenRedis(ctx context.Context, cfg config.Redis) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	rc := redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Password, DB: cfg.DB})
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.L().Warn("redis_unavailable", "addr", cfg.Addr(), "err", err)
		_ = rc.Close()
		return nil
	}
	logger.L().Debug("redis_open_ok", "addr", cfg.Addr(), "db", cfg.DB)
	return rc
}
