// 包 app：命令行入口共用的依赖装配（配置 → 日志 → 数据库 → 缓存 → 服务）
package app

import (
	"context"
	"database/sql"
	"time"

	"landplot/internal/cache"
	"landplot/internal/config"
	"landplot/internal/logger"
	"landplot/internal/measure"
	"landplot/internal/plots"
	"landplot/internal/store"
	"landplot/internal/utils"
	"landplot/internal/validate"

	"github.com/redis/go-redis/v9"
)

// App：已装配的进程依赖
type App struct {
	Config  config.Config
	DB      *sql.DB
	Redis   *redis.Client
	Service *plots.Service
}

const connectTimeout = 10 * time.Second

// Open：加载配置并打开数据库与可选的 Redis
func Open(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	l := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	l.Debug("log_init_ok", "model", cfg.DistanceModel, "policy", cfg.ImportPolicy)

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	db, err := utils.OpenPostgres(cctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	l.Info("db_open_ok")
	rc := utils.OpenRedis(cctx, cfg.Redis)
	return &App{
		Config:  cfg,
		DB:      db,
		Redis:   rc,
		Service: NewService(cfg, store.NewPostgres(db), rc),
	}, nil
}

// NewService：按配置装配服务
func NewService(cfg config.Config, repo store.Repository, rc *redis.Client) *plots.Service {
	return plots.NewService(repo, plots.Options{
		Validator:      validate.New(cfg.CheckSelfIntersection),
		Engine:         measure.New(cfg.DistanceModel),
		Cache:          cache.New(rc, cfg.Redis.TTL),
		StorageTimeout: cfg.StorageTimeout,
	})
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
