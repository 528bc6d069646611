package main

import (
	"context"
	"os"

	"landplot/internal/app"
	"landplot/internal/logger"
	"landplot/internal/migrate"
)

// 文档注释：建表与索引
// 约束：可重复执行；数据库不可达或语句失败时以非零码退出
func main() {
	ctx := context.Background()
	a, err := app.Open(ctx)
	if err != nil {
		logger.L().Error("startup_error", "err", err)
		os.Exit(1)
	}
	defer a.Close()
	if err := migrate.EnsureSchema(ctx, a.DB); err != nil {
		logger.L().Error("schema_error", "err", err)
		a.Close()
		os.Exit(1)
	}
	logger.L().Info("schema_ok")
}
