package main

import (
	"context"
	"os"
	"os/signal"

	"landplot/internal/app"
	"landplot/internal/logger"
)

// 文档注释：按当前 DISTANCE_MODEL 重算全部地块的面积、周长与边长
// 背景：切换距离模型后执行一次，保证所有地块的量测值使用同一模型
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.Open(ctx)
	if err != nil {
		logger.L().Error("startup_error", "err", err)
		os.Exit(1)
	}
	defer a.Close()
	n, err := a.Service.Remeasure(ctx)
	if err != nil {
		logger.L().Error("remeasure_error", "updated", n, "err", err)
		a.Close()
		os.Exit(1)
	}
	logger.L().Info("remeasure_ok", "updated", n, "model", a.Config.DistanceModel)
}
