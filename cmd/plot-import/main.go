package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"landplot/internal/app"
	"landplot/internal/ingest"
	"landplot/internal/logger"
	"landplot/internal/migrate"
)

// 文档注释：导入 GeoJSON 文件中的地块
// 背景：用法 plot-import <file.geojson>；失败策略由 IMPORT_POLICY 决定，报告以 JSON 写到标准输出。
// 约束：文件不可读或整体无法解析时退出码为 1；存在失败要素时退出码为 2。
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: plot-import <file.geojson>")
		os.Exit(64)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

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

	im := ingest.NewImporter(a.Service, a.Config.ImportPolicy)
	rep, err := im.ImportFile(ctx, os.Args[1])
	if err != nil {
		logger.L().Error("import_error", "path", os.Args[1], "err", err)
		a.Close()
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rep)
	if rep.Failed > 0 || rep.Skipped > 0 {
		a.Close()
		os.Exit(2)
	}
}
