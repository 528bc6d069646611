// 包 logger：统一初始化与获取日志器，避免各模块重复配置；级别与格式来自配置
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// 默认日志器：在进程级复用，避免多处初始化导致输出不一致
var defaultLogger *slog.Logger

// ParseLevel：debug|info|warn|error，其余取 info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup：初始化默认日志器
// 背景：集中化日志配置，命令行入口在加载配置后调用一次
// 约束：输出目标固定为标准错误；format 为 json 时输出 JSON，否则为文本
func Setup(level, format string) *slog.Logger {
	defaultLogger = New(os.Stderr, level, format)
	return defaultLogger
}

// New：构造独立日志器，测试中可写入缓冲区
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// L：获取默认日志器
// 背景：为业务代码提供快捷访问；若未初始化则按环境变量 LOG_LEVEL/LOG_FORMAT 回退初始化
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	}
	return defaultLogger
}
