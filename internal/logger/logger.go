// 包 logger：统一初始化与获取日志器，各模块通过 L() 复用同一实例；级别与格式由环境变量控制
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Setup：按 LOG_LEVEL / LOG_FORMAT 初始化默认日志器并返回
// 约束：输出固定为标准错误；重复调用会替换默认实例
func Setup() *slog.Logger {
	return SetupWriter(os.Stderr)
}

// SetupWriter：同 Setup，但允许指定输出目标（测试中写入缓冲区）
func SetupWriter(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	l := slog.New(h).With("service", "geocontacts")
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return l
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// L：获取默认日志器；未初始化时回退到 Setup
func L() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		return Setup()
	}
	return l
}
