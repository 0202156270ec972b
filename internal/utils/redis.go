// 包 utils：数据库、Redis 与 TLS 证书等启动期工具
package utils

import (
	"github.com/redis/go-redis/v9"

	"geocontacts/internal/config"
	"geocontacts/internal/logger"
)

// OpenRedis：使用地址与密码打开 Redis 客户端
// 背景：保留直接传入参数的能力，用于测试与手工注入场景
func OpenRedis(addr, pass string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass})
}

// OpenRedisFromConfig：按配置打开 Redis 客户端，支持 DB 选择
// 约束：DB 为负数时回退到 0
func OpenRedisFromConfig(cfg config.RedisConfig) *redis.Client {
	db := cfg.DB
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_config", "addr", cfg.Addr(), "db", db)
	return redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Password, DB: db})
}
