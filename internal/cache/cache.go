// 包 cache：带 TTL 的键值缓存（Redis / 本地文件 / 内存）以及联系人全集的结果缓存
package cache

import (
	"context"
	"time"
)

// Store：缓存后端的最小契约
// 约束：过期只影响 IsExpired 的结果；过期后的值仍须可通过 Get 读取（离线时使用），直到被覆盖或淘汰。
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	IsExpired(ctx context.Context, key string) (bool, error)
}

// envelope：文件与内存后端共用的条目结构
type envelope struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e envelope) expired(now time.Time) bool { return !now.Before(e.ExpiresAt) }
