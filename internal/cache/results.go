package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"geocontacts/internal/contact"
	"geocontacts/internal/logger"
)

const (
	// DefaultKey：联系人全集快照的固定键
	DefaultKey = "allcdas2"
	// DefaultTTL：快照写入后的有效期
	DefaultTTL = 2 * time.Hour
)

// 文档注释：联系人全集结果缓存
// 背景：缓存旁路模式的快照层，负责序列化与失效判断；是否信任快照由调用方（连通性闸门）决定。
// 约束：读取失败、空载荷、反序列化失败一律视为未命中，不向上抛错。
type ResultCache struct {
	store Store
	key   string
	ttl   time.Duration
}

func NewResultCache(store Store, key string, ttl time.Duration) *ResultCache {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{store: store, key: key, ttl: ttl}
}

func (c *ResultCache) Key() string { return c.key }

// Expired：后端出错时按已过期处理
func (c *ResultCache) Expired(ctx context.Context) bool {
	exp, err := c.store.IsExpired(ctx, c.key)
	if err != nil {
		logger.L().Warn("cache_expiry_check_error", "key", c.key, "err", err)
		return true
	}
	return exp
}

// Load：读取并反序列化快照
func (c *ResultCache) Load(ctx context.Context) ([]contact.Contact, bool) {
	s, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		logger.L().Warn("cache_get_error", "key", c.key, "err", err)
		return nil, false
	}
	if !ok || strings.TrimSpace(s) == "" {
		return nil, false
	}
	var list []contact.Contact
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		logger.L().Debug("cache_decode_error", "key", c.key, "err", err)
		return nil, false
	}
	if list == nil {
		return nil, false
	}
	return list, true
}

// Save：序列化并以固定 TTL 覆盖写入
func (c *ResultCache) Save(ctx context.Context, list []contact.Contact) error {
	if list == nil {
		list = []contact.Contact{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, c.key, string(b), c.ttl); err != nil {
		return err
	}
	logger.L().Debug("cache_saved", "key", c.key, "count", len(list), "ttl", c.ttl)
	return nil
}
