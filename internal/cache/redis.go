package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 文档注释：Redis 缓存后端
// 背景：多实例共享同一份快照。Redis 自身的过期会直接删除数据，而离线读取需要过期值，
// 因此值以更长的 retention 保存，逻辑过期时间单独写在 "<key>:expires_at"。
// 约束：retention 小于 ttl 时按 ttl 处理；retention 为 0 表示值永不由 Redis 删除。
type RedisStore struct {
	rc        *redis.Client
	retention time.Duration
	now       func() time.Time
}

func NewRedisStore(rc *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{rc: rc, retention: retention, now: time.Now}
}

func expiresKey(key string) string { return key + ":expires_at" }

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := r.rc.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	keep := r.retention
	if keep != 0 && keep < ttl {
		keep = ttl
	}
	exp := r.now().Add(ttl).UnixMilli()
	_, err := r.rc.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, value, keep)
		p.Set(ctx, expiresKey(key), strconv.FormatInt(exp, 10), keep)
		return nil
	})
	return err
}

func (r *RedisStore) IsExpired(ctx context.Context, key string) (bool, error) {
	s, err := r.rc.Get(ctx, expiresKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return true, nil
	}
	return r.now().UnixMilli() >= ms, nil
}
