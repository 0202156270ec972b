package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// 文档注释：进程内 LRU 缓存
// 背景：无外部依赖的默认后端，也用于测试；容量满时淘汰最久未使用的键。
// 约束：条目过期后不删除，仍可读取，只由 IsExpired 反映状态。
type MemoryStore struct {
	mu   sync.Mutex
	cap  int
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type memEntry struct {
	k string
	e envelope
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 64
	}
	return &MemoryStore{cap: capacity, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

func (c *MemoryStore) Get(_ context.Context, k string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		c.lst.MoveToFront(e)
		return e.Value.(memEntry).e.Value, true, nil
	}
	return "", false, nil
}

func (c *MemoryStore) Put(_ context.Context, k, v string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := memEntry{k: k, e: envelope{Value: v, ExpiresAt: c.now().Add(ttl)}}
	if e, ok := c.dict[k]; ok {
		e.Value = it
		c.lst.MoveToFront(e)
		return nil
	}
	c.dict[k] = c.lst.PushFront(it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(memEntry).k)
		c.lst.Remove(back)
	}
	return nil
}

func (c *MemoryStore) IsExpired(_ context.Context, k string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[k]
	if !ok {
		return true, nil
	}
	return e.Value.(memEntry).e.expired(c.now()), nil
}
