package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"geocontacts/internal/logger"
)

// 文档注释：本地文件缓存
// 背景：离线场景下需要跨进程重启保留快照；每个键一个 JSON 文件，内容为值与过期时间。
// 约束：写入先落临时文件再 rename，读者不会看到半写状态；文件损坏视为未命中。
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	logger.L().Debug("filecache_init", "dir", dir)
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, "entry-"+hex.EncodeToString([]byte(key))+".json")
}

func (f *FileStore) read(key string) (envelope, bool, error) {
	var e envelope
	b, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return e, false, nil
	}
	if err != nil {
		return e, false, err
	}
	if err := json.Unmarshal(b, &e); err != nil {
		logger.L().Debug("filecache_corrupt", "key", key, "err", err)
		return e, false, nil
	}
	return e, true, nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	e, ok, err := f.read(key)
	return e.Value, ok, err
}

func (f *FileStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	b, err := json.Marshal(envelope{Value: value, ExpiresAt: f.now().Add(ttl)})
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, "tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

func (f *FileStore) IsExpired(_ context.Context, key string) (bool, error) {
	e, ok, err := f.read(key)
	if err != nil || !ok {
		return true, err
	}
	return e.expired(f.now()), nil
}
