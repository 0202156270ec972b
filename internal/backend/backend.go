// 包 backend：按配置装配数据源、缓存后端与连通性闸门，供服务与工具共用
package backend

import (
	"context"
	"fmt"

	"geocontacts/internal/cache"
	"geocontacts/internal/config"
	"geocontacts/internal/connectivity"
	"geocontacts/internal/contact"
	"geocontacts/internal/logger"
	"geocontacts/internal/migrate"
	"geocontacts/internal/store"
	"geocontacts/internal/store/docstore"
	"geocontacts/internal/store/memstore"
	"geocontacts/internal/utils"
)

// Closer 释放后端持有的连接
type Closer func(context.Context) error

func noop(context.Context) error { return nil }

// 文档注释：打开联系人数据源
// 背景：postgres 打开后探活并确保表结构；mongo 连接后确保索引；memory 可选从 SeedFile 载入。
// 约束：任何一步失败都会释放已建立的连接再返回错误。
func OpenStore(ctx context.Context, cfg config.StoreConfig) (contact.Store, Closer, error) {
	switch cfg.Backend {
	case "postgres":
		db, err := utils.OpenPostgres(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("postgres ping: %w", err)
		}
		logger.L().Info("db_ping_ok", "backend", cfg.Backend)
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		st := store.AttachDB(db, cfg.PageSize)
		return st, func(context.Context) error { return st.Close() }, nil
	case "mongo":
		st, err := docstore.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.PageSize)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Close(context.Background())
			return nil, nil, err
		}
		logger.L().Info("db_ping_ok", "backend", cfg.Backend)
		return st, st.Close, nil
	case "memory":
		if cfg.SeedFile == "" {
			logger.L().Info("memstore_empty")
			return memstore.New(), noop, nil
		}
		st, err := memstore.LoadFile(cfg.SeedFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load seed %s: %w", cfg.SeedFile, err)
		}
		logger.L().Info("memstore_seeded", "file", cfg.SeedFile)
		return st, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// OpenCache 打开快照缓存后端；redis 不可达时返回错误，由调用方决定是否降级
func OpenCache(ctx context.Context, cfg config.CacheConfig) (cache.Store, Closer, error) {
	switch cfg.Backend {
	case "redis":
		rc := utils.OpenRedisFromConfig(cfg.Redis)
		if err := rc.Ping(ctx).Err(); err != nil {
			rc.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.L().Info("redis_ping_ok")
		return cache.NewRedisStore(rc, cfg.Retention), func(context.Context) error { return rc.Close() }, nil
	case "file":
		fs, err := cache.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil
	case "memory":
		return cache.NewMemoryStore(cfg.Capacity), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// Gate：未配置探测地址时始终视为在线
func Gate(cfg config.ConnectivityConfig) *connectivity.Gate {
	if cfg.ProbeURL == "" {
		return connectivity.NewGate(nil)
	}
	return connectivity.NewGate(connectivity.NewHTTPProbe(cfg.ProbeURL, cfg.ProbeTimeout))
}

// 文档注释：把种子数据写入任意数据源
// 约束：联系人按 upsert 写入，可重复执行；签到为追加写入，缺少 ID 的记录会被跳过。
func ApplySeed(ctx context.Context, sink contact.Sink, seed memstore.Seed) (contacts, locations int, err error) {
	for _, c := range seed.Contacts {
		if c.UserPrincipalName == "" {
			logger.L().Warn("seed_contact_skipped", "reason", "missing_upn", "name", c.Name)
			continue
		}
		if err := sink.SaveContact(ctx, c); err != nil {
			return contacts, locations, fmt.Errorf("save contact %s: %w", c.UserPrincipalName, err)
		}
		contacts++
	}
	for _, u := range seed.Locations {
		if u.ID == "" || u.UserPrincipalName == "" {
			logger.L().Warn("seed_location_skipped", "reason", "missing_id", "upn", u.UserPrincipalName)
			continue
		}
		if err := sink.InsertLocation(ctx, u); err != nil {
			return contacts, locations, fmt.Errorf("insert location %s: %w", u.ID, err)
		}
		locations++
	}
	return contacts, locations, nil
}
