// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"geocontacts/internal/api"
	"geocontacts/internal/backend"
	"geocontacts/internal/cache"
	"geocontacts/internal/config"
	"geocontacts/internal/directory"
	"geocontacts/internal/geoip"
	"geocontacts/internal/logger"
	"geocontacts/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")

	cfg, err := config.Load()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	l.Debug("config_loaded", "env", cfg.Environment, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend, "base", cfg.Server.APIBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := backend.OpenStore(ctx, cfg.Store)
	if err != nil {
		l.Error("store_open_error", "backend", cfg.Store.Backend, "err", err)
		os.Exit(1)
	}
	defer closeStore(context.Background())
	l.Info("store_open_ok", "backend", cfg.Store.Backend)

	cs, closeCache, err := backend.OpenCache(ctx, cfg.Cache)
	if err != nil {
		// 缓存不可用时退回进程内缓存，不阻断启动
		l.Error("cache_open_error", "backend", cfg.Cache.Backend, "err", err)
		cs, closeCache = cache.NewMemoryStore(cfg.Cache.Capacity), func(context.Context) error { return nil }
	}
	defer closeCache(context.Background())

	loc, err := geoip.Open(cfg.GeoIPPath)
	if err != nil {
		l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
	}
	defer loc.Close()
	var locator api.Locator
	if loc != nil {
		locator = loc
	}

	svc := directory.New(st, cache.NewResultCache(cs, cfg.Cache.Key, cfg.Cache.TTL), backend.Gate(cfg.Connectivity), directory.Options{
		RadiusMeters: cfg.Directory.RadiusMeters,
		RecentDays:   cfg.Directory.RecentDays,
		ImageBaseURL: cfg.Directory.ImageBaseURL,
	})

	handler := api.NewRouter(api.Options{
		Base:         cfg.Server.APIBase,
		Directory:    svc,
		Sink:         st,
		Locator:      locator,
		IngestToken:  cfg.Server.IngestToken,
		CorsOrigins:  cfg.Server.CorsOrigins,
		RateLimited:  cfg.Server.RateLimit.Enabled,
		RateLimitQPS: cfg.Server.RateLimit.QPS,
	})
	s := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		if cfg.Server.TLS.Enabled {
			tc := cfg.Server.TLS
			if err := utils.EnsureSelfSignedCert(tc.CertPath, tc.KeyPath, tc.CommonName); err != nil {
				errc <- err
				return
			}
			l.Info("listening_tls", "addr", s.Addr, "cert", tc.CertPath)
			errc <- s.ListenAndServeTLS(tc.CertPath, tc.KeyPath)
			return
		}
		l.Info("listening", "addr", s.Addr)
		errc <- s.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server_error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		l.Info("shutdown_begin")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil {
			l.Error("shutdown_error", "err", err)
		}
		l.Info("shutdown_done")
	}
}
