package utils

import (
	"database/sql"

	_ "github.com/lib/pq"

	"geocontacts/internal/config"
	"geocontacts/internal/logger"
)

// OpenPostgres：按配置打开连接池；sql.Open 不建立连接，探活由调用方 Ping
func OpenPostgres(cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 50
	}
	if maxIdle <= 0 {
		maxIdle = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	logger.L().Debug("pg_pool", "host", cfg.Host, "db", cfg.Database, "max_open", maxOpen, "max_idle", maxIdle)
	return db, nil
}
