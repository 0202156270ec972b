package migrate

import (
	"context"
	"database/sql"

	"geocontacts/internal/logger"
)

var stmts = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS contacts (
            user_principal_name TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            hometown_name TEXT,
            hometown geography(Point, 4326) NOT NULL,
            image JSONB NOT NULL DEFAULT '{}'::jsonb,
            twitter TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name, user_principal_name)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_hometown ON contacts USING GIST(hometown)`,
	`CREATE TABLE IF NOT EXISTS location_updates (
            id TEXT PRIMARY KEY,
            user_principal_name TEXT NOT NULL,
            insert_time TIMESTAMPTZ NOT NULL,
            position geography(Point, 4326) NOT NULL,
            mood TEXT,
            country TEXT,
            state TEXT,
            town TEXT
        )`,
	`CREATE INDEX IF NOT EXISTS idx_location_updates_position ON location_updates USING GIST(position)`,
	`CREATE INDEX IF NOT EXISTS idx_location_updates_time ON location_updates(insert_time)`,
	`CREATE INDEX IF NOT EXISTS idx_location_updates_upn ON location_updates(user_principal_name, insert_time DESC)`,
}

// 背景：首次运行自动创建表与空间索引，保障后续导入与查询
// 约束：使用 IF NOT EXISTS，可重复执行；需要数据库已安装 PostGIS
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done", "statements", len(stmts))
	return nil
}
