package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/api", cfg.Server.APIBase)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "allcdas2", cfg.Cache.Key)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 50000.0, cfg.Directory.RadiusMeters)
	assert.Equal(t, 7, cfg.Directory.RecentDays)
	assert.Equal(t, "postgres://postgres@localhost:5432/geocontacts?sslmode=disable", cfg.Store.Postgres.DSN())
	assert.Equal(t, "127.0.0.1:6379", cfg.Cache.Redis.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("NEARBY_RADIUS_METERS", "1234.5")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PG_PASSWORD", "s3cret")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.Store.Backend)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1234.5, cfg.Directory.RadiusMeters)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CorsOrigins)
	assert.Contains(t, cfg.Store.Postgres.DSN(), "postgres:s3cret@")
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 0, cfg.Cache.Redis.DB)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"store backend":  {"STORE_BACKEND": "cosmos"},
		"cache backend":  {"CACHE_BACKEND": "barrel"},
		"radius":         {"NEARBY_RADIUS_METERS": "-1"},
		"recent days":    {"NEARBY_RECENT_DAYS": "0"},
		"retention":      {"CACHE_TTL": "3h", "CACHE_RETENTION": "1h"},
		"ingest token":   {"APP_ENV": "production"},
		"zero cache ttl": {"CACHE_TTL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
