// 包 config：从环境变量构建类型化配置；.env 文件由入口在调用 Load 之前加载
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config：服务与工具共用的全部配置
type Config struct {
	Environment  string
	Server       ServerConfig
	Store        StoreConfig
	Cache        CacheConfig
	Directory    DirectoryConfig
	Connectivity ConnectivityConfig
	Push         PushConfig
	GeoIPPath    string
}

// ServerConfig：HTTP 服务监听、超时、CORS、TLS 与限流
type ServerConfig struct {
	Addr            string
	APIBase         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
	IngestToken     string
	RateLimit       RateLimitConfig
	TLS             TLSConfig
}

type RateLimitConfig struct {
	Enabled bool
	QPS     int
}

type TLSConfig struct {
	Enabled    bool
	CertPath   string
	KeyPath    string
	CommonName string
}

// StoreConfig：联系人数据源
type StoreConfig struct {
	Backend  string // postgres | mongo | memory
	PageSize int
	Postgres PostgresConfig
	Mongo    MongoConfig
	SeedFile string
}

type PostgresConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN 拼接 postgres:// 连接串；密码为空时省略
func (c PostgresConfig) DSN() string {
	dsn := "postgres://" + c.User
	if c.Password != "" {
		dsn += ":" + c.Password
	}
	return dsn + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.Database + "?sslmode=" + c.SSLMode
}

type MongoConfig struct {
	URI      string
	Database string
}

// CacheConfig：联系人全集快照缓存
type CacheConfig struct {
	Backend   string // redis | file | memory
	Key       string
	TTL       time.Duration
	Retention time.Duration
	Dir       string
	Capacity  int
	Redis     RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string { return c.Host + ":" + strconv.Itoa(c.Port) }

type DirectoryConfig struct {
	RadiusMeters float64
	RecentDays   int
	ImageBaseURL string
}

// ConnectivityConfig：ProbeURL 为空表示始终视为在线
type ConnectivityConfig struct {
	ProbeURL     string
	ProbeTimeout time.Duration
}

// PushConfig：签到提交工具使用
type PushConfig struct {
	Endpoint string
	UPN      string
	Token    string
	Timeout  time.Duration
}

var (
	storeBackends = []string{"postgres", "mongo", "memory"}
	cacheBackends = []string{"redis", "file", "memory"}
)

// Load 读取环境变量并校验
func Load() (Config, error) {
	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Addr:            getEnv("ADDR", ":8080"),
			APIBase:         getEnv("API_BASE", "/api"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
			IngestToken:     getEnv("INGEST_TOKEN", ""),
			RateLimit: RateLimitConfig{
				Enabled: getEnvAsBool("RATE_LIMIT_ENABLED", false),
				QPS:     getEnvAsInt("RATE_LIMIT_QPS", 200),
			},
			TLS: TLSConfig{
				Enabled:    getEnvAsBool("TLS_ENABLE", false),
				CertPath:   getEnv("TLS_CERT_PATH", "data/certs/server.crt"),
				KeyPath:    getEnv("TLS_KEY_PATH", "data/certs/server.key"),
				CommonName: getEnv("TLS_COMMON_NAME", "geocontacts.local"),
			},
		},
		Store: StoreConfig{
			Backend:  strings.ToLower(getEnv("STORE_BACKEND", "postgres")),
			PageSize: getEnvAsInt("STORE_PAGE_SIZE", 500),
			Postgres: PostgresConfig{
				Host:         getEnv("PG_HOST", "localhost"),
				Port:         getEnvAsInt("PG_PORT", 5432),
				User:         getEnv("PG_USER", "postgres"),
				Password:     getEnv("PG_PASSWORD", ""),
				Database:     getEnv("PG_DB", "geocontacts"),
				SSLMode:      getEnv("PG_SSLMODE", "disable"),
				MaxOpenConns: getEnvAsInt("PG_MAX_OPEN_CONNS", 50),
				MaxIdleConns: getEnvAsInt("PG_MAX_IDLE_CONNS", 25),
			},
			Mongo: MongoConfig{
				URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
				Database: getEnv("MONGO_DB", "geocontacts"),
			},
			SeedFile: getEnv("SEED_FILE", ""),
		},
		Cache: CacheConfig{
			Backend:   strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			Key:       getEnv("CACHE_KEY", "allcdas2"),
			TTL:       getEnvAsDuration("CACHE_TTL", 2*time.Hour),
			Retention: getEnvAsDuration("CACHE_RETENTION", 7*24*time.Hour),
			Dir:       getEnv("CACHE_DIR", "data/cache"),
			Capacity:  getEnvAsInt("CACHE_CAPACITY", 64),
			Redis: RedisConfig{
				Host:     getEnv("REDIS_HOST", "127.0.0.1"),
				Port:     getEnvAsInt("REDIS_PORT", 6379),
				Password: getEnv("REDIS_PASS", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
			},
		},
		Directory: DirectoryConfig{
			RadiusMeters: getEnvAsFloat("NEARBY_RADIUS_METERS", 50000),
			RecentDays:   getEnvAsInt("NEARBY_RECENT_DAYS", 7),
			ImageBaseURL: getEnv("IMAGE_BASE_URL", "https://developer.microsoft.com/en-us/advocates/"),
		},
		Connectivity: ConnectivityConfig{
			ProbeURL:     getEnv("CONNECTIVITY_PROBE_URL", ""),
			ProbeTimeout: getEnvAsDuration("CONNECTIVITY_PROBE_TIMEOUT", 2*time.Second),
		},
		Push: PushConfig{
			Endpoint: getEnv("PUSH_ENDPOINT", "http://localhost:8080/api/locations"),
			UPN:      getEnv("PUSH_UPN", ""),
			Token:    getEnv("PUSH_TOKEN", ""),
			Timeout:  getEnvAsDuration("PUSH_TIMEOUT", 10*time.Second),
		},
		GeoIPPath: getEnv("GEOIP_DB_PATH", ""),
	}
	return cfg, cfg.Validate()
}

// Validate 拒绝未知后端与非正的半径、窗口、TTL
func (c Config) Validate() error {
	if !contains(storeBackends, c.Store.Backend) {
		return fmt.Errorf("config: unknown STORE_BACKEND %q (want one of %s)", c.Store.Backend, strings.Join(storeBackends, ", "))
	}
	if !contains(cacheBackends, c.Cache.Backend) {
		return fmt.Errorf("config: unknown CACHE_BACKEND %q (want one of %s)", c.Cache.Backend, strings.Join(cacheBackends, ", "))
	}
	if c.Directory.RadiusMeters <= 0 {
		return fmt.Errorf("config: NEARBY_RADIUS_METERS must be positive, got %v", c.Directory.RadiusMeters)
	}
	if c.Directory.RecentDays <= 0 {
		return fmt.Errorf("config: NEARBY_RECENT_DAYS must be positive, got %d", c.Directory.RecentDays)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("config: CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.Retention < c.Cache.TTL {
		return fmt.Errorf("config: CACHE_RETENTION %s shorter than CACHE_TTL %s", c.Cache.Retention, c.Cache.TTL)
	}
	if c.Environment == "production" && c.Server.IngestToken == "" {
		return fmt.Errorf("config: INGEST_TOKEN must be set in production")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
