// 包 config：集中读取环境变量配置（支持 .env），供各命令行入口共用
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"landplot/internal/measure"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// Postgres：连接参数
type Postgres struct {
	Host         string
	Port         string
	User         string
	Password     string
	DB           string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN：postgres:// 形式连接串
func (p Postgres) DSN() string {
	dsn := "postgres://" + p.User
	if p.Password != "" {
		dsn += ":" + p.Password
	}
	dsn += "@" + p.Host + ":" + p.Port + "/" + p.DB + "?sslmode=" + p.SSLMode
	return dsn
}

type Redis struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func (r Redis) Addr() string { return r.Host + ":" + r.Port }

// ImportPolicy：批量导入遇到单条失败时的处理策略
type ImportPolicy string

const (
	PolicyContinue ImportPolicy = "continue"
	PolicyAbort    ImportPolicy = "abort"
)

// Config：进程级配置
type Config struct {
	Postgres              Postgres
	Redis                 Redis
	DistanceModel         measure.Model
	CheckSelfIntersection bool
	ImportPolicy          ImportPolicy
	StorageTimeout        time.Duration
	LogLevel              string
	LogFormat             string
}

// 文档注释：加载配置
// 背景：先尝试加载工作目录下的 .env（不存在时忽略），再读取进程环境变量。
// 约束：
// - 枚举型配置（DISTANCE_MODEL、IMPORT_POLICY、VALIDATE_SELF_INTERSECTION）取值非法时返回错误；
// - 整数型配置解析失败时回退默认值。
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv：仅读取进程环境变量
func FromEnv() (Config, error) {
	cfg := Config{
		Postgres: Postgres{
			Host:         envOr("PG_HOST", "localhost"),
			Port:         envOr("PG_PORT", "5432"),
			User:         envOr("PG_USER", "postgres"),
			Password:     os.Getenv("PG_PASSWORD"),
			DB:           envOr("PG_DB", "landplot"),
			SSLMode:      envOr("PG_SSLMODE", "disable"),
			MaxOpenConns: envInt("PG_MAX_OPEN_CONNS", 50),
			MaxIdleConns: envInt("PG_MAX_IDLE_CONNS", 25),
		},
		Redis: Redis{
			Host:     envOr("REDIS_HOST", "127.0.0.1"),
			Port:     envOr("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASS"),
			DB:       envInt("REDIS_DB", 0),
			TTL:      time.Duration(envInt("PLOT_CACHE_TTL_S", 300)) * time.Second,
		},
		StorageTimeout: time.Duration(envInt("STORAGE_TIMEOUT_MS", 5000)) * time.Millisecond,
		LogLevel:       strings.ToLower(os.Getenv("LOG_LEVEL")),
		LogFormat:      strings.ToLower(os.Getenv("LOG_FORMAT")),
	}
	if cfg.Redis.DB < 0 {
		cfg.Redis.DB = 0
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = 5 * time.Second
	}

	var err error
	if cfg.Redis.Enabled, err = envBool("REDIS_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.CheckSelfIntersection, err = envBool("VALIDATE_SELF_INTERSECTION", true); err != nil {
		return Config{}, err
	}
	if cfg.DistanceModel, err = measure.ParseModel(os.Getenv("DISTANCE_MODEL")); err != nil {
		return Config{}, errors.Wrap(err, "DISTANCE_MODEL")
	}
	switch p := ImportPolicy(strings.ToLower(strings.TrimSpace(os.Getenv("IMPORT_POLICY")))); p {
	case "", PolicyContinue:
		cfg.ImportPolicy = PolicyContinue
	case PolicyAbort:
		cfg.ImportPolicy = PolicyAbort
	default:
		return Config{}, errors.Newf("IMPORT_POLICY: unknown policy %q (want continue or abort)", p)
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "%s", key)
	}
	return b, nil
}
