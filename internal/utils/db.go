// 包 utils：数据库与缓存连接工具，统一由配置打开
package utils

import (
	"context"
	"database/sql"

	"landplot/internal/config"
	"landplot/internal/logger"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
)

// OpenPostgres：按配置打开连接池并探活
// 约束：ctx 只用于 Ping；连接池上限来自 PG_MAX_OPEN_CONNS/PG_MAX_IDLE_CONNS
func OpenPostgres(ctx context.Context, cfg config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping postgres %s:%s/%s", cfg.Host, cfg.Port, cfg.DB)
	}
	logger.L().Debug("db_open_ok", "host", cfg.Host, "db", cfg.DB, "max_open", cfg.MaxOpenConns)
	return db, nil
}
