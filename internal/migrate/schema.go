package migrate

import (
	"context"
	"database/sql"

	"landplot/internal/logger"

	"github.com/cockroachdb/errors"
)

// 背景：首次运行自动创建地块表与索引，保障后续导入与查询
// 约束：使用 IF NOT EXISTS，可重复执行；几何以小端 WKB 存入 BYTEA，不依赖空间扩展
var statements = []string{
	`CREATE TABLE IF NOT EXISTS land_plots (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		owner TEXT NOT NULL,
		properties JSONB NOT NULL DEFAULT '{}'::jsonb,
		geometry BYTEA NOT NULL,
		area DOUBLE PRECISION NOT NULL CHECK (area >= 0),
		perimeter DOUBLE PRECISION NOT NULL CHECK (perimeter >= 0),
		side_lengths DOUBLE PRECISION[] NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_land_plots_owner_name ON land_plots(owner, name)`,
	`CREATE INDEX IF NOT EXISTS idx_land_plots_owner ON land_plots(owner)`,
}

// EnsureSchema：按顺序执行建表语句
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return errors.Wrapf(err, "schema statement %d", i)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
