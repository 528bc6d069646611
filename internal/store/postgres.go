package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"landplot/internal/errkind"
	"landplot/internal/geometry"
	"landplot/internal/logger"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

const plotColumns = "id, name, owner, properties, geometry, area, perimeter, side_lengths, created_at, updated_at"

// PostgresRepository：land_plots 表的数据访问，持有连接池
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRepository { return &PostgresRepository{db: db} }

func (r *PostgresRepository) DB() *sql.DB { return r.db }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlot(s rowScanner) (Plot, error) {
	var (
		p     Plot
		props []byte
		wkb   []byte
		sides pq.Float64Array
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Owner, &props, &wkb, &p.Area, &p.Perimeter, &sides, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Plot{}, err
	}
	ring, err := geometry.FromStorageBytes(wkb)
	if err != nil {
		return Plot{}, errors.Newf("stored geometry of plot %d is unreadable: %v", p.ID, err)
	}
	p.Geometry = ring
	p.Properties = normalizeProps(props)
	p.SideLengths = []float64(sides)
	return p, nil
}

// mapErr：驱动错误映射到错误分类
func mapErr(err error, op string, id int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return errkind.NotFound(id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return errkind.Duplicate(err, "%s plot", op)
	}
	return errkind.Storage(err, op)
}

func (r *PostgresRepository) Insert(ctx context.Context, p Plot) (Plot, error) {
	wkb, err := geometry.ToStorageBytes(p.Geometry)
	if err != nil {
		return Plot{}, errkind.Storage(err, "encode geometry")
	}
	props := normalizeProps(p.Properties)
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO land_plots(name, owner, properties, geometry, area, perimeter, side_lengths)
		VALUES($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+plotColumns,
		p.Name, p.Owner, string(props), wkb, p.Area, p.Perimeter, pq.Array(p.SideLengths),
	)
	out, err := scanPlot(row)
	if err != nil {
		return Plot{}, mapErr(err, "insert", 0)
	}
	logger.L().Debug("db_plot_insert", "id", out.ID, "owner", out.Owner)
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Plot, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+plotColumns+" FROM land_plots WHERE id=$1", id)
	p, err := scanPlot(row)
	if err != nil {
		return Plot{}, mapErr(err, "get", id)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]Plot, error) {
	col, err := opts.column()
	if err != nil {
		return nil, err
	}
	q := "SELECT " + plotColumns + " FROM land_plots"
	if col != "" {
		q += " ORDER BY " + col
		if opts.Desc {
			q += " DESC"
		}
		if col != "id" {
			q += ", id"
		}
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, mapErr(err, "list", 0)
	}
	defer rows.Close()
	out := []Plot{}
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, mapErr(err, "list", 0)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "list", 0)
	}
	return out, nil
}

// 文档注释：部分更新
// 背景：先以 SELECT ... FOR UPDATE 锁定目标行，再只写入补丁中出现的列；Shape 的几何与三项量测在同一条 UPDATE 中写入。
// 约束：任一步失败回滚整个事务，不会出现几何与量测不一致的中间态；空补丁只刷新 updated_at。
func (r *PostgresRepository) Update(ctx context.Context, id int64, patch Patch) (Plot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Plot{}, mapErr(err, "begin update", id)
	}
	defer tx.Rollback()

	var locked int64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM land_plots WHERE id=$1 FOR UPDATE", id).Scan(&locked); err != nil {
		return Plot{}, mapErr(err, "lock", id)
	}

	sets := []string{}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+"=$"+strconv.Itoa(len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Owner != nil {
		add("owner", *patch.Owner)
	}
	if patch.Properties != nil {
		add("properties", string(normalizeProps(patch.Properties)))
	}
	if patch.Shape != nil {
		wkb, err := geometry.ToStorageBytes(patch.Shape.Geometry)
		if err != nil {
			return Plot{}, errkind.Storage(err, "encode geometry")
		}
		add("geometry", wkb)
		add("area", patch.Shape.Area)
		add("perimeter", patch.Shape.Perimeter)
		add("side_lengths", pq.Array(patch.Shape.SideLengths))
	}
	sets = append(sets, "updated_at=now()")

	row := tx.QueryRowContext(ctx,
		"UPDATE land_plots SET "+strings.Join(sets, ", ")+" WHERE id=$1 RETURNING "+plotColumns, args...)
	out, err := scanPlot(row)
	if err != nil {
		return Plot{}, mapErr(err, "update", id)
	}
	if err := tx.Commit(); err != nil {
		return Plot{}, mapErr(err, "commit update", id)
	}
	logger.L().Debug("db_plot_update", "id", id, "fields", len(sets)-1, "shape", patch.Shape != nil)
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM land_plots WHERE id=$1", id)
	if err != nil {
		return mapErr(err, "delete", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, "delete", id)
	}
	if n == 0 {
		return errkind.NotFound(id)
	}
	logger.L().Debug("db_plot_delete", "id", id)
	return nil
}
