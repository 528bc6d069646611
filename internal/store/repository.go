// 包 store：地块记录的持久化，PostgreSQL 实现与内存实现共用同一接口
package store

import (
	"context"
	"encoding/json"
	"time"

	"landplot/internal/geometry"

	"github.com/cockroachdb/errors"
)

// Shape：几何与三项量测值，总是作为整体写入
type Shape struct {
	Geometry    geometry.Ring
	Area        float64
	Perimeter   float64
	SideLengths []float64
}

// Plot：持久化的地块记录
type Plot struct {
	ID         int64
	Name       string
	Owner      string
	Properties json.RawMessage
	Shape
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch：部分更新；nil 字段保持不变
type Patch struct {
	Name       *string
	Owner      *string
	Properties json.RawMessage
	Shape      *Shape
}

// Empty：没有任何字段需要更新
func (p Patch) Empty() bool {
	return p.Name == nil && p.Owner == nil && p.Properties == nil && p.Shape == nil
}

// ListOptions：列表排序；OrderBy 为空时不保证顺序
type ListOptions struct {
	OrderBy string
	Desc    bool
}

var orderColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"owner":      "owner",
	"area":       "area",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func (o ListOptions) column() (string, error) {
	if o.OrderBy == "" {
		return "", nil
	}
	c, ok := orderColumns[o.OrderBy]
	if !ok {
		return "", errors.Newf("unsupported order column %q", o.OrderBy)
	}
	return c, nil
}

// 文档注释：地块仓储
// 约束：
// - 所有调用遵守 ctx 截止时间，超时以 ErrStorage（瞬时）返回；
// - Update 在单个事务内对目标行加锁，Shape 的四个字段同成同败；
// - 未知 id 返回 ErrNotFound，(owner, name) 冲突返回 ErrDuplicateKey。
type Repository interface {
	Insert(ctx context.Context, p Plot) (Plot, error)
	Get(ctx context.Context, id int64) (Plot, error)
	List(ctx context.Context, opts ListOptions) ([]Plot, error)
	Update(ctx context.Context, id int64, patch Patch) (Plot, error)
	Delete(ctx context.Context, id int64) error
}

func normalizeProps(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("{}")
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func cloneShape(s Shape) Shape {
	out := s
	out.Geometry = s.Geometry.Clone()
	out.SideLengths = append([]float64(nil), s.SideLengths...)
	return out
}
