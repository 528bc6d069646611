package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"landplot/internal/errkind"

	"github.com/cockroachdb/errors"
)

// MemoryRepository：进程内实现，语义与 PostgresRepository 一致，用于测试与无数据库运行
// 约束：出入参均深拷贝，调用方持有的切片不会与内部状态共享
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Plot
	now    func() time.Time
}

func NewMemory() *MemoryRepository {
	return &MemoryRepository{rows: map[int64]Plot{}, now: func() time.Time { return time.Now().UTC() }}
}

func clonePlot(p Plot) Plot {
	out := p
	out.Shape = cloneShape(p.Shape)
	out.Properties = normalizeProps(p.Properties)
	return out
}

func (m *MemoryRepository) conflict(owner, name string, self int64) bool {
	for id, p := range m.rows {
		if id != self && p.Owner == owner && p.Name == name {
			return true
		}
	}
	return false
}

func ctxErr(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return errkind.Storage(err, op)
	}
	return nil
}

func (m *MemoryRepository) Insert(ctx context.Context, p Plot) (Plot, error) {
	if err := ctxErr(ctx, "insert"); err != nil {
		return Plot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflict(p.Owner, p.Name, 0) {
		return Plot{}, errkind.Duplicate(errors.Newf("owner %q already has plot %q", p.Owner, p.Name), "insert plot")
	}
	m.nextID++
	p = clonePlot(p)
	p.ID = m.nextID
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.rows[p.ID] = p
	return clonePlot(p), nil
}

func (m *MemoryRepository) Get(ctx context.Context, id int64) (Plot, error) {
	if err := ctxErr(ctx, "get"); err != nil {
		return Plot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return Plot{}, errkind.NotFound(id)
	}
	return clonePlot(p), nil
}

func (m *MemoryRepository) List(ctx context.Context, opts ListOptions) ([]Plot, error) {
	if err := ctxErr(ctx, "list"); err != nil {
		return nil, err
	}
	col, err := opts.column()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	out := make([]Plot, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, clonePlot(p))
	}
	m.mu.Unlock()

	if col == "" {
		return out, nil
	}
	compare := func(a, b Plot) int {
		switch col {
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "owner":
			return strings.Compare(a.Owner, b.Owner)
		case "area":
			return cmpFloat(a.Area, b.Area)
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		case "updated_at":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		}
		return 0
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if opts.Desc {
			c = -c
		}
		if c == 0 {
			// id 作为次序键恒为升序，与 SQL 实现的 ", id" 一致
			if col == "id" && opts.Desc {
				return out[i].ID > out[j].ID
			}
			return out[i].ID < out[j].ID
		}
		return c < 0
	})
	return out, nil
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (m *MemoryRepository) Update(ctx context.Context, id int64, patch Patch) (Plot, error) {
	if err := ctxErr(ctx, "update"); err != nil {
		return Plot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok {
		return Plot{}, errkind.NotFound(id)
	}
	next := clonePlot(cur)
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Owner != nil {
		next.Owner = *patch.Owner
	}
	if patch.Properties != nil {
		next.Properties = normalizeProps(patch.Properties)
	}
	if patch.Shape != nil {
		next.Shape = cloneShape(*patch.Shape)
	}
	if m.conflict(next.Owner, next.Name, id) {
		return Plot{}, errkind.Duplicate(errors.Newf("owner %q already has plot %q", next.Owner, next.Name), "update plot")
	}
	next.UpdatedAt = m.now()
	m.rows[id] = next
	return clonePlot(next), nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id int64) error {
	if err := ctxErr(ctx, "delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return errkind.NotFound(id)
	}
	delete(m.rows, id)
	return nil
}
