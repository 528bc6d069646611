// 包 plots：地块处理链路（解码 → 校验 → 量测 → 持久化 → 编码）的服务层
package plots

import (
	"context"
	"encoding/json"
	"time"

	"landplot/internal/cache"
	"landplot/internal/errkind"
	"landplot/internal/geometry"
	"landplot/internal/logger"
	"landplot/internal/measure"
	"landplot/internal/metrics"
	"landplot/internal/store"
	"landplot/internal/validate"
)

// Options：服务依赖的可选组件
type Options struct {
	Validator      validate.Validator
	Engine         measure.Engine
	Cache          *cache.PlotCache
	StorageTimeout time.Duration
}

// Service：地块仓储契约与对外操作
// 约束：几何的解码、校验与量测都在进入存储事务之前完成，失败时没有任何副作用；
// 每次存储调用都带有独立超时。
type Service struct {
	repo      store.Repository
	validator validate.Validator
	engine    measure.Engine
	cache     *cache.PlotCache
	timeout   time.Duration
}

func NewService(repo store.Repository, opts Options) *Service {
	if opts.Engine.Model == "" {
		opts.Engine = measure.New(measure.Geodesic)
	}
	return &Service{
		repo:      repo,
		validator: opts.Validator,
		engine:    opts.Engine,
		cache:     opts.Cache,
		timeout:   opts.StorageTimeout,
	}
}

func (s *Service) Model() measure.Model { return s.engine.Model }

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// shape：校验并量测，返回可整体写入的 Shape
func (s *Service) shape(r geometry.Ring) (store.Shape, error) {
	canon, err := s.validator.Validate(r)
	if err != nil {
		return store.Shape{}, err
	}
	start := time.Now()
	m := s.engine.Measure(canon)
	metrics.ObserveMeasure(string(s.engine.Model), start)
	return store.Shape{Geometry: canon, Area: m.Area, Perimeter: m.Perimeter, SideLengths: m.SideLengths}, nil
}

func checkProperties(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return errkind.Decode(err, "properties must be a JSON object")
	}
	return nil
}

// Create：新建地块，几何先经校验与量测
func (s *Service) Create(ctx context.Context, name, owner string, ring geometry.Ring, props json.RawMessage) (store.Plot, error) {
	if err := checkProperties(props); err != nil {
		return store.Plot{}, err
	}
	sh, err := s.shape(ring)
	if err != nil {
		return store.Plot{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Insert(ctx, store.Plot{Name: name, Owner: owner, Properties: props, Shape: sh})
}

func (s *Service) Get(ctx context.Context, id int64) (store.Plot, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Get(ctx, id)
}

func (s *Service) ListAll(ctx context.Context, opts store.ListOptions) ([]store.Plot, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.List(ctx, opts)
}

// Changes：部分更新；Geometry 为 nil 时保留原几何与量测值
type Changes struct {
	Name       *string
	Owner      *string
	Properties json.RawMessage
	Geometry   geometry.Ring
}

// Update：提供几何时重新校验与量测，并与其他字段在同一事务中写入
func (s *Service) Update(ctx context.Context, id int64, c Changes) (store.Plot, error) {
	if err := checkProperties(c.Properties); err != nil {
		return store.Plot{}, err
	}
	patch := store.Patch{Name: c.Name, Owner: c.Owner, Properties: c.Properties}
	if c.Geometry != nil {
		sh, err := s.shape(c.Geometry)
		if err != nil {
			return store.Plot{}, err
		}
		patch.Shape = &sh
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p, err := s.repo.Update(ctx, id, patch)
	s.cache.Invalidate(context.WithoutCancel(ctx), id)
	return p, err
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err := s.repo.Delete(ctx, id)
	s.cache.Invalidate(context.WithoutCancel(ctx), id)
	return err
}

// 文档注释：按当前距离模型重算全部地块的量测值
// 背景：切换 DISTANCE_MODEL 后，已存数据需要统一重算以保持可比；每个地块单独一个事务。
// 约束：存量几何若无法通过校验则记录日志并跳过；存储失败立即返回已完成数量与错误。
func (s *Service) Remeasure(ctx context.Context) (int, error) {
	all, err := s.ListAll(ctx, store.ListOptions{OrderBy: "id"})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range all {
		sh, err := s.shape(p.Geometry)
		if err != nil {
			logger.L().Warn("remeasure_skip", "id", p.ID, "kind", errkind.Of(err), "err", err)
			continue
		}
		uctx, cancel := s.withTimeout(ctx)
		_, err = s.repo.Update(uctx, p.ID, store.Patch{Shape: &sh})
		cancel()
		s.cache.Invalidate(context.WithoutCancel(ctx), p.ID)
		if err != nil {
			if errkind.Of(err) == errkind.KindNotFound {
				continue
			}
			return n, err
		}
		n++
	}
	logger.L().Info("remeasure_done", "model", s.engine.Model, "total", len(all), "updated", n)
	return n, nil
}
