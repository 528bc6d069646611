package plots

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"landplot/internal/errkind"
	"landplot/internal/geometry"
	"landplot/internal/logger"
	"landplot/internal/metrics"
	"landplot/internal/store"
)

// View：对外交换形态，几何为 GeoJSON Polygon
type View struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Owner       string          `json:"owner"`
	Properties  json.RawMessage `json:"properties"`
	Geometry    json.RawMessage `json:"geometry"`
	Area        float64         `json:"area"`
	Perimeter   float64         `json:"perimeter"`
	SideLengths []float64       `json:"side_lengths"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToView：记录编码为交换形态
func ToView(p store.Plot) (View, error) {
	g, err := geometry.Encode(p.Geometry)
	if err != nil {
		return View{}, errkind.Storage(err, "encode geometry")
	}
	return View{
		ID:          p.ID,
		Name:        p.Name,
		Owner:       p.Owner,
		Properties:  p.Properties,
		Geometry:    g,
		Area:        p.Area,
		Perimeter:   p.Perimeter,
		SideLengths: p.SideLengths,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

// CreateInput：新建请求，Geometry 为任意受支持的交换格式
type CreateInput struct {
	Name       string          `json:"name"`
	Owner      string          `json:"owner"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// UpdateInput：部分更新请求，未提供的字段保持不变
type UpdateInput struct {
	Name       *string         `json:"name,omitempty"`
	Owner      *string         `json:"owner,omitempty"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

func absent(raw json.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}

func observe(op string, start time.Time, err error) {
	metrics.ObserveOperation(op, errkind.Of(err), start)
	switch kind := errkind.Of(err); kind {
	case "":
	case errkind.KindStorage, errkind.KindUnknown:
		logger.L().Error(op+"_error", "kind", kind, "err", err)
	default:
		logger.L().Debug(op+"_rejected", "kind", kind, "err", err)
	}
}

// 文档注释：createPlot
// 约束：name、owner、geometry 缺一返回 ErrMissingField；几何非法返回 ErrDecode 或 ErrValidation；均无副作用。
func (s *Service) CreatePlot(ctx context.Context, in CreateInput) (v View, err error) {
	start := time.Now()
	defer func() { observe("plot_create", start, err) }()

	switch {
	case strings.TrimSpace(in.Name) == "":
		return View{}, errkind.Missing("name")
	case strings.TrimSpace(in.Owner) == "":
		return View{}, errkind.Missing("owner")
	case absent(in.Geometry):
		return View{}, errkind.Missing("geometry")
	}
	ring, err := geometry.Decode(in.Geometry)
	if err != nil {
		return View{}, err
	}
	p, err := s.Create(ctx, in.Name, in.Owner, ring, in.Properties)
	if err != nil {
		return View{}, err
	}
	logger.L().Info("plot_create_ok", "id", p.ID, "owner", p.Owner, "area", p.Area)
	return ToView(p)
}

// GetPlot：先读缓存，未命中再读库并回填
func (s *Service) GetPlot(ctx context.Context, id int64) (v View, err error) {
	start := time.Now()
	defer func() { observe("plot_get", start, err) }()

	if s.cache.Get(ctx, id, &v) {
		return v, nil
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if v, err = ToView(p); err != nil {
		return View{}, err
	}
	s.cache.Set(ctx, id, v)
	return v, nil
}

// GetAllPlots：一次性读取全表
func (s *Service) GetAllPlots(ctx context.Context, opts store.ListOptions) (out []View, err error) {
	start := time.Now()
	defer func() { observe("plot_list", start, err) }()

	all, err := s.ListAll(ctx, opts)
	if err != nil {
		return nil, err
	}
	out = make([]View, 0, len(all))
	for _, p := range all {
		v, err := ToView(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// 文档注释：updatePlot
// 背景：只有提供 geometry 时才重新校验与量测；几何与三项量测在同一事务中整体替换。
// 约束：name、owner 若提供则不能为空白。
func (s *Service) UpdatePlot(ctx context.Context, id int64, in UpdateInput) (v View, err error) {
	start := time.Now()
	defer func() { observe("plot_update", start, err) }()

	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return View{}, errkind.Missing("name")
	}
	if in.Owner != nil && strings.TrimSpace(*in.Owner) == "" {
		return View{}, errkind.Missing("owner")
	}
	c := Changes{Name: in.Name, Owner: in.Owner}
	if !absent(in.Properties) {
		c.Properties = in.Properties
	}
	if !absent(in.Geometry) {
		if c.Geometry, err = geometry.Decode(in.Geometry); err != nil {
			return View{}, err
		}
	}
	p, err := s.Update(ctx, id, c)
	if err != nil {
		return View{}, err
	}
	logger.L().Info("plot_update_ok", "id", id, "geometry", c.Geometry != nil)
	return ToView(p)
}

func (s *Service) DeletePlot(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("plot_delete", start, err) }()

	if err = s.Delete(ctx, id); err != nil {
		return err
	}
	logger.L().Info("plot_delete_ok", "id", id)
	return nil
}
