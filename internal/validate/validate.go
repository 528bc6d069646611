// 包 validate：地块边界环的合法性校验与方向归一化
package validate

import (
	"math"

	"landplot/internal/errkind"
	"landplot/internal/geometry"
	"landplot/internal/measure"
)

// 经纬度取值范围（EPSG:4326）
const (
	MinLon = -180.0
	MaxLon = 180.0
	MinLat = -90.0
	MaxLat = 90.0
)

// 文档注释：校验器
// 背景：鞋带面积只对简单多边形有意义，故默认开启自相交检查；可由配置关闭以兼容历史数据。
// 约束：
// - 检查顺序固定：顶点数 → 坐标有限且在经纬度范围内 → 闭合 → 去除连续重复点 → 不同顶点数 → 全部共线 → 自相交 → 零面积；
// - 成功时输出新的逆时针环，不修改入参；对已规范的环重复校验结果不变。
type Validator struct {
	CheckSelfIntersection bool
}

func New(checkSelfIntersection bool) Validator {
	return Validator{CheckSelfIntersection: checkSelfIntersection}
}

func (v Validator) Validate(r geometry.Ring) (geometry.Ring, error) {
	if len(r) < 4 {
		return nil, errkind.Invalid(errkind.TooFewVertices, "ring has %d coordinates, need at least 4", len(r))
	}
	for i, c := range r {
		if !finite(c.X) || !finite(c.Y) {
			return nil, errkind.Invalid(errkind.NonFiniteCoordinate, "coordinate %d is not finite", i)
		}
		if c.X < MinLon || c.X > MaxLon || c.Y < MinLat || c.Y > MaxLat {
			return nil, errkind.Invalid(errkind.NonFiniteCoordinate, "coordinate %d (%g, %g) is outside the lon/lat domain", i, c.X, c.Y)
		}
	}
	if !r.Closed() {
		return nil, errkind.Invalid(errkind.NotClosed, "first coordinate %v differs from last %v", r[0], r[len(r)-1])
	}

	out := dedupe(r)
	if n := distinct(out); n < 3 {
		return nil, errkind.Invalid(errkind.TooFewVertices, "ring has %d distinct vertices, need at least 3", n)
	}
	if collinear(out) {
		return nil, errkind.Invalid(errkind.TooFewVertices, "ring is degenerate, all vertices are collinear")
	}
	if v.CheckSelfIntersection {
		if i, j, ok := firstIntersection(out); ok {
			return nil, errkind.Invalid(errkind.SelfIntersecting, "edge %d intersects edge %d", i, j)
		}
	}
	area := measure.SignedArea(out)
	if area == 0 {
		return nil, errkind.Invalid(errkind.TooFewVertices, "ring encloses zero area")
	}
	if area < 0 {
		out = out.Reverse()
	}
	return out, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// dedupe：去除连续重复顶点，返回新环
func dedupe(r geometry.Ring) geometry.Ring {
	out := make(geometry.Ring, 0, len(r))
	for i, c := range r {
		if i > 0 && c == out[len(out)-1] {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 1 {
		// 全部为同一点时仍保持闭合形态
		out = append(out, out[0])
	}
	return out
}

// distinct：不含闭合点的不同顶点数
func distinct(r geometry.Ring) int {
	seen := make(map[geometry.Coord]struct{}, len(r))
	for _, c := range r[:len(r)-1] {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// collinear：所有顶点落在同一直线上
func collinear(r geometry.Ring) bool {
	a := r[0]
	for _, b := range r[1:] {
		if b == a {
			continue
		}
		for _, c := range r {
			if orient(a, b, c) != 0 {
				return false
			}
		}
		return true
	}
	return true
}
