// 包 measure：由规范环计算面积、周长与逐边边长
package measure

import (
	"strings"

	"landplot/internal/geometry"

	"github.com/cockroachdb/errors"
)

// Model：距离模型，全局唯一配置，保证所有地块的量测值可比较
type Model string

const (
	Planar   Model = "planar"
	Geodesic Model = "geodesic"
)

// ParseModel：空串取默认 geodesic
func ParseModel(s string) (Model, error) {
	switch Model(strings.ToLower(strings.TrimSpace(s))) {
	case "", Geodesic:
		return Geodesic, nil
	case Planar:
		return Planar, nil
	default:
		return "", errors.Newf("unknown distance model %q (want planar or geodesic)", s)
	}
}

// Measurements：三项派生量总是一起计算、一起写入
type Measurements struct {
	Area        float64
	Perimeter   float64
	SideLengths []float64
}

// Engine：量测引擎
// 背景：planar 直接把坐标当作笛卡尔坐标（单位与坐标一致）；geodesic 把坐标视为经纬度，
// 边长按大圆距离（米），面积按球面超量（平方米）。
// 约束：输入须为校验器输出的闭合逆时针环；边长顺序与环的遍历顺序一致，周长为边长之和。
type Engine struct {
	Model Model
}

func New(m Model) Engine {
	if m == "" {
		m = Geodesic
	}
	return Engine{Model: m}
}

func (e Engine) Measure(r geometry.Ring) Measurements {
	if len(r) < 2 {
		return Measurements{SideLengths: []float64{}}
	}
	dist := planarDistance
	if e.Model != Planar {
		dist = geodesicDistance
	}
	sides := make([]float64, len(r)-1)
	var perimeter float64
	for i := 0; i < len(r)-1; i++ {
		sides[i] = dist(r[i], r[i+1])
		perimeter += sides[i]
	}
	var area float64
	if e.Model == Planar {
		area = planarArea(r)
	} else {
		area = geodesicArea(r)
	}
	return Measurements{Area: area, Perimeter: perimeter, SideLengths: sides}
}
