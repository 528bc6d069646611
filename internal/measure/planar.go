package measure

import (
	"math"

	"landplot/internal/geometry"
)

// SignedArea：鞋带公式有符号面积，逆时针为正；环需闭合
func SignedArea(r geometry.Ring) float64 {
	if len(r) < 4 {
		return 0
	}
	// 以首点为原点平移，减小大坐标下的抵消误差
	ox, oy := r[0].X, r[0].Y
	var sum float64
	for i := 0; i < len(r)-1; i++ {
		x0, y0 := r[i].X-ox, r[i].Y-oy
		x1, y1 := r[i+1].X-ox, r[i+1].Y-oy
		sum += x0*y1 - x1*y0
	}
	return sum / 2
}

func planarArea(r geometry.Ring) float64 {
	return math.Abs(SignedArea(r))
}

func planarDistance(a, b geometry.Coord) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
