package measure

import (
	"math"

	"landplot/internal/geometry"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters：IUGG 平均地球半径
const EarthRadiusMeters = 6371008.8

func latLng(c geometry.Coord) s2.LatLng {
	return s2.LatLngFromDegrees(c.Y, c.X)
}

// geodesicDistance：大圆距离（米）
func geodesicDistance(a, b geometry.Coord) float64 {
	return latLng(a).Distance(latLng(b)).Radians() * EarthRadiusMeters
}

// geodesicArea：球面多边形面积（平方米）
// 约束：s2.Loop 以逆时针为内部；若得到的是补集（> 半球）则取 4π 余量。
func geodesicArea(r geometry.Ring) float64 {
	pts := make([]s2.Point, 0, len(r)-1)
	for _, c := range r[:len(r)-1] {
		pts = append(pts, s2.PointFromLatLng(latLng(c)))
	}
	if len(pts) < 3 {
		return 0
	}
	steradians := s2.LoopFromPoints(pts).Area()
	if steradians > 2*math.Pi {
		steradians = 4*math.Pi - steradians
	}
	return steradians * EarthRadiusMeters * EarthRadiusMeters
}
