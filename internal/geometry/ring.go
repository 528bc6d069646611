// 包 geometry：地块几何的规范内部表示与交换/存储格式的编解码
package geometry

import "math"

// Coord：平面坐标；X 为经度，Y 为纬度（EPSG:4326）
type Coord struct {
	X float64
	Y float64
}

// Ring：单个闭合多边形边界的有序坐标序列，规范形式下首尾坐标相同
type Ring []Coord

// Closed：首尾坐标逐位相等
func (r Ring) Closed() bool {
	if len(r) == 0 {
		return false
	}
	return r[0] == r[len(r)-1]
}

// Equal：逐点比较，NaN 按位相等视为相同
func (r Ring) Equal(o Ring) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if math.Float64bits(r[i].X) != math.Float64bits(o[i].X) ||
			math.Float64bits(r[i].Y) != math.Float64bits(o[i].Y) {
			return false
		}
	}
	return true
}

func (r Ring) Clone() Ring {
	if r == nil {
		return nil
	}
	out := make(Ring, len(r))
	copy(out, r)
	return out
}

// Reverse：返回反向副本，不修改原环
func (r Ring) Reverse() Ring {
	out := make(Ring, len(r))
	for i, c := range r {
		out[len(r)-1-i] = c
	}
	return out
}

// BBox：minX, minY, maxX, maxY；空环返回零值
func (r Ring) BBox() [4]float64 {
	if len(r) == 0 {
		return [4]float64{}
	}
	b := [4]float64{r[0].X, r[0].Y, r[0].X, r[0].Y}
	for _, c := range r[1:] {
		b[0] = math.Min(b[0], c.X)
		b[1] = math.Min(b[1], c.Y)
		b[2] = math.Max(b[2], c.X)
		b[3] = math.Max(b[3], c.Y)
	}
	return b
}

// flat：转为 go-geom 的扁平坐标
func (r Ring) flat() []float64 {
	out := make([]float64, 0, len(r)*2)
	for _, c := range r {
		out = append(out, c.X, c.Y)
	}
	return out
}

// ringFromFlat：按 stride 读取，丢弃 Z/M 分量
func ringFromFlat(flat []float64, stride int) Ring {
	if stride < 2 {
		return nil
	}
	out := make(Ring, 0, len(flat)/stride)
	for i := 0; i+1 < len(flat); i += stride {
		out = append(out, Coord{X: flat[i], Y: flat[i+1]})
	}
	return out
}
