package validate

import "landplot/internal/geometry"

// orient：向量 ab 与 ac 的叉积符号
func orient(a, b, c geometry.Coord) int {
	v := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// onSegment：已知 p 与 ab 共线时，p 是否落在 ab 的包围盒内
func onSegment(a, b, p geometry.Coord) bool {
	return p.X >= min(a.X, b.X) && p.X <= max(a.X, b.X) &&
		p.Y >= min(a.Y, b.Y) && p.Y <= max(a.Y, b.Y)
}

// segmentsIntersect：闭线段相交（含端点接触与共线重叠）
func segmentsIntersect(p1, p2, q1, q2 geometry.Coord) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if d1 != d2 && d3 != d4 && d1 != 0 && d2 != 0 && d3 != 0 && d4 != 0 {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

// foldsBack：相邻边 ab、bc 共线且 c 折回到 ab 上（或 a 落在 bc 上）
func foldsBack(a, b, c geometry.Coord) bool {
	if orient(a, b, c) != 0 {
		return false
	}
	return (onSegment(a, b, c) && c != b) || (onSegment(b, c, a) && a != b)
}

// firstIntersection：返回第一对相交的边下标；相邻边只检查共线折返
// 约束：r 为闭合且无连续重复点的环，逐对比较 O(n²)
func firstIntersection(r geometry.Ring) (int, int, bool) {
	n := len(r) - 1
	for i := 0; i < n; i++ {
		a, b := r[i], r[i+1]
		for j := i + 1; j < n; j++ {
			c, d := r[j], r[j+1]
			adjacent := j == i+1 || (i == 0 && j == n-1)
			if !adjacent {
				if segmentsIntersect(a, b, c, d) {
					return i, j, true
				}
				continue
			}
			if j == i+1 && n > 2 && foldsBack(a, b, d) {
				return i, j, true
			}
			if i == 0 && j == n-1 && n > 2 && foldsBack(c, d, b) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
