package geometry

import (
	"landplot/internal/errkind"

	"github.com/twpayne/go-geom/encoding/wkb"
)

// 文档注释：存储用二进制形式（小端 WKB Polygon）
// 背景：坐标以 IEEE-754 双精度原样写入，往返逐位一致；与 PostGIS 的 WKB 兼容，便于后续迁移。
// 约束：仅写单环多边形；读取时与解码交换格式同样拒绝多环与非多边形。
func ToStorageBytes(r Ring) ([]byte, error) {
	return wkb.Marshal(toPolygon(r), wkb.NDR)
}

func FromStorageBytes(b []byte) (Ring, error) {
	if len(b) == 0 {
		return nil, errkind.Decode(nil, "stored geometry is empty")
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, errkind.Decode(err, "wkb")
	}
	return fromGeomT(g)
}
