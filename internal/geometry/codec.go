package geometry

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"landplot/internal/errkind"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// SRID：唯一支持的坐标参考系（WGS84 经纬度）
const SRID = 4326

const sridPrefix = "SRID="

// 文档注释：解码交换格式几何为规范环
// 背景：交换格式以 GeoJSON Polygon 为主，兼容裸坐标列表 [[x,y],...] 与旧版 WKT/EWKT 文本（可放在 JSON 字符串中）。
// 约束：仅接受单环简单多边形；洞、MultiPolygon、其他几何类型、嵌套裸列表一律返回 ErrDecode；
// 多余的 Z/M 分量被丢弃；闭合与顶点数等检查留给校验器。
func Decode(raw []byte) (Ring, error) {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errkind.Decode(nil, "geometry is empty")
	}
	switch data[0] {
	case '{':
		return decodeGeoJSON(data)
	case '[':
		return decodeCoordList(data)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, errkind.Decode(err, "geometry string")
		}
		return DecodeWKT(s)
	default:
		return DecodeWKT(string(data))
	}
}

func decodeGeoJSON(data []byte) (Ring, error) {
	var head struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errkind.Decode(err, "geojson")
	}
	if !strings.EqualFold(head.Type, "Polygon") {
		return nil, errkind.Decode(nil, "geometry type %q is not supported, expected Polygon", head.Type)
	}
	if len(head.Coordinates) == 0 || bytes.Equal(head.Coordinates, []byte("null")) {
		return nil, errkind.Decode(nil, "polygon has no coordinates")
	}
	var rings [][][]float64
	if err := json.Unmarshal(head.Coordinates, &rings); err != nil {
		return nil, errkind.Decode(err, "polygon coordinates")
	}
	for ri, ring := range rings {
		for i, p := range ring {
			if len(p) < 2 {
				return nil, errkind.Decode(nil, "ring %d coordinate %d has %d ordinates, expected 2", ri, i, len(p))
			}
		}
	}
	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return nil, errkind.Decode(err, "geojson polygon")
	}
	return fromGeomT(g)
}

func decodeCoordList(data []byte) (Ring, error) {
	var pairs [][]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, errkind.Decode(err, "coordinate list must be a flat list of [x, y] pairs")
	}
	out := make(Ring, 0, len(pairs))
	for i, p := range pairs {
		if len(p) < 2 {
			return nil, errkind.Decode(nil, "coordinate %d has %d ordinates, expected 2", i, len(p))
		}
		out = append(out, Coord{X: p[0], Y: p[1]})
	}
	return out, nil
}

// DecodeWKT：解析 WKT 或带 SRID 前缀的 EWKT，例如 SRID=4326;POLYGON((0 0,0 1,1 1,1 0,0 0))
func DecodeWKT(s string) (Ring, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errkind.Decode(nil, "geometry is empty")
	}
	if len(s) >= len(sridPrefix) && strings.EqualFold(s[:len(sridPrefix)], sridPrefix) {
		end := strings.Index(s, ";")
		if end == -1 {
			return nil, errkind.Decode(nil, "missing ; after SRID declaration: %q", s)
		}
		srid, err := strconv.Atoi(strings.TrimSpace(s[len(sridPrefix):end]))
		if err != nil {
			return nil, errkind.Decode(err, "srid")
		}
		if srid != 0 && srid != SRID {
			return nil, errkind.Decode(nil, "srid %d is not supported, expected %d", srid, SRID)
		}
		s = s[end+1:]
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, errkind.Decode(err, "wkt")
	}
	return fromGeomT(g)
}

// fromGeomT：从 go-geom 几何中取出唯一外环
func fromGeomT(g geom.T) (Ring, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		switch n := t.NumLinearRings(); {
		case n == 0:
			return nil, errkind.Decode(nil, "polygon has no rings")
		case n > 1:
			return nil, errkind.Decode(nil, "polygon has %d rings, holes are not supported", n)
		}
		lr := t.LinearRing(0)
		return ringFromFlat(lr.FlatCoords(), lr.Stride()), nil
	case *geom.MultiPolygon:
		return nil, errkind.Decode(nil, "multipolygon is not supported")
	case nil:
		return nil, errkind.Decode(nil, "geometry is empty")
	default:
		return nil, errkind.Decode(nil, "geometry type %T is not supported, expected Polygon", g)
	}
}

// toPolygon：规范环转 go-geom 多边形
func toPolygon(r Ring) *geom.Polygon {
	flat := r.flat()
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(SRID)
}

// Encode：规范环编码为 GeoJSON Polygon
func Encode(r Ring) (json.RawMessage, error) {
	b, err := geojson.Marshal(toPolygon(r))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
