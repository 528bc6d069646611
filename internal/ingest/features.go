// 包 ingest：GeoJSON 要素集合的批量导入，逐条走解码 → 校验 → 量测 → 入库
package ingest

import (
	"encoding/json"
	"io"
	"strings"

	"landplot/internal/errkind"
)

// Feature：待导入的一条要素；Index 为其在输入中的位置（从 0 开始）
type Feature struct {
	Index      int
	Name       string
	Owner      string
	Geometry   json.RawMessage
	Properties json.RawMessage
}

type rawFeature struct {
	Type       string                     `json:"type"`
	Geometry   json.RawMessage            `json:"geometry"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type rawDocument struct {
	rawFeature
	Features []rawFeature `json:"features"`
}

// 文档注释：解析要素集合
// 背景：兼容原有导入文件格式，properties 中的 name/owner 为必填字段，
// 元数据优先取 properties.properties，不存在时取其余属性键。
// 约束：接受 FeatureCollection 或单个 Feature；整体无法解析时返回 ErrDecode，单条要素的问题留到导入阶段逐条报告。
func ParseFeatureCollection(r io.Reader) ([]Feature, error) {
	var doc rawDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errkind.Decode(err, "feature collection")
	}
	var raws []rawFeature
	switch strings.ToLower(doc.Type) {
	case "featurecollection":
		raws = doc.Features
	case "feature":
		raws = []rawFeature{doc.rawFeature}
	default:
		return nil, errkind.Decode(nil, "expected FeatureCollection or Feature, got %q", doc.Type)
	}
	out := make([]Feature, 0, len(raws))
	for i, rf := range raws {
		out = append(out, toFeature(i, rf))
	}
	return out, nil
}

func toFeature(i int, rf rawFeature) Feature {
	f := Feature{Index: i, Geometry: rf.Geometry}
	rest := map[string]json.RawMessage{}
	for k, v := range rf.Properties {
		switch k {
		case "name":
			f.Name = stringValue(v)
		case "owner":
			f.Owner = stringValue(v)
		default:
			rest[k] = v
		}
	}
	if meta, ok := rest["properties"]; ok && isObject(meta) {
		f.Properties = meta
	} else if len(rest) > 0 {
		f.Properties, _ = json.Marshal(rest)
	}
	return f
}

// stringValue：JSON 字符串取其值，其他类型视为缺失
func stringValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

func isObject(v json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(v, &obj) == nil && obj != nil
}
