// 包 errkind：地块几何处理链路的错误分类，调用方据此区分缺字段/解码/校验/未找到/存储等失败
package errkind

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// 分类标记：具体错误通过 errors.Mark 挂载，errors.Is 可穿透任意层包装识别
var (
	ErrMissingField = errors.New("missing field")
	ErrDecode       = errors.New("decode error")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrStorage      = errors.New("storage error")
)

// 稳定的分类名，用于导入报告与指标标签
const (
	KindMissingField = "missing_field"
	KindDecode       = "decode"
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindDuplicateKey = "duplicate_key"
	KindStorage      = "storage"
	KindUnknown      = "unknown"
)

// Reason：校验失败的具体原因
type Reason string

const (
	NotClosed           Reason = "not_closed"
	TooFewVertices      Reason = "too_few_vertices"
	NonFiniteCoordinate Reason = "non_finite_coordinate"
	SelfIntersecting    Reason = "self_intersecting"
)

// ValidationError：携带原因的校验错误，经 errors.As 取回
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return "validation failed: " + string(e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Reason, e.Detail)
}

// Invalid：构造带分类标记的校验错误
func Invalid(reason Reason, format string, args ...any) error {
	ve := &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
	return errors.Mark(errors.WithStack(ve), ErrValidation)
}

// Missing：必填字段缺失
func Missing(field string) error {
	return errors.Mark(errors.Newf("%s is required", field), ErrMissingField)
}

// Decode：几何解码失败；cause 可为空
func Decode(cause error, format string, args ...any) error {
	if cause == nil {
		return errors.Mark(errors.Newf(format, args...), ErrDecode)
	}
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrDecode)
}

// NotFound：按 id 查找失败
func NotFound(id int64) error {
	return errors.Mark(errors.Newf("plot %d not found", id), ErrNotFound)
}

// Duplicate：唯一约束冲突
func Duplicate(cause error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrDuplicateKey)
}

// transientMarker：超时/取消导致的存储失败，可由调用方重试
var transientMarker = errors.New("transient")

// Storage：存储层失败；上下文超时或取消额外标记为瞬时错误
func Storage(cause error, op string) error {
	err := errors.Mark(errors.Wrapf(cause, "storage %s", op), ErrStorage)
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		err = errors.Mark(err, transientMarker)
	}
	return err
}

// IsTransient：存储错误是否为瞬时失败
func IsTransient(err error) bool {
	return errors.Is(err, transientMarker)
}

// ReasonOf：提取校验原因，非校验错误返回空串
func ReasonOf(err error) Reason {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

// Of：返回错误的分类名
func Of(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingField):
		return KindMissingField
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateKey):
		return KindDuplicateKey
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindUnknown
	}
}
