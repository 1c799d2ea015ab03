package export

import (
	"errors"
	"fmt"

	"showcase/internal/errcode"
)

// Code 是导出失败的机器可读分类。
type Code string

const (
	CodeEmptyElement         Code = "RASTERIZE_EMPTY_ELEMENT"
	CodeCaptureFailed        Code = "RASTERIZE_CAPTURE_FAILED"
	CodeInvalidBasis         Code = "LAYOUT_INVALID_BASIS"
	CodeBackgroundLoadFailed Code = "RESOURCE_BACKGROUND_LOAD_FAILED"
	CodeEmission             Code = "EMISSION_FAILED"
)

// Error 表示导出失败，任何 Error 都会中止整次导出。
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// 供 errors.Is 使用的哨兵错误，只按 code 匹配。
var (
	ErrEmptyElement         = &Error{Code: CodeEmptyElement}
	ErrCaptureFailed        = &Error{Code: CodeCaptureFailed}
	ErrInvalidBasis         = &Error{Code: CodeInvalidBasis}
	ErrBackgroundLoadFailed = &Error{Code: CodeBackgroundLoadFailed}
	ErrEmission             = &Error{Code: CodeEmission}
)

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 匹配任何 code 相同的 *Error。
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf 返回 err 携带的导出错误码；不是导出错误时返回 ""。
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NumericCode 把 err 映射为推送给前端的数字错误码。
func NumericCode(err error) int {
	if err == nil {
		return errcode.OK
	}
	switch CodeOf(err) {
	case CodeEmptyElement, CodeCaptureFailed:
		return errcode.ExportRasterizeFailed
	case CodeInvalidBasis:
		return errcode.ExportLayoutInvalid
	case CodeBackgroundLoadFailed:
		return errcode.ExportBackgroundFailed
	case CodeEmission:
		return errcode.ExportEmissionFailed
	default:
		return errcode.SystemError
	}
}
