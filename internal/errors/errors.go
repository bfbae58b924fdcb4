package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/weiwangfds/photometa/internal/i18n"
)

// ErrorCode 错误码类型
type ErrorCode int

// 定义错误码常量
const (
	// 通用错误码 (1000-1999)
	ErrSuccess         ErrorCode = 0    // 成功
	ErrInternalServer  ErrorCode = 1000 // 服务器内部错误
	ErrInvalidParams   ErrorCode = 1001 // 参数错误
	ErrNotFound        ErrorCode = 1004 // 资源未找到
	ErrPayloadTooLarge ErrorCode = 1008 // 请求体过大

	// 文件与导入相关错误码 (2000-2999)
	ErrFileNotFound         ErrorCode = 2000 // 文件未找到
	ErrUnsupportedExtension ErrorCode = 2001 // 扩展名不是 .json
	ErrParse                ErrorCode = 2002 // JSON 解析失败
	ErrUnsupportedShape     ErrorCode = 2003 // 顶层结构不支持
	ErrIncompleteRecord     ErrorCode = 2004 // 缺少必填键
	ErrIOFailure            ErrorCode = 2005 // 存储读写失败
	ErrFileTooLarge         ErrorCode = 2006 // 文件大小超限

	// 导出镜像相关错误码 (3000-3999)
	ErrMirrorDisabled            ErrorCode = 3000 // 镜像未启用
	ErrMirrorUploadFailed        ErrorCode = 3003 // 镜像上传失败
	ErrMirrorProviderUnsupported ErrorCode = 3008 // 镜像提供商不支持
	ErrMirrorLogNotFound         ErrorCode = 3009 // 镜像日志未找到

	// 记录相关错误码 (4000-4999)
	ErrDatabase       ErrorCode = 4000 // 数据库错误
	ErrValidation     ErrorCode = 4001 // 字段校验失败
	ErrDuplicateKey   ErrorCode = 4002 // 唯一键冲突
	ErrRecordNotFound ErrorCode = 4006 // 记录未找到
)

// AppError 应用错误结构体
type AppError struct {
	// 错误码
	Code ErrorCode `json:"code"`
	// 错误消息
	Message string `json:"message"`
	// 详细错误信息
	Details string `json:"details,omitempty"`
	// 校验失败的字段名
	Fields []string `json:"fields,omitempty"`
	// 原始错误
	OriginalError error `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误，便于 errors.Is / errors.As 链式判断
func (e *AppError) Unwrap() error {
	return e.OriginalError
}

// WithDetails 添加详细错误信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithFields 记录出错的字段
func (e *AppError) WithFields(fields ...string) *AppError {
	e.Fields = append(e.Fields, fields...)
	return e
}

// WithOriginalError 添加原始错误
func (e *AppError) WithOriginalError(err error) *AppError {
	e.OriginalError = err
	if e.Details == "" && err != nil {
		e.Details = err.Error()
	}
	return e
}

// New 创建新的应用错误
// message 为空时使用默认语言的错误码描述
func New(code ErrorCode, message string) *AppError {
	if message == "" {
		message = GetErrorMessage(code)
	}
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf 创建带格式化详情的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, "").WithDetails(fmt.Sprintf(format, args...))
}

// NewWithDetails 创建带详细信息的应用错误
func NewWithDetails(code ErrorCode, message string, details string) *AppError {
	return New(code, message).WithDetails(details)
}

// Wrap 包装原始错误
func Wrap(code ErrorCode, message string, err error) *AppError {
	return New(code, message).WithOriginalError(err)
}

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := GetAppError(err)
	return ok
}

// GetAppError 从错误链中提取应用错误
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is 判断错误链中是否包含指定错误码的应用错误
func Is(err error, code ErrorCode) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}

// 错误码到i18n键的映射
var errorCodeToKeyMap = map[ErrorCode]string{
	ErrSuccess:         "success",
	ErrInternalServer:  "internal_server_error",
	ErrInvalidParams:   "invalid_params",
	ErrNotFound:        "not_found",
	ErrPayloadTooLarge: "payload_too_large",

	ErrFileNotFound:         "file_not_found",
	ErrUnsupportedExtension: "unsupported_extension",
	ErrParse:                "parse_error",
	ErrUnsupportedShape:     "unsupported_shape",
	ErrIncompleteRecord:     "incomplete_record",
	ErrIOFailure:            "io_failure",
	ErrFileTooLarge:         "payload_too_large",

	ErrMirrorDisabled:            "mirror_disabled",
	ErrMirrorUploadFailed:        "mirror_upload_failed",
	ErrMirrorProviderUnsupported: "mirror_provider_not_supported",
	ErrMirrorLogNotFound:         "mirror_log_not_found",

	ErrDatabase:       "database_error",
	ErrValidation:     "validation_error",
	ErrDuplicateKey:   "duplicate_key",
	ErrRecordNotFound: "record_not_found",
}

// GetErrorMessage 根据错误码获取错误消息（使用默认语言）
func GetErrorMessage(code ErrorCode) string {
	return GetErrorMessageWithLang(code, i18n.GetInstance().GetDefaultLanguage())
}

// GetErrorMessageWithLang 根据错误码和语言获取错误消息
func GetErrorMessageWithLang(code ErrorCode, lang string) string {
	key, exists := errorCodeToKeyMap[code]
	if !exists {
		key = "unknown_error"
	}
	return i18n.GetInstance().Translate(key, lang)
}
