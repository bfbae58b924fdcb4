package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
)

// LangKey gin上下文中保存请求语言的键
const LangKey = "lang"

// Response 统一返回值结构体
type Response struct {
	// 状态码，0表示成功，非0表示失败
	Code int `json:"code"`
	// 响应消息
	Message string `json:"message"`
	// 响应数据
	Data interface{} `json:"data,omitempty"`
	// 请求ID，用于链路追踪
	RequestID string `json:"request_id,omitempty"`
	// 时间戳
	Timestamp int64 `json:"timestamp"`
}

// ErrorData 错误响应附带的数据
type ErrorData struct {
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "success", data)
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      0,
		Message:   message,
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: now().Unix(),
	})
}

// Created 201成功响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:      0,
		Message:   message,
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: now().Unix(),
	})
}

// Error 错误响应
func Error(c *gin.Context, httpStatus int, code int, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: now().Unix(),
	})
}

// InternalServerError 500错误响应
func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, int(apperrors.ErrInternalServer), message, nil)
}

// FromError 将错误转换为统一错误响应
// 应用错误按错误码映射HTTP状态码，消息使用请求语言；其他错误一律返回500
func FromError(c *gin.Context, err error) {
	appErr, ok := apperrors.GetAppError(err)
	if !ok {
		_ = c.Error(err)
		InternalServerError(c, apperrors.GetErrorMessageWithLang(apperrors.ErrInternalServer, Lang(c)))
		return
	}

	var data interface{}
	if appErr.Details != "" || len(appErr.Fields) > 0 {
		data = ErrorData{Details: appErr.Details, Fields: appErr.Fields}
	}
	Error(c, HTTPStatus(appErr.Code), int(appErr.Code), apperrors.GetErrorMessageWithLang(appErr.Code, Lang(c)), data)
}

// HTTPStatus 错误码对应的HTTP状态码
func HTTPStatus(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrInvalidParams, apperrors.ErrParse, apperrors.ErrUnsupportedShape,
		apperrors.ErrIncompleteRecord, apperrors.ErrMirrorDisabled:
		return http.StatusBadRequest
	case apperrors.ErrNotFound, apperrors.ErrFileNotFound, apperrors.ErrRecordNotFound,
		apperrors.ErrMirrorLogNotFound:
		return http.StatusNotFound
	case apperrors.ErrDuplicateKey:
		return http.StatusConflict
	case apperrors.ErrPayloadTooLarge, apperrors.ErrFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperrors.ErrUnsupportedExtension:
		return http.StatusUnsupportedMediaType
	case apperrors.ErrValidation:
		return http.StatusUnprocessableEntity
	case apperrors.ErrMirrorUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Lang 获取请求语言，未设置时返回空串，由i18n回退到默认语言
func Lang(c *gin.Context) string {
	return c.GetString(LangKey)
}

// getRequestID 获取请求ID
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("trace_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// now 便于测试时替换
var now = time.Now
