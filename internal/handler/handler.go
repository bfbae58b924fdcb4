// Package handler 提供照片元数据管理的HTTP处理器
// 处理器只负责参数解析和响应转换，业务逻辑在 service 包中
package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/i18n"
	"github.com/weiwangfds/photometa/internal/response"
	"github.com/weiwangfds/photometa/internal/service/filestore"
)

// maxFormMemory 解析multipart表单时使用的内存上限
const maxFormMemory = 32 << 20

// parseID 解析路径中的记录ID
func parseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.New(apperrors.ErrInvalidParams, "").
			WithDetails(fmt.Sprintf("invalid %s: %q", name, raw)).WithFields(name)
	}
	return uint(id), nil
}

// bindFields 将JSON或表单请求体读取为键值对
// JSON 请求体必须是一个对象，数字保留为 json.Number
func bindFields(c *gin.Context) (map[string]interface{}, error) {
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidParams, "", err)
		}
		value, err := filestore.Decode(body)
		if err != nil {
			return nil, err
		}
		fields, ok := value.(map[string]interface{})
		if !ok {
			return nil, apperrors.New(apperrors.ErrUnsupportedShape, "").WithDetails("request body must be a JSON object")
		}
		return fields, nil
	}

	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && err != http.ErrNotMultipart {
		return nil, apperrors.Wrap(apperrors.ErrInvalidParams, "", err).WithDetails(err.Error())
	}
	fields := make(map[string]interface{}, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields, nil
}

// translate 返回请求语言下的消息
func translate(c *gin.Context, key string, args ...interface{}) string {
	msg := i18n.GetInstance().Translate(key, response.Lang(c))
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
