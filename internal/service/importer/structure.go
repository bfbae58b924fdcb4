// Package importer 负责JSON文件的导入
// 包括结构校验、上传保存、逐条去重和入库
package importer

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/service/filestore"
)

// RequiredKeys 每个记录对象必须包含的键
var RequiredKeys = []string{"filename", "format", "file_size", "width", "height"}

// Verdict 结构校验结果
type Verdict struct {
	Valid   bool                `json:"valid"`
	Code    apperrors.ErrorCode `json:"code,omitempty"`
	Message string              `json:"message"`
	// Index 出错元素在数组中的下标，-1 表示不适用
	Index int `json:"index"`
	// Missing 缺少的必填键
	Missing []string `json:"missing,omitempty"`
}

// Err 将无效结论转换为应用错误，有效时返回 nil
func (v Verdict) Err() error {
	if v.Valid {
		return nil
	}
	appErr := apperrors.New(v.Code, "").WithDetails(v.Message)
	if len(v.Missing) > 0 {
		appErr.WithFields(v.Missing...)
	}
	return appErr
}

func invalid(code apperrors.ErrorCode, index int, format string, args ...interface{}) Verdict {
	return Verdict{Code: code, Index: index, Message: fmt.Sprintf(format, args...)}
}

// CheckStructure 检查解析后的JSON值是否为可导入的结构
// 只检查必填键是否存在，不检查类型和取值范围
func CheckStructure(value interface{}) Verdict {
	switch v := value.(type) {
	case map[string]interface{}:
		if missing := missingKeys(v); len(missing) > 0 {
			return Verdict{
				Code:    apperrors.ErrIncompleteRecord,
				Index:   -1,
				Missing: missing,
				Message: fmt.Sprintf("record is missing required keys: %s", strings.Join(missing, ", ")),
			}
		}
	case []interface{}:
		if len(v) == 0 {
			return invalid(apperrors.ErrUnsupportedShape, -1, "array contains no records")
		}
		for i, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return invalid(apperrors.ErrUnsupportedShape, i, "element %d is not an object", i)
			}
			if missing := missingKeys(obj); len(missing) > 0 {
				return Verdict{
					Code:    apperrors.ErrIncompleteRecord,
					Index:   i,
					Missing: missing,
					Message: fmt.Sprintf("record %d is missing required keys: %s", i, strings.Join(missing, ", ")),
				}
			}
		}
	default:
		return invalid(apperrors.ErrUnsupportedShape, -1, "top-level value must be an object or an array of objects, got %s", jsonKind(value))
	}
	return Verdict{Valid: true, Index: -1, Message: "file is valid"}
}

// CheckBytes 解析并检查JSON内容，语法错误返回 ParseError 结论
func CheckBytes(data []byte) Verdict {
	value, err := filestore.Decode(data)
	if err != nil {
		return verdictFromError(err)
	}
	return CheckStructure(value)
}

// CheckFile 读取存储中的文件并检查结构
// 读取失败返回 IOFailure 结论，从不返回 error
func CheckFile(ctx context.Context, store filestore.Store, path string) Verdict {
	value, err := store.Read(ctx, path)
	if err != nil {
		return verdictFromError(err)
	}
	return CheckStructure(value)
}

func verdictFromError(err error) Verdict {
	if appErr, ok := apperrors.GetAppError(err); ok && appErr.Code == apperrors.ErrParse {
		return invalid(apperrors.ErrParse, -1, "JSON parse error: %s", appErr.Details)
	}
	return invalid(apperrors.ErrIOFailure, -1, "failed to read file: %v", err)
}

func missingKeys(obj map[string]interface{}) []string {
	var missing []string
	for _, key := range RequiredKeys {
		if _, ok := obj[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}
