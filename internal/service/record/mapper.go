package record

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
)

// ServerAssignedFields 由服务端分配的字段，从不接受外部输入
var ServerAssignedFields = []string{"id", "created_date"}

// 输入时间支持的格式，datetime-local 表单不带秒和时区
var captureDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type fieldSetter func(in *Input, v interface{}) error

// allowedFields 允许的输入字段及其类型转换
var allowedFields = map[string]fieldSetter{
	"filename":      stringField(func(in *Input, s string) { in.Filename = s }),
	"format":        stringField(func(in *Input, s string) { in.Format = s }),
	"camera_make":   stringField(func(in *Input, s string) { in.CameraMake = s }),
	"camera_model":  stringField(func(in *Input, s string) { in.CameraModel = s }),
	"exposure_time": stringField(func(in *Input, s string) { in.ExposureTime = s }),
	"description":   stringField(func(in *Input, s string) { in.Description = s }),
	"tags":          stringField(func(in *Input, s string) { in.Tags = s }),

	"file_size": intField(func(in *Input, n int64) { in.FileSize = n }),
	"width":     int32Field(func(in *Input, n int) { in.Width = n }),
	"height":    int32Field(func(in *Input, n int) { in.Height = n }),
	"iso": int32Field(func(in *Input, n int) {
		in.ISO = &n
	}),

	"aperture":     decimalField(func(in *Input, d decimal.NullDecimal) { in.Aperture = d }),
	"focal_length": decimalField(func(in *Input, d decimal.NullDecimal) { in.FocalLength = d }),
	"latitude":     decimalField(func(in *Input, d decimal.NullDecimal) { in.Latitude = d }),
	"longitude":    decimalField(func(in *Input, d decimal.NullDecimal) { in.Longitude = d }),
	"capture_date": timeField(func(in *Input, t *time.Time) { in.CaptureDate = t }),
}

// MapFields 将未受信任的键值对转换为输入
// 服务端字段被忽略；未知字段或类型转换失败返回 ValidationError，并列出所有出错字段
func MapFields(fields map[string]interface{}) (*Input, error) {
	in := &Input{}
	var unknown, invalid []string
	var details []string

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if isServerAssigned(key) {
			continue
		}
		setter, ok := allowedFields[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if err := setter(in, fields[key]); err != nil {
			invalid = append(invalid, key)
			details = append(details, fmt.Sprintf("%s: %v", key, err))
		}
	}

	if len(unknown) > 0 {
		details = append([]string{"unknown fields: " + strings.Join(unknown, ", ")}, details...)
	}
	if len(unknown) > 0 || len(invalid) > 0 {
		return nil, apperrors.New(apperrors.ErrValidation, "").
			WithFields(append(unknown, invalid...)...).
			WithDetails(strings.Join(details, "; "))
	}
	return in, nil
}

func isServerAssigned(key string) bool {
	for _, k := range ServerAssignedFields {
		if k == key {
			return true
		}
	}
	return false
}

func stringField(set func(*Input, string)) fieldSetter {
	return func(in *Input, v interface{}) error {
		switch s := v.(type) {
		case nil:
			return nil
		case string:
			set(in, s)
			return nil
		default:
			return fmt.Errorf("expected string, got %T", v)
		}
	}
}

func intField(set func(*Input, int64), bounds ...int64) fieldSetter {
	return func(in *Input, v interface{}) error {
		n, present, err := toInt(v)
		if err != nil {
			return err
		}
		if present && len(bounds) == 2 && (n < bounds[0] || n > bounds[1]) {
			return fmt.Errorf("integer %d out of range", n)
		}
		if present {
			set(in, n)
		}
		return nil
	}
}

// int32Field 用于映射到 int 列的字段，超出 32 位范围视为类型错误
func int32Field(set func(*Input, int)) fieldSetter {
	return intField(func(in *Input, n int64) {
		set(in, int(n))
	}, math.MinInt32, math.MaxInt32)
}

func decimalField(set func(*Input, decimal.NullDecimal)) fieldSetter {
	return func(in *Input, v interface{}) error {
		d, present, err := toDecimal(v)
		if err != nil {
			return err
		}
		if present {
			set(in, decimal.NullDecimal{Decimal: d, Valid: true})
		}
		return nil
	}
}

func timeField(set func(*Input, *time.Time)) fieldSetter {
	return func(in *Input, v interface{}) error {
		switch t := v.(type) {
		case nil:
			return nil
		case time.Time:
			set(in, &t)
			return nil
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				return nil
			}
			for _, layout := range captureDateLayouts {
				if parsed, err := time.Parse(layout, s); err == nil {
					set(in, &parsed)
					return nil
				}
			}
			return fmt.Errorf("invalid timestamp %q", s)
		default:
			return fmt.Errorf("expected timestamp string, got %T", v)
		}
	}
}

// toInt 转换整数，空字符串视为未提供
func toInt(v interface{}) (int64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("expected integer, got %s", n.String())
		}
		return i, true, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt64 {
			return 0, false, fmt.Errorf("expected integer, got %v", n)
		}
		return int64(n), true, nil
	case int:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false, nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("expected integer, got %q", s)
		}
		return i, true, nil
	default:
		return 0, false, fmt.Errorf("expected integer, got %T", v)
	}
}

// toDecimal 转换十进制数，空字符串视为未提供
func toDecimal(v interface{}) (decimal.Decimal, bool, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Decimal{}, false, nil
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Decimal{}, false, fmt.Errorf("expected decimal, got %s", n.String())
		}
		return d, true, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false, fmt.Errorf("expected decimal, got %v", n)
		}
		return decimal.NewFromFloat(n), true, nil
	case int:
		return decimal.NewFromInt(int64(n)), true, nil
	case int64:
		return decimal.NewFromInt(n), true, nil
	case decimal.Decimal:
		return n, true, nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return decimal.Decimal{}, false, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false, fmt.Errorf("expected decimal, got %q", s)
		}
		return d, true, nil
	default:
		return decimal.Decimal{}, false, fmt.Errorf("expected decimal, got %T", v)
	}
}
