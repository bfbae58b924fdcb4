package record

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/weiwangfds/photometa/internal/database"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
)

// filenamePattern 文件名只允许字母、数字、下划线、连字符、点和空格
var filenamePattern = regexp.MustCompile(`^[\p{L}\p{N}_\-. ]+$`)

// decimalRule 十进制字段的位数与范围约束
type decimalRule struct {
	field     string
	maxDigits int
	places    int
	min, max  *decimal.Decimal
	positive  bool
}

// maxCoefficientDigits 系数位数上限，超过时不再做任何换算
const maxCoefficientDigits = 32

var (
	minLatitude    = decimal.NewFromInt(-90)
	maxLatitude    = decimal.NewFromInt(90)
	minLongitude   = decimal.NewFromInt(-180)
	maxLongitude   = decimal.NewFromInt(180)
	maxAperture    = decimal.RequireFromString("99.9")
	maxFocalLength = decimal.RequireFromString("9999.9")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("photo_filename", func(fl validator.FieldLevel) bool {
			return filenamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("photo_format", func(fl validator.FieldLevel) bool {
			format := fl.Field().String()
			for _, f := range database.SupportedFormats {
				if f == format {
					return true
				}
			}
			return false
		})
	})
	return validate
}

// Validate 规范化并校验输入字段
// 校验失败返回 ValidationError，Fields 列出所有出错字段
func Validate(in *Input) error {
	in.normalize()

	var fields, details []string

	if err := getValidator().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperrors.Wrap(apperrors.ErrValidation, "", err)
		}
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
			details = append(details, describe(fe))
		}
	}

	rules := []struct {
		value *decimal.NullDecimal
		rule  decimalRule
	}{
		{&in.Aperture, decimalRule{field: "aperture", maxDigits: 3, places: 1, positive: true, max: &maxAperture}},
		{&in.FocalLength, decimalRule{field: "focal_length", maxDigits: 5, places: 1, positive: true, max: &maxFocalLength}},
		{&in.Latitude, decimalRule{field: "latitude", maxDigits: 9, places: 6, min: &minLatitude, max: &maxLatitude}},
		{&in.Longitude, decimalRule{field: "longitude", maxDigits: 9, places: 6, min: &minLongitude, max: &maxLongitude}},
	}
	for _, r := range rules {
		if !r.value.Valid {
			continue
		}
		normalized, msg := r.rule.check(r.value.Decimal)
		if msg != "" {
			fields = append(fields, r.rule.field)
			details = append(details, fmt.Sprintf("%s: %s", r.rule.field, msg))
			continue
		}
		r.value.Decimal = normalized
	}

	if len(fields) > 0 {
		return apperrors.New(apperrors.ErrValidation, "").
			WithFields(fields...).
			WithDetails(strings.Join(details, "; "))
	}
	return nil
}

// check 校验十进制数，返回去掉小数末尾零的值和违反约束的描述
// 位数只通过系数和指数判断，范围比较在位数通过之后进行，避免按指数展开
func (r decimalRule) check(d decimal.Decimal) (decimal.Decimal, string) {
	if d.NumDigits() > maxCoefficientDigits {
		return d, fmt.Sprintf("at most %d digits in total", r.maxDigits)
	}

	coef := d.Coefficient()
	exp := int64(d.Exponent())
	if coef.Sign() == 0 {
		coef, exp = big.NewInt(0), 0
	}
	digits := strings.TrimPrefix(coef.String(), "-")
	for exp < 0 && len(digits) > 1 && strings.HasSuffix(digits, "0") {
		digits = digits[:len(digits)-1]
		coef.Quo(coef, big.NewInt(10))
		exp++
	}

	var intDigits, fracDigits int64
	if coef.Sign() != 0 {
		intDigits = int64(len(digits)) + exp
	}
	if exp < 0 {
		fracDigits = -exp
	}
	if fracDigits > int64(r.places) {
		return d, fmt.Sprintf("at most %d decimal places", r.places)
	}
	if intDigits > int64(r.maxDigits-r.places) {
		return d, fmt.Sprintf("at most %d digits in total", r.maxDigits)
	}

	normalized := decimal.NewFromBigInt(coef, int32(exp))
	if r.positive && !normalized.IsPositive() {
		return d, "must be positive"
	}
	if r.min != nil && normalized.LessThan(*r.min) {
		return d, fmt.Sprintf("must be between %s and %s", r.min.String(), r.max.String())
	}
	if r.max != nil && normalized.GreaterThan(*r.max) {
		if r.min == nil {
			return d, fmt.Sprintf("must not exceed %s", r.max.String())
		}
		return d, fmt.Sprintf("must be between %s and %s", r.min.String(), r.max.String())
	}
	return normalized, ""
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: at most %s characters", fe.Field(), fe.Param())
	case "photo_filename":
		return fmt.Sprintf("%s: contains invalid characters", fe.Field())
	case "photo_format":
		return fmt.Sprintf("%s: must be one of %s", fe.Field(), strings.Join(database.SupportedFormats, ", "))
	default:
		return fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
	}
}
