// Package i18n 提供国际化支持
// 负责管理应用程序的语言包和翻译功能
package i18n

import (
	"strings"
	"sync"

	"github.com/go-playground/locales/en_US"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/weiwangfds/photometa/internal/logger"
)

// 支持的语言
const (
	LangEnUS = "en-US"
	LangZhCN = "zh-CN"
)

var (
	instance *I18n
	once     sync.Once

	// 语言包存储
	translations = map[string]map[string]string{
		LangEnUS: {
			"success":               "Success",
			"internal_server_error": "Internal Server Error",
			"invalid_params":        "Invalid Parameters",
			"not_found":             "Resource Not Found",
			"payload_too_large":     "Payload Too Large",

			"unsupported_extension": "Only JSON files can be uploaded",
			"parse_error":           "JSON parse error",
			"unsupported_shape":     "Unsupported JSON structure",
			"incomplete_record":     "Invalid data structure in JSON file",
			"io_failure":            "File storage failure",
			"file_not_found":        "File not found",

			"mirror_disabled":               "Export mirror is disabled",
			"mirror_upload_failed":          "Mirror upload failed",
			"mirror_provider_not_supported": "Mirror provider not supported",
			"mirror_log_not_found":          "Mirror log not found",

			"database_error":   "Database Error",
			"validation_error": "Record validation failed",
			"duplicate_key":    "A record with the same filename, format, size and dimensions already exists",
			"record_not_found": "Record not found",

			"record_saved":        "Record saved",
			"record_saved_export": "Record saved. JSON file created: %s",
			"record_exported":     "JSON file created: %s",
			"record_updated":      "Record updated",
			"record_deleted":      "Record deleted",
			"import_completed":    "File %s processed: %d inserted, %d duplicates, %d errors",
			"import_rejected":     "JSON file is not valid: %s",

			"unknown_error": "Unknown Error",
		},
		LangZhCN: {
			"success":               "成功",
			"internal_server_error": "服务器内部错误",
			"invalid_params":        "参数错误",
			"not_found":             "资源未找到",
			"payload_too_large":     "请求体过大",

			"unsupported_extension": "只能上传JSON文件",
			"parse_error":           "JSON解析错误",
			"unsupported_shape":     "不支持的JSON结构",
			"incomplete_record":     "JSON文件中的数据结构无效",
			"io_failure":            "文件存储失败",
			"file_not_found":        "文件未找到",

			"mirror_disabled":               "导出镜像未启用",
			"mirror_upload_failed":          "镜像上传失败",
			"mirror_provider_not_supported": "镜像存储提供商不支持",
			"mirror_log_not_found":          "镜像日志未找到",

			"database_error":   "数据库错误",
			"validation_error": "记录校验失败",
			"duplicate_key":    "已存在文件名、格式、大小和尺寸相同的记录",
			"record_not_found": "记录未找到",

			"record_saved":        "记录已保存",
			"record_saved_export": "记录已保存，已创建JSON文件: %s",
			"record_exported":     "已创建JSON文件: %s",
			"record_updated":      "记录已更新",
			"record_deleted":      "记录已删除",
			"import_completed":    "文件 %s 处理完成: 新增 %d 条, 重复 %d 条, 错误 %d 条",
			"import_rejected":     "JSON文件无效: %s",

			"unknown_error": "未知错误",
		},
	}
)

// I18n 国际化管理器
type I18n struct {
	mu          sync.RWMutex
	translators map[string]ut.Translator
	defaultLang string
}

// GetInstance 获取I18n单例
func GetInstance() *I18n {
	once.Do(func() {
		instance = &I18n{
			translators: make(map[string]ut.Translator),
			defaultLang: LangEnUS,
		}
		instance.initTranslators()
	})
	return instance
}

// initTranslators 初始化翻译器
func (i *I18n) initTranslators() {
	enUS := en_US.New()
	zhCN := zh.New()
	uni := ut.New(enUS, enUS, zhCN)

	langMappings := map[string]string{
		LangEnUS: "en_US",
		LangZhCN: "zh",
	}

	for ourLang, localeLang := range langMappings {
		trans, found := uni.GetTranslator(localeLang)
		if !found {
			logger.Errorf("translator not found for language %s (locale: %s)", ourLang, localeLang)
			continue
		}
		i.translators[ourLang] = trans
	}
	logger.Debugf("i18n translators initialized: %d", len(i.translators))
}

// Translate 根据键和语言获取翻译
func (i *I18n) Translate(key, lang string) string {
	if !i.IsSupportedLanguage(lang) {
		lang = i.GetDefaultLanguage()
	}

	if translation, found := translations[lang][key]; found {
		return translation
	}

	defaultLang := i.GetDefaultLanguage()
	if lang != defaultLang {
		if translation, found := translations[defaultLang][key]; found {
			return translation
		}
	}

	logger.Warnf("translation not found: %s, language: %s", key, lang)
	return key
}

// SetDefaultLanguage 设置默认语言，不支持的语言会被忽略
func (i *I18n) SetDefaultLanguage(lang string) {
	if !i.IsSupportedLanguage(lang) {
		logger.Warnf("unsupported default language %q, keeping %s", lang, i.GetDefaultLanguage())
		return
	}
	i.mu.Lock()
	i.defaultLang = lang
	i.mu.Unlock()
}

// GetDefaultLanguage 获取默认语言
func (i *I18n) GetDefaultLanguage() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.defaultLang
}

// IsSupportedLanguage 检查语言是否支持
func (i *I18n) IsSupportedLanguage(lang string) bool {
	_, exists := i.translators[lang]
	return exists
}

// ResolveLanguage 从 Accept-Language 请求头中选出第一个支持的语言
func (i *I18n) ResolveLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		for lang := range i.translators {
			if strings.EqualFold(lang, tag) || strings.EqualFold(strings.SplitN(lang, "-", 2)[0], tag) {
				return lang
			}
		}
	}
	return i.GetDefaultLanguage()
}
