package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/photometa/internal/i18n"
	"github.com/weiwangfds/photometa/internal/response"
)

// Language 根据 lang 查询参数或 Accept-Language 请求头确定响应语言
func Language() gin.HandlerFunc {
	translator := i18n.GetInstance()
	return func(c *gin.Context) {
		lang := c.Query("lang")
		if !translator.IsSupportedLanguage(lang) {
			lang = translator.ResolveLanguage(c.GetHeader("Accept-Language"))
		}
		c.Set(response.LangKey, lang)
		c.Next()
	}
}
