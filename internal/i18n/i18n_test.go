package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	i := GetInstance()

	assert.Equal(t, "Record not found", i.Translate("record_not_found", LangEnUS))
	assert.Equal(t, "记录未找到", i.Translate("record_not_found", LangZhCN))
	// 不支持的语言回退到默认语言
	assert.Equal(t, i.Translate("record_not_found", i.GetDefaultLanguage()), i.Translate("record_not_found", "ru-RU"))
	assert.Equal(t, "no_such_key", i.Translate("no_such_key", LangEnUS))
}

func TestResolveLanguage(t *testing.T) {
	i := GetInstance()

	assert.Equal(t, LangZhCN, i.ResolveLanguage("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, LangZhCN, i.ResolveLanguage("zh;q=0.9"))
	assert.Equal(t, LangEnUS, i.ResolveLanguage("en-US"))
	assert.Equal(t, i.GetDefaultLanguage(), i.ResolveLanguage("fr-FR"))
	assert.Equal(t, i.GetDefaultLanguage(), i.ResolveLanguage(""))
}
