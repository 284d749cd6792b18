package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleFR      = "fr-FR"
	LocaleEN      = "en-US"
	DefaultLocale = LocaleFR
)

var (
	supportedTags = []language.Tag{language.French, language.AmericanEnglish}
	matcher       = language.NewMatcher(supportedTags)
)

var catalogs = map[string]map[string]string{
	LocaleFR: messagesFR,
	LocaleEN: messagesEN,
}

// ResolveLocale 解析请求语言：query lang > X-Locale > Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	if lang := strings.TrimSpace(c.GetHeader("X-Locale")); lang != "" {
		return NormalizeLocale(lang)
	}
	return MatchAcceptLanguage(c.GetHeader("Accept-Language"))
}

// MatchAcceptLanguage 将 Accept-Language 头匹配到支持的语言
func MatchAcceptLanguage(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return localeForIndex(index)
}

// NormalizeLocale 规范化语言标识（fr / fr_BJ / en-GB 等）
func NormalizeLocale(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultLocale
	}
	return localeForIndex(index)
}

// T 获取翻译文本，缺失时回退到默认语言，再回退到 key
func T(locale, key string) string {
	if catalog, ok := catalogs[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 获取翻译模板并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Has 判断 key 是否存在
func Has(key string) bool {
	_, ok := catalogs[DefaultLocale][key]
	return ok
}

func localeForIndex(index int) string {
	if index == 1 {
		return LocaleEN
	}
	return LocaleFR
}
