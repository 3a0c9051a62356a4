// Package i18n holds the fr/en/es message tables and language negotiation helpers.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLang is used whenever no supported language can be negotiated.
const DefaultLang = "fr"

// Supported lists the languages with a message table, in matcher preference order.
var Supported = []string{"fr", "en", "es"}

var matcher = language.NewMatcher([]language.Tag{language.French, language.English, language.Spanish})

type ctxKey struct{}

// WithLang stores the negotiated language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, Normalize(lang))
}

// LangFromContext returns the language stored by WithLang or DefaultLang.
func LangFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}

// IsSupported reports whether lang has its own message table.
func IsSupported(lang string) bool {
	_, ok := messages[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}

// Normalize lowercases lang and maps anything unsupported to DefaultLang.
func Normalize(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if _, ok := messages[l]; ok {
		return l
	}
	return DefaultLang
}

// DetectLanguage picks the best supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	return Supported[idx]
}

// T translates code for lang, falling back to French and then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[Normalize(lang)]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}
