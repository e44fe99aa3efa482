package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// LangParam selects a language explicitly, e.g. /ws?lang=pt-BR.
const LangParam = "lang"

// FromRequest picks the language for r. An explicit lang query parameter wins
// over Accept-Language; anything unusable falls back to DefaultTag.
func FromRequest(r *http.Request) language.Tag {
	if r == nil {
		return DefaultTag()
	}
	if r.URL != nil {
		if tag, ok := ParseTag(r.URL.Query().Get(LangParam)); ok {
			return tag
		}
	}
	accept := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if accept == "" {
		return DefaultTag()
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil {
		return DefaultTag()
	}
	return MatchTags(tags)
}
