// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"text/template"

	platformi18n "github.com/louisbranch/estimate.space/internal/platform/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

const keyPrefix = "errors."

// Catalog renders error message templates for a specific locale.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
}

// GetCatalog returns the catalog for tag.
// Falls back to en-US if the tag is not supported.
func GetCatalog(tag language.Tag) *Catalog {
	resolved := platformi18n.MatchTags([]language.Tag{tag})
	return &Catalog{tag: resolved, printer: message.NewPrinter(resolved)}
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.tag.String()
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	key := keyPrefix + code
	tmpl := c.printer.Sprintf(key)
	if tmpl == key {
		return code
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

func register(tag language.Tag, messages map[Code]string) {
	for code, text := range messages {
		if err := message.SetString(tag, keyPrefix+code, text); err != nil {
			panic(err)
		}
	}
}
