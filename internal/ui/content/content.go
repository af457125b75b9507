// Пакет content — встроенные справочные тексты кабинета заявителя.
// Markdown конвертируется в HTML через goldmark; сырой HTML во входе
// экранируется (WithUnsafe не включён).
package content

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed docs/*.md
var docsFS embed.FS

var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// cache — lang → готовый HTML.
var cache sync.Map

// Documents возвращает HTML-памятку по документам на языке lang.
// Для языка без памятки используется fallback.
func Documents(lang, fallback string) (string, error) {
	if cached, ok := cache.Load(lang); ok {
		return cached.(string), nil
	}

	source, err := docsFS.ReadFile("docs/" + lang + ".md")
	if err != nil {
		if lang == fallback {
			return "", fmt.Errorf("памятка по документам: %w", err)
		}
		return Documents(fallback, fallback)
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("конвертация памятки %s: %w", lang, err)
	}

	rendered := buf.String()
	cache.Store(lang, rendered)
	return rendered, nil
}
