package content

import (
	"strings"
	"testing"
)

func TestDocumentsRendersMarkdown(t *testing.T) {
	html, err := Documents("uk", "uk")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if !strings.Contains(html, "<h2>") || !strings.Contains(html, "<ol>") {
		t.Errorf("ожидается HTML с заголовком и списком, получено:\n%s", html)
	}
	if !strings.Contains(html, "ЄДР") {
		t.Error("ожидается украинский текст")
	}
}

func TestDocumentsFallback(t *testing.T) {
	en, err := Documents("en", "uk")
	if err != nil {
		t.Fatalf("Documents(en): %v", err)
	}
	if !strings.Contains(en, "Tender winner documents") {
		t.Error("ожидается английская памятка")
	}

	fallback, err := Documents("pl", "uk")
	if err != nil {
		t.Fatalf("Documents(pl): %v", err)
	}
	uk, _ := Documents("uk", "uk")
	if fallback != uk {
		t.Error("для неизвестного языка ожидается памятка на языке по умолчанию")
	}
}

func TestDocumentsMissingFallback(t *testing.T) {
	if _, err := Documents("pl", "de"); err == nil {
		t.Error("ожидается ошибка, если нет ни языка, ни fallback")
	}
}
