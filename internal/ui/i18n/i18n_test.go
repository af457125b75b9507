package i18n

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
)

func newTestBundle(t *testing.T) *Bundle {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := NewBundle(logger)
	if err := LoadFromEmbedFS(b, logger); err != nil {
		t.Fatalf("LoadFromEmbedFS: %v", err)
	}
	return b
}

// TestCatalogsHaveSameKeys — каталоги всех языков содержат одинаковые ключи.
func TestCatalogsHaveSameKeys(t *testing.T) {
	b := newTestBundle(t)

	base := b.Keys(DefaultLang)
	if !sort.StringsAreSorted(base) {
		t.Error("Keys() должен возвращать отсортированные ключи")
	}
	if len(base) == 0 {
		t.Fatal("каталог по умолчанию пуст")
	}

	for _, lang := range Languages {
		for _, key := range base {
			if !b.Has(lang, key) {
				t.Errorf("[%s] нет ключа %q", lang, key)
			}
		}
		if got := len(b.Keys(lang)); got != len(base) {
			t.Errorf("[%s] ключей %d, ожидается %d", lang, got, len(base))
		}
	}
}

// TestFormatPlaceholders — в переводах одинаковое число подстановок.
func TestFormatPlaceholders(t *testing.T) {
	b := newTestBundle(t)
	for _, key := range b.Keys(DefaultLang) {
		want := strings.Count(b.Translate(DefaultLang, key), "%")
		for _, lang := range Languages {
			if got := strings.Count(b.Translate(lang, key), "%"); got != want {
				t.Errorf("[%s] %q: подстановок %d, ожидается %d", lang, key, got, want)
			}
		}
	}
}

func TestTranslateFallback(t *testing.T) {
	b := NewBundle(nil)
	if err := b.LoadMessages("uk", []byte(`{"a":"А","b":"Б"}`)); err != nil {
		t.Fatal(err)
	}
	if err := b.LoadMessages("en", []byte(`{"a":"A"}`)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		lang, key, want string
	}{
		{"en", "a", "A"},
		{"en", "b", "Б"},
		{"uk", "missing", "missing"},
		{"de", "a", "А"},
	}
	for _, tt := range tests {
		if got := b.Translate(tt.lang, tt.key); got != tt.want {
			t.Errorf("Translate(%q, %q) = %q, хотели %q", tt.lang, tt.key, got, tt.want)
		}
	}

	if got := b.Translatef("uk", "x %d", 5); got != "x 5" {
		t.Errorf("Translatef = %q", got)
	}
}

func TestMissingKeyLoggedOnce(t *testing.T) {
	var buf strings.Builder
	b := NewBundle(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := b.LoadMessages("uk", []byte(`{"a":"А"}`)); err != nil {
		t.Fatal(err)
	}

	for range 3 {
		b.Translate("en", "menu.nope")
	}
	b.Translate("uk", "a")

	if got := strings.Count(buf.String(), "menu.nope"); got != 1 {
		t.Errorf("предупреждений о ключе %d, ожидается 1", got)
	}
}

func TestLoadMessagesInvalidJSON(t *testing.T) {
	b := NewBundle(nil)
	if err := b.LoadMessages("uk", []byte(`{`)); err == nil {
		t.Error("ожидается ошибка парсинга")
	}
}

func TestLangFromContextDefault(t *testing.T) {
	if got := LangFromContext(context.Background()); got != DefaultLang {
		t.Errorf("LangFromContext = %q, ожидается %q", got, DefaultLang)
	}
	if got := LangFromContext(WithLang(context.Background(), "en")); got != "en" {
		t.Errorf("LangFromContext = %q, ожидается en", got)
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept string
		want   string
		ok     bool
	}{
		{"en-US,en;q=0.9", "en", true},
		{"uk-UA,uk;q=0.9,en;q=0.5", "uk", true},
		{"ja", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchLanguage(tt.accept)
		if ok != tt.ok || got != tt.want {
			t.Errorf("MatchLanguage(%q) = %q, %v; хотели %q, %v", tt.accept, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMiddlewareDetection(t *testing.T) {
	var seen string
	handler := Middleware("uk")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = LangFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"cookie важнее заголовка", "en", "uk", "en"},
		{"неподдерживаемая cookie игнорируется", "de", "en-GB", "en"},
		{"Accept-Language", "", "en", "en"},
		{"по умолчанию", "", "", "uk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if seen != tt.want {
				t.Errorf("язык = %q, ожидается %q", seen, tt.want)
			}
			if got := rec.Header().Get("Content-Language"); got != tt.want {
				t.Errorf("Content-Language = %q, ожидается %q", got, tt.want)
			}
		})
	}
}
