// Пакет i18n — переводы интерфейса портала (uk основной, en).
// Язык запроса хранится в контексте; страницы берут строки через T и Tf.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/text/language"
)

// missingTotal — обращения к ключам без перевода, по языку.
var missingTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tp_i18n_missing_total",
	Help: "Обращения к ключам перевода, отсутствующим во всех каталогах.",
}, []string{"lang"})

// DefaultLang — основной язык портала; его каталог полный,
// на него падают отсутствующие ключи других языков.
const DefaultLang = "uk"

// Languages — коды поддерживаемых языков.
var Languages = []string{"uk", "en"}

var (
	// matcher — теги в порядке Languages.
	matcher = language.NewMatcher([]language.Tag{
		language.Ukrainian,
		language.English,
	})
)

type ctxKeyLang struct{}

// Bundle — каталоги переводов портала, загружаемые при старте.
// Ключ без перевода ни в одном каталоге выводится как есть, считается
// в tp_i18n_missing_total и один раз попадает в журнал.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string
	missing  map[string]struct{}
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(logger *slog.Logger) *Bundle {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		missing:  make(map[string]struct{}),
		logger:   logger.With(slog.String("component", "i18n")),
	}
}

// LoadMessages заменяет каталог языка плоским JSON {"key": "перевод"}.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: каталог %s: %w", lang, err)
	}

	b.mu.Lock()
	b.catalogs[lang] = messages
	b.mu.Unlock()

	b.logger.Debug("Каталог переводов загружен",
		slog.String("lang", lang),
		slog.Int("keys", len(messages)),
	)
	return nil
}

// lookup ищет ключ в каталоге языка, затем в каталоге DefaultLang.
func (b *Bundle) lookup(lang, key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if msg, ok := b.catalogs[lang][key]; ok {
		return msg, true
	}
	msg, ok := b.catalogs[DefaultLang][key]
	return msg, ok
}

// Translate возвращает перевод ключа; без перевода — сам ключ.
func (b *Bundle) Translate(lang, key string) string {
	if msg, ok := b.lookup(lang, key); ok {
		return msg
	}
	b.reportMissing(lang, key)
	return key
}

func (b *Bundle) reportMissing(lang, key string) {
	missingTotal.WithLabelValues(lang).Inc()

	b.mu.Lock()
	_, seen := b.missing[key]
	b.missing[key] = struct{}{}
	b.mu.Unlock()

	if !seen {
		b.logger.Warn("Нет перевода", slog.String("lang", lang), slog.String("key", key))
	}
}

// Has проверяет ключ в каталоге языка без подстановки DefaultLang.
func (b *Bundle) Has(lang, key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.catalogs[lang][key]
	return ok
}

// Keys возвращает ключи каталога языка в порядке сортировки.
func (b *Bundle) Keys(lang string) []string {
	b.mu.RLock()
	keys := slices.Collect(maps.Keys(b.catalogs[lang]))
	b.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

// Translatef — Translate с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	msg := b.Translate(lang, key)
	if len(args) == 0 {
		return msg
	}
	return formatFunc(msg, args...)
}

// --- Глобальный Bundle (singleton) ---

var (
	globalBundle *Bundle
	globalOnce   sync.Once
)

// Init инициализирует глобальный Bundle. Вызывается один раз при старте.
func Init(logger *slog.Logger) *Bundle {
	globalOnce.Do(func() {
		globalBundle = NewBundle(logger)
	})
	return globalBundle
}

// GetBundle возвращает глобальный Bundle (nil если не инициализирован).
func GetBundle() *Bundle {
	return globalBundle
}

// --- Функции для использования в компонентах страниц ---

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKeyLang{}, lang)
}

// LangFromContext извлекает язык из контекста. Default: "uk".
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(ctxKeyLang{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// T возвращает перевод по ключу, используя язык из контекста.
func T(ctx context.Context, key string) string {
	if globalBundle == nil {
		return key
	}
	return globalBundle.Translate(LangFromContext(ctx), key)
}

// Tf возвращает перевод по ключу с аргументами (fmt.Sprintf).
func Tf(ctx context.Context, key string, args ...any) string {
	if globalBundle == nil {
		if len(args) == 0 {
			return key
		}
		return formatFunc(key, args...)
	}
	return globalBundle.Translatef(LangFromContext(ctx), key, args...)
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят из
// JSON-каталогов, printf-анализатор go vet их проверить не может.
//
//nolint:govet // обход go vet printf-анализатора
var formatFunc = fmt.Sprintf

// IsSupported проверяет код языка.
func IsSupported(lang string) bool {
	return slices.Contains(Languages, lang)
}

// MatchLanguage определяет лучший язык из Accept-Language.
// ok == false, если ни один поддерживаемый язык не подошёл.
func MatchLanguage(acceptLanguage string) (string, bool) {
	_, index, confidence := matcher.Match(parseAccept(acceptLanguage)...)
	if confidence == language.No {
		return "", false
	}
	return Languages[index], true
}

// parseAccept разбирает Accept-Language; ошибки разбора дают пустой список.
func parseAccept(acceptLanguage string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		return nil
	}
	return tags
}
