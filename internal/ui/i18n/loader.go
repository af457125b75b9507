// loader.go — загрузка встроенных каталогов locales/<lang>.json.
package i18n

import (
	"fmt"
	"log/slog"
)

// LoadFromEmbedFS загружает каталоги всех Languages. Отсутствующий
// или пустой каталог — ошибка старта.
func LoadFromEmbedFS(bundle *Bundle, logger *slog.Logger) error {
	total := 0
	for _, lang := range Languages {
		path := "locales/" + lang + ".json"
		data, err := LocaleFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("i18n: %s: %w", path, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return err
		}
		n := len(bundle.Keys(lang))
		if n == 0 {
			return fmt.Errorf("i18n: каталог %s пуст", path)
		}
		total += n
	}

	logger.Info("Каталоги переводов загружены",
		slog.Any("languages", Languages),
		slog.Int("keys", total),
	)
	return nil
}
