// Пакет static — встроенные CSS портала, раздаются под /static/.
package static

import (
	"embed"
	"net/http"
	"strings"
)

// Prefix — URL-префикс статических файлов.
const Prefix = "/static/"

//go:embed css/*.css
var content embed.FS

// Handler раздаёт встроенные файлы под Prefix. Листинг каталогов
// отключён; файлы кешируются браузером на час.
func Handler() http.Handler {
	files := http.FileServer(http.FS(content))
	return http.StripPrefix(Prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	}))
}
