// recover.go — перехват panic в обработчиках.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/bigkaa/tender-portal/internal/api/errors"
)

// Recoverer логирует panic со стеком и отвечает 500.
// http.ErrAbortHandler пробрасывается дальше.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // сравнение значения panic
					panic(rec)
				}
				logger.Error("Panic в обработчике",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)
				apierrors.InternalError(w, "внутренняя ошибка сервера")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
