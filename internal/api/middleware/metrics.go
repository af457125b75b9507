// metrics.go — Prometheus HTTP метрики портала.
// Регистрирует метрики: tp_http_requests_total, tp_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tp_http_requests_total",
			Help: "Общее количество HTTP-запросов к порталу",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tp_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к порталу в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// ID заявок и токены активации заменяются на шаблон
			normalizedPath := normalizePath(r.URL.Path)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rec.status)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// staticPaths — пути без параметров.
var staticPaths = map[string]bool{
	"/":                  true,
	"/login":             true,
	"/logout":            true,
	"/register":          true,
	"/set-language":      true,
	"/health/live":       true,
	"/health/ready":      true,
	"/metrics":           true,
	"/cabinet":           true,
	"/cabinet/documents": true,
	"/cabinet/status":    true,
	"/admin":             true,
	"/admin/users":       true,
	"/admin/reports":     true,
}

// normalizePath заменяет переменные сегменты пути на шаблоны для
// ограничения кардинальности метрик:
// /admin/users/42/approve → /admin/users/{id}/approve,
// /activate/abc → /activate/{token}, /static/css/x.css → /static/*.
// Неизвестные пути сводятся к "other".
func normalizePath(path string) string {
	if staticPaths[path] {
		return path
	}

	switch {
	case strings.HasPrefix(path, "/static/"):
		return "/static/*"
	case strings.HasPrefix(path, "/activate/"):
		return "/activate/{token}"
	case strings.HasPrefix(path, "/admin/users/"):
		rest := strings.TrimPrefix(path, "/admin/users/")
		id, suffix, _ := strings.Cut(rest, "/")
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return "other"
		}
		switch suffix {
		case "":
			return "/admin/users/{id}"
		case "approve", "decline":
			return "/admin/users/{id}/" + suffix
		}
	}
	return "other"
}
