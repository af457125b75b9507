package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики обращений к удалённому API.
var (
	// apiRequestsTotal — количество запросов по операции и статусу
	// (HTTP-код или "error" для транспортных ошибок).
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tp_api_requests_total",
			Help: "Общее количество запросов к API тендерной системы",
		},
		[]string{"operation", "status"},
	)

	// apiRequestDuration — длительность запросов к API.
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tp_api_request_duration_seconds",
			Help:    "Длительность запросов к API тендерной системы в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
