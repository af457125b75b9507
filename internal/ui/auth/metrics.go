package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики сессий.
var (
	sessionOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tp_session_operations_total",
		Help: "Операции с сессиями портала (login, logout, expire).",
	}, []string{"operation", "result"})

	sessionBackendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tp_session_backend_errors_total",
		Help: "Ошибки серверного хранилища сессий.",
	}, []string{"backend"})
)
