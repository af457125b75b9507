package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"TP_API_URL": "http://backend:8000/api/auth/",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.APIURL != "http://backend:8000/api/auth" {
		t.Errorf("APIURL = %q, ожидается без завершающего слеша", cfg.APIURL)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("APITimeout = %v, ожидается 15s", cfg.APITimeout)
	}
	if cfg.APIAuthScheme != "Token" {
		t.Errorf("APIAuthScheme = %q, ожидается Token", cfg.APIAuthScheme)
	}
	if cfg.APIHealthPath != "/departments/" {
		t.Errorf("APIHealthPath = %q, ожидается /departments/", cfg.APIHealthPath)
	}
	if cfg.SessionBackend != SessionBackendCookie {
		t.Errorf("SessionBackend = %q, ожидается cookie", cfg.SessionBackend)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, ожидается 24h", cfg.SessionTTL)
	}
	if cfg.SessionSecure {
		t.Error("SessionSecure = true, ожидается false")
	}
	if cfg.SessionMemorySize != 10000 {
		t.Errorf("SessionMemorySize = %d, ожидается 10000", cfg.SessionMemorySize)
	}
	if cfg.DefaultLang != "uk" {
		t.Errorf("DefaultLang = %q, ожидается uk", cfg.DefaultLang)
	}
	if !cfg.DephealthEnabled {
		t.Error("DephealthEnabled = false, ожидается true")
	}
	if cfg.DephealthGroup != "tender" {
		t.Errorf("DephealthGroup = %q, ожидается tender", cfg.DephealthGroup)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_AllCustom(t *testing.T) {
	envs := minimalEnvs()
	envs["TP_PORT"] = "9090"
	envs["TP_LOG_LEVEL"] = "debug"
	envs["TP_LOG_FORMAT"] = "text"
	envs["TP_API_TIMEOUT"] = "3s"
	envs["TP_API_AUTH_SCHEME"] = "Bearer"
	envs["TP_API_HEALTH_PATH"] = "health/"
	envs["TP_SESSION_BACKEND"] = "redis"
	envs["TP_REDIS_ADDR"] = "redis:6379"
	envs["TP_REDIS_DB"] = "2"
	envs["TP_SESSION_TTL"] = "2h"
	envs["TP_SESSION_SECURE"] = "true"
	envs["TP_DEFAULT_LANG"] = "en"
	envs["TP_DEPHEALTH_ENABLED"] = "false"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Errorf("APITimeout = %v, ожидается 3s", cfg.APITimeout)
	}
	if cfg.APIAuthScheme != "Bearer" {
		t.Errorf("APIAuthScheme = %q, ожидается Bearer", cfg.APIAuthScheme)
	}
	if cfg.APIHealthPath != "/health/" {
		t.Errorf("APIHealthPath = %q, ожидается /health/", cfg.APIHealthPath)
	}
	if cfg.SessionBackend != SessionBackendRedis {
		t.Errorf("SessionBackend = %q, ожидается redis", cfg.SessionBackend)
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 {
		t.Errorf("Redis = %q/%d, ожидается redis:6379/2", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v, ожидается 2h", cfg.SessionTTL)
	}
	if !cfg.SessionSecure {
		t.Error("SessionSecure = false, ожидается true")
	}
	if cfg.DefaultLang != "en" {
		t.Errorf("DefaultLang = %q, ожидается en", cfg.DefaultLang)
	}
	if cfg.DephealthEnabled {
		t.Error("DephealthEnabled = true, ожидается false")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{
			name:    "нет TP_API_URL",
			envs:    map[string]string{},
			wantErr: "TP_API_URL",
		},
		{
			name:    "TP_API_URL без схемы",
			envs:    map[string]string{"TP_API_URL": "backend:8000"},
			wantErr: "TP_API_URL",
		},
		{
			name:    "некорректный порт",
			envs:    map[string]string{"TP_PORT": "abc"},
			wantErr: "TP_PORT",
		},
		{
			name:    "порт вне диапазона",
			envs:    map[string]string{"TP_PORT": "70000"},
			wantErr: "TP_PORT",
		},
		{
			name:    "некорректный уровень логов",
			envs:    map[string]string{"TP_LOG_LEVEL": "trace"},
			wantErr: "TP_LOG_LEVEL",
		},
		{
			name:    "некорректный формат логов",
			envs:    map[string]string{"TP_LOG_FORMAT": "xml"},
			wantErr: "TP_LOG_FORMAT",
		},
		{
			name:    "неизвестный бэкенд сессий",
			envs:    map[string]string{"TP_SESSION_BACKEND": "memcached"},
			wantErr: "TP_SESSION_BACKEND",
		},
		{
			name:    "redis без адреса",
			envs:    map[string]string{"TP_SESSION_BACKEND": "redis"},
			wantErr: "TP_REDIS_ADDR",
		},
		{
			name:    "postgres без хоста",
			envs:    map[string]string{"TP_SESSION_BACKEND": "postgres"},
			wantErr: "TP_DB_HOST",
		},
		{
			name:    "слишком короткий TTL",
			envs:    map[string]string{"TP_SESSION_TTL": "10s"},
			wantErr: "TP_SESSION_TTL",
		},
		{
			name:    "некорректный bool",
			envs:    map[string]string{"TP_SESSION_SECURE": "maybe"},
			wantErr: "TP_SESSION_SECURE",
		},
		{
			name:    "неподдерживаемый язык",
			envs:    map[string]string{"TP_DEFAULT_LANG": "de"},
			wantErr: "TP_DEFAULT_LANG",
		},
		{
			name:    "некорректный sslmode",
			envs:    map[string]string{"TP_DB_SSL_MODE": "prefer"},
			wantErr: "TP_DB_SSL_MODE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			if _, ok := tt.envs["TP_API_URL"]; !ok && tt.wantErr == "TP_API_URL" {
				envs = map[string]string{"TP_API_URL": ""}
			}
			for k, v := range tt.envs {
				envs[k] = v
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() должен вернуть ошибку")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ошибка %q должна упоминать %s", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_PostgresBackend(t *testing.T) {
	envs := minimalEnvs()
	envs["TP_SESSION_BACKEND"] = "postgres"
	envs["TP_DB_HOST"] = "db"
	envs["TP_DB_NAME"] = "tender"
	envs["TP_DB_USER"] = "portal"
	envs["TP_DB_PASSWORD"] = "secret"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	wantDSN := "host=db port=5432 dbname=tender user=portal password=secret sslmode=disable"
	if got := cfg.DatabaseDSN(); got != wantDSN {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", got, wantDSN)
	}
	wantURL := "postgres://portal:secret@db:5432/tender?sslmode=disable"
	if got := cfg.DatabaseURL(); got != wantURL {
		t.Errorf("DatabaseURL() = %q, ожидается %q", got, wantURL)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		err   bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"fatal", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLogLevel(tt.input)
			if (err != nil) != tt.err {
				t.Fatalf("parseLogLevel(%q) err = %v, ожидается ошибка: %v", tt.input, err, tt.err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, ожидается %v", tt.input, got, tt.want)
			}
		})
	}
}
