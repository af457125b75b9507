// Пакет config — загрузка и валидация конфигурации Tender Portal
// из переменных окружения (и .env-файла, если он есть).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Бэкенды хранения сессий.
const (
	SessionBackendCookie   = "cookie"
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// Config содержит все параметры конфигурации Tender Portal.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Удалённый API тендерной системы ---

	// Базовый URL API (например, http://backend:8000/api/auth)
	APIURL string
	// Таймаут HTTP-запросов к API
	APITimeout time.Duration
	// Схема заголовка Authorization (Token для DRF TokenAuthentication, Bearer для JWT)
	APIAuthScheme string
	// Путь к CA-сертификату API (опционально)
	APICACertPath string
	// Путь для readiness-проверки API (относительно APIURL)
	APIHealthPath string

	// --- Сессии ---

	// Бэкенд хранения сессий: cookie, memory, redis, postgres
	SessionBackend string
	// Ключ шифрования cookie-сессий (пустой — случайный при старте)
	SessionSecret string
	// Время жизни сессии
	SessionTTL time.Duration
	// Secure flag для cookie (true за HTTPS)
	SessionSecure bool
	// Ёмкость in-memory хранилища сессий
	SessionMemorySize int

	// --- Redis (для TP_SESSION_BACKEND=redis) ---

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// --- PostgreSQL (для TP_SESSION_BACKEND=postgres) ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- UI ---

	// Ключ gorilla/csrf (пустой — случайный при старте)
	CSRFKey string
	// Язык интерфейса по умолчанию (uk, en)
	DefaultLang string

	// --- Мониторинг зависимостей ---

	// Включить topologymetrics
	DephealthEnabled bool
	// Группа в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Если в рабочем каталоге есть .env — он загружается первым,
// уже заданные переменные окружения не перезаписываются.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// TP_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("TP_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("TP_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("TP_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// TP_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("TP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("TP_LOG_LEVEL: %w", err)
	}

	// TP_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("TP_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("TP_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- API ---

	// TP_API_URL — обязательный
	cfg.APIURL, err = getEnvRequired("TP_API_URL")
	if err != nil {
		return nil, err
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return nil, fmt.Errorf("TP_API_URL: ожидается http:// или https:// URL, получено %q", cfg.APIURL)
	}

	// TP_API_TIMEOUT — таймаут запросов к API (по умолчанию 15s)
	cfg.APITimeout, err = getEnvDuration("TP_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TP_API_TIMEOUT: %w", err)
	}

	// TP_API_AUTH_SCHEME — схема Authorization (по умолчанию Token)
	cfg.APIAuthScheme = getEnvDefault("TP_API_AUTH_SCHEME", "Token")

	// TP_API_CA_CERT_PATH — CA-сертификат API (опционально)
	cfg.APICACertPath = getEnvDefault("TP_API_CA_CERT_PATH", "")

	// TP_API_HEALTH_PATH — путь readiness-проверки (по умолчанию /departments/)
	cfg.APIHealthPath = getEnvDefault("TP_API_HEALTH_PATH", "/departments/")
	if !strings.HasPrefix(cfg.APIHealthPath, "/") {
		cfg.APIHealthPath = "/" + cfg.APIHealthPath
	}

	// --- Сессии ---

	cfg.SessionBackend = strings.ToLower(getEnvDefault("TP_SESSION_BACKEND", SessionBackendCookie))
	switch cfg.SessionBackend {
	case SessionBackendCookie, SessionBackendMemory, SessionBackendRedis, SessionBackendPostgres:
	default:
		return nil, fmt.Errorf("TP_SESSION_BACKEND: недопустимое значение %q, допустимые: cookie, memory, redis, postgres", cfg.SessionBackend)
	}

	cfg.SessionSecret = getEnvDefault("TP_SESSION_SECRET", "")

	cfg.SessionTTL, err = getEnvDuration("TP_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("TP_SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL < time.Minute {
		return nil, fmt.Errorf("TP_SESSION_TTL: значение %s меньше минимального 1m", cfg.SessionTTL)
	}

	cfg.SessionSecure, err = getEnvBool("TP_SESSION_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("TP_SESSION_SECURE: %w", err)
	}

	cfg.SessionMemorySize, err = getEnvInt("TP_SESSION_MEMORY_SIZE", 10000)
	if err != nil {
		return nil, fmt.Errorf("TP_SESSION_MEMORY_SIZE: %w", err)
	}
	if cfg.SessionMemorySize < 1 {
		return nil, fmt.Errorf("TP_SESSION_MEMORY_SIZE: значение %d должно быть положительным", cfg.SessionMemorySize)
	}

	// --- Redis ---

	if cfg.SessionBackend == SessionBackendRedis {
		cfg.RedisAddr, err = getEnvRequired("TP_REDIS_ADDR")
		if err != nil {
			return nil, err
		}
	}
	cfg.RedisPassword = getEnvDefault("TP_REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvInt("TP_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("TP_REDIS_DB: %w", err)
	}

	// --- PostgreSQL ---

	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}

	// --- UI ---

	cfg.CSRFKey = getEnvDefault("TP_CSRF_KEY", "")

	cfg.DefaultLang = getEnvDefault("TP_DEFAULT_LANG", "uk")
	if cfg.DefaultLang != "uk" && cfg.DefaultLang != "en" {
		return nil, fmt.Errorf("TP_DEFAULT_LANG: недопустимое значение %q, допустимые: uk, en", cfg.DefaultLang)
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthEnabled, err = getEnvBool("TP_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("TP_DEPHEALTH_ENABLED: %w", err)
	}
	cfg.DephealthGroup = getEnvDefault("TP_DEPHEALTH_GROUP", "tender")
	cfg.DephealthCheckInterval, err = getEnvDuration("TP_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TP_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("TP_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TP_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase читает параметры PostgreSQL. Обязательны только
// для TP_SESSION_BACKEND=postgres.
func loadDatabase(cfg *Config) error {
	var err error
	required := cfg.SessionBackend == SessionBackendPostgres

	cfg.DBHost, err = getEnvMaybeRequired("TP_DB_HOST", required)
	if err != nil {
		return err
	}
	cfg.DBPort, err = getEnvInt("TP_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("TP_DB_PORT: %w", err)
	}
	cfg.DBName, err = getEnvMaybeRequired("TP_DB_NAME", required)
	if err != nil {
		return err
	}
	cfg.DBUser, err = getEnvMaybeRequired("TP_DB_USER", required)
	if err != nil {
		return err
	}
	cfg.DBPassword, err = getEnvMaybeRequired("TP_DB_PASSWORD", required)
	if err != nil {
		return err
	}

	cfg.DBSSLMode = getEnvDefault("TP_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("TP_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL для golang-migrate и лейблов topologymetrics.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvMaybeRequired — getEnvRequired, если required, иначе значение или пустая строка.
func getEnvMaybeRequired(key string, required bool) (string, error) {
	if required {
		return getEnvRequired(key)
	}
	return os.Getenv(key), nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
