// Пакет apiclient — HTTP-клиент удалённого API тендерной системы.
// Поддерживает TLS с кастомным CA (TP_API_CA_CERT_PATH).
// Операции: вход/выход, регистрация, активация, справочник подразделений,
// список и карточка заявок, одобрение и отклонение.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/tender-portal/internal/domain/model"
)

// maxErrorBody — сколько байт тела ошибки читать для разбора.
const maxErrorBody = 64 << 10

// Config — параметры клиента.
type Config struct {
	// BaseURL — базовый URL API (например, http://backend:8000/api/auth).
	BaseURL string
	// AuthScheme — схема Authorization ("Token" или "Bearer").
	AuthScheme string
	// Timeout — таймаут HTTP-запросов.
	Timeout time.Duration
	// CACertPath — путь к CA-сертификату (пусто — системный пул).
	CACertPath string
	// HealthPath — путь readiness-проверки.
	HealthPath string
}

// Client — HTTP-клиент API тендерной системы.
type Client struct {
	baseURL    string
	authScheme string
	healthPath string
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент API.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	if cfg.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата API: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат API добавлен в пул доверия",
			slog.String("ca_cert", cfg.CACertPath),
		)
	}

	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = "Token"
	}
	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/departments/"
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authScheme: scheme,
		healthPath: healthPath,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "api_client")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в %s нет PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// BaseURL возвращает базовый URL API (для мониторинга зависимостей).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthPath возвращает путь readiness-проверки.
func (c *Client) HealthPath() string {
	return c.healthPath
}

// Login — POST login/. Возвращает токен и пользователя.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, "login", http.MethodPost, "/login/", "", creds, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, errors.New("API не вернул токен")
	}
	return &result, nil
}

// Logout — POST logout/. Удаляет токен на сервере.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, "logout", http.MethodPost, "/logout/", token, nil, nil)
}

// Register — POST register/. Подача заявки (без авторизации).
func (c *Client) Register(ctx context.Context, reg Registration) (*RegisterResult, error) {
	var result RegisterResult
	if err := c.do(ctx, "register", http.MethodPost, "/register/", "", reg, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Activate — POST activate/. Установка пароля по ссылке из письма.
func (c *Client) Activate(ctx context.Context, act Activation) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, "activate", http.MethodPost, "/activate/", "", act, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, errors.New("API не вернул токен")
	}
	return &result, nil
}

// ListDepartments — GET departments/. Принимает как массив,
// так и страницу {"results": [...]}.
func (c *Client) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_departments", http.MethodGet, "/departments/", "", nil, &raw); err != nil {
		return nil, err
	}
	var departments []model.Department
	if err := decodeList(raw, &departments); err != nil {
		return nil, fmt.Errorf("декодирование списка подразделений: %w", err)
	}
	return departments, nil
}

// ListUsers — GET users/ с фильтрами статуса и подразделения.
func (c *Client) ListUsers(ctx context.Context, token string, params ListUsersParams) ([]model.Applicant, error) {
	query := url.Values{}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	if params.Department > 0 {
		query.Set("department", strconv.FormatInt(params.Department, 10))
	}
	path := "/users/"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var raw json.RawMessage
	if err := c.do(ctx, "list_users", http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	var users []model.Applicant
	if err := decodeList(raw, &users); err != nil {
		return nil, fmt.Errorf("декодирование списка заявок: %w", err)
	}
	return users, nil
}

// GetUser — GET users/{id}/.
func (c *Client) GetUser(ctx context.Context, token string, id int64) (*model.Applicant, error) {
	var applicant model.Applicant
	path := fmt.Sprintf("/users/%d/", id)
	if err := c.do(ctx, "get_user", http.MethodGet, path, token, nil, &applicant); err != nil {
		return nil, err
	}
	return &applicant, nil
}

// ApproveUser — POST users/{id}/approve/.
func (c *Client) ApproveUser(ctx context.Context, token string, id int64) error {
	path := fmt.Sprintf("/users/%d/approve/", id)
	return c.do(ctx, "approve_user", http.MethodPost, path, token, struct{}{}, nil)
}

// DeclineUser — POST users/{id}/decline/ с причиной (может быть пустой).
func (c *Client) DeclineUser(ctx context.Context, token string, id int64, reason string) error {
	path := fmt.Sprintf("/users/%d/decline/", id)
	return c.do(ctx, "decline_user", http.MethodPost, path, token, DeclineRequest{Reason: reason}, nil)
}

// Ping — проверка доступности API для /health/ready.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, c.healthPath, "", nil, nil)
}

// Name — имя зависимости в ответе /health/ready.
func (c *Client) Name() string { return "tender_api" }

// CheckReady реализует проверку готовности для health endpoint.
func (c *Client) CheckReady(ctx context.Context) (status string, message string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("API тендерной системы недоступен: %v", err)
	}
	return "ok", "API доступен"
}

// do выполняет запрос к API. body сериализуется в JSON (nil — без тела),
// ответ 2xx декодируется в out (nil — тело игнорируется).
// Ответы не-2xx возвращаются как *APIError.
func (c *Client) do(ctx context.Context, operation, method, path, token string, body, out any) error {
	start := time.Now()
	status := "error"
	defer func() {
		apiRequestsTotal.WithLabelValues(operation, status).Inc()
		apiRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("сериализация запроса %s: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", c.authScheme+" "+token)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		c.logger.Warn("Ошибка запроса к API",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("запрос %s к API: %w", operation, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := parseAPIError(resp.StatusCode, data)
		c.logger.Debug("API отклонил запрос",
			slog.String("operation", operation),
			slog.Int("status", resp.StatusCode),
			slog.String("error", apiErr.Error()),
		)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа %s: %w", operation, err)
	}
	return nil
}

// decodeList декодирует массив или страницу DRF {"results": [...]}.
func decodeList[T any](raw json.RawMessage, out *[]T) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return err
	}
	*out = page.Results
	return nil
}
