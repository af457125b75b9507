package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihandlers "github.com/bigkaa/tender-portal/internal/api/handlers"
	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/config"
	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/auth"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
	"github.com/bigkaa/tender-portal/internal/ui/pages"
)

var csrfFieldPattern = regexp.MustCompile(`name="` + regexp.QuoteMeta(pages.CSRFFieldName) + `" value="([^"]+)"`)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// newTestPortal поднимает портал поверх минимального удалённого API
// (только login/ и logout/).
func newTestPortal(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login/":
			_ = json.NewEncoder(w).Encode(apiclient.AuthResult{
				Token: "tok",
				User:  apiclient.User{ID: 1, Email: "admin@example.com", Role: "admin"},
			})
		case "/api/auth/users/":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(remote.Close)

	api, err := apiclient.New(apiclient.Config{BaseURL: remote.URL + "/api/auth", Timeout: 5 * time.Second}, logger)
	require.NoError(t, err)

	store, err := auth.NewCookieStore("server-test", false)
	require.NoError(t, err)
	sessions := auth.NewManager(store, time.Hour, logger)

	cfg := &config.Config{
		DefaultLang:     "uk",
		CSRFKey:         "server-test-csrf",
		SessionTTL:      48 * time.Hour,
		ShutdownTimeout: time.Second,
	}
	router, err := NewRouter(cfg, logger, sessions, Services{
		Auth:         service.NewAuthService(api, logger),
		Registration: service.NewRegistrationService(api, logger),
		Applicants:   service.NewApplicantService(api, logger),
	}, apihandlers.NewHealthHandler(api))
	require.NoError(t, err)

	portal := httptest.NewServer(router)
	t.Cleanup(portal.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return portal, client
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestServiceEndpoints(t *testing.T) {
	portal, client := newTestPortal(t)

	tests := []struct {
		path string
		code int
	}{
		{"/health/live", http.StatusOK},
		{"/health/ready", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/static/css/portal.css", http.StatusOK},
		{"/no-such-page", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, err := client.Get(portal.URL + tt.path)
		require.NoError(t, err)
		_ = readAll(t, resp)
		assert.Equal(t, tt.code, resp.StatusCode, tt.path)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), tt.path)
	}
}

func TestProtectedPagesRedirectAnonymous(t *testing.T) {
	portal, client := newTestPortal(t)

	for _, path := range []string{"/admin", "/admin/users/1", "/cabinet", "/cabinet/status"} {
		resp, err := client.Get(portal.URL + path)
		require.NoError(t, err)
		_ = readAll(t, resp)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
}

func TestLoginRequiresCSRFToken(t *testing.T) {
	portal, client := newTestPortal(t)

	form := url.Values{"username": {"admin@example.com"}, "password": {"x"}}
	resp, err := client.PostForm(portal.URL+"/login", form)
	require.NoError(t, err)
	_ = readAll(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Токен со страницы входа
	resp, err = client.Get(portal.URL + "/login")
	require.NoError(t, err)
	body := readAll(t, resp)
	match := csrfFieldPattern.FindStringSubmatch(body)
	require.Len(t, match, 2, "ожидается скрытое поле CSRF на странице входа")

	form.Set(pages.CSRFFieldName, match[1])
	resp, err = client.PostForm(portal.URL+"/login", form)
	require.NoError(t, err)
	_ = readAll(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))

	resp, err = client.Get(portal.URL + "/admin")
	require.NoError(t, err)
	_ = readAll(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCSRFKey(t *testing.T) {
	a, err := csrfKey("secret")
	require.NoError(t, err)
	b, err := csrfKey("secret")
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.Equal(t, a, b, "ключ из секрета детерминирован")

	r1, err := csrfKey("")
	require.NoError(t, err)
	r2, err := csrfKey("")
	require.NoError(t, err)
	assert.Len(t, r1, 32)
	assert.NotEqual(t, r1, r2)
}

func TestCSRFCookieOutlivesSession(t *testing.T) {
	portal, client := newTestPortal(t)

	resp, err := client.Get(portal.URL + "/login")
	require.NoError(t, err)
	_ = readAll(t, resp)

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "_gorilla_csrf" {
			found = true
			assert.Equal(t, int((48 * time.Hour).Seconds()), c.MaxAge, "CSRF-cookie живёт не меньше сессии")
		}
	}
	assert.True(t, found, "ожидается CSRF-cookie на странице входа")
}

func TestCSRFMaxAge(t *testing.T) {
	assert.Equal(t, defaultCSRFMaxAge, csrfMaxAge(time.Hour), "короткая сессия не сокращает срок по умолчанию")
	assert.Equal(t, 86400, csrfMaxAge(24*time.Hour))
}

func TestLogoutAfterLogin(t *testing.T) {
	portal, client := newTestPortal(t)

	resp, err := client.Get(portal.URL + "/login")
	require.NoError(t, err)
	match := csrfFieldPattern.FindStringSubmatch(readAll(t, resp))
	require.Len(t, match, 2)

	form := url.Values{"username": {"admin@example.com"}, "password": {"x"}, pages.CSRFFieldName: {match[1]}}
	resp, err = client.PostForm(portal.URL+"/login", form)
	require.NoError(t, err)
	_ = readAll(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err = client.PostForm(portal.URL+"/logout", url.Values{pages.CSRFFieldName: {match[1]}})
	require.NoError(t, err)
	_ = readAll(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = client.Get(portal.URL + "/admin")
	require.NoError(t, err)
	_ = readAll(t, resp)
	assert.Equal(t, http.StatusFound, resp.StatusCode, "после выхода админка недоступна")
}
