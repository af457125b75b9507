package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/auth"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/tender-portal/internal/ui/middleware"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
	superToken = "super-token"
	// badCredentials — сообщение API при неверном пароле.
	badCredentials = "Невірний логін або пароль"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeRemote — удалённый API тендерной системы в памяти.
type fakeRemote struct {
	mu sync.Mutex

	users   map[int64]*model.Applicant
	revoked map[string]bool

	logoutFails   bool
	loginCalls    int
	logoutCalls   int
	registerCalls int
	approveCalls  int
	declineCalls  int
	lastReason    *string
	gets          []int64
}

func newFakeRemote() *fakeRemote {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &fakeRemote{
		revoked: map[string]bool{},
		users: map[int64]*model.Applicant{
			5: {ID: 5, TenderNumber: "T-005", CompanyName: "ТОВ Нова", EDRPOU: "12345678",
				Email: "nova@example.com", Department: 1, DepartmentName: "Закупівлі",
				Status: model.StatusNew, CreatedAt: created},
			6: {ID: 6, TenderNumber: "T-006", CompanyName: "ТОВ Прийнята", EDRPOU: "87654321",
				Email: "ok@example.com", Department: 1, DepartmentName: "Закупівлі",
				Status: model.StatusAccepted, CreatedAt: created.Add(time.Hour)},
			7: {ID: 7, TenderNumber: "T-007", CompanyName: "ТОВ Заявник", EDRPOU: "11223344",
				Email: "user@example.com", Department: 2, DepartmentName: "Логістика",
				Status: model.StatusInProgress, CreatedAt: created.Add(2 * time.Hour)},
		},
	}
}

func (f *fakeRemote) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// authorize проверяет заголовок Authorization: Token <token>.
func (f *fakeRemote) authorize(r *http.Request) (string, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Token ")
	if token == "" || f.revoked[token] {
		return "", false
	}
	return token, token == adminToken || token == userToken
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/auth")
	switch {
	case path == "/login/":
		f.loginCalls++
		var creds apiclient.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		users := map[string]apiclient.AuthResult{
			"admin@example.com": {Token: adminToken, User: apiclient.User{ID: 1, Email: "admin@example.com", Role: rbac.RoleAdmin}},
			"user@example.com":  {Token: userToken, User: apiclient.User{ID: 7, Email: "user@example.com", Role: rbac.RoleUser, CompanyName: "ТОВ Заявник"}},
			"super@example.com": {Token: superToken, User: apiclient.User{ID: 9, Email: "super@example.com", Role: "superadmin"}},
		}
		result, ok := users[creds.Username]
		if !ok || creds.Password != "secret" {
			f.writeJSON(w, http.StatusBadRequest, map[string]any{"non_field_errors": []string{badCredentials}})
			return
		}
		f.writeJSON(w, http.StatusOK, result)

	case path == "/logout/":
		f.logoutCalls++
		if f.logoutFails {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case path == "/activate/":
		var act apiclient.Activation
		_ = json.NewDecoder(r.Body).Decode(&act)
		if act.Token != "good" {
			f.writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Посилання недійсне"})
			return
		}
		f.writeJSON(w, http.StatusOK, apiclient.AuthResult{
			Token: userToken,
			User:  apiclient.User{ID: 7, Email: "user@example.com", Role: rbac.RoleUser},
		})

	case path == "/departments/":
		f.writeJSON(w, http.StatusOK, []model.Department{{ID: 1, Name: "Закупівлі"}, {ID: 2, Name: "Логістика"}})

	case path == "/register/":
		f.registerCalls++
		var reg apiclient.Registration
		_ = json.NewDecoder(r.Body).Decode(&reg)
		f.writeJSON(w, http.StatusCreated, apiclient.RegisterResult{
			Message: "Заявку прийнято", TenderNumber: reg.TenderNumber, UserID: 77,
		})

	case strings.HasPrefix(path, "/users/"):
		token, ok := f.authorize(r)
		if !ok {
			f.writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
			return
		}
		f.serveUsers(w, r, token, strings.Trim(strings.TrimPrefix(path, "/users/"), "/"))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeRemote) serveUsers(w http.ResponseWriter, r *http.Request, token, rest string) {
	if rest == "" {
		if token != adminToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		list := make([]model.Applicant, 0, len(f.users))
		for _, u := range f.users {
			list = append(list, *u)
		}
		f.writeJSON(w, http.StatusOK, list)
		return
	}

	parts := strings.Split(rest, "/")
	id, _ := strconv.ParseInt(parts[0], 10, 64)
	u, found := f.users[id]
	if !found {
		f.writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	switch action {
	case "":
		f.gets = append(f.gets, id)
		f.writeJSON(w, http.StatusOK, u)
	case "approve":
		f.approveCalls++
		u.Status = model.StatusInProgress
		w.WriteHeader(http.StatusOK)
	case "decline":
		f.declineCalls++
		var req apiclient.DeclineRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.lastReason = &req.Reason
		u.Status = model.StatusDeclined
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeRemote) status(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id].Status
}

// testApp — портал поверх fakeRemote с браузерным клиентом (cookie jar,
// redirect не выполняются).
type testApp struct {
	remote *fakeRemote
	server *httptest.Server
	client *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	remote := newFakeRemote()
	remoteServer := httptest.NewServer(remote)
	t.Cleanup(remoteServer.Close)

	api, err := apiclient.New(apiclient.Config{BaseURL: remoteServer.URL + "/api/auth/", Timeout: 5 * time.Second}, logger)
	require.NoError(t, err)

	store, err := auth.NewCookieStore("handlers-test-key", false)
	require.NoError(t, err)
	sessions := auth.NewManager(store, time.Hour, logger)

	authHandler := NewAuthHandler(service.NewAuthService(api, logger), sessions, logger)
	registerHandler := NewRegisterHandler(service.NewRegistrationService(api, logger), logger)
	applicants := service.NewApplicantService(api, logger)
	adminHandler := NewAdminHandler(applicants, sessions, logger)
	cabinetHandler := NewCabinetHandler(applicants, sessions, logger)
	ua := uimiddleware.NewUIAuth(sessions, logger)

	r := chi.NewRouter()
	r.Use(i18n.Middleware(i18n.DefaultLang))
	r.Use(ua.Middleware())
	r.Get("/", authHandler.HandleRoot)
	r.Get("/login", authHandler.HandleLoginPage)
	r.Post("/login", authHandler.HandleLogin)
	r.Post("/logout", authHandler.HandleLogout)
	r.Get("/activate/{token}", authHandler.HandleActivatePage)
	r.Post("/activate/{token}", authHandler.HandleActivate)
	r.Get("/register", registerHandler.HandleRegisterPage)
	r.Post("/register", registerHandler.HandleRegister)
	r.Post("/set-language", HandleSetLanguage)
	r.Group(func(r chi.Router) {
		r.Use(ua.RequireRole(rbac.RoleUser))
		r.Get("/cabinet", cabinetHandler.HandleHome)
		r.Get("/cabinet/documents", cabinetHandler.HandleDocuments)
		r.Get("/cabinet/status", cabinetHandler.HandleStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(ua.RequireRole(rbac.RoleAdmin))
		r.Get("/admin", adminHandler.HandleDashboard)
		r.Get("/admin/users", adminHandler.HandleUsers)
		r.Get("/admin/users/{id}", adminHandler.HandleUserDetail)
		r.Post("/admin/users/{id}/approve", adminHandler.HandleApprove)
		r.Post("/admin/users/{id}/decline", adminHandler.HandleDecline)
		r.Get("/admin/reports", adminHandler.HandleReports)
	})
	r.NotFound(NotFound(logger))

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{remote: remote, server: server, client: client}
}

// get выполняет GET и возвращает ответ с прочитанным телом.
func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

// post отправляет форму.
func (a *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

// login входит под username с верным паролем и проверяет redirect.
func (a *testApp) login(t *testing.T, username, wantLocation string) {
	t.Helper()
	resp, _ := a.post(t, "/login", url.Values{"username": {username}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, wantLocation, resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
