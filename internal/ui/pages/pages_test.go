package pages

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
	"github.com/bigkaa/tender-portal/internal/ui/shell"
	"github.com/bigkaa/tender-portal/internal/validation"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func renderString(t *testing.T, lang string, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(i18n.WithLang(context.Background(), lang), &buf))
	return buf.String()
}

func adminBase(path string, state shell.State) Base {
	identity := &model.Identity{ID: 1, Email: "admin@example.com", Role: "admin", Token: "t"}
	return Base{
		Frame:     shell.Compose(identity, path, state),
		CSRFToken: "csrf-123",
		Lang:      "en",
	}
}

func TestLayoutPublic(t *testing.T) {
	base := Base{Frame: shell.Compose(nil, "/login", shell.State{}), CSRFToken: "csrf-123", Lang: "en"}
	out := renderString(t, "en", Login(base, LoginData{Username: "user@example.com"}))

	assert.Contains(t, out, `<body class="public">`)
	assert.NotContains(t, out, `class="menu"`, "у публичной страницы нет меню")
	assert.NotContains(t, out, `action="/logout"`)
	assert.Contains(t, out, `value="user@example.com"`)
	assert.Contains(t, out, `name="gorilla.csrf.Token" value="csrf-123"`)
	assert.Contains(t, out, `action="/set-language"`)
}

func TestLayoutAuthenticated(t *testing.T) {
	out := renderString(t, "en", AdminReports(adminBase("/admin/reports", shell.State{}), ReportsData{Report: &service.Report{}}))

	assert.Contains(t, out, `<body class="app">`)
	assert.Contains(t, out, `<li class="selected"><a href="/admin/reports">`)
	assert.Contains(t, out, "Welcome, admin@example.com")
	assert.Contains(t, out, `action="/logout"`)
	assert.Contains(t, out, `href="/admin/reports?sider=collapsed"`, "переключатель ведёт на свёрнутое состояние")
}

func TestLayoutCollapsedKeepsStateInLinks(t *testing.T) {
	out := renderString(t, "en", AdminReports(adminBase("/admin/reports", shell.State{Collapsed: true}), ReportsData{Report: &service.Report{}}))

	assert.Contains(t, out, `class="sider collapsed"`)
	assert.Contains(t, out, `href="/admin/users?sider=collapsed"`)
	assert.Contains(t, out, `href="/admin/reports"`, "переключатель разворачивает панель")
}

func TestLayoutBanners(t *testing.T) {
	base := adminBase("/admin", shell.State{})
	base.Notice = "готово"
	base.Error = "<b>сбой</b>"
	out := renderString(t, "en", AdminDashboard(base, DashboardData{}))

	assert.Contains(t, out, `class="alert alert-success"`)
	assert.Contains(t, out, "&lt;b&gt;сбой&lt;/b&gt;", "текст баннера экранируется")
}

func TestUserDetailEscapesAndActions(t *testing.T) {
	applicant := &model.Applicant{
		ID:           7,
		TenderNumber: "T-1",
		CompanyName:  `<script>alert("x")</script>`,
		EDRPOU:       "12345678",
		Email:        "a@example.com",
		Status:       model.StatusNew,
	}

	out := renderString(t, "en", AdminUserDetail(adminBase("/admin/users/7", shell.State{}), UserDetailData{Applicant: applicant}))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `action="/admin/users/7/approve"`)
	assert.Contains(t, out, `href="/admin/users/7?decline=1"`)
	assert.NotContains(t, out, `class="decline-form"`)

	out = renderString(t, "en", AdminUserDetail(adminBase("/admin/users/7", shell.State{}), UserDetailData{
		Applicant:   applicant,
		ShowDecline: true,
		Reason:      "неполный пакет",
	}))
	assert.Contains(t, out, `action="/admin/users/7/decline"`)
	assert.Contains(t, out, "неполный пакет</textarea>")

	accepted := *applicant
	accepted.Status = model.StatusAccepted
	out = renderString(t, "en", AdminUserDetail(adminBase("/admin/users/7", shell.State{}), UserDetailData{Applicant: &accepted}))
	assert.NotContains(t, out, "/approve")
	assert.NotContains(t, out, "decline=1")
}

func TestLoginShowsFieldErrors(t *testing.T) {
	base := Base{Frame: shell.Compose(nil, "/login", shell.State{}), Lang: "uk"}
	out := renderString(t, "uk", Login(base, LoginData{
		Errors: validation.Errors{"password": "validation.required"},
	}))
	assert.Contains(t, out, `name="password" type="password">`, "пароль обратно не выводится")
	assert.Equal(t, 1, strings.Count(out, `class="field has-error"`))
	assert.Contains(t, out, `<div class="field-error">`)
}

func TestUsersURL(t *testing.T) {
	tests := []struct {
		name   string
		filter service.Filter
		want   string
	}{
		{"пустой фильтр", service.Filter{}, "/admin/users"},
		{"первая страница не пишется", service.Filter{Page: 1}, "/admin/users"},
		{"статус и страница", service.Filter{Status: "new", Page: 3}, "/admin/users?page=3&status=new"},
		{"поиск экранируется", service.Filter{Search: "ТОВ & Ко"}, "/admin/users?q=%D0%A2%D0%9E%D0%92+%26+%D0%9A%D0%BE"},
		{"подразделение и сортировка", service.Filter{Department: 2, Sort: "-created_at"}, "/admin/users?department=2&sort=-created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UsersURL(tt.filter))
		})
	}
}

func TestStatusLabelKey(t *testing.T) {
	assert.Equal(t, "status.unknown", StatusLabelKey(""))
	assert.Equal(t, "status.accepted", StatusLabelKey(model.StatusAccepted))
	assert.Equal(t, "/admin/users/42", UserPath(42))
}

func TestRegisterStepClasses(t *testing.T) {
	base := Base{Frame: shell.Compose(nil, "/register", shell.State{}), CSRFToken: "csrf-123", Lang: "en"}
	out := renderString(t, "en", Register(base, RegisterData{
		Step: validation.StepCompany,
		Form: validation.Registration{TenderNumber: "T-9", Department: 3},
	}))

	assert.Contains(t, out, `<li class="step done">`)
	assert.Contains(t, out, `<li class="step current">`)
	assert.Contains(t, out, `<li class="step">`)
	assert.Contains(t, out, `name="step" value="2"`)
	assert.Contains(t, out, `name="tender_number" value="T-9"`, "поля первого шага переносятся скрытыми")
	assert.Contains(t, out, `name="department" value="3"`)
	assert.Contains(t, out, `value="back"`)
	assert.Contains(t, out, `value="next"`)
	assert.NotContains(t, out, `value="submit"`)
}

func TestRegisterOutOfRangeStep(t *testing.T) {
	base := Base{Frame: shell.Compose(nil, "/register", shell.State{}), Lang: "en"}
	out := renderString(t, "en", Register(base, RegisterData{Step: 9}))

	assert.Contains(t, out, `name="step" value="1"`)
	assert.NotContains(t, out, `value="back"`)
}

func TestDashboardStatCards(t *testing.T) {
	out := renderString(t, "en", AdminDashboard(adminBase("/admin", shell.State{}), DashboardData{
		Stats: service.Stats{Total: 5, New: 2},
	}))

	assert.Contains(t, out, `<div class="stat-card">`, "у карточки «всего» нет цвета")
	assert.Contains(t, out, `<div class="stat-card stat-blue">`)
	assert.Contains(t, out, `<div class="stat-value">5</div>`)
	assert.Contains(t, out, `<p class="empty">`)
}

func TestReportsTable(t *testing.T) {
	report := &service.Report{
		Rows: []service.ReportRow{
			{DepartmentID: 4, Stats: service.Stats{Total: 1, Accepted: 1}},
			{DepartmentID: 1, DepartmentName: "Закупки", Stats: service.Stats{Total: 2, New: 2}},
		},
		Total: service.Stats{Total: 3, New: 2, Accepted: 1},
	}
	out := renderString(t, "en", AdminReports(adminBase("/admin/reports", shell.State{}), ReportsData{Report: report}))

	assert.Contains(t, out, `<td>#4</td>`, "подразделение без имени показывается по ID")
	assert.Contains(t, out, `<td>Закупки</td>`)
	assert.Contains(t, out, "<tfoot>")
	assert.Equal(t, 3*len(statsValues(service.Stats{})), strings.Count(out, "<td>")-2)
}
