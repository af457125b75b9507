// admin.go — страницы администратора: обзор, заявки, карточка,
// одобрение/отклонение и отчёты.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/auth"
	uimiddleware "github.com/bigkaa/tender-portal/internal/ui/middleware"
	"github.com/bigkaa/tender-portal/internal/ui/pages"
)

// sortKeys — допустимые значения параметра sort.
var sortKeys = map[string]bool{
	"tender_number":  true,
	"-tender_number": true,
	"company_name":   true,
	"-company_name":  true,
	"created_at":     true,
	"-created_at":    true,
}

// AdminHandler — обработчики страниц администратора.
type AdminHandler struct {
	applicants *service.ApplicantService
	sessions   *auth.Manager
	logger     *slog.Logger
}

// NewAdminHandler создаёт новый AdminHandler.
func NewAdminHandler(applicants *service.ApplicantService, sessions *auth.Manager, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		applicants: applicants,
		sessions:   sessions,
		logger:     logger.With(slog.String("component", "ui.admin")),
	}
}

// HandleDashboard — GET /admin
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	identity := uimiddleware.IdentityFromContext(r.Context())

	dashboard, err := h.applicants.Dashboard(r.Context(), identity.Token)
	if err != nil {
		h.loadFailed(w, r, err, "errors.load_failed")
		return
	}

	render(w, r, h.logger, http.StatusOK, pages.AdminDashboard(baseFor(r), pages.DashboardData{
		Stats:  dashboard.Stats,
		Recent: dashboard.Recent,
	}))
}

// HandleUsers — GET /admin/users
// Фильтры, сортировка и страница берутся из query.
func (h *AdminHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	identity := uimiddleware.IdentityFromContext(r.Context())
	filter := filterFromQuery(r)

	page, err := h.applicants.List(r.Context(), identity.Token, filter)
	if err != nil {
		h.loadFailed(w, r, err, "errors.load_failed")
		return
	}
	filter.Page = page.Page

	base := baseFor(r)
	departments, err := h.applicants.Departments(r.Context())
	if err != nil {
		h.logger.Warn("Справочник подразделений недоступен", slog.String("error", err.Error()))
		base.Error = errorMessage(r.Context(), err, "errors.departments_failed")
	}

	render(w, r, h.logger, http.StatusOK, pages.AdminUsers(base, pages.UsersData{
		Filter:      filter,
		Page:        page,
		Departments: departments,
	}))
}

// HandleUserDetail — GET /admin/users/{id}
// ?decline=1 открывает форму отклонения.
func (h *AdminHandler) HandleUserDetail(w http.ResponseWriter, r *http.Request) {
	identity := uimiddleware.IdentityFromContext(r.Context())
	id, ok := userID(r)
	if !ok {
		renderError(w, r, h.logger, http.StatusNotFound, "errors.not_found")
		return
	}

	applicant, err := h.applicants.Get(r.Context(), identity.Token, id)
	if err != nil {
		h.loadFailed(w, r, err, "errors.load_failed")
		return
	}

	render(w, r, h.logger, http.StatusOK, pages.AdminUserDetail(baseFor(r), pages.UserDetailData{
		Applicant:   applicant,
		ShowDecline: r.URL.Query().Get("decline") == "1",
	}))
}

// HandleApprove — POST /admin/users/{id}/approve
// Успех — redirect на return (список или карточка) с сообщением.
func (h *AdminHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	identity := uimiddleware.IdentityFromContext(r.Context())
	id, ok := userID(r)
	if !ok {
		renderError(w, r, h.logger, http.StatusNotFound, "errors.not_found")
		return
	}

	if err := h.applicants.Approve(r.Context(), identity.Token, id); err != nil {
		h.actionFailed(w, r, id, err, "errors.approve_failed", false, "")
		return
	}

	target := safeReturn(r.PostFormValue("return"), "/admin/", pages.AdminUsersPath)
	http.Redirect(w, r, withNotice(target, NoticeApproved), http.StatusSeeOther)
}

// HandleDecline — POST /admin/users/{id}/decline
// Причина необязательна. Успех — redirect на список заявок.
func (h *AdminHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	identity := uimiddleware.IdentityFromContext(r.Context())
	id, ok := userID(r)
	if !ok {
		renderError(w, r, h.logger, http.StatusNotFound, "errors.not_found")
		return
	}
	reason := r.PostFormValue("reason")

	if err := h.applicants.Decline(r.Context(), identity.Token, id, reason); err != nil {
		h.actionFailed(w, r, id, err, "errors.decline_failed", true, reason)
		return
	}

	http.Redirect(w, r, withNotice(pages.AdminUsersPath, NoticeDeclined), http.StatusSeeOther)
}

// HandleReports — GET /admin/reports
func (h *AdminHandler) HandleReports(w http.ResponseWriter, r *http.Request) {
	identity := uimiddleware.IdentityFromContext(r.Context())

	report, err := h.applicants.Report(r.Context(), identity.Token)
	if err != nil {
		h.loadFailed(w, r, err, "errors.load_failed")
		return
	}

	render(w, r, h.logger, http.StatusOK, pages.AdminReports(baseFor(r), pages.ReportsData{Report: report}))
}

// actionFailed повторно показывает карточку с ошибкой действия.
// Если карточку загрузить не удалось — страница ошибки.
func (h *AdminHandler) actionFailed(w http.ResponseWriter, r *http.Request, id int64, err error, fallbackKey string, showDecline bool, reason string) {
	if expireOnUnauthorized(w, r, h.sessions, h.logger, err) {
		return
	}
	h.logger.Warn("Действие над заявкой не выполнено",
		slog.Int64("user_id", id),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	identity := uimiddleware.IdentityFromContext(r.Context())
	applicant, getErr := h.applicants.Get(r.Context(), identity.Token, id)
	if getErr != nil {
		h.loadFailed(w, r, getErr, "errors.load_failed")
		return
	}

	base := baseFor(r)
	base.Error = errorMessage(r.Context(), err, fallbackKey)
	render(w, r, h.logger, formStatus(err), pages.AdminUserDetail(base, pages.UserDetailData{
		Applicant:   applicant,
		ShowDecline: showDecline && applicant.CanDecline(),
		Reason:      reason,
	}))
}

// loadFailed обрабатывает ошибку загрузки данных страницы:
// 401 — выход, 404 — страница "не найдено", остальное — 502.
func (h *AdminHandler) loadFailed(w http.ResponseWriter, r *http.Request, err error, messageKey string) {
	if expireOnUnauthorized(w, r, h.sessions, h.logger, err) {
		return
	}
	if isNotFound(err) {
		renderError(w, r, h.logger, http.StatusNotFound, "errors.not_found")
		return
	}
	h.logger.Error("Ошибка загрузки данных",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	renderError(w, r, h.logger, http.StatusBadGateway, messageKey)
}

// filterFromQuery читает фильтры списка. Недопустимые значения
// статуса, подразделения и сортировки отбрасываются.
func filterFromQuery(r *http.Request) service.Filter {
	q := r.URL.Query()
	filter := service.Filter{
		Search: strings.TrimSpace(q.Get("q")),
		Page:   1,
	}
	if status := q.Get("status"); model.IsKnownStatus(status) || status == model.StatusBlocked {
		filter.Status = status
	}
	if department, err := strconv.ParseInt(q.Get("department"), 10, 64); err == nil && department > 0 {
		filter.Department = department
	}
	if sortKey := q.Get("sort"); sortKeys[sortKey] {
		filter.Sort = sortKey
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	return filter
}

// userID разбирает {id} маршрута.
func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// isNotFound — API ответил 404.
func isNotFound(err error) bool {
	var apiErr *apiclient.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
