package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/domain/model"
)

// DefaultPageSize — заявок на странице списка.
const DefaultPageSize = 10

// RecentCount — сколько последних заявок показывать на панели.
const RecentCount = 5

// ApplicantsAPI — операции API над заявками.
type ApplicantsAPI interface {
	ListUsers(ctx context.Context, token string, params apiclient.ListUsersParams) ([]model.Applicant, error)
	GetUser(ctx context.Context, token string, id int64) (*model.Applicant, error)
	ApproveUser(ctx context.Context, token string, id int64) error
	DeclineUser(ctx context.Context, token string, id int64, reason string) error
	ListDepartments(ctx context.Context) ([]model.Department, error)
}

// ApplicantService — просмотр заявок, статистика и смена статусов.
type ApplicantService struct {
	api    ApplicantsAPI
	logger *slog.Logger
}

// NewApplicantService создаёт сервис заявок.
func NewApplicantService(api ApplicantsAPI, logger *slog.Logger) *ApplicantService {
	return &ApplicantService{
		api:    api,
		logger: logger.With(slog.String("component", "applicant_service")),
	}
}

// --- Список ---

// Filter — фильтры, сортировка и страница списка заявок.
type Filter struct {
	// Search — подстрока в компании, номере тендера или email (без учёта регистра).
	Search string
	// Status — статус (пусто — все).
	Status string
	// Department — подразделение (0 — все).
	Department int64
	// Sort — поле сортировки с необязательным "-" для убывания:
	// tender_number, company_name, created_at. По умолчанию -created_at.
	Sort string
	// Page — номер страницы с 1.
	Page int
}

// Page — страница списка заявок.
type Page struct {
	Items []model.Applicant
	// Total — заявок после фильтрации.
	Total int
	// Page — текущая страница (с 1), Pages — всего страниц (минимум 1).
	Page  int
	Pages int
	// From, To — номера первой и последней заявки на странице (с 1; 0 при пустом списке).
	From int
	To   int
}

// List загружает заявки и применяет фильтры, сортировку и пагинацию.
func (s *ApplicantService) List(ctx context.Context, token string, filter Filter) (*Page, error) {
	apps, err := s.api.ListUsers(ctx, token, apiclient.ListUsersParams{
		Status:     filter.Status,
		Department: filter.Department,
	})
	if err != nil {
		return nil, fmt.Errorf("список заявок: %w", err)
	}

	filtered := FilterApplicants(apps, filter)
	SortApplicants(filtered, filter.Sort)
	return Paginate(filtered, filter.Page, DefaultPageSize), nil
}

// FilterApplicants применяет поиск, статус и подразделение.
// API может уже отфильтровать по статусу и подразделению; повтор безвреден.
func FilterApplicants(apps []model.Applicant, filter Filter) []model.Applicant {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]model.Applicant, 0, len(apps))
	for _, a := range apps {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Department > 0 && a.Department != filter.Department {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.CompanyName), search) &&
			!strings.Contains(strings.ToLower(a.TenderNumber), search) &&
			!strings.Contains(strings.ToLower(a.Email), search) {
			continue
		}
		result = append(result, a)
	}
	return result
}

// SortApplicants сортирует на месте. Неизвестное поле — по -created_at.
func SortApplicants(apps []model.Applicant, sortKey string) {
	desc := strings.HasPrefix(sortKey, "-")
	field := strings.TrimPrefix(sortKey, "-")

	var less func(a, b model.Applicant) bool
	switch field {
	case "tender_number":
		less = func(a, b model.Applicant) bool { return a.TenderNumber < b.TenderNumber }
	case "company_name":
		less = func(a, b model.Applicant) bool {
			return strings.ToLower(a.CompanyName) < strings.ToLower(b.CompanyName)
		}
	case "created_at":
		less = func(a, b model.Applicant) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		desc = true
		less = func(a, b model.Applicant) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}

	sort.SliceStable(apps, func(i, j int) bool {
		if desc {
			return less(apps[j], apps[i])
		}
		return less(apps[i], apps[j])
	})
}

// Paginate возвращает страницу page (с 1) размера size.
// Номер страницы приводится к диапазону [1, Pages].
func Paginate(apps []model.Applicant, page, size int) *Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(apps)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}

	p := &Page{
		Items: apps[start:end],
		Total: total,
		Page:  page,
		Pages: pages,
	}
	if total > 0 {
		p.From = start + 1
		p.To = end
	}
	return p
}

// --- Панель администратора ---

// Stats — счётчики заявок по статусам.
type Stats struct {
	Total      int
	New        int
	InProgress int
	Pending    int
	Accepted   int
	Declined   int
	Activated  int
}

// ComputeStats считает заявки по статусам и активированные аккаунты.
func ComputeStats(apps []model.Applicant) Stats {
	stats := Stats{Total: len(apps)}
	for _, a := range apps {
		switch a.Status {
		case model.StatusNew:
			stats.New++
		case model.StatusInProgress:
			stats.InProgress++
		case model.StatusPending:
			stats.Pending++
		case model.StatusAccepted:
			stats.Accepted++
		case model.StatusDeclined:
			stats.Declined++
		}
		if a.IsActivated {
			stats.Activated++
		}
	}
	return stats
}

// Recent возвращает n последних заявок по created_at. Исходный срез не меняется.
func Recent(apps []model.Applicant, n int) []model.Applicant {
	sorted := make([]model.Applicant, len(apps))
	copy(sorted, apps)
	SortApplicants(sorted, "-created_at")
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Dashboard — данные главной страницы администратора.
type Dashboard struct {
	Stats  Stats
	Recent []model.Applicant
}

// Dashboard загружает заявки и считает статистику.
func (s *ApplicantService) Dashboard(ctx context.Context, token string) (*Dashboard, error) {
	apps, err := s.api.ListUsers(ctx, token, apiclient.ListUsersParams{})
	if err != nil {
		return nil, fmt.Errorf("панель администратора: %w", err)
	}
	return &Dashboard{
		Stats:  ComputeStats(apps),
		Recent: Recent(apps, RecentCount),
	}, nil
}

// --- Отчёты ---

// ReportRow — строка отчёта: подразделение и счётчики по статусам.
type ReportRow struct {
	DepartmentID   int64
	DepartmentName string
	Stats          Stats
}

// Report — отчёт по подразделениям.
type Report struct {
	Rows  []ReportRow
	Total Stats
}

// BuildReport группирует заявки по подразделениям (по имени, затем по ID).
func BuildReport(apps []model.Applicant) *Report {
	groups := make(map[int64][]model.Applicant)
	names := make(map[int64]string)
	for _, a := range apps {
		groups[a.Department] = append(groups[a.Department], a)
		if a.DepartmentName != "" {
			names[a.Department] = a.DepartmentName
		}
	}

	report := &Report{Total: ComputeStats(apps)}
	for id, group := range groups {
		report.Rows = append(report.Rows, ReportRow{
			DepartmentID:   id,
			DepartmentName: names[id],
			Stats:          ComputeStats(group),
		})
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if a.DepartmentName != b.DepartmentName {
			return a.DepartmentName < b.DepartmentName
		}
		return a.DepartmentID < b.DepartmentID
	})
	return report
}

// Report загружает заявки и строит отчёт по подразделениям.
func (s *ApplicantService) Report(ctx context.Context, token string) (*Report, error) {
	apps, err := s.api.ListUsers(ctx, token, apiclient.ListUsersParams{})
	if err != nil {
		return nil, fmt.Errorf("отчёт: %w", err)
	}
	return BuildReport(apps), nil
}

// --- Карточка и переходы ---

// Get возвращает свежую копию заявки.
func (s *ApplicantService) Get(ctx context.Context, token string, id int64) (*model.Applicant, error) {
	app, err := s.api.GetUser(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("заявка %d: %w", id, err)
	}
	return app, nil
}

// Departments возвращает справочник подразделений для фильтра.
func (s *ApplicantService) Departments(ctx context.Context) ([]model.Department, error) {
	departments, err := s.api.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("справочник подразделений: %w", err)
	}
	return departments, nil
}

// Approve одобряет заявку. Статус перепроверяется по свежей копии:
// устаревшая страница не может запустить недопустимый переход.
func (s *ApplicantService) Approve(ctx context.Context, token string, id int64) error {
	app, err := s.Get(ctx, token, id)
	if err != nil {
		return err
	}
	if !app.CanApprove() {
		return fmt.Errorf("%w: одобрение из статуса %q", ErrTransitionNotAllowed, app.Status)
	}

	if err := s.api.ApproveUser(ctx, token, id); err != nil {
		return fmt.Errorf("одобрение заявки %d: %w", id, err)
	}
	s.logger.Info("Заявка одобрена",
		slog.Int64("user_id", id),
		slog.String("tender_number", app.TenderNumber),
	)
	return nil
}

// Decline отклоняет заявку с причиной (может быть пустой).
func (s *ApplicantService) Decline(ctx context.Context, token string, id int64, reason string) error {
	app, err := s.Get(ctx, token, id)
	if err != nil {
		return err
	}
	if !app.CanDecline() {
		return fmt.Errorf("%w: отклонение из статуса %q", ErrTransitionNotAllowed, app.Status)
	}

	if err := s.api.DeclineUser(ctx, token, id, strings.TrimSpace(reason)); err != nil {
		return fmt.Errorf("отклонение заявки %d: %w", id, err)
	}
	s.logger.Info("Заявка отклонена",
		slog.Int64("user_id", id),
		slog.String("tender_number", app.TenderNumber),
		slog.Bool("with_reason", strings.TrimSpace(reason) != ""),
	)
	return nil
}

// OwnStatus возвращает собственную заявку заявителя (по ID из сессии).
func (s *ApplicantService) OwnStatus(ctx context.Context, identity *model.Identity) (*model.Applicant, error) {
	return s.Get(ctx, identity.Token, identity.ID)
}
