// admin.go — данные страниц администратора: обзор, заявки, карточка, отчёты.
package pages

import (
	"context"
	"net/url"
	"strconv"

	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
)

// Пути страниц администратора.
const (
	AdminUsersPath   = "/admin/users"
	AdminReportsPath = "/admin/reports"
)

// UserPath — карточка заявки.
func UserPath(id int64) string {
	return AdminUsersPath + "/" + strconv.FormatInt(id, 10)
}

// UsersURL строит ссылку на список заявок с фильтрами.
// Пустые значения и первая страница в query не попадают.
func UsersURL(filter service.Filter) string {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("q", filter.Search)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Department > 0 {
		q.Set("department", strconv.FormatInt(filter.Department, 10))
	}
	if filter.Sort != "" {
		q.Set("sort", filter.Sort)
	}
	if filter.Page > 1 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if len(q) == 0 {
		return AdminUsersPath
	}
	return AdminUsersPath + "?" + q.Encode()
}

// DashboardData — данные главной страницы администратора.
type DashboardData struct {
	Stats  service.Stats
	Recent []model.Applicant
}

// UsersData — данные списка заявок.
type UsersData struct {
	Filter      service.Filter
	Page        *service.Page
	Departments []model.Department
}

// pageURL — ссылка на страницу p списка с теми же фильтрами.
func pageURL(filter service.Filter, p int) string {
	filter.Page = p
	return UsersURL(filter)
}

func departmentValue(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// sortFilter — фильтр для ссылки в заголовке колонки: повторный клик
// по активной колонке меняет направление, страница сбрасывается.
func sortFilter(filter service.Filter, field string) service.Filter {
	if filter.Sort == field {
		filter.Sort = "-" + field
	} else {
		filter.Sort = field
	}
	filter.Page = 0
	return filter
}

// sortArrow — стрелка направления у активной колонки.
// Без явной сортировки список идёт по дате создания, новые сверху.
func sortArrow(filter service.Filter, field string) string {
	switch {
	case filter.Sort == field:
		return " ↑"
	case filter.Sort == "-"+field:
		return " ↓"
	case filter.Sort == "" && field == "created_at":
		return " ↓"
	}
	return ""
}

// UserDetailData — данные карточки заявки.
type UserDetailData struct {
	Applicant *model.Applicant
	// ShowDecline — показать форму отклонения.
	ShowDecline bool
	// Reason — введённая причина (сохраняется при ошибке).
	Reason string
}

func lastLoginLabel(ctx context.Context, a *model.Applicant) string {
	if a.LastLogin == nil {
		return i18n.T(ctx, "detail.never_logged_in")
	}
	return formatDateTime(*a.LastLogin)
}

// ReportsData — данные страницы отчётов.
type ReportsData struct {
	Report *service.Report
}

func reportRowName(row service.ReportRow) string {
	if row.DepartmentName != "" {
		return row.DepartmentName
	}
	return "#" + strconv.FormatInt(row.DepartmentID, 10)
}

// statsValues — ячейки строки отчёта в порядке колонок.
func statsValues(s service.Stats) []int {
	return []int{s.Total, s.New, s.InProgress, s.Pending, s.Accepted, s.Declined, s.Activated}
}
