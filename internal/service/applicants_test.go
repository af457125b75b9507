package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/tender-portal/internal/domain/model"
)

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func applicant(id int64, status string, dept int64, company string) model.Applicant {
	return model.Applicant{
		ID:             id,
		TenderNumber:   fmt.Sprintf("T-%03d", id),
		CompanyName:    company,
		Email:          fmt.Sprintf("user%d@example.com", id),
		Department:     dept,
		DepartmentName: fmt.Sprintf("Підрозділ %d", dept),
		Status:         status,
		CreatedAt:      baseTime.Add(time.Duration(id) * time.Hour),
	}
}

func TestFilterApplicants(t *testing.T) {
	apps := []model.Applicant{
		applicant(1, model.StatusNew, 1, "ТОВ Ромашка"),
		applicant(2, model.StatusPending, 2, "ПП Волошка"),
		applicant(3, model.StatusNew, 2, "ТОВ Лілія"),
	}

	assert.Len(t, FilterApplicants(apps, Filter{}), 3)
	assert.Len(t, FilterApplicants(apps, Filter{Status: model.StatusNew}), 2)
	assert.Len(t, FilterApplicants(apps, Filter{Department: 2}), 2)

	got := FilterApplicants(apps, Filter{Search: "тов"})
	assert.Len(t, got, 2, "поиск без учёта регистра по компании")

	got = FilterApplicants(apps, Filter{Search: "T-002"})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	got = FilterApplicants(apps, Filter{Search: "USER3@"})
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)

	assert.Empty(t, FilterApplicants(apps, Filter{Search: "тов", Department: 2, Status: model.StatusPending}))
}

func TestSortApplicants(t *testing.T) {
	apps := []model.Applicant{
		applicant(2, model.StatusNew, 1, "Бета"),
		applicant(3, model.StatusNew, 1, "альфа"),
		applicant(1, model.StatusNew, 1, "Гамма"),
	}

	ids := func() []int64 {
		out := make([]int64, len(apps))
		for i, a := range apps {
			out[i] = a.ID
		}
		return out
	}

	SortApplicants(apps, "")
	assert.Equal(t, []int64{3, 2, 1}, ids(), "по умолчанию новые сверху")

	SortApplicants(apps, "tender_number")
	assert.Equal(t, []int64{1, 2, 3}, ids())

	SortApplicants(apps, "-tender_number")
	assert.Equal(t, []int64{3, 2, 1}, ids())

	SortApplicants(apps, "company_name")
	assert.Equal(t, []int64{3, 2, 1}, ids(), "без учёта регистра")

	SortApplicants(apps, "created_at")
	assert.Equal(t, []int64{1, 2, 3}, ids())
}

func TestPaginate(t *testing.T) {
	apps := make([]model.Applicant, 23)
	for i := range apps {
		apps[i] = applicant(int64(i+1), model.StatusNew, 1, "X")
	}

	p := Paginate(apps, 1, 10)
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, 1, p.From)
	assert.Equal(t, 10, p.To)
	assert.Len(t, p.Items, 10)

	p = Paginate(apps, 3, 10)
	assert.Equal(t, 21, p.From)
	assert.Equal(t, 23, p.To)
	assert.Len(t, p.Items, 3)

	p = Paginate(apps, 99, 10)
	assert.Equal(t, 3, p.Page, "номер страницы ограничивается сверху")

	p = Paginate(nil, 0, 10)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.Pages)
	assert.Equal(t, 0, p.From)
	assert.Equal(t, 0, p.To)
	assert.Empty(t, p.Items)
}

func TestComputeStatsAndRecent(t *testing.T) {
	apps := []model.Applicant{
		applicant(1, model.StatusNew, 1, "A"),
		applicant(2, model.StatusNew, 1, "B"),
		applicant(3, model.StatusInProgress, 1, "C"),
		applicant(4, model.StatusPending, 2, "D"),
		applicant(5, model.StatusAccepted, 2, "E"),
		applicant(6, model.StatusDeclined, 2, "F"),
		applicant(7, model.StatusBlocked, 2, "G"),
	}
	apps[4].IsActivated = true

	stats := ComputeStats(apps)
	assert.Equal(t, Stats{Total: 7, New: 2, InProgress: 1, Pending: 1, Accepted: 1, Declined: 1, Activated: 1}, stats)

	recent := Recent(apps, RecentCount)
	require.Len(t, recent, RecentCount)
	assert.Equal(t, int64(7), recent[0].ID)
	assert.Equal(t, int64(3), recent[4].ID)
	assert.Equal(t, int64(1), apps[0].ID, "исходный срез не меняется")
}

func TestBuildReport(t *testing.T) {
	apps := []model.Applicant{
		applicant(1, model.StatusNew, 2, "A"),
		applicant(2, model.StatusAccepted, 2, "B"),
		applicant(3, model.StatusDeclined, 1, "C"),
	}

	report := BuildReport(apps)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, int64(1), report.Rows[0].DepartmentID)
	assert.Equal(t, 1, report.Rows[0].Stats.Declined)
	assert.Equal(t, 2, report.Rows[1].Stats.Total)
	assert.Equal(t, 3, report.Total.Total)
}

func TestApplicantServiceList(t *testing.T) {
	api := newFakeAPI()
	for i := int64(1); i <= 12; i++ {
		api.add(applicant(i, model.StatusNew, 1+i%2, "ТОВ"))
	}
	svc := NewApplicantService(api, discardLogger())

	page, err := svc.List(context.Background(), "tok", Filter{Department: 2, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), api.lastParams.Department, "фильтры передаются в API")
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, int64(11), page.Items[0].ID, "новые сверху")
}

func TestDeclineWithEmptyReasonLeavesNewBucket(t *testing.T) {
	api := newFakeAPI()
	api.add(applicant(1, model.StatusNew, 1, "A"), applicant(2, model.StatusNew, 1, "B"))
	svc := NewApplicantService(api, discardLogger())
	ctx := context.Background()

	before, err := svc.Dashboard(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, before.Stats.New)

	require.NoError(t, svc.Decline(ctx, "tok", 1, ""))
	assert.Equal(t, "", api.lastReason)

	after, err := svc.Dashboard(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, after.Stats.New)
	assert.Equal(t, 1, after.Stats.Declined)
}

func TestTransitionsRecheckFreshRecord(t *testing.T) {
	api := newFakeAPI()
	api.add(
		applicant(1, model.StatusAccepted, 1, "A"),
		applicant(2, model.StatusInProgress, 1, "B"),
		applicant(3, model.StatusDeclined, 1, "C"),
		applicant(4, model.StatusNew, 1, "D"),
	)
	svc := NewApplicantService(api, discardLogger())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Approve(ctx, "tok", 1), ErrTransitionNotAllowed)
	assert.ErrorIs(t, svc.Approve(ctx, "tok", 2), ErrTransitionNotAllowed)
	assert.ErrorIs(t, svc.Decline(ctx, "tok", 3, "x"), ErrTransitionNotAllowed)
	assert.Equal(t, 0, api.count("approve")+api.count("decline"))

	require.NoError(t, svc.Decline(ctx, "tok", 2, "  причина  "))
	assert.Equal(t, "причина", api.lastReason)

	require.NoError(t, svc.Approve(ctx, "tok", 4))
	// Повторное одобрение со старой страницы
	assert.ErrorIs(t, svc.Approve(ctx, "tok", 4), ErrTransitionNotAllowed)
	assert.Equal(t, 1, api.count("approve"))
}

func TestOwnStatus(t *testing.T) {
	api := newFakeAPI()
	api.add(applicant(5, model.StatusPending, 1, "A"))
	svc := NewApplicantService(api, discardLogger())

	app, err := svc.OwnStatus(context.Background(), &model.Identity{ID: 5, Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, app.Status)

	_, err = svc.OwnStatus(context.Background(), &model.Identity{ID: 6, Token: "tok"})
	assert.Error(t, err)
}
