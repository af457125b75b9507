package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/domain/model"
)

// fakeAPI — in-memory реализация AuthAPI, RegistrationAPI и ApplicantsAPI.
type fakeAPI struct {
	mu sync.Mutex

	loginResult *apiclient.AuthResult
	loginErr    error
	logoutErr   error
	activateErr error
	registerErr error
	listErr     error

	applicants  map[int64]*model.Applicant
	departments []model.Department

	calls       map[string]int
	lastParams  apiclient.ListUsersParams
	lastReason  string
	lastLogout  string
	lastRegistr apiclient.Registration
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		applicants: make(map[int64]*model.Applicant),
		calls:      make(map[string]int),
	}
}

func (f *fakeAPI) hit(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) add(apps ...model.Applicant) {
	for i := range apps {
		a := apps[i]
		f.applicants[a.ID] = &a
	}
}

func (f *fakeAPI) Login(_ context.Context, _ apiclient.Credentials) (*apiclient.AuthResult, error) {
	f.hit("login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.hit("logout")
	f.lastLogout = token
	return f.logoutErr
}

func (f *fakeAPI) Activate(_ context.Context, _ apiclient.Activation) (*apiclient.AuthResult, error) {
	f.hit("activate")
	if f.activateErr != nil {
		return nil, f.activateErr
	}
	return f.loginResult, nil
}

func (f *fakeAPI) Register(_ context.Context, reg apiclient.Registration) (*apiclient.RegisterResult, error) {
	f.hit("register")
	f.lastRegistr = reg
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &apiclient.RegisterResult{Message: "ok", TenderNumber: reg.TenderNumber, UserID: 77}, nil
}

func (f *fakeAPI) ListDepartments(_ context.Context) ([]model.Department, error) {
	f.hit("departments")
	return f.departments, nil
}

func (f *fakeAPI) ListUsers(_ context.Context, _ string, params apiclient.ListUsersParams) ([]model.Applicant, error) {
	f.hit("list")
	f.lastParams = params
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := make([]model.Applicant, 0, len(f.applicants))
	for _, a := range f.applicants {
		if params.Status != "" && a.Status != params.Status {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (f *fakeAPI) GetUser(_ context.Context, _ string, id int64) (*model.Applicant, error) {
	f.hit("get")
	a, ok := f.applicants[id]
	if !ok {
		return nil, &apiclient.APIError{StatusCode: 404, Detail: "Не знайдено."}
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAPI) ApproveUser(_ context.Context, _ string, id int64) error {
	f.hit("approve")
	f.applicants[id].Status = model.StatusInProgress
	return nil
}

func (f *fakeAPI) DeclineUser(_ context.Context, _ string, id int64, reason string) error {
	f.hit("decline")
	f.lastReason = reason
	f.applicants[id].Status = model.StatusDeclined
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
