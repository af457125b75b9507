package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
	"github.com/bigkaa/tender-portal/internal/validation"
)

func TestAuthLoginRoles(t *testing.T) {
	tests := []struct {
		role     string
		wantHome string
	}{
		{rbac.RoleAdmin, rbac.AdminPath},
		{rbac.RoleUser, rbac.CabinetPath},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			api := newFakeAPI()
			api.loginResult = &apiclient.AuthResult{
				Token: "tok-" + tt.role,
				User:  apiclient.User{ID: 1, Email: "a@b.com", Role: tt.role},
			}
			svc := NewAuthService(api, discardLogger())

			identity, err := svc.Login(context.Background(), validation.Login{Username: "a@b.com", Password: "x"})
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if identity.Token != "tok-"+tt.role {
				t.Errorf("Token = %q, ожидается токен из ответа API", identity.Token)
			}
			if got := rbac.HomePath(identity.Role); got != tt.wantHome {
				t.Errorf("HomePath = %q, хотели %q", got, tt.wantHome)
			}
		})
	}
}

func TestAuthLoginValidationSkipsAPI(t *testing.T) {
	api := newFakeAPI()
	svc := NewAuthService(api, discardLogger())

	_, err := svc.Login(context.Background(), validation.Login{Username: " ", Password: ""})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидается ErrValidation, получено %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Errors.Has("username") {
		t.Errorf("ожидается ошибка поля username: %v", err)
	}
	if api.total() != 0 {
		t.Errorf("API вызван %d раз при ошибке валидации", api.total())
	}
}

func TestAuthLoginUnsupportedRole(t *testing.T) {
	api := newFakeAPI()
	api.loginResult = &apiclient.AuthResult{
		Token: "tok",
		User:  apiclient.User{ID: 9, Email: "root@b.com", Role: "superadmin"},
	}
	svc := NewAuthService(api, discardLogger())

	_, err := svc.Login(context.Background(), validation.Login{Username: "root@b.com", Password: "x"})
	if !errors.Is(err, ErrUnsupportedRole) {
		t.Fatalf("ожидается ErrUnsupportedRole, получено %v", err)
	}
	if api.count("logout") != 1 || api.lastLogout != "tok" {
		t.Errorf("токен неподдерживаемой роли должен быть отозван")
	}
}

func TestAuthLoginRemoteRejection(t *testing.T) {
	api := newFakeAPI()
	api.loginErr = &apiclient.APIError{StatusCode: 400, NonFieldErrors: []string{"Невірні облікові дані"}}
	svc := NewAuthService(api, discardLogger())

	_, err := svc.Login(context.Background(), validation.Login{Username: "a@b.com", Password: "bad"})
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ожидается *APIError, получено %v", err)
	}
	if apiErr.Message() != "Невірні облікові дані" {
		t.Errorf("Message() = %q", apiErr.Message())
	}
}

func TestAuthLogoutIgnoresRemoteFailure(t *testing.T) {
	api := newFakeAPI()
	api.logoutErr = errors.New("connection refused")
	svc := NewAuthService(api, discardLogger())

	// Не паникует и не возвращает ошибку
	svc.Logout(context.Background(), "tok")
	if api.count("logout") != 1 {
		t.Errorf("Logout API вызван %d раз, хотели 1", api.count("logout"))
	}

	svc.Logout(context.Background(), "")
	if api.count("logout") != 1 {
		t.Error("пустой токен не должен отправляться в API")
	}
}

func TestAuthActivate(t *testing.T) {
	api := newFakeAPI()
	api.loginResult = &apiclient.AuthResult{
		Token: "new-tok",
		User:  apiclient.User{ID: 5, Email: "c@d.com", Role: rbac.RoleUser, CompanyName: "ТОВ Ромашка"},
	}
	svc := NewAuthService(api, discardLogger())

	_, err := svc.Activate(context.Background(), "act", validation.Activation{Password: "a", PasswordConfirm: "b"})
	if !errors.Is(err, ErrValidation) || api.count("activate") != 0 {
		t.Fatalf("несовпадающие пароли должны отсекаться до API: %v", err)
	}

	identity, err := svc.Activate(context.Background(), "act", validation.Activation{Password: "s3cret", PasswordConfirm: "s3cret"})
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if identity.Token != "new-tok" || identity.CompanyName != "ТОВ Ромашка" {
		t.Errorf("identity = %+v", identity)
	}
}
