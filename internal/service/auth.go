package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
	"github.com/bigkaa/tender-portal/internal/validation"
)

// AuthAPI — операции API, нужные для входа, выхода и активации.
type AuthAPI interface {
	Login(ctx context.Context, creds apiclient.Credentials) (*apiclient.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Activate(ctx context.Context, act apiclient.Activation) (*apiclient.AuthResult, error)
}

// AuthService — вход, выход и активация аккаунта.
type AuthService struct {
	api    AuthAPI
	logger *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(api AuthAPI, logger *slog.Logger) *AuthService {
	return &AuthService{
		api:    api,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Login проверяет форму, выполняет вход через API и возвращает identity
// с токеном. Роль вне {user, admin} — ErrUnsupportedRole (токен
// при этом отзывается на сервере).
func (s *AuthService) Login(ctx context.Context, form validation.Login) (*model.Identity, error) {
	form.Username = strings.TrimSpace(form.Username)
	if err := validationError(validation.ValidateLogin(form)); err != nil {
		return nil, err
	}

	result, err := s.api.Login(ctx, apiclient.Credentials{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("вход: %w", err)
	}

	return s.identityFrom(ctx, result)
}

// Activate устанавливает пароль по токену активации и возвращает
// identity для автоматического входа.
func (s *AuthService) Activate(ctx context.Context, activationToken string, form validation.Activation) (*model.Identity, error) {
	form.NewUsername = strings.TrimSpace(form.NewUsername)
	if err := validationError(validation.ValidateActivation(form)); err != nil {
		return nil, err
	}

	result, err := s.api.Activate(ctx, apiclient.Activation{
		Token:           activationToken,
		Password:        form.Password,
		PasswordConfirm: form.PasswordConfirm,
		NewUsername:     form.NewUsername,
	})
	if err != nil {
		return nil, fmt.Errorf("активация: %w", err)
	}

	s.logger.Info("Аккаунт активирован", slog.Int64("user_id", result.User.ID))
	return s.identityFrom(ctx, result)
}

// Logout отзывает токен на сервере. Ошибка только логируется:
// локальная сессия закрывается в любом случае.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.api.Logout(ctx, token); err != nil {
		s.logger.Warn("Ошибка выхода на стороне API",
			slog.String("error", err.Error()),
		)
	}
}

// identityFrom проверяет роль и собирает identity с токеном.
func (s *AuthService) identityFrom(ctx context.Context, result *apiclient.AuthResult) (*model.Identity, error) {
	if !rbac.IsValidRole(result.User.Role) {
		s.logger.Warn("Вход с неподдерживаемой ролью отклонён",
			slog.Int64("user_id", result.User.ID),
			slog.String("role", result.User.Role),
		)
		s.Logout(ctx, result.Token)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRole, result.User.Role)
	}

	identity := result.User.Identity()
	identity.Token = result.Token
	return &identity, nil
}
