package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/validation"
)

// RegistrationAPI — операции API для подачи заявки.
type RegistrationAPI interface {
	Register(ctx context.Context, reg apiclient.Registration) (*apiclient.RegisterResult, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
}

// RegistrationService — подача заявки победителя тендера.
type RegistrationService struct {
	api    RegistrationAPI
	logger *slog.Logger
}

// NewRegistrationService создаёт сервис регистрации.
func NewRegistrationService(api RegistrationAPI, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{
		api:    api,
		logger: logger.With(slog.String("component", "registration_service")),
	}
}

// Departments возвращает справочник подразделений для шага 1.
func (s *RegistrationService) Departments(ctx context.Context) ([]model.Department, error) {
	departments, err := s.api.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("справочник подразделений: %w", err)
	}
	return departments, nil
}

// Submit проверяет всю форму и отправляет заявку. При ошибках
// валидации API не вызывается.
func (s *RegistrationService) Submit(ctx context.Context, form validation.Registration) (*apiclient.RegisterResult, error) {
	form = form.Normalize()
	if err := validationError(validation.ValidateRegistration(form)); err != nil {
		return nil, err
	}

	result, err := s.api.Register(ctx, apiclient.Registration{
		TenderNumber:  form.TenderNumber,
		Department:    form.Department,
		CompanyName:   form.CompanyName,
		EDRPOU:        form.EDRPOU,
		LegalAddress:  form.LegalAddress,
		ActualAddress: form.ActualAddress,
		DirectorName:  form.DirectorName,
		ContactPerson: form.ContactPerson,
		Email:         form.Email,
		Phone:         form.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("подача заявки: %w", err)
	}

	s.logger.Info("Заявка подана",
		slog.String("tender_number", form.TenderNumber),
		slog.Int64("user_id", result.UserID),
	)
	return result, nil
}
