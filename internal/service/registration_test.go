package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/tender-portal/internal/validation"
)

func registrationForm() validation.Registration {
	return validation.Registration{
		TenderNumber:  " UA-2025-000123 ",
		Department:    3,
		CompanyName:   "ТОВ Ромашка",
		EDRPOU:        "12345678",
		LegalAddress:  "м. Київ",
		DirectorName:  "Іваненко Іван",
		ContactPerson: "Петренко Петро",
		Email:         "office@romashka.ua",
		Phone:         "+380441234567",
	}
}

func TestRegistrationSubmit(t *testing.T) {
	api := newFakeAPI()
	svc := NewRegistrationService(api, discardLogger())

	result, err := svc.Submit(context.Background(), registrationForm())
	require.NoError(t, err)
	assert.Equal(t, int64(77), result.UserID)
	assert.Equal(t, "UA-2025-000123", api.lastRegistr.TenderNumber, "поля обрезаются перед отправкой")
	assert.Equal(t, "", api.lastRegistr.ActualAddress)
}

func TestRegistrationInvalidEDRPOUNeverCallsAPI(t *testing.T) {
	api := newFakeAPI()
	svc := NewRegistrationService(api, discardLogger())

	form := registrationForm()
	form.EDRPOU = "1234567"
	_, err := svc.Submit(context.Background(), form)

	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, validation.MsgEDRPOU, verr.Errors["edrpou"])
	assert.Equal(t, 0, api.total())
}

func TestRegistrationRemoteFieldErrors(t *testing.T) {
	api := newFakeAPI()
	api.registerErr = errors.New("упал")
	svc := NewRegistrationService(api, discardLogger())

	_, err := svc.Submit(context.Background(), registrationForm())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, api.count("register"))
}
