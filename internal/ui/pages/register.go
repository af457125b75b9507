// register.go — данные мастера подачи заявки (3 шага).
package pages

import (
	"strconv"

	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/validation"
)

// Действия кнопок мастера (поле action).
const (
	WizardNext   = "next"
	WizardBack   = "back"
	WizardSubmit = "submit"
)

// RegisterData — состояние мастера регистрации.
type RegisterData struct {
	// Step — текущий шаг (1..validation.StepCount).
	Step        int
	Form        validation.Registration
	Departments []model.Department
	Errors      validation.Errors
}

// stepTitleKeys — заголовки шагов.
var stepTitleKeys = map[int]string{
	validation.StepTender:  "register.step_tender",
	validation.StepCompany: "register.step_company",
	validation.StepContact: "register.step_contact",
}

// RegistrationValue возвращает значение поля формы по имени.
func RegistrationValue(f validation.Registration, name string) string {
	switch name {
	case "tender_number":
		return f.TenderNumber
	case "department":
		if f.Department == 0 {
			return ""
		}
		return strconv.FormatInt(f.Department, 10)
	case "company_name":
		return f.CompanyName
	case "edrpou":
		return f.EDRPOU
	case "legal_address":
		return f.LegalAddress
	case "actual_address":
		return f.ActualAddress
	case "director_name":
		return f.DirectorName
	case "contact_person":
		return f.ContactPerson
	case "email":
		return f.Email
	case "phone":
		return f.Phone
	default:
		return ""
	}
}

// normalizeStep приводит номер шага к допустимому диапазону.
func normalizeStep(step int) int {
	if step < validation.StepTender || step > validation.StepCount {
		return validation.StepTender
	}
	return step
}

// stepClass — класс шага в полосе прогресса.
func stepClass(s, current int) string {
	switch {
	case s == current:
		return "step current"
	case s < current:
		return "step done"
	default:
		return "step"
	}
}

// registrationField — поле мастера по имени.
func registrationField(f validation.Registration, name string) field {
	return field{
		Name:     name,
		LabelKey: "register." + name,
		Type:     registrationInputType(name),
		Value:    RegistrationValue(f, name),
		Required: name != "actual_address",
	}
}

func registrationInputType(name string) string {
	switch name {
	case "email":
		return "email"
	case "phone":
		return "tel"
	default:
		return "text"
	}
}

// RegisterSuccessData — результат подачи заявки.
type RegisterSuccessData struct {
	TenderNumber string
	// Message — сообщение API (показывается, если есть).
	Message string
}
