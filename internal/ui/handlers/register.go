// register.go — мастер подачи заявки на участие в тендере.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/pages"
	"github.com/bigkaa/tender-portal/internal/validation"
)

// RegisterHandler — обработчики мастера регистрации.
// Состояние мастера живёт в самой форме: текущий шаг и скрытые поля
// остальных шагов.
type RegisterHandler struct {
	registration *service.RegistrationService
	logger       *slog.Logger
}

// NewRegisterHandler создаёт новый RegisterHandler.
func NewRegisterHandler(registration *service.RegistrationService, logger *slog.Logger) *RegisterHandler {
	return &RegisterHandler{
		registration: registration,
		logger:       logger.With(slog.String("component", "ui.register")),
	}
}

// HandleRegisterPage — GET /register, первый шаг мастера.
func (h *RegisterHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderStep(w, r, http.StatusOK, baseFor(r), pages.RegisterData{Step: validation.StepTender})
}

// HandleRegister — POST /register
//   - back: предыдущий шаг без проверки;
//   - next: проверка только полей текущего шага;
//   - submit: проверка всей формы и отправка в API.
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.logger, http.StatusBadRequest, "errors.validation")
		return
	}

	step := clampStep(r.PostFormValue("step"))
	form := registrationFromRequest(r)
	base := baseFor(r)

	switch r.PostFormValue("action") {
	case pages.WizardBack:
		if step > validation.StepTender {
			step--
		}
		h.renderStep(w, r, http.StatusOK, base, pages.RegisterData{Step: step, Form: form})

	case pages.WizardSubmit:
		h.submit(w, r, base, step, form)

	default:
		errs := validation.ValidateStep(form.Normalize(), step)
		if !errs.OK() {
			h.renderStep(w, r, http.StatusUnprocessableEntity, base, pages.RegisterData{
				Step:   step,
				Form:   form,
				Errors: errs,
			})
			return
		}
		if step < validation.StepCount {
			step++
		}
		h.renderStep(w, r, http.StatusOK, base, pages.RegisterData{Step: step, Form: form})
	}
}

// submit отправляет заявку. Ошибки валидации возвращают на первый
// шаг с ошибками, ошибки API показываются баннером на текущем шаге.
func (h *RegisterHandler) submit(w http.ResponseWriter, r *http.Request, base pages.Base, step int, form validation.Registration) {
	result, err := h.registration.Submit(r.Context(), form)
	if err != nil {
		errs := fieldErrors(err)
		if first := validation.FirstInvalidStep(errs); first > 0 {
			step = first
		}
		if errs == nil {
			h.logger.Warn("Заявка отклонена API",
				slog.String("tender_number", strings.TrimSpace(form.TenderNumber)),
				slog.String("error", err.Error()),
			)
		}
		base.Error = errorMessage(r.Context(), err, "errors.register_failed")
		h.renderStep(w, r, formStatus(err), base, pages.RegisterData{
			Step:   step,
			Form:   form,
			Errors: errs,
		})
		return
	}

	render(w, r, h.logger, http.StatusOK, pages.RegisterSuccess(base, pages.RegisterSuccessData{
		TenderNumber: result.TenderNumber,
		Message:      result.Message,
	}))
}

// renderStep отрисовывает шаг мастера. Справочник подразделений
// загружается только для шага 1.
func (h *RegisterHandler) renderStep(w http.ResponseWriter, r *http.Request, status int, base pages.Base, data pages.RegisterData) {
	if data.Step == validation.StepTender {
		departments, err := h.registration.Departments(r.Context())
		if err != nil {
			h.logger.Warn("Справочник подразделений недоступен", slog.String("error", err.Error()))
			if base.Error == "" {
				base.Error = errorMessage(r.Context(), err, "errors.departments_failed")
			}
		}
		data.Departments = departments
	}
	render(w, r, h.logger, status, pages.Register(base, data))
}

// registrationFromRequest читает поля всех шагов из формы.
// Нечисловое подразделение считается невыбранным.
func registrationFromRequest(r *http.Request) validation.Registration {
	department, _ := strconv.ParseInt(r.PostFormValue("department"), 10, 64)
	return validation.Registration{
		TenderNumber:  r.PostFormValue("tender_number"),
		Department:    department,
		CompanyName:   r.PostFormValue("company_name"),
		EDRPOU:        r.PostFormValue("edrpou"),
		LegalAddress:  r.PostFormValue("legal_address"),
		ActualAddress: r.PostFormValue("actual_address"),
		DirectorName:  r.PostFormValue("director_name"),
		ContactPerson: r.PostFormValue("contact_person"),
		Email:         r.PostFormValue("email"),
		Phone:         r.PostFormValue("phone"),
	}
}

// clampStep разбирает номер шага, вне диапазона — шаг 1.
func clampStep(raw string) int {
	step, err := strconv.Atoi(raw)
	if err != nil || step < validation.StepTender || step > validation.StepCount {
		return validation.StepTender
	}
	return step
}
