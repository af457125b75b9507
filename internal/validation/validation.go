// Пакет validation — проверка форм портала до обращения к API.
// Ошибки — ключи i18n по полям; перевод выполняет слой страниц.
package validation

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"
)

// Ключи i18n сообщений валидации.
const (
	MsgRequired         = "validation.required"
	MsgEmail            = "validation.email"
	MsgEDRPOU           = "validation.edrpou"
	MsgDepartment       = "validation.department"
	MsgPasswordMismatch = "validation.password_mismatch"
)

// edrpouPattern — код ЄДРПОУ: от 8 до 10 цифр.
var edrpouPattern = regexp.MustCompile(`^\d{8,10}$`)

// Errors — ошибки по полям: поле → ключ i18n сообщения.
type Errors map[string]string

// OK — ошибок нет.
func (e Errors) OK() bool {
	return len(e) == 0
}

// Fields возвращает поля с ошибками по алфавиту.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Has — есть ли ошибка у поля.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e Errors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e[field] = MsgRequired
	}
}

// --- Вход ---

// Login — форма входа.
type Login struct {
	// Username — email или логин.
	Username string
	Password string
}

// ValidateLogin проверяет, что логин и пароль непустые.
func ValidateLogin(f Login) Errors {
	errs := Errors{}
	errs.required("username", f.Username)
	if f.Password == "" {
		errs["password"] = MsgRequired
	}
	return errs
}

// --- Регистрация ---

// Registration — форма подачи заявки.
type Registration struct {
	TenderNumber  string
	Department    int64
	CompanyName   string
	EDRPOU        string
	LegalAddress  string
	ActualAddress string
	DirectorName  string
	ContactPerson string
	Email         string
	Phone         string
}

// Normalize обрезает пробелы во всех текстовых полях.
func (f Registration) Normalize() Registration {
	f.TenderNumber = strings.TrimSpace(f.TenderNumber)
	f.CompanyName = strings.TrimSpace(f.CompanyName)
	f.EDRPOU = strings.TrimSpace(f.EDRPOU)
	f.LegalAddress = strings.TrimSpace(f.LegalAddress)
	f.ActualAddress = strings.TrimSpace(f.ActualAddress)
	f.DirectorName = strings.TrimSpace(f.DirectorName)
	f.ContactPerson = strings.TrimSpace(f.ContactPerson)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	return f
}

// Шаги мастера регистрации.
const (
	StepTender  = 1
	StepCompany = 2
	StepContact = 3
	// StepCount — число шагов.
	StepCount = 3
)

// stepFields — поля каждого шага.
var stepFields = map[int][]string{
	StepTender:  {"tender_number", "department"},
	StepCompany: {"company_name", "edrpou", "legal_address", "actual_address", "director_name"},
	StepContact: {"contact_person", "email", "phone"},
}

// StepFields возвращает поля шага мастера.
func StepFields(step int) []string {
	return append([]string(nil), stepFields[step]...)
}

// StepOf возвращает шаг, к которому относится поле (0 — неизвестное поле).
func StepOf(field string) int {
	for step := StepTender; step <= StepCount; step++ {
		for _, f := range stepFields[step] {
			if f == field {
				return step
			}
		}
	}
	return 0
}

// ValidateRegistration проверяет всю форму.
// actual_address необязателен.
func ValidateRegistration(f Registration) Errors {
	errs := Errors{}
	errs.required("tender_number", f.TenderNumber)
	if f.Department <= 0 {
		errs["department"] = MsgDepartment
	}
	errs.required("company_name", f.CompanyName)
	switch {
	case strings.TrimSpace(f.EDRPOU) == "":
		errs["edrpou"] = MsgRequired
	case !edrpouPattern.MatchString(strings.TrimSpace(f.EDRPOU)):
		errs["edrpou"] = MsgEDRPOU
	}
	errs.required("legal_address", f.LegalAddress)
	errs.required("director_name", f.DirectorName)
	errs.required("contact_person", f.ContactPerson)
	switch {
	case strings.TrimSpace(f.Email) == "":
		errs["email"] = MsgRequired
	case !IsEmail(f.Email):
		errs["email"] = MsgEmail
	}
	errs.required("phone", f.Phone)
	return errs
}

// ValidateStep проверяет только поля указанного шага.
func ValidateStep(f Registration, step int) Errors {
	all := ValidateRegistration(f)
	errs := Errors{}
	for _, field := range stepFields[step] {
		if msg, ok := all[field]; ok {
			errs[field] = msg
		}
	}
	return errs
}

// FirstInvalidStep возвращает первый шаг с ошибками (0 — ошибок нет).
func FirstInvalidStep(errs Errors) int {
	first := 0
	for field := range errs {
		if step := StepOf(field); step > 0 && (first == 0 || step < first) {
			first = step
		}
	}
	return first
}

// IsEmail — синтаксическая проверка адреса без display name.
func IsEmail(value string) bool {
	value = strings.TrimSpace(value)
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Address == value && strings.Contains(value[strings.LastIndex(value, "@")+1:], ".")
}

// --- Активация ---

// Activation — форма активации аккаунта.
type Activation struct {
	Password        string
	PasswordConfirm string
	NewUsername     string
}

// ValidateActivation — пароль непустой и совпадает с подтверждением.
func ValidateActivation(f Activation) Errors {
	errs := Errors{}
	if f.Password == "" {
		errs["password"] = MsgRequired
	}
	if f.PasswordConfirm == "" {
		errs["password_confirm"] = MsgRequired
	} else if f.Password != f.PasswordConfirm {
		errs["password_confirm"] = MsgPasswordMismatch
	}
	return errs
}
