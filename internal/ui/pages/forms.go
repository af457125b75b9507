// forms.go — данные полей форм, метки статусов и форматирование дат.
package pages

import (
	"context"
	"strconv"
	"time"

	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
)

// field — текстовое поле формы.
type field struct {
	Name     string
	LabelKey string
	// Type — type input (text по умолчанию).
	Type  string
	Value string
	// Required — пометка обязательного поля.
	Required bool
}

func (f field) inputType() string {
	if f.Type == "" {
		return "text"
	}
	return f.Type
}

// option — вариант select.
type option struct {
	Value string
	Label string
	// LabelKey — ключ i18n вместо Label.
	LabelKey string
}

func (o option) label(ctx context.Context) string {
	if o.LabelKey != "" {
		return i18n.T(ctx, o.LabelKey)
	}
	return o.Label
}

// departmentOptions — варианты select подразделений.
func departmentOptions(departments []model.Department) []option {
	options := make([]option, 0, len(departments))
	for _, d := range departments {
		options = append(options, option{Value: strconv.FormatInt(d.ID, 10), Label: d.Name})
	}
	return options
}

// statusOptions — варианты select статусов.
func statusOptions() []option {
	options := make([]option, 0, len(model.Statuses))
	for _, s := range model.Statuses {
		options = append(options, option{Value: s, LabelKey: StatusLabelKey(s)})
	}
	return options
}

// StatusLabelKey — ключ i18n метки статуса.
func StatusLabelKey(status string) string {
	if status == "" {
		return "status.unknown"
	}
	return "status." + status
}

// Форматы дат (как в таблицах заявок).
const (
	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
)

// formatDate — дата без времени; нулевая дата — прочерк.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format(dateLayout)
}

// formatDateTime — дата и время; нулевая дата — прочерк.
func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format(dateTimeLayout)
}

// departmentLabel — название подразделения или его ID.
func departmentLabel(a *model.Applicant) string {
	if a.DepartmentName != "" {
		return a.DepartmentName
	}
	if a.Department == 0 {
		return "—"
	}
	return "#" + strconv.FormatInt(a.Department, 10)
}

// orDash — значение или прочерк.
func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
