// cabinet.go — кабинет заявителя.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/auth"
	"github.com/bigkaa/tender-portal/internal/ui/content"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/tender-portal/internal/ui/middleware"
	"github.com/bigkaa/tender-portal/internal/ui/pages"
)

// CabinetHandler — обработчики кабинета заявителя.
type CabinetHandler struct {
	applicants *service.ApplicantService
	sessions   *auth.Manager
	logger     *slog.Logger
}

// NewCabinetHandler создаёт новый CabinetHandler.
func NewCabinetHandler(applicants *service.ApplicantService, sessions *auth.Manager, logger *slog.Logger) *CabinetHandler {
	return &CabinetHandler{
		applicants: applicants,
		sessions:   sessions,
		logger:     logger.With(slog.String("component", "ui.cabinet")),
	}
}

// HandleHome — GET /cabinet
func (h *CabinetHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusOK, pages.CabinetHome(baseFor(r)))
}

// HandleDocuments — GET /cabinet/documents
func (h *CabinetHandler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	html, err := content.Documents(i18n.LangFromContext(r.Context()), i18n.DefaultLang)
	if err != nil {
		h.logger.Error("Ошибка загрузки памятки", slog.String("error", err.Error()))
		renderError(w, r, h.logger, http.StatusInternalServerError, "errors.documents_failed")
		return
	}
	render(w, r, h.logger, http.StatusOK, pages.CabinetDocuments(baseFor(r), html))
}

// HandleStatus — GET /cabinet/status
// Заявка читается по ID из сессии; чужие заявки недоступны.
func (h *CabinetHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	identity := uimiddleware.IdentityFromContext(r.Context())

	applicant, err := h.applicants.OwnStatus(r.Context(), identity)
	if err != nil {
		if expireOnUnauthorized(w, r, h.sessions, h.logger, err) {
			return
		}
		h.logger.Warn("Ошибка загрузки статуса заявки",
			slog.Int64("user_id", identity.ID),
			slog.String("error", err.Error()),
		)
		base := baseFor(r)
		base.Error = errorMessage(r.Context(), err, "errors.status_failed")
		render(w, r, h.logger, http.StatusBadGateway, pages.CabinetStatus(base, pages.StatusData{}))
		return
	}

	render(w, r, h.logger, http.StatusOK, pages.CabinetStatus(baseFor(r), pages.StatusData{Applicant: applicant}))
}
