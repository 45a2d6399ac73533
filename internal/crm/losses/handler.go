package losses

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-crm/meridian-crm/internal/rbac"
	internalShared "github.com/meridian-crm/meridian-crm/internal/shared"
	"github.com/meridian-crm/meridian-crm/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *internalShared.CSRFManager
	rbac      rbac.Middleware
}

func NewHandler(
	logger *slog.Logger,
	service *Service,
	templates *view.Engine,
	csrf *internalShared.CSRFManager,
	rbac rbac.Middleware,
) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		rbac:      rbac,
	}
}

// MountRoutes is mounted under /losses; the record endpoint also appears
// under /leads/{leadID}/loss via MountLeadRoutes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermLeadView))
		r.Get("/", h.Breakdown)
		r.Get("/reasons", h.Reasons)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(internalShared.PermLossManage))
		r.Post("/reasons", h.CreateReason)
		r.Post("/reasons/{id}/deactivate", h.DeactivateReason)
	})
}

// MountLeadRoutes is mounted under /leads/{leadID}/loss.
func (h *Handler) MountLeadRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(internalShared.PermLeadEdit))
		r.Get("/", h.RecordForm)
		r.Post("/", h.Record)
	})
}

func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.service.Breakdown(r.Context())
	if err != nil {
		h.logger.Error("loss breakdown failed", "error", err)
		http.Error(w, "Failed to load loss report", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/crm/losses_report.html", map[string]any{
		"Breakdown": breakdown,
	})
}

func (h *Handler) Reasons(w http.ResponseWriter, r *http.Request) {
	reasons, err := h.service.ListReasons(r.Context(), false)
	if err != nil {
		h.logger.Error("list loss reasons failed", "error", err)
		http.Error(w, "Failed to load reasons", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/crm/loss_reasons.html", map[string]any{
		"Reasons": reasons,
	})
}

func (h *Handler) CreateReason(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateReason(r.Context(), r.PostFormValue("name")); err != nil {
		h.redirectWithFlash(w, r, "/losses/reasons", "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/losses/reasons", "success", "Reason added")
}

func (h *Handler) DeactivateReason(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid reason ID", http.StatusBadRequest)
		return
	}
	if err := h.service.DeactivateReason(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/losses/reasons", "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/losses/reasons", "success", "Reason deactivated")
}

func (h *Handler) RecordForm(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.ParseInt(chi.URLParam(r, "leadID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}
	reasons, err := h.service.ListReasons(r.Context(), true)
	if err != nil {
		http.Error(w, "Failed to load reasons", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/crm/loss_form.html", map[string]any{
		"LeadID":  leadID,
		"Reasons": reasons,
	})
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.ParseInt(chi.URLParam(r, "leadID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	reasonID, _ := strconv.ParseInt(r.PostFormValue("reason_id"), 10, 64)
	req := RecordLossRequest{ReasonID: reasonID}
	if v := r.PostFormValue("competitor"); v != "" {
		req.Competitor = &v
	}
	if v := r.PostFormValue("note"); v != "" {
		req.Note = &v
	}

	if _, err := h.service.Record(r.Context(), leadID, req, h.getCurrentUserID(r)); err != nil {
		h.redirectWithFlash(w, r, "/leads/"+strconv.FormatInt(leadID, 10), "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/leads/"+strconv.FormatInt(leadID, 10), "success", "Lead marked as lost")
}

func (h *Handler) getCurrentUserID(r *http.Request) int64 {
	sess := internalShared.SessionFromContext(r.Context())
	if sess != nil && sess.User() != "" {
		if id, err := strconv.ParseInt(sess.User(), 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any) {
	sess := internalShared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *internalShared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Lost leads",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", template)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := internalShared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(internalShared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
