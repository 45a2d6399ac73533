package followups

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

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

// MountRoutes is mounted under /leads/{leadID}/followups.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermLeadView))
		r.Get("/", h.List)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(internalShared.PermLeadEdit))
		r.Post("/", h.Create)
		r.Post("/{id}/done", h.MarkDone)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.ParseInt(chi.URLParam(r, "leadID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}

	list, err := h.service.ListForLead(r.Context(), leadID)
	if err != nil {
		h.logger.Error("list follow-ups failed", "error", err, "lead_id", leadID)
		http.Error(w, "Failed to load follow-ups", http.StatusInternalServerError)
		return
	}

	sess := internalShared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *internalShared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Follow-ups",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: map[string]any{
			"LeadID":    leadID,
			"FollowUps": list,
		},
	}
	if err := h.templates.Render(w, "pages/crm/followups_list.html", data); err != nil {
		h.logger.Error("render template", "error", err)
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.ParseInt(chi.URLParam(r, "leadID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := CreateFollowUpRequest{Comment: r.PostFormValue("comment")}
	if v := r.PostFormValue("remind_at"); v != "" {
		remindAt, err := time.Parse("2006-01-02T15:04", v)
		if err != nil {
			h.redirectBack(w, r, leadID, "error", "Invalid reminder date")
			return
		}
		req.RemindAt = &remindAt
	}

	if _, err := h.service.Add(r.Context(), leadID, h.getCurrentUserID(r), req); err != nil {
		h.redirectBack(w, r, leadID, "error", err.Error())
		return
	}

	h.redirectBack(w, r, leadID, "success", "Follow-up recorded")
}

func (h *Handler) MarkDone(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.ParseInt(chi.URLParam(r, "leadID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid follow-up ID", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkDone(r.Context(), id); err != nil {
		h.redirectBack(w, r, leadID, "error", err.Error())
		return
	}
	h.redirectBack(w, r, leadID, "success", "Reminder closed")
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

func (h *Handler) redirectBack(w http.ResponseWriter, r *http.Request, leadID int64, kind, message string) {
	if sess := internalShared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(internalShared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, "/leads/"+strconv.FormatInt(leadID, 10), http.StatusSeeOther)
}
