package leads

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

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermLeadView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(internalShared.PermLeadEdit))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := 20

	req := ListLeadsRequest{Limit: limit, Offset: (page - 1) * limit}
	if v := r.URL.Query().Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	if v := r.URL.Query().Get("search"); v != "" {
		req.Search = &v
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list leads failed", "error", err)
		http.Error(w, "Failed to load leads", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/crm/leads_list.html", map[string]any{
		"Leads":      list,
		"Total":      total,
		"Statuses":   Statuses(),
		"Filter":     req,
		"Pagination": internalShared.NewPagination(page, limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}

	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get lead failed", "error", err, "id", id)
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/crm/lead_detail.html", map[string]any{
		"Lead":     lead,
		"Statuses": Statuses(),
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/crm/lead_form.html", map[string]any{
		"Errors": map[string]string{},
		"Lead":   nil,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := parseCreateForm(r)
	created, err := h.service.Create(r.Context(), req, h.getCurrentUserID(r))
	if err != nil {
		h.render(w, r, "pages/crm/lead_form.html", map[string]any{
			"Errors": map[string]string{"general": err.Error()},
			"Lead":   nil,
			"Form":   req,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/leads/"+strconv.FormatInt(created.ID, 10), "success", "Lead "+created.Code+" created")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}

	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/crm/lead_form.html", map[string]any{
		"Errors":   map[string]string{},
		"Lead":     lead,
		"Statuses": Statuses(),
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := parseUpdateForm(r)
	if _, err := h.service.Update(r.Context(), id, req); err != nil {
		h.redirectWithFlash(w, r, "/leads/"+strconv.FormatInt(id, 10)+"/edit", "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/leads/"+strconv.FormatInt(id, 10), "success", "Lead updated")
}

func parseCreateForm(r *http.Request) CreateLeadRequest {
	vehicleCount, _ := strconv.Atoi(r.PostFormValue("vehicle_count"))
	req := CreateLeadRequest{
		CompanyName:  r.PostFormValue("company_name"),
		ContactName:  r.PostFormValue("contact_name"),
		VehicleCount: vehicleCount,
	}
	if v := r.PostFormValue("email"); v != "" {
		req.Email = &v
	}
	if v := r.PostFormValue("phone"); v != "" {
		req.Phone = &v
	}
	if v := r.PostFormValue("source"); v != "" {
		req.Source = &v
	}
	if v := r.PostFormValue("notes"); v != "" {
		req.Notes = &v
	}
	return req
}

func parseUpdateForm(r *http.Request) UpdateLeadRequest {
	var req UpdateLeadRequest
	set := func(name string, dst **string) {
		if r.PostForm.Has(name) {
			v := r.PostFormValue(name)
			*dst = &v
		}
	}
	set("company_name", &req.CompanyName)
	set("contact_name", &req.ContactName)
	set("email", &req.Email)
	set("phone", &req.Phone)
	set("source", &req.Source)
	set("notes", &req.Notes)
	if r.PostForm.Has("vehicle_count") {
		if v, err := strconv.Atoi(r.PostFormValue("vehicle_count")); err == nil {
			req.VehicleCount = &v
		}
	}
	if r.PostForm.Has("status") {
		status := Status(r.PostFormValue("status"))
		req.Status = &status
	}
	return req
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := internalShared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *internalShared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Leads",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", template)
	}
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

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := internalShared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(internalShared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
