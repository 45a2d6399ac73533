package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
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

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *internalShared.CSRFManager, rbac rbac.Middleware) *Handler {
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
		r.Use(h.rbac.RequireAny(internalShared.PermProductView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(internalShared.PermProductEdit))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
		r.Post("/{id}/delete", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}

	filters := shared.ListFilters{
		Page:     page,
		Limit:    limit,
		Search:   r.URL.Query().Get("search"),
		SortBy:   r.URL.Query().Get("sort"),
		SortDir:  r.URL.Query().Get("dir"),
		Category: r.URL.Query().Get("category"),
	}
	if r.URL.Query().Get("is_active") != "" {
		isActive := r.URL.Query().Get("is_active") == "true"
		filters.IsActive = &isActive
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/catalog/products_list.html", map[string]any{
		"Products":   list,
		"Categories": Categories(),
		"Filters":    filters,
		"Total":      total,
		"Pagination": internalShared.NewPagination(page, limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get product failed", "error", err, "id", id)
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/catalog/product_detail.html", map[string]any{
		"Product": product,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/catalog/product_form.html", map[string]any{
		"Errors":     map[string]string{},
		"Product":    nil,
		"Categories": Categories(),
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	product := h.parseProductForm(r)

	created, err := h.service.Create(r.Context(), product)
	if err != nil {
		h.renderFormError(w, r, &product, err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/products/"+strconv.FormatInt(created.ID, 10), "success", "Product created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get product failed", "error", err, "id", id)
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/catalog/product_form.html", map[string]any{
		"Errors":     map[string]string{},
		"Product":    product,
		"Categories": Categories(),
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	product := h.parseProductForm(r)
	if err := h.service.Update(r.Context(), id, product); err != nil {
		product.ID = id
		h.renderFormError(w, r, &product, err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/products/"+strconv.FormatInt(id, 10), "success", "Product updated successfully")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/products", "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/products", "success", "Product deactivated")
}

func (h *Handler) parseProductForm(r *http.Request) Product {
	price, err := decimal.NewFromString(r.PostFormValue("unit_price"))
	if err != nil {
		price = decimal.Zero
	}
	return Product{
		Code:      r.PostFormValue("code"),
		Name:      r.PostFormValue("name"),
		Category:  Category(r.PostFormValue("category")),
		UnitPrice: price,
		IsActive:  r.PostFormValue("is_active") == "on",
	}
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, product *Product, message string) {
	h.render(w, r, "pages/catalog/product_form.html", map[string]any{
		"Errors":     map[string]string{"general": message},
		"Product":    product,
		"Categories": Categories(),
	}, http.StatusBadRequest)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := internalShared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *internalShared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Catalog",
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

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := internalShared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(internalShared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
