package promotions

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian-crm/meridian-crm/internal/catalog/products"
	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
	"github.com/meridian-crm/meridian-crm/internal/rbac"
	internalShared "github.com/meridian-crm/meridian-crm/internal/shared"
	"github.com/meridian-crm/meridian-crm/internal/view"
)

type Handler struct {
	logger         *slog.Logger
	service        *Service
	productService *products.Service
	templates      *view.Engine
	csrf           *internalShared.CSRFManager
	rbac           rbac.Middleware
}

func NewHandler(
	logger *slog.Logger,
	service *Service,
	productService *products.Service,
	templates *view.Engine,
	csrf *internalShared.CSRFManager,
	rbac rbac.Middleware,
) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		productService: productService,
		templates:      templates,
		csrf:           csrf,
		rbac:           rbac,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermPromotionView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(internalShared.PermPromotionEdit))
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

	filters := shared.ListFilters{
		Page:   page,
		Limit:  20,
		Search: r.URL.Query().Get("search"),
	}
	if r.URL.Query().Get("is_active") != "" {
		isActive := r.URL.Query().Get("is_active") == "true"
		filters.IsActive = &isActive
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list promotions failed", "error", err)
		http.Error(w, "Failed to load promotions", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/catalog/promotions_list.html", map[string]any{
		"Promotions": list,
		"Total":      total,
		"Pagination": internalShared.NewPagination(page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid promotion ID", http.StatusBadRequest)
		return
	}

	promo, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get promotion failed", "error", err, "id", id)
		http.Error(w, "Promotion not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/catalog/promotion_detail.html", map[string]any{
		"Promotion": promo,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/catalog/promotion_form.html", map[string]any{
		"Errors":    map[string]string{},
		"Promotion": nil,
		"Products":  h.allProducts(r),
		"Modes":     Modes(),
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	promo := h.parsePromotionForm(r)
	created, err := h.service.Create(r.Context(), promo)
	if err != nil {
		h.renderFormError(w, r, &promo, err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/promotions/"+strconv.FormatInt(created.ID, 10), "success", "Promotion created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid promotion ID", http.StatusBadRequest)
		return
	}

	promo, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Promotion not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/catalog/promotion_form.html", map[string]any{
		"Errors":    map[string]string{},
		"Promotion": promo,
		"Products":  h.allProducts(r),
		"Modes":     Modes(),
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid promotion ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	promo := h.parsePromotionForm(r)
	if _, err := h.service.Update(r.Context(), id, promo); err != nil {
		promo.ID = id
		h.renderFormError(w, r, &promo, err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/promotions/"+strconv.FormatInt(id, 10), "success", "Promotion updated successfully")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid promotion ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/promotions", "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/promotions", "success", "Promotion deactivated")
}

// parsePromotionForm reads the header fields plus the repeated assignment
// rows (assignment_product_N, assignment_mode_N, ...).
func (h *Handler) parsePromotionForm(r *http.Request) Promotion {
	startsAt, _ := time.Parse("2006-01-02", r.PostFormValue("starts_at"))
	endsAt, _ := time.Parse("2006-01-02", r.PostFormValue("ends_at"))

	promo := Promotion{
		Name:     r.PostFormValue("name"),
		StartsAt: startsAt,
		EndsAt:   endsAt,
		IsActive: r.PostFormValue("is_active") == "on",
	}

	count, _ := strconv.Atoi(r.PostFormValue("assignment_count"))
	for i := 0; i < count; i++ {
		suffix := "_" + strconv.Itoa(i)
		productID, _ := strconv.ParseInt(r.PostFormValue("assignment_product"+suffix), 10, 64)
		if productID == 0 {
			continue
		}
		bonification, err := decimal.NewFromString(r.PostFormValue("assignment_bonification" + suffix))
		if err != nil {
			bonification = decimal.Zero
		}
		minQty, _ := strconv.Atoi(r.PostFormValue("assignment_min_quantity" + suffix))
		promo.Assignments = append(promo.Assignments, Assignment{
			ProductID:    productID,
			Mode:         Mode(r.PostFormValue("assignment_mode" + suffix)),
			Bonification: bonification,
			MinQuantity:  minQty,
		})
	}
	return promo
}

func (h *Handler) allProducts(r *http.Request) []products.Product {
	list, _, err := h.productService.List(r.Context(), shared.ListFilters{Limit: 1000})
	if err != nil {
		h.logger.Warn("load products for promotion form", "error", err)
	}
	return list
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, promo *Promotion, message string) {
	h.render(w, r, "pages/catalog/promotion_form.html", map[string]any{
		"Errors":    map[string]string{"general": message},
		"Promotion": promo,
		"Products":  h.allProducts(r),
		"Modes":     Modes(),
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
		Title:       "Promotions",
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
