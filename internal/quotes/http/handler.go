package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-crm/meridian-crm/internal/catalog/products"
	"github.com/meridian-crm/meridian-crm/internal/catalog/promotions"
	catalogShared "github.com/meridian-crm/meridian-crm/internal/catalog/shared"
	"github.com/meridian-crm/meridian-crm/internal/platform/httpx"
	"github.com/meridian-crm/meridian-crm/internal/quotes"
	"github.com/meridian-crm/meridian-crm/internal/quotes/render"
	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/shared"
	"github.com/meridian-crm/meridian-crm/internal/view"
	"github.com/meridian-crm/meridian-crm/report"
)

// Handler serves the quote screens, the live preview endpoint and the PDF
// download.
type Handler struct {
	logger     *slog.Logger
	service    *quotes.Service
	products   *products.Service
	promotions *promotions.Service
	templates  *view.Engine
	csrf       *shared.CSRFManager
	rbac       rbac.Middleware
	pdf        *report.Client
	idem       *shared.IdempotencyStore
}

func NewHandler(
	logger *slog.Logger,
	service *quotes.Service,
	productService *products.Service,
	promotionService *promotions.Service,
	templates *view.Engine,
	csrf *shared.CSRFManager,
	rbac rbac.Middleware,
	pdf *report.Client,
	idem *shared.IdempotencyStore,
) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		products:   productService,
		promotions: promotionService,
		templates:  templates,
		csrf:       csrf,
		rbac:       rbac,
		pdf:        pdf,
		idem:       idem,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermQuoteView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/pdf", h.PDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermQuoteCreate))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Post("/preview", h.Preview)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := 20

	req := quotes.ListQuotesRequest{Limit: limit, Offset: (page - 1) * limit}
	if v := r.URL.Query().Get("lead_id"); v != "" {
		if leadID, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.LeadID = &leadID
		}
	}
	if v := r.URL.Query().Get("search"); v != "" {
		req.Search = &v
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotes failed", "error", err)
		http.Error(w, "Failed to load quotes", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/quotes/quotes_list.html", map[string]any{
		"Quotes":     list,
		"Total":      total,
		"Pagination": shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid quote ID", http.StatusBadRequest)
		return
	}

	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Quote not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/quotes/quote_detail.html", map[string]any{
		"Quote":    quote,
		"Document": render.DocumentView(quote),
	})
}

// Form serves the quote builder with the product catalog split by category
// and the promotions applicable today.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	catalog := map[string]any{}
	for _, category := range products.Categories() {
		list, err := h.products.ListActiveByCategory(ctx, category)
		if err != nil {
			h.logger.Error("load products for quote form", "error", err, "category", category)
			http.Error(w, "Failed to load catalog", http.StatusInternalServerError)
			return
		}
		catalog[string(category)] = list
	}

	active, err := h.promotions.ListActiveOn(ctx, time.Now())
	if err != nil {
		h.logger.Error("load promotions for quote form", "error", err)
		http.Error(w, "Failed to load promotions", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Catalog":    catalog,
		"Promotions": active,
	}
	if v := r.URL.Query().Get("lead_id"); v != "" {
		if leadID, err := strconv.ParseInt(v, 10, 64); err == nil {
			data["LeadID"] = leadID
		}
	}
	h.render(w, r, "pages/quotes/quote_form.html", data)
}

// Preview recomputes the totals for the current form state and returns the
// summary view model as JSON. Called on every form change.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req quotes.QuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed quote payload")
		return
	}

	totals, err := h.service.Preview(r.Context(), req)
	if err != nil {
		if errors.Is(err, catalogShared.ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("quote preview failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, render.SummaryView(totals))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req quotes.QuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed quote payload")
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if err := h.idem.CheckAndInsert(r.Context(), idemKey, "quotes"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate Request", "quote already submitted")
				return
			}
			h.logger.Error("idempotency check failed", "error", err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
	}

	quote, err := h.service.Create(r.Context(), req, h.getCurrentUserID(r))
	if err != nil {
		if idemKey != "" {
			_ = h.idem.Delete(r.Context(), idemKey)
		}
		if errors.Is(err, catalogShared.ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("create quote failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":         quote.ID,
		"doc_number": quote.DocNumber,
		"location":   "/quotes/" + strconv.FormatInt(quote.ID, 10),
	})
}

// PDF renders the stored quote through the document template and converts
// it via Gotenberg.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid quote ID", http.StatusBadRequest)
		return
	}

	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Quote not found", http.StatusNotFound)
		return
	}

	html, err := h.templates.RenderToString("pdf/quote_document.html", view.TemplateData{
		Title: quote.DocNumber,
		Data:  render.DocumentView(quote),
	})
	if err != nil {
		h.logger.Error("render quote document", "error", err, "quote_id", id)
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}

	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("convert quote pdf", "error", err, "quote_id", id)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename=`+quote.DocNumber+`.pdf`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) getCurrentUserID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.User() != "" {
		if id, err := strconv.ParseInt(sess.User(), 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Quotes",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", template)
	}
}
