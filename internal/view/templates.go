package view

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meridian-crm/meridian-crm/internal/shared"
	"github.com/meridian-crm/meridian-crm/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// NewEngine parses templates at build-time. Page templates register
// themselves under path-style names (pages/crm/leads_list.html) via define
// blocks so handlers can address them unambiguously.
func NewEngine() (*Engine, error) {
	printer := message.NewPrinter(language.EuropeanSpanish)
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatDay": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"money": func(v any) string {
			switch d := v.(type) {
			case decimal.Decimal:
				f, _ := d.Round(2).Float64()
				return printer.Sprintf("%.2f €", f)
			case string:
				parsed, err := decimal.NewFromString(d)
				if err != nil {
					return d
				}
				f, _ := parsed.Float64()
				return printer.Sprintf("%.2f €", f)
			case float64:
				return printer.Sprintf("%.2f €", d)
			default:
				return fmt.Sprintf("%v", v)
			}
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
		"templates/pages/*/*.html",
		"templates/pdf/*.html",
	)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// RenderToString executes a named template into a string, used for the PDF
// pipeline where the HTML is posted to Gotenberg instead of the browser.
func (e *Engine) RenderToString(name string, data TemplateData) (string, error) {
	if e == nil {
		return "", fmt.Errorf("template engine not initialised")
	}
	var sb strings.Builder
	if err := e.templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
