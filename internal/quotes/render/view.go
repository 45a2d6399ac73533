package render

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-crm/meridian-crm/internal/pricing"
	"github.com/meridian-crm/meridian-crm/internal/quotes"
)

// LineView is one display row. Amounts are pre-formatted to two decimal
// places; the discount column stays empty when no rule applied.
type LineView struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Base        string `json:"base"`
	Discount    string `json:"discount"`
	Subtotal    string `json:"subtotal"`
	Label       string `json:"label"`
}

// Summary is the view model behind the live totals panel on the quote form.
// Every figure comes from the aggregator; nothing is recomputed here.
type Summary struct {
	Installation *LineView  `json:"installation,omitempty"`
	Subscription *LineView  `json:"subscription,omitempty"`
	Services     []LineView `json:"services"`
	Accessories  []LineView `json:"accessories"`

	TotalServices     string `json:"total_services"`
	TotalAccessories  string `json:"total_accessories"`
	InitialInvestment string `json:"initial_investment"`
	RecurringMonthly  string `json:"recurring_monthly"`
	FirstMonthTotal   string `json:"first_month_total"`
	GrandTotal        string `json:"grand_total"`
}

// Document is the view model for the printable quote, fed into the PDF
// template. It reads only stored figures.
type Document struct {
	DocNumber    string
	CompanyName  string
	QuoteDate    time.Time
	ValidUntil   time.Time
	VehicleCount int
	Notes        string

	Installation []LineView
	Subscription []LineView
	Services     []LineView
	Accessories  []LineView

	TotalServices     string
	TotalAccessories  string
	InitialInvestment string
	RecurringMonthly  string
	FirstMonthTotal   string
	GrandTotal        string
}

// SummaryView shapes aggregated totals for the HTML summary partial and the
// preview JSON endpoint.
func SummaryView(totals pricing.QuoteTotals) Summary {
	summary := Summary{
		TotalServices:     amount(totals.TotalServices),
		TotalAccessories:  amount(totals.TotalAccessories),
		InitialInvestment: amount(totals.InitialInvestment),
		RecurringMonthly:  amount(totals.RecurringMonthly),
		FirstMonthTotal:   amount(totals.FirstMonthTotal),
		GrandTotal:        amount(totals.GrandTotal),
		Services:          []LineView{},
		Accessories:       []LineView{},
	}
	if !totals.Installation.Incomplete {
		v := resultView(totals.Installation)
		summary.Installation = &v
	}
	if !totals.Subscription.Incomplete {
		v := resultView(totals.Subscription)
		summary.Subscription = &v
	}
	for _, res := range totals.Services {
		if res.Incomplete {
			continue
		}
		summary.Services = append(summary.Services, resultView(res))
	}
	for _, res := range totals.Accessories {
		if res.Incomplete {
			continue
		}
		summary.Accessories = append(summary.Accessories, resultView(res))
	}
	return summary
}

// DocumentView shapes a stored quote for the PDF template.
func DocumentView(quote *quotes.Quote) Document {
	doc := Document{
		DocNumber:         quote.DocNumber,
		CompanyName:       quote.LeadName,
		QuoteDate:         quote.QuoteDate,
		ValidUntil:        quote.ValidUntil,
		VehicleCount:      quote.VehicleCount,
		TotalServices:     amount(quote.TotalServices),
		TotalAccessories:  amount(quote.TotalAccessories),
		InitialInvestment: amount(quote.InitialInvestment),
		RecurringMonthly:  amount(quote.RecurringMonthly),
		FirstMonthTotal:   amount(quote.FirstMonthTotal),
		GrandTotal:        amount(quote.GrandTotal),
	}
	if quote.Notes != nil {
		doc.Notes = *quote.Notes
	}
	for _, line := range quote.Lines {
		v := lineView(line)
		switch line.Section {
		case quotes.SectionInstallation:
			doc.Installation = append(doc.Installation, v)
		case quotes.SectionSubscription:
			doc.Subscription = append(doc.Subscription, v)
		case quotes.SectionService:
			doc.Services = append(doc.Services, v)
		case quotes.SectionAccessory:
			doc.Accessories = append(doc.Accessories, v)
		}
	}
	return doc
}

func resultView(res pricing.LineResult) LineView {
	v := LineView{
		ProductName: res.ProductName,
		Quantity:    res.Quantity,
		UnitPrice:   amount(res.UnitPrice),
		Base:        amount(res.Base),
		Subtotal:    amount(res.Subtotal),
		Label:       res.Label,
	}
	if res.Discount.IsPositive() {
		v.Discount = amount(res.Discount)
	}
	return v
}

func lineView(line quotes.QuoteLine) LineView {
	v := LineView{
		ProductName: line.ProductName,
		Quantity:    line.Quantity,
		UnitPrice:   amount(line.UnitPrice),
		Base:        amount(line.Base),
		Subtotal:    amount(line.Subtotal),
		Label:       line.RuleLabel,
	}
	if line.Discount.IsPositive() {
		v.Discount = amount(line.Discount)
	}
	return v
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
