package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian-crm/internal/pricing"
	"github.com/meridian-crm/meridian-crm/internal/quotes"
)

func fleetTotals() pricing.QuoteTotals {
	return pricing.Aggregate(pricing.QuoteLines{
		VehicleCount: 4,
		Installation: pricing.LineItem{ProductID: 1, ProductName: "GPS installation", UnitPrice: decimal.NewFromInt(2000), Quantity: 1},
		Subscription: pricing.LineItem{ProductID: 2, ProductName: "Fleet subscription", UnitPrice: decimal.NewFromInt(100), AllVehicles: true},
		Services: []pricing.LineItem{
			{ProductID: 3, ProductName: "Driver reports", UnitPrice: decimal.NewFromInt(50), AllVehicles: true},
		},
		Accessories: []pricing.LineItem{
			{ProductID: 4, ProductName: "Panic button", UnitPrice: decimal.NewFromInt(75), Quantity: 4, Rule: pricing.PackRule{Kind: pricing.Pack2x1}},
		},
	})
}

func TestSummaryViewFormatsTwoDecimals(t *testing.T) {
	summary := SummaryView(fleetTotals())

	require.NotNil(t, summary.Installation)
	assert.Equal(t, "2000.00", summary.Installation.Subtotal)
	assert.Equal(t, "600.00", summary.RecurringMonthly)
	assert.Equal(t, summary.GrandTotal, summary.FirstMonthTotal)
}

func TestSummaryViewDiscountColumn(t *testing.T) {
	summary := SummaryView(fleetTotals())

	require.Len(t, summary.Accessories, 1)
	acc := summary.Accessories[0]
	assert.Equal(t, "300.00", acc.Base)
	assert.Equal(t, "150.00", acc.Discount)
	assert.Equal(t, "150.00", acc.Subtotal)
	assert.Equal(t, "2x1", acc.Label)

	// Undiscounted lines leave the column empty rather than showing 0.00.
	assert.Equal(t, "", summary.Installation.Discount)
}

func TestSummaryViewSkipsIncompleteRows(t *testing.T) {
	totals := fleetTotals()
	totals.Services = append(totals.Services, pricing.LineResult{Incomplete: true})

	summary := SummaryView(totals)
	assert.Len(t, summary.Services, 1)
}

func TestSummaryViewWithoutMainLines(t *testing.T) {
	totals := pricing.Aggregate(pricing.QuoteLines{VehicleCount: 2})

	summary := SummaryView(totals)
	assert.Nil(t, summary.Installation)
	assert.Nil(t, summary.Subscription)
	assert.Equal(t, "0.00", summary.GrandTotal)
}

func TestDocumentViewGroupsSections(t *testing.T) {
	notes := "Includes on-site installation"
	quote := &quotes.Quote{
		DocNumber:         "Q-2508-0001",
		LeadName:          "TransLogis SA",
		QuoteDate:         time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:        time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		VehicleCount:      4,
		Notes:             &notes,
		InitialInvestment: decimal.NewFromInt(2300),
		RecurringMonthly:  decimal.NewFromInt(600),
		FirstMonthTotal:   decimal.NewFromInt(2900),
		GrandTotal:        decimal.NewFromInt(2900),
		Lines: []quotes.QuoteLine{
			{Section: quotes.SectionInstallation, ProductName: "GPS installation", Quantity: 1, UnitPrice: decimal.NewFromInt(2000), Base: decimal.NewFromInt(2000), Subtotal: decimal.NewFromInt(2000)},
			{Section: quotes.SectionSubscription, ProductName: "Fleet subscription", Quantity: 4, UnitPrice: decimal.NewFromInt(100), Base: decimal.NewFromInt(400), Subtotal: decimal.NewFromInt(400)},
			{Section: quotes.SectionService, ProductName: "Driver reports", Quantity: 4, UnitPrice: decimal.NewFromInt(50), Base: decimal.NewFromInt(200), Subtotal: decimal.NewFromInt(200)},
			{Section: quotes.SectionAccessory, ProductName: "Panic button", Quantity: 4, UnitPrice: decimal.NewFromInt(75), Base: decimal.NewFromInt(300), Discount: decimal.NewFromInt(150), Subtotal: decimal.NewFromInt(150), RuleLabel: "2x1"},
		},
	}

	doc := DocumentView(quote)
	assert.Equal(t, "Q-2508-0001", doc.DocNumber)
	assert.Equal(t, "TransLogis SA", doc.CompanyName)
	assert.Equal(t, "Includes on-site installation", doc.Notes)
	assert.Len(t, doc.Installation, 1)
	assert.Len(t, doc.Subscription, 1)
	assert.Len(t, doc.Services, 1)
	assert.Len(t, doc.Accessories, 1)
	assert.Equal(t, "150.00", doc.Accessories[0].Discount)
	assert.Equal(t, "2900.00", doc.GrandTotal)
}
