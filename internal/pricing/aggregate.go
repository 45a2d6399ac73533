package pricing

import "github.com/shopspring/decimal"

// QuoteLines groups the raw inputs of a quote: the two singleton lines, the
// repeatable service and accessory lines and the vehicle count that drives
// "applies to all vehicles" quantities.
type QuoteLines struct {
	Installation LineItem
	Subscription LineItem
	Services     []LineItem
	Accessories  []LineItem
	VehicleCount int
}

// QuoteTotals is the aggregated result consumed by both renderers. Every
// figure a renderer prints must come from here; nothing is recomputed
// downstream.
type QuoteTotals struct {
	Installation LineResult
	Subscription LineResult
	Services     []LineResult
	Accessories  []LineResult

	TotalServices    Money
	TotalAccessories Money
	// InitialInvestment covers the one-time costs: installation plus
	// accessories.
	InitialInvestment Money
	// RecurringMonthly is what the customer pays from month two on:
	// subscription plus services.
	RecurringMonthly Money
	FirstMonthTotal  Money
	GrandTotal       Money
}

// Aggregate evaluates every line and sums category totals. GrandTotal and
// FirstMonthTotal are computed through different paths on purpose; they must
// always agree, and the test suite pins that equality.
func Aggregate(lines QuoteLines) QuoteTotals {
	totals := QuoteTotals{
		Installation: ComputeLineItem(lines.Installation, lines.VehicleCount),
		Subscription: ComputeLineItem(lines.Subscription, lines.VehicleCount),
	}

	totalServices := decimal.Zero
	for _, svc := range lines.Services {
		res := ComputeLineItem(svc, lines.VehicleCount)
		totals.Services = append(totals.Services, res)
		totalServices = totalServices.Add(res.Subtotal)
	}

	totalAccessories := decimal.Zero
	for _, acc := range lines.Accessories {
		res := ComputeLineItem(acc, lines.VehicleCount)
		totals.Accessories = append(totals.Accessories, res)
		totalAccessories = totalAccessories.Add(res.Subtotal)
	}

	totals.TotalServices = totalServices
	totals.TotalAccessories = totalAccessories
	totals.InitialInvestment = totals.Installation.Subtotal.Add(totalAccessories)
	totals.RecurringMonthly = totals.Subscription.Subtotal.Add(totalServices)
	totals.FirstMonthTotal = totals.InitialInvestment.Add(totals.RecurringMonthly)
	totals.GrandTotal = totals.Installation.Subtotal.
		Add(totals.Subscription.Subtotal).
		Add(totalAccessories).
		Add(totalServices)

	return totals
}
