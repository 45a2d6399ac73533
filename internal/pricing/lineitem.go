package pricing

import "github.com/shopspring/decimal"

// LineItem is one quote row before computation: a product selection, a
// quantity and the discount rule already resolved for it.
type LineItem struct {
	ProductID   int64
	ProductName string
	UnitPrice   Money
	Quantity    int
	// AllVehicles forces the effective quantity to the quote's vehicle
	// count, overriding Quantity.
	AllVehicles bool
	Rule        Rule
}

// LineResult is the computed breakdown for a single line. Base is the
// pre-discount reference amount, always exposed for transparency.
type LineResult struct {
	ProductID   int64
	ProductName string
	UnitPrice   Money
	Quantity    int
	Base        Money
	Discount    Money
	Subtotal    Money
	Label       string
	// Incomplete marks a row that exists without a product selection.
	// The row contributes zero to every total; whether it blocks saving
	// is the caller's concern.
	Incomplete bool
}

// ComputeLineItem resolves the effective quantity and rule for the item and
// evaluates it. vehicleCount is the quote-wide vehicle count used when the
// line applies to all vehicles.
func ComputeLineItem(item LineItem, vehicleCount int) LineResult {
	if item.ProductID == 0 {
		return LineResult{
			Base:       decimal.Zero,
			Discount:   decimal.Zero,
			Subtotal:   decimal.Zero,
			Incomplete: true,
		}
	}

	qty := item.Quantity
	if item.AllVehicles {
		qty = vehicleCount
	}
	if qty < 0 {
		qty = 0
	}

	rule := item.Rule
	if rule == nil {
		rule = NoRule{}
	}

	base := item.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	subtotal := ComputeSubtotal(item.UnitPrice, qty, rule)

	return LineResult{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		UnitPrice:   item.UnitPrice,
		Quantity:    qty,
		Base:        base,
		Discount:    base.Sub(subtotal),
		Subtotal:    subtotal,
		Label:       rule.Label(),
	}
}
