package pricing

import "github.com/shopspring/decimal"

// Money is the exact decimal amount used throughout quote computation.
// Amounts stay unrounded inside the engine; display and persistence round
// at their own boundary.
type Money = decimal.Decimal

// PackKind identifies a buy-N-pay-for-fewer promotion structure.
type PackKind string

const (
	// Pack2x1 bills one unit for every two.
	Pack2x1 PackKind = "2x1"
	// Pack3x2 bills two units for every three.
	Pack3x2 PackKind = "3x2"
)

// Rule is the discount applied to a quote line. Exactly one of the three
// variants is active for any line: NoRule, PercentageRule or PackRule.
// A pack rule always wins over a percentage bonification, even when the
// source assignment still carries a stale percentage value; that precedence
// is resolved before a Rule is constructed, never inside the evaluator.
type Rule interface {
	// Label returns the human readable tag shown next to the line
	// ("2x1", "3x2", "20%" or empty). Both the live summary and the PDF
	// print this exact string.
	Label() string
}

// NoRule applies no discount.
type NoRule struct{}

// Label implements Rule.
func (NoRule) Label() string { return "" }

// PercentageRule discounts every unit by Pct percent. Pct is expected to be
// inside [0,100]; range validation happens at the input boundary.
type PercentageRule struct {
	Pct decimal.Decimal
}

// Label implements Rule.
func (r PercentageRule) Label() string { return r.Pct.String() + "%" }

// PackRule bills full groups at the pack price and every remainder unit at
// full price.
type PackRule struct {
	Kind PackKind
}

// Label implements Rule.
func (r PackRule) Label() string { return string(r.Kind) }

var hundred = decimal.NewFromInt(100)

// ComputeSubtotal returns the discounted amount for quantity units at
// unitPrice under the given rule. It is pure and total for valid numeric
// inputs; quantity 0 always yields 0.
func ComputeSubtotal(unitPrice Money, quantity int, rule Rule) Money {
	if quantity <= 0 {
		return decimal.Zero
	}
	qty := decimal.NewFromInt(int64(quantity))
	switch r := rule.(type) {
	case PercentageRule:
		factor := decimal.NewFromInt(1).Sub(r.Pct.Div(hundred))
		return unitPrice.Mul(qty).Mul(factor)
	case PackRule:
		return unitPrice.Mul(decimal.NewFromInt(int64(payableUnits(r.Kind, quantity))))
	default:
		return unitPrice.Mul(qty)
	}
}

// payableUnits applies the exact pack math: full groups are billed at the
// reduced group size, remainder units at full price. A quantity below the
// group size gets no discount at all (groups == 0).
func payableUnits(kind PackKind, quantity int) int {
	switch kind {
	case Pack2x1:
		return quantity/2 + quantity%2
	case Pack3x2:
		return (quantity/3)*2 + quantity%3
	default:
		return quantity
	}
}
