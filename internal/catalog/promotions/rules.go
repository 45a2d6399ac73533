package promotions

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-crm/meridian-crm/internal/pricing"
)

// ResolveRule translates an assignment plus an ad-hoc bonification into the
// single discount rule applied to a quote line. This is the one place the
// precedence lives:
//
//  1. a pack assignment always wins, even when the assignment row still
//     carries a leftover bonification percentage;
//  2. otherwise the assignment's percentage applies when the quantity meets
//     its minimum threshold;
//  3. otherwise a positive ad-hoc bonification applies;
//  4. otherwise the line is undiscounted.
func ResolveRule(assignment *Assignment, adhocPct decimal.Decimal, quantity int) pricing.Rule {
	if assignment != nil {
		switch assignment.Mode {
		case Mode2x1:
			return pricing.PackRule{Kind: pricing.Pack2x1}
		case Mode3x2:
			return pricing.PackRule{Kind: pricing.Pack3x2}
		case ModePercentage:
			if assignment.Bonification.IsPositive() && quantity >= assignment.MinQuantity {
				return pricing.PercentageRule{Pct: assignment.Bonification}
			}
		}
	}
	if adhocPct.IsPositive() {
		return pricing.PercentageRule{Pct: adhocPct}
	}
	return pricing.NoRule{}
}
