package promotions

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/meridian-crm/meridian-crm/internal/pricing"
)

func TestResolveRulePackOverridesStalePercentage(t *testing.T) {
	// The source data keeps the bonification field populated after the mode
	// switches to a pack; the pack must still win.
	assignment := &Assignment{
		Mode:         Mode2x1,
		Bonification: decimal.NewFromInt(25),
	}

	rule := ResolveRule(assignment, decimal.NewFromInt(15), 4)

	assert.Equal(t, pricing.PackRule{Kind: pricing.Pack2x1}, rule)
}

func TestResolveRule3x2(t *testing.T) {
	rule := ResolveRule(&Assignment{Mode: Mode3x2}, decimal.Zero, 1)
	assert.Equal(t, pricing.PackRule{Kind: pricing.Pack3x2}, rule)
}

func TestResolveRulePercentageAssignment(t *testing.T) {
	assignment := &Assignment{
		Mode:         ModePercentage,
		Bonification: decimal.NewFromInt(20),
	}

	rule := ResolveRule(assignment, decimal.Zero, 1)

	assert.Equal(t, pricing.PercentageRule{Pct: decimal.NewFromInt(20)}, rule)
}

func TestResolveRulePercentageBelowMinQuantity(t *testing.T) {
	assignment := &Assignment{
		Mode:         ModePercentage,
		Bonification: decimal.NewFromInt(20),
		MinQuantity:  5,
	}

	rule := ResolveRule(assignment, decimal.Zero, 4)
	assert.Equal(t, pricing.NoRule{}, rule)

	rule = ResolveRule(assignment, decimal.Zero, 5)
	assert.Equal(t, pricing.PercentageRule{Pct: decimal.NewFromInt(20)}, rule)
}

func TestResolveRuleAdhocBonification(t *testing.T) {
	rule := ResolveRule(nil, decimal.NewFromFloat(7.5), 1)
	assert.Equal(t, pricing.PercentageRule{Pct: decimal.NewFromFloat(7.5)}, rule)
}

func TestResolveRuleAssignmentBelowThresholdFallsBackToAdhoc(t *testing.T) {
	assignment := &Assignment{
		Mode:         ModePercentage,
		Bonification: decimal.NewFromInt(30),
		MinQuantity:  10,
	}

	rule := ResolveRule(assignment, decimal.NewFromInt(5), 2)

	assert.Equal(t, pricing.PercentageRule{Pct: decimal.NewFromInt(5)}, rule)
}

func TestResolveRuleNoDiscount(t *testing.T) {
	rule := ResolveRule(nil, decimal.Zero, 3)
	assert.Equal(t, pricing.NoRule{}, rule)
}
