package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fleetQuote() QuoteLines {
	return QuoteLines{
		VehicleCount: 3,
		Installation: LineItem{
			ProductID:   1,
			ProductName: "Installation fee",
			UnitPrice:   decimal.NewFromInt(2000),
			Quantity:    3,
		},
		Subscription: LineItem{
			ProductID:   2,
			ProductName: "Monthly plan",
			UnitPrice:   decimal.NewFromInt(500),
			AllVehicles: true,
			Rule:        PercentageRule{Pct: decimal.NewFromInt(10)},
		},
		Accessories: []LineItem{
			{
				ProductID:   3,
				ProductName: "Panic button",
				UnitPrice:   decimal.NewFromInt(100),
				AllVehicles: true,
			},
		},
	}
}

func TestAggregateCategoryTotals(t *testing.T) {
	totals := Aggregate(fleetQuote())

	// Installation 2000x3, subscription 500x3 minus 10%, accessory 100x3.
	assert.True(t, totals.Installation.Subtotal.Equal(decimal.NewFromInt(6000)))
	assert.True(t, totals.Subscription.Subtotal.Equal(decimal.NewFromInt(1350)))
	assert.True(t, totals.TotalAccessories.Equal(decimal.NewFromInt(300)))
	assert.True(t, totals.TotalServices.IsZero())

	assert.True(t, totals.InitialInvestment.Equal(decimal.NewFromInt(6300)))
	assert.True(t, totals.RecurringMonthly.Equal(decimal.NewFromInt(1350)))
	assert.True(t, totals.FirstMonthTotal.Equal(decimal.NewFromInt(7650)))
	assert.True(t, totals.GrandTotal.Equal(decimal.NewFromInt(7650)))
}

func TestAggregateSingleUnitInstallation(t *testing.T) {
	lines := fleetQuote()
	lines.Installation.Quantity = 1
	lines.Installation.UnitPrice = decimal.NewFromInt(2000)

	totals := Aggregate(lines)

	assert.True(t, totals.InitialInvestment.Equal(decimal.NewFromInt(2300)))
	assert.True(t, totals.RecurringMonthly.Equal(decimal.NewFromInt(1350)))
	assert.True(t, totals.FirstMonthTotal.Equal(decimal.NewFromInt(3650)))
	assert.True(t, totals.GrandTotal.Equal(decimal.NewFromInt(3650)))
}

// GrandTotal and FirstMonthTotal are summed through different paths; they may
// never drift apart, whatever the line mix.
func TestAggregateGrandTotalEqualsFirstMonthTotal(t *testing.T) {
	variants := []QuoteLines{
		fleetQuote(),
		{
			VehicleCount: 7,
			Installation: LineItem{ProductID: 1, UnitPrice: decimal.NewFromInt(150), AllVehicles: true, Rule: PackRule{Kind: Pack2x1}},
			Subscription: LineItem{ProductID: 2, UnitPrice: decimal.NewFromFloat(24.9), AllVehicles: true, Rule: PackRule{Kind: Pack3x2}},
			Services: []LineItem{
				{ProductID: 4, UnitPrice: decimal.NewFromFloat(9.95), Quantity: 2},
				{ProductID: 5, UnitPrice: decimal.NewFromInt(30), Quantity: 1, Rule: PercentageRule{Pct: decimal.NewFromFloat(12.5)}},
			},
			Accessories: []LineItem{
				{ProductID: 6, UnitPrice: decimal.NewFromInt(45), Quantity: 3, Rule: PackRule{Kind: Pack3x2}},
				{Quantity: 2}, // incomplete row, contributes nothing
			},
		},
		{VehicleCount: 1},
	}

	for i, lines := range variants {
		totals := Aggregate(lines)
		require.Truef(t, totals.GrandTotal.Equal(totals.FirstMonthTotal),
			"variant %d: grand total %s != first month total %s", i, totals.GrandTotal, totals.FirstMonthTotal)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	lines := fleetQuote()

	first := Aggregate(lines)
	second := Aggregate(lines)

	assert.Equal(t, first.GrandTotal.String(), second.GrandTotal.String())
	assert.Equal(t, first.FirstMonthTotal.String(), second.FirstMonthTotal.String())
	assert.Equal(t, first.Subscription.Subtotal.String(), second.Subscription.Subtotal.String())
	assert.Equal(t, first.InitialInvestment.String(), second.InitialInvestment.String())
}

func TestAggregateIncompleteLinesContributeZero(t *testing.T) {
	lines := QuoteLines{
		VehicleCount: 2,
		Installation: LineItem{ProductID: 1, UnitPrice: decimal.NewFromInt(500), Quantity: 1},
		Subscription: LineItem{}, // row exists, product not yet chosen
		Services:     []LineItem{{Quantity: 4}},
	}

	totals := Aggregate(lines)

	assert.True(t, totals.Subscription.Incomplete)
	require.Len(t, totals.Services, 1)
	assert.True(t, totals.Services[0].Incomplete)
	assert.True(t, totals.GrandTotal.Equal(decimal.NewFromInt(500)))
	assert.True(t, totals.RecurringMonthly.IsZero())
}
