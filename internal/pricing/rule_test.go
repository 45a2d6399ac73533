package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func money(v int64) Money {
	return decimal.NewFromInt(v)
}

func TestComputeSubtotalNoRule(t *testing.T) {
	price := money(1000)
	for q := 0; q <= 50; q++ {
		got := ComputeSubtotal(price, q, NoRule{})
		want := price.Mul(decimal.NewFromInt(int64(q)))
		if !got.Equal(want) {
			t.Fatalf("q=%d: expected %s got %s", q, want, got)
		}
	}
}

func TestComputeSubtotalFullQuantityNoDiscount(t *testing.T) {
	got := ComputeSubtotal(money(1000), 5, NoRule{})
	if !got.Equal(money(5000)) {
		t.Fatalf("expected 5000 got %s", got)
	}
}

func TestComputeSubtotalPercentage(t *testing.T) {
	got := ComputeSubtotal(money(1000), 5, PercentageRule{Pct: decimal.NewFromInt(20)})
	if !got.Equal(money(4000)) {
		t.Fatalf("expected 4000 got %s", got)
	}
}

func TestComputeSubtotalPercentageZeroEqualsBase(t *testing.T) {
	price := decimal.NewFromFloat(123.45)
	for q := 0; q <= 20; q++ {
		got := ComputeSubtotal(price, q, PercentageRule{Pct: decimal.Zero})
		want := price.Mul(decimal.NewFromInt(int64(q)))
		if !got.Equal(want) {
			t.Fatalf("q=%d: 0%% should keep base %s, got %s", q, want, got)
		}
	}
}

func TestComputeSubtotalPercentageHundredIsFree(t *testing.T) {
	for q := 0; q <= 20; q++ {
		got := ComputeSubtotal(money(750), q, PercentageRule{Pct: decimal.NewFromInt(100)})
		if !got.IsZero() {
			t.Fatalf("q=%d: 100%% should zero the line, got %s", q, got)
		}
	}
}

func TestComputeSubtotalPack2x1(t *testing.T) {
	// 5 units: 2 full groups pay 1 each, the odd unit pays full price.
	got := ComputeSubtotal(money(1000), 5, PackRule{Kind: Pack2x1})
	if !got.Equal(money(3000)) {
		t.Fatalf("expected 3000 got %s", got)
	}
}

func TestComputeSubtotalPack3x2(t *testing.T) {
	// 7 units: 2 groups pay 2 each, remainder 1 pays full price.
	got := ComputeSubtotal(money(900), 7, PackRule{Kind: Pack3x2})
	if !got.Equal(money(4500)) {
		t.Fatalf("expected 4500 got %s", got)
	}
}

func TestPack2x1PayableMatchesCeilHalf(t *testing.T) {
	for q := 0; q <= 200; q++ {
		got := payableUnits(Pack2x1, q)
		want := (q + 1) / 2
		if got != want {
			t.Fatalf("q=%d: expected payable %d got %d", q, want, got)
		}
	}
}

func TestPack3x2PayableMatchesQuantityMinusGroups(t *testing.T) {
	for q := 0; q <= 200; q++ {
		got := payableUnits(Pack3x2, q)
		want := q - q/3
		if got != want {
			t.Fatalf("q=%d: expected payable %d got %d", q, want, got)
		}
	}
}

func TestPackBelowGroupSizeBillsFullPrice(t *testing.T) {
	// One unit under 2x1 forms no group, so the remainder is billed in full.
	got := ComputeSubtotal(money(1000), 1, PackRule{Kind: Pack2x1})
	if !got.Equal(money(1000)) {
		t.Fatalf("expected 1000 got %s", got)
	}
	got = ComputeSubtotal(money(1000), 2, PackRule{Kind: Pack3x2})
	if !got.Equal(money(2000)) {
		t.Fatalf("expected 2000 got %s", got)
	}
}

func TestComputeSubtotalZeroQuantity(t *testing.T) {
	rules := []Rule{
		NoRule{},
		PercentageRule{Pct: decimal.NewFromInt(50)},
		PackRule{Kind: Pack2x1},
		PackRule{Kind: Pack3x2},
	}
	for _, rule := range rules {
		if got := ComputeSubtotal(money(999), 0, rule); !got.IsZero() {
			t.Fatalf("rule %T: expected 0 for quantity 0, got %s", rule, got)
		}
	}
}

func TestRuleLabels(t *testing.T) {
	cases := []struct {
		rule Rule
		want string
	}{
		{NoRule{}, ""},
		{PercentageRule{Pct: decimal.NewFromInt(20)}, "20%"},
		{PercentageRule{Pct: decimal.NewFromFloat(12.5)}, "12.5%"},
		{PackRule{Kind: Pack2x1}, "2x1"},
		{PackRule{Kind: Pack3x2}, "3x2"},
	}
	for _, tc := range cases {
		if got := tc.rule.Label(); got != tc.want {
			t.Fatalf("expected label %q got %q", tc.want, got)
		}
	}
}
