package quotes

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericToDecimalKeepsEveryDigit(t *testing.T) {
	// Values with more significant digits than float64 can represent. The
	// engine writes unrounded decimals, so reads must not lose precision.
	for _, raw := range []string{
		"613.572348975123456789",
		"0.3333333333333333333333",
		"12345678901234567.89",
		"2300",
	} {
		var n pgtype.Numeric
		require.NoError(t, n.Scan(raw))

		want, err := decimal.NewFromString(raw)
		require.NoError(t, err)

		got := numericToDecimal(n)
		assert.True(t, got.Equal(want), "stored %s came back as %s", raw, got)
	}
}

func TestNumericToDecimalZeroOnNull(t *testing.T) {
	assert.True(t, numericToDecimal(pgtype.Numeric{}).IsZero())
}
