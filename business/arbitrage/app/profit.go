package app

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ProfitCalculator turns round-trip amounts into a percentage and decides
// whether it clears the configured threshold.
type ProfitCalculator struct {
	minProfitPct decimal.Decimal
}

func NewProfitCalculator(minProfitPct decimal.Decimal) ProfitCalculator {
	return ProfitCalculator{minProfitPct: minProfitPct}
}

// RoundTripPct returns the percentage gained (or lost, negative) when
// amountIn of a token comes back as amountBack of the same token.
func (c ProfitCalculator) RoundTripPct(amountIn, amountBack decimal.Decimal) decimal.Decimal {
	if amountIn.IsZero() {
		return decimal.Zero
	}
	return amountBack.Sub(amountIn).Div(amountIn).Mul(hundred)
}

// Qualifies reports whether pct strictly exceeds the minimum profit
// threshold. Equality does not qualify.
func (c ProfitCalculator) Qualifies(pct decimal.Decimal) bool {
	return pct.GreaterThan(c.minProfitPct)
}
