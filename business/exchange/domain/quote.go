package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapQuote is a venue price estimate for a hypothetical swap. Quotes are
// produced fresh per request and must never be cached; stale quotes corrupt
// round-trip profit math.
type SwapQuote struct {
	InputToken   TokenRef
	OutputToken  TokenRef
	InputAmount  decimal.Decimal
	OutputAmount decimal.Decimal
	PriceImpact  decimal.Decimal // fraction, e.g. 0.0042
	FeeTier      int             // venue fee tier in hundredths of a bip
	Route        []TokenRef      // ordered token identities traversed
}

// EffectivePrice returns output per unit of input, zero when the input is zero.
func (q SwapQuote) EffectivePrice() decimal.Decimal {
	if q.InputAmount.IsZero() {
		return decimal.Zero
	}
	return q.OutputAmount.Div(q.InputAmount)
}

// SwapResult is the realized outcome of a submitted swap. In mock mode the
// transaction hash carries the "mock-" prefix; live results carry the venue's
// transaction identifier.
type SwapResult struct {
	TransactionHash string
	InputAmount     decimal.Decimal
	OutputAmount    decimal.Decimal
	ActualPrice     decimal.Decimal
	GasUsed         decimal.Decimal
	Timestamp       time.Time
}

// MockTransactionPrefix distinguishes synthetic mock-mode results.
const MockTransactionPrefix = "mock-"
