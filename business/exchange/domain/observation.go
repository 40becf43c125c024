package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapObservation is one swap seen on the venue's event stream. It carries
// the two tokens and amounts embedded in the raw operation so detection can
// react without a full pair scan.
type SwapObservation struct {
	TransactionID string
	TokenIn       TokenRef
	TokenOut      TokenRef
	AmountIn      decimal.Decimal
	AmountOut     decimal.Decimal
	ObservedAt    time.Time
}

// Pair returns the trading pair the observed swap moved.
func (o SwapObservation) Pair() TradingPair {
	return TradingPair{TokenA: o.TokenIn, TokenB: o.TokenOut}
}

// Price returns output per input for the observed swap, zero for zero input.
func (o SwapObservation) Price() decimal.Decimal {
	if o.AmountIn.IsZero() {
		return decimal.Zero
	}
	return o.AmountOut.Div(o.AmountIn)
}
