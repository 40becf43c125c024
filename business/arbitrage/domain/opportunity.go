// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
)

// Opportunity is a detected round-trip (or multi-hop cycle) trade expected
// to yield positive profit given current quotes. Immutable once produced;
// consumed exactly once by the executor.
type Opportunity struct {
	ID       string
	Strategy string

	TokenA exchangeDomain.TokenRef
	TokenB exchangeDomain.TokenRef

	// QuoteAToB prices the entry leg, QuoteBToA the exit leg at the entry
	// leg's quoted output.
	QuoteAToB exchangeDomain.SwapQuote
	QuoteBToA exchangeDomain.SwapQuote

	// MaxTradeAmount is the entry amount, capped by available balance and
	// the configured ceiling.
	MaxTradeAmount decimal.Decimal

	// ProfitPct is the round-trip percentage:
	// (QuoteBToA.OutputAmount - MaxTradeAmount) / MaxTradeAmount * 100.
	ProfitPct decimal.Decimal

	// Funds check against token A at detection time. Opportunities without
	// funds are still surfaced (with the shortfall) for near-miss
	// reporting; the executor refuses to run them.
	HasFunds       bool
	CurrentBalance decimal.Decimal
	Shortfall      decimal.Decimal

	// Route is the full token cycle, entry token first and last.
	Route []exchangeDomain.TokenRef

	DetectedAt time.Time
}

// EstimatedProfit returns the absolute profit the quotes promise.
func (o *Opportunity) EstimatedProfit() decimal.Decimal {
	return o.QuoteBToA.OutputAmount.Sub(o.MaxTradeAmount)
}

// Pair returns the pair the opportunity trades.
func (o *Opportunity) Pair() exchangeDomain.TradingPair {
	return exchangeDomain.TradingPair{TokenA: o.TokenA, TokenB: o.TokenB}
}
