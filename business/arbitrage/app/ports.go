// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/gala-arbitrage/business/arbitrage/domain"
	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
)

// ExchangeAccess is the slice of the exchange service detection depends on.
type ExchangeAccess interface {
	// Quote asks the venue to price a hypothetical swap. A failure means
	// "no opportunity from this leg", not a fatal condition.
	Quote(ctx context.Context, tokenIn, tokenOut exchangeDomain.TokenRef, amount decimal.Decimal) (exchangeDomain.SwapQuote, error)

	// CheckTradingFunds verifies amount is covered by the current balance.
	CheckTradingFunds(ctx context.Context, key exchangeDomain.TokenClassKey, amount decimal.Decimal) (exchangeDomain.FundsCheck, error)
}

// Strategy is one detection approach. Strategies are polymorphic over
// exactly two capabilities: batch detection over trading pairs and reactive
// detection from a single observed swap.
type Strategy interface {
	Name() string

	// DetectPairs inspects a batch of trading pairs and proposes
	// opportunities.
	DetectPairs(ctx context.Context, pairs []exchangeDomain.TradingPair, xs ExchangeAccess) ([]domain.Opportunity, error)

	// DetectSwap reacts to one observed swap on the venue.
	DetectSwap(ctx context.Context, obs exchangeDomain.SwapObservation, xs ExchangeAccess) ([]domain.Opportunity, error)
}
