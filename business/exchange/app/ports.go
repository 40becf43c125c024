// Package app contains application services and port definitions for the exchange context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/gala-arbitrage/business/exchange/domain"
)

// Holding is one row of the venue's paginated asset-holdings query.
// Quantity arrives as a string and is parsed during snapshot rebuilds.
type Holding struct {
	Symbol   string
	Quantity string
}

// VenueClient defines the interface to the swap venue. Implemented by the
// GalaChain adapter; replaced by fakes in tests.
type VenueClient interface {
	// AvailableTokens enumerates tokens tradable on the venue.
	AvailableTokens(ctx context.Context) ([]domain.TokenRef, error)

	// RequestQuote asks the venue to price a hypothetical swap.
	RequestQuote(ctx context.Context, tokenIn, tokenOut domain.TokenRef, amount decimal.Decimal) (domain.SwapQuote, error)

	// SubmitSwap submits a swap for execution.
	SubmitSwap(ctx context.Context, tokenIn, tokenOut domain.TokenRef, amount, slippage decimal.Decimal, quote domain.SwapQuote) (domain.SwapResult, error)

	// FetchHoldings returns one page of wallet asset holdings.
	FetchHoldings(ctx context.Context, wallet string, page, pageSize int) ([]Holding, error)
}
