// Package app implements the trade executor for the trading context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/business/trading/domain"
)

// SwapExecutor is the slice of the exchange service the executor needs to
// move funds.
type SwapExecutor interface {
	ExecuteSwap(ctx context.Context, tokenIn, tokenOut exchangeDomain.TokenRef, amount, slippage decimal.Decimal, quote exchangeDomain.SwapQuote) (exchangeDomain.SwapResult, error)
	CheckTradingFunds(ctx context.Context, key exchangeDomain.TokenClassKey, amount decimal.Decimal) (exchangeDomain.FundsCheck, error)
}

// Reporter receives every execution that reaches a terminal state.
type Reporter interface {
	ReportExecution(ctx context.Context, exec domain.TradeExecution)
}
