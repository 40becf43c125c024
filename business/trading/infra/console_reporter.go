// Package infra provides adapters for the trading context.
package infra

import (
	"context"

	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/business/trading/domain"
	"github.com/fd1az/gala-arbitrage/internal/logger"
)

// ConsoleReporter writes finalized executions to the structured log. It is
// the default sink when no external reporting is wired.
type ConsoleReporter struct {
	log logger.LoggerInterface
}

func NewConsoleReporter(log logger.LoggerInterface) *ConsoleReporter {
	return &ConsoleReporter{log: log.With("component", "trade_reporter")}
}

func (r *ConsoleReporter) ReportExecution(ctx context.Context, exec domain.TradeExecution) {
	args := []any{
		"execution_id", exec.ID,
		"pair", exec.Pair(),
		"strategy", exec.Opportunity.Strategy,
		"status", string(exec.Status),
		"amount", exec.Opportunity.MaxTradeAmount.String(),
		"duration", exec.Duration().String(),
	}

	switch exec.Status {
	case domain.StatusCompleted:
		args = append(args,
			"profit", exec.Profit.String(),
			"buy_tx", txHash(exec.BuyResult),
			"sell_tx", txHash(exec.SellResult),
		)
		r.log.Info(ctx, "trade settled", args...)
	case domain.StatusFailed:
		args = append(args, "error", exec.Error, "buy_tx", txHash(exec.BuyResult))
		r.log.Error(ctx, "trade settled", args...)
	default:
		r.log.Info(ctx, "trade settled", args...)
	}
}

func txHash(result *exchangeDomain.SwapResult) string {
	if result == nil {
		return ""
	}
	return result.TransactionHash
}
