// Package domain holds the trade execution model for the trading context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	arbDomain "github.com/fd1az/gala-arbitrage/business/arbitrage/domain"
	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
)

// ExecutionStatus tracks a trade through its lifecycle. Transitions only
// move forward: pending -> buying -> selling -> completed, with failed and
// cancelled as terminal exits.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusBuying    ExecutionStatus = "buying"
	StatusSelling   ExecutionStatus = "selling"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
	StatusCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// TradeExecution is the record of one attempted round trip. It snapshots
// the opportunity that triggered it so later rebalances cannot change what
// the trade was priced against.
type TradeExecution struct {
	ID          string
	Opportunity arbDomain.Opportunity
	Status      ExecutionStatus
	BuyResult   *exchangeDomain.SwapResult
	SellResult  *exchangeDomain.SwapResult
	Profit      decimal.Decimal
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Pair names the traded pair, e.g. "GALA/GUSDC".
func (t TradeExecution) Pair() string {
	return t.Opportunity.Pair().String()
}

// Duration is the wall time from admission to the terminal state; zero
// while the trade is still in flight.
func (t TradeExecution) Duration() time.Duration {
	if t.CompletedAt.IsZero() {
		return 0
	}
	return t.CompletedAt.Sub(t.StartedAt)
}

// TradingStats aggregates executions. TotalTrades counts every admitted
// trade, in-flight ones included; the per-outcome counters move when a
// trade reaches its terminal state.
type TradingStats struct {
	TotalTrades      int
	SuccessfulTrades int
	FailedTrades     int
	CancelledTrades  int
	TotalProfit      decimal.Decimal
}

// SuccessRate is the completed fraction of all trades as a plain ratio in
// [0,1]. Zero when nothing has been admitted. Callers rendering a
// percentage multiply at the display boundary.
func (s TradingStats) SuccessRate() decimal.Decimal {
	if s.TotalTrades == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.SuccessfulTrades)).
		Div(decimal.NewFromInt(int64(s.TotalTrades)))
}

// AverageProfit is TotalProfit over all trades, failed and cancelled
// included. Zero when nothing has been admitted.
func (s TradingStats) AverageProfit() decimal.Decimal {
	if s.TotalTrades == 0 {
		return decimal.Zero
	}
	return s.TotalProfit.Div(decimal.NewFromInt(int64(s.TotalTrades)))
}

// TradingCapacity describes the executor's admission state.
type TradingCapacity struct {
	MaxConcurrent int
	Active        int
}

// Available is how many more trades admission would accept right now.
func (c TradingCapacity) Available() int {
	if avail := c.MaxConcurrent - c.Active; avail > 0 {
		return avail
	}
	return 0
}
