package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	arbDomain "github.com/fd1az/gala-arbitrage/business/arbitrage/domain"
	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
)

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status ExecutionStatus
		want   bool
	}{
		{StatusPending, false},
		{StatusBuying, false},
		{StatusSelling, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestTradingStatsGuards(t *testing.T) {
	var empty TradingStats
	if !empty.SuccessRate().IsZero() {
		t.Errorf("empty SuccessRate = %s, want 0", empty.SuccessRate())
	}
	if !empty.AverageProfit().IsZero() {
		t.Errorf("empty AverageProfit = %s, want 0", empty.AverageProfit())
	}

	stats := TradingStats{
		TotalTrades:      4,
		SuccessfulTrades: 3,
		FailedTrades:     1,
		TotalProfit:      decimal.NewFromInt(30),
	}
	if got := stats.SuccessRate(); !got.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("SuccessRate = %s, want 0.75", got)
	}
	// Average runs over every finished trade, not only the winners.
	if got := stats.AverageProfit(); !got.Equal(decimal.RequireFromString("7.5")) {
		t.Errorf("AverageProfit = %s, want 7.5", got)
	}

	mixed := TradingStats{
		TotalTrades:      2,
		SuccessfulTrades: 1,
		FailedTrades:     1,
		TotalProfit:      decimal.NewFromInt(10),
	}
	if got := mixed.AverageProfit(); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("AverageProfit = %s, want 5", got)
	}
}

func TestExecutionPairName(t *testing.T) {
	exec := TradeExecution{Opportunity: arbDomain.Opportunity{
		TokenA: exchangeDomain.TokenRef{Symbol: "GALA"},
		TokenB: exchangeDomain.TokenRef{Symbol: "GUSDC"},
	}}
	if got := exec.Pair(); got != "GALA/GUSDC" {
		t.Errorf("Pair() = %q, want GALA/GUSDC", got)
	}
}

func TestCapacityAvailable(t *testing.T) {
	tests := []struct {
		name string
		cap  TradingCapacity
		want int
	}{
		{"all free", TradingCapacity{MaxConcurrent: 3, Active: 0}, 3},
		{"partly used", TradingCapacity{MaxConcurrent: 3, Active: 2}, 1},
		{"full", TradingCapacity{MaxConcurrent: 3, Active: 3}, 0},
		{"over", TradingCapacity{MaxConcurrent: 3, Active: 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cap.Available(); got != tt.want {
				t.Errorf("Available() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExecutionDuration(t *testing.T) {
	start := time.Now()
	exec := TradeExecution{StartedAt: start}
	if exec.Duration() != 0 {
		t.Errorf("in-flight Duration = %s, want 0", exec.Duration())
	}
	exec.CompletedAt = start.Add(2 * time.Second)
	if exec.Duration() != 2*time.Second {
		t.Errorf("Duration = %s, want 2s", exec.Duration())
	}
}
