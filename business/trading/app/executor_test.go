package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arbDomain "github.com/fd1az/gala-arbitrage/business/arbitrage/domain"
	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/business/trading/domain"
	"github.com/fd1az/gala-arbitrage/internal/apperror"
	"github.com/fd1az/gala-arbitrage/internal/logger"
)

type swapCall struct {
	tokenIn  string
	tokenOut string
	amount   decimal.Decimal
}

// fakeExchange scripts swap outcomes per leg.
type fakeExchange struct {
	mu       sync.Mutex
	calls    []swapCall
	outputs  []decimal.Decimal
	failLeg  int // 1-based leg index that errors; 0 = never
	block    chan struct{}
	funds    exchangeDomain.FundsCheck
	fundsErr error
}

func (f *fakeExchange) ExecuteSwap(ctx context.Context, tokenIn, tokenOut exchangeDomain.TokenRef, amount, slippage decimal.Decimal, quote exchangeDomain.SwapQuote) (exchangeDomain.SwapResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, swapCall{tokenIn.Symbol, tokenOut.Symbol, amount})
	leg := len(f.calls)
	if f.failLeg == leg {
		return exchangeDomain.SwapResult{}, errors.New("venue rejected swap")
	}
	out := quote.OutputAmount
	if leg <= len(f.outputs) {
		out = f.outputs[leg-1]
	}
	return exchangeDomain.SwapResult{
		TransactionHash: "0xfake",
		InputAmount:     amount,
		OutputAmount:    out,
		Timestamp:       time.Now(),
	}, nil
}

func (f *fakeExchange) CheckTradingFunds(ctx context.Context, key exchangeDomain.TokenClassKey, amount decimal.Decimal) (exchangeDomain.FundsCheck, error) {
	if f.fundsErr != nil {
		return exchangeDomain.FundsCheck{}, f.fundsErr
	}
	return f.funds, nil
}

func (f *fakeExchange) swapCalls() []swapCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]swapCall(nil), f.calls...)
}

type fakeReporter struct {
	mu    sync.Mutex
	execs []domain.TradeExecution
}

func (r *fakeReporter) ReportExecution(ctx context.Context, exec domain.TradeExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs = append(r.execs, exec)
}

func (r *fakeReporter) reported() []domain.TradeExecution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TradeExecution(nil), r.execs...)
}

func fundedExchange() *fakeExchange {
	return &fakeExchange{
		funds: exchangeDomain.FundsCheck{
			HasFunds:       true,
			CurrentBalance: decimal.NewFromInt(1000),
			Shortfall:      decimal.Zero,
		},
	}
}

func newExecutor(t *testing.T, exchange SwapExecutor, reporter Reporter, maxConcurrent int) *TradeExecutor {
	t.Helper()
	return NewTradeExecutor(exchange, reporter, Config{
		MaxConcurrentTrades: maxConcurrent,
		SlippagePct:         decimal.NewFromFloat(0.5),
	}, nil, logger.New(io.Discard, logger.LevelError, "test"))
}

func testOpportunity(amount int64) arbDomain.Opportunity {
	amt := decimal.NewFromInt(amount)
	return arbDomain.Opportunity{
		ID:       "opp-1",
		Strategy: "direct",
		TokenA:   exchangeDomain.GALA,
		TokenB:   exchangeDomain.GUSDC,
		QuoteAToB: exchangeDomain.SwapQuote{
			InputToken: exchangeDomain.GALA, OutputToken: exchangeDomain.GUSDC,
			InputAmount: amt, OutputAmount: decimal.NewFromInt(27),
		},
		QuoteBToA: exchangeDomain.SwapQuote{
			InputToken: exchangeDomain.GUSDC, OutputToken: exchangeDomain.GALA,
			InputAmount: decimal.NewFromInt(27), OutputAmount: decimal.NewFromInt(110),
		},
		MaxTradeAmount: amt,
		ProfitPct:      decimal.NewFromInt(10),
		HasFunds:       true,
		DetectedAt:     time.Now(),
	}
}

func TestExecuteTradeHappyPath(t *testing.T) {
	exchange := fundedExchange()
	// Buy realizes slightly less than quoted; sell realizes 108.
	exchange.outputs = []decimal.Decimal{decimal.NewFromInt(26), decimal.NewFromInt(108)}
	reporter := &fakeReporter{}
	executor := newExecutor(t, exchange, reporter, 3)

	exec, err := executor.ExecuteTrade(context.Background(), testOpportunity(100))
	require.NoError(t, err)
	require.NotNil(t, exec)

	assert.Equal(t, domain.StatusCompleted, exec.Status)
	require.NotNil(t, exec.BuyResult)
	require.NotNil(t, exec.SellResult)
	assert.True(t, exec.Profit.Equal(decimal.NewFromInt(8)), "profit = 108 - 100, got %s", exec.Profit)
	assert.False(t, exec.CompletedAt.IsZero())

	calls := exchange.swapCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "GALA", calls[0].tokenIn)
	assert.Equal(t, "GUSDC", calls[0].tokenOut)
	assert.Equal(t, "GUSDC", calls[1].tokenIn)
	assert.Equal(t, "GALA", calls[1].tokenOut)
	assert.True(t, calls[1].amount.Equal(decimal.NewFromInt(26)),
		"sell leg must move the buy leg's realized output, moved %s", calls[1].amount)

	stats := executor.Stats()
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.SuccessfulTrades)
	assert.True(t, stats.TotalProfit.Equal(decimal.NewFromInt(8)))
	assert.Empty(t, executor.ActiveTrades())

	reported := reporter.reported()
	require.Len(t, reported, 1)
	assert.Equal(t, domain.StatusCompleted, reported[0].Status)
}

func TestExecuteTradeCapacityRefusal(t *testing.T) {
	exchange := fundedExchange()
	exchange.block = make(chan struct{})
	executor := newExecutor(t, exchange, nil, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = executor.ExecuteTrade(context.Background(), testOpportunity(100))
	}()

	require.Eventually(t, func() bool {
		return executor.Capacity().Active == 1
	}, time.Second, time.Millisecond)

	_, err := executor.ExecuteTrade(context.Background(), testOpportunity(50))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeCapacityExceeded, apperror.GetCode(err))
	assert.Equal(t, 1, executor.Capacity().Active, "refused trade must not leave a record")

	// The admitted in-flight trade is already counted; the refused one never is.
	stats := executor.Stats()
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 0, stats.SuccessfulTrades+stats.FailedTrades+stats.CancelledTrades)

	close(exchange.block)
	<-done

	stats = executor.Stats()
	assert.Equal(t, 1, stats.TotalTrades, "finishing must not double-count the trade")
	assert.Equal(t, 1, stats.SuccessfulTrades)

	assert.Equal(t, 0, executor.Capacity().Active)
	assert.Equal(t, 1, executor.Capacity().Available())
}

func TestExecuteTradeDefaultCapacity(t *testing.T) {
	executor := newExecutor(t, fundedExchange(), nil, 0)
	assert.Equal(t, DefaultMaxConcurrentTrades, executor.Capacity().MaxConcurrent)
}

func TestExecuteTradeRejectsWithoutFunds(t *testing.T) {
	exchange := &fakeExchange{
		funds: exchangeDomain.FundsCheck{
			HasFunds:       false,
			CurrentBalance: decimal.NewFromInt(10),
			Shortfall:      decimal.NewFromInt(90),
		},
	}
	executor := newExecutor(t, exchange, nil, 3)

	_, err := executor.ExecuteTrade(context.Background(), testOpportunity(100))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInsufficientFunds, apperror.GetCode(err))
	assert.Empty(t, exchange.swapCalls())
	assert.Equal(t, 0, executor.Stats().TotalTrades)
}

func TestExecuteTradeRejectsNonPositiveAmount(t *testing.T) {
	executor := newExecutor(t, fundedExchange(), nil, 3)

	opp := testOpportunity(100)
	opp.MaxTradeAmount = decimal.Zero

	_, err := executor.ExecuteTrade(context.Background(), opp)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidTradeSize, apperror.GetCode(err))
}

func TestExecuteTradeBuyLegFailure(t *testing.T) {
	exchange := fundedExchange()
	exchange.failLeg = 1
	reporter := &fakeReporter{}
	executor := newExecutor(t, exchange, reporter, 3)

	exec, err := executor.ExecuteTrade(context.Background(), testOpportunity(100))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, exec.Status)
	assert.NotEmpty(t, exec.Error)
	assert.Nil(t, exec.BuyResult)
	assert.Len(t, exchange.swapCalls(), 1, "sell leg must not run after a failed buy")

	stats := executor.Stats()
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.FailedTrades)
	assert.True(t, stats.TotalProfit.IsZero())

	reported := reporter.reported()
	require.Len(t, reported, 1)
	assert.Equal(t, domain.StatusFailed, reported[0].Status)
}

func TestExecuteTradeSellLegFailure(t *testing.T) {
	exchange := fundedExchange()
	exchange.failLeg = 2
	executor := newExecutor(t, exchange, nil, 3)

	exec, err := executor.ExecuteTrade(context.Background(), testOpportunity(100))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, exec.Status)
	assert.NotNil(t, exec.BuyResult, "failed sell keeps the buy leg's result for the record")
	assert.Len(t, exchange.swapCalls(), 2)
	assert.Equal(t, 1, executor.Stats().FailedTrades)
}

func TestCancelPendingTrade(t *testing.T) {
	exchange := fundedExchange()
	reporter := &fakeReporter{}
	executor := newExecutor(t, exchange, reporter, 3)

	exec, err := executor.admit(testOpportunity(100))
	require.NoError(t, err)

	require.NoError(t, executor.CancelTradeExecution(context.Background(), exec.ID))

	stats := executor.Stats()
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.CancelledTrades)
	assert.Empty(t, executor.ActiveTrades())

	reported := reporter.reported()
	require.Len(t, reported, 1)
	assert.Equal(t, domain.StatusCancelled, reported[0].Status)

	// A cancelled execution never runs its legs.
	final := executor.run(context.Background(), exec.ID)
	assert.Equal(t, domain.StatusCancelled, final.Status)
	assert.Empty(t, exchange.swapCalls())
}

func TestCancelUnknownExecution(t *testing.T) {
	executor := newExecutor(t, fundedExchange(), nil, 3)

	err := executor.CancelTradeExecution(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeUnknownExecution, apperror.GetCode(err))
}

func TestCancelInFlightTradeIsRefused(t *testing.T) {
	exchange := fundedExchange()
	exchange.block = make(chan struct{})
	executor := newExecutor(t, exchange, nil, 3)

	var execID string
	exec, err := executor.admit(testOpportunity(100))
	require.NoError(t, err)
	execID = exec.ID

	done := make(chan struct{})
	go func() {
		defer close(done)
		executor.run(context.Background(), execID)
	}()

	require.Eventually(t, func() bool {
		trades := executor.ActiveTrades()
		return len(trades) == 1 && trades[0].Status == domain.StatusBuying
	}, time.Second, time.Millisecond)

	err = executor.CancelTradeExecution(context.Background(), execID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidState, apperror.GetCode(err))

	close(exchange.block)
	<-done
}

func TestFreshExecutorStatsAreZero(t *testing.T) {
	executor := newExecutor(t, fundedExchange(), nil, 3)

	stats := executor.Stats()
	assert.Zero(t, stats.TotalTrades)
	assert.Zero(t, stats.SuccessfulTrades)
	assert.Zero(t, stats.FailedTrades)
	assert.Zero(t, stats.CancelledTrades)
	assert.True(t, stats.TotalProfit.IsZero())
	assert.True(t, stats.SuccessRate().IsZero())
	assert.True(t, stats.AverageProfit().IsZero())
}
