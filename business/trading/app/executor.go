package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	arbDomain "github.com/fd1az/gala-arbitrage/business/arbitrage/domain"
	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/business/trading/domain"
	"github.com/fd1az/gala-arbitrage/internal/apm"
	"github.com/fd1az/gala-arbitrage/internal/apperror"
	"github.com/fd1az/gala-arbitrage/internal/logger"
	"github.com/fd1az/gala-arbitrage/internal/metrics"
)

// DefaultMaxConcurrentTrades caps in-flight round trips when the config
// does not say otherwise.
const DefaultMaxConcurrentTrades = 3

// Config tunes the executor.
type Config struct {
	MaxConcurrentTrades int
	SlippagePct         decimal.Decimal
}

// TradeExecutor admits opportunities against a concurrency cap and runs
// each admitted trade as two sequential swap legs. A single mutex
// linearizes admission, cancellation and stats so capacity can never be
// oversubscribed.
type TradeExecutor struct {
	exchange SwapExecutor
	reporter Reporter
	cfg      Config
	metrics  *metrics.Engine
	tracer   apm.Tracer
	log      logger.LoggerInterface

	mu     sync.Mutex
	active map[string]*domain.TradeExecution
	stats  domain.TradingStats
}

func NewTradeExecutor(exchange SwapExecutor, reporter Reporter, cfg Config, eng *metrics.Engine, log logger.LoggerInterface) *TradeExecutor {
	if cfg.MaxConcurrentTrades <= 0 {
		cfg.MaxConcurrentTrades = DefaultMaxConcurrentTrades
	}
	return &TradeExecutor{
		exchange: exchange,
		reporter: reporter,
		cfg:      cfg,
		metrics:  eng,
		tracer:   apm.NewTracer("trading.executor"),
		log:      log,
		active:   make(map[string]*domain.TradeExecution),
	}
}

// ExecuteTrade runs the full round trip for one opportunity and returns the
// terminal execution record. Admission failures (bad size, missing funds,
// capacity) return an error without creating a record.
func (e *TradeExecutor) ExecuteTrade(ctx context.Context, opp arbDomain.Opportunity) (*domain.TradeExecution, error) {
	ctx, span := e.tracer.StartSpanFromContext(ctx, "executor.trade")
	defer span.End()

	if !opp.MaxTradeAmount.IsPositive() {
		return nil, apperror.Validation(apperror.CodeInvalidTradeSize,
			fmt.Sprintf("trade amount %s must be positive", opp.MaxTradeAmount))
	}

	// Balances may have moved since detection; re-check at admission.
	check, err := e.exchange.CheckTradingFunds(ctx, opp.TokenA.ClassKey, opp.MaxTradeAmount)
	if err != nil {
		return nil, err
	}
	if !check.HasFunds {
		return nil, apperror.New(apperror.CodeInsufficientFunds,
			apperror.WithContext(fmt.Sprintf("need %s %s, short %s",
				opp.MaxTradeAmount, opp.TokenA.Symbol, check.Shortfall)))
	}

	exec, err := e.admit(opp)
	if err != nil {
		return nil, err
	}
	e.metrics.TradeStarted(ctx)
	e.log.Info(ctx, "trade admitted",
		"execution_id", exec.ID,
		"pair", exec.Pair(),
		"strategy", opp.Strategy,
		"amount", opp.MaxTradeAmount.String(),
	)

	return e.run(ctx, exec.ID), nil
}

// admit reserves a capacity slot and registers a pending record, all under
// one lock.
func (e *TradeExecutor) admit(opp arbDomain.Opportunity) (domain.TradeExecution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.active) >= e.cfg.MaxConcurrentTrades {
		return domain.TradeExecution{}, apperror.New(apperror.CodeCapacityExceeded,
			apperror.WithContext(fmt.Sprintf("%d of %d trades in flight",
				len(e.active), e.cfg.MaxConcurrentTrades)))
	}

	exec := &domain.TradeExecution{
		ID:          uuid.NewString(),
		Opportunity: opp,
		Status:      domain.StatusPending,
		Profit:      decimal.Zero,
		StartedAt:   time.Now().UTC(),
	}
	e.active[exec.ID] = exec
	// Counted at admission so in-flight trades show up in Stats.
	e.stats.TotalTrades++
	return *exec, nil
}

// run drives the two legs for an admitted execution and always returns a
// terminal record.
func (e *TradeExecutor) run(ctx context.Context, id string) *domain.TradeExecution {
	exec, ok := e.transition(id, domain.StatusPending, domain.StatusBuying)
	if !ok {
		// Cancelled between admission and the first leg.
		return exec
	}

	opp := exec.Opportunity
	amount := opp.MaxTradeAmount

	buy, err := e.exchange.ExecuteSwap(ctx, opp.TokenA, opp.TokenB, amount, e.cfg.SlippagePct, opp.QuoteAToB)
	if err != nil {
		return e.fail(ctx, id, apperror.Wrap(err, apperror.CodeSwapExecutionFailed, "buy leg"))
	}
	e.setBuyResult(id, buy)

	if _, ok := e.transition(id, domain.StatusBuying, domain.StatusSelling); !ok {
		return e.fail(ctx, id, apperror.New(apperror.CodeInvalidState, apperror.WithContext("execution left buying state")))
	}

	// The sell leg moves what the buy actually produced, not what the
	// quote promised.
	sellQuote := opp.QuoteBToA
	sellQuote.InputAmount = buy.OutputAmount

	sell, err := e.exchange.ExecuteSwap(ctx, opp.TokenB, opp.TokenA, buy.OutputAmount, e.cfg.SlippagePct, sellQuote)
	if err != nil {
		return e.fail(ctx, id, apperror.Wrap(err, apperror.CodeSwapExecutionFailed, "sell leg"))
	}

	profit := sell.OutputAmount.Sub(amount)
	return e.complete(ctx, id, sell, profit)
}

// CancelTradeExecution cancels a trade that has not started its buy leg.
// Anything past pending is already moving funds and cannot be recalled.
func (e *TradeExecutor) CancelTradeExecution(ctx context.Context, id string) error {
	e.mu.Lock()
	exec, ok := e.active[id]
	if !ok {
		e.mu.Unlock()
		return apperror.New(apperror.CodeUnknownExecution, apperror.WithContext(id))
	}
	if exec.Status != domain.StatusPending {
		status := exec.Status
		e.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("execution %s is %s, only pending trades cancel", id, status)))
	}
	exec.Status = domain.StatusCancelled
	exec.CompletedAt = time.Now().UTC()
	delete(e.active, id)
	e.stats.CancelledTrades++
	final := *exec
	e.mu.Unlock()

	e.log.Info(ctx, "trade cancelled", "execution_id", id)
	e.report(ctx, final)
	return nil
}

// ActiveTrades returns snapshots of every in-flight execution.
func (e *TradeExecutor) ActiveTrades() []domain.TradeExecution {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.TradeExecution, 0, len(e.active))
	for _, exec := range e.active {
		out = append(out, *exec)
	}
	return out
}

// Capacity reports the current admission state.
func (e *TradeExecutor) Capacity() domain.TradingCapacity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.TradingCapacity{
		MaxConcurrent: e.cfg.MaxConcurrentTrades,
		Active:        len(e.active),
	}
}

// Stats returns a copy of the aggregate counters.
func (e *TradeExecutor) Stats() domain.TradingStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// transition moves an execution from one status to the next. ok is false
// when the record is gone or no longer in the expected state; the returned
// snapshot reflects whatever state it is in.
func (e *TradeExecutor) transition(id string, from, to domain.ExecutionStatus) (*domain.TradeExecution, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.active[id]
	if !ok {
		return &domain.TradeExecution{ID: id, Status: domain.StatusCancelled}, false
	}
	if exec.Status != from {
		snap := *exec
		return &snap, false
	}
	exec.Status = to
	snap := *exec
	return &snap, true
}

func (e *TradeExecutor) setBuyResult(id string, result exchangeDomain.SwapResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if exec, ok := e.active[id]; ok {
		r := result
		exec.BuyResult = &r
	}
}

func (e *TradeExecutor) fail(ctx context.Context, id string, cause error) *domain.TradeExecution {
	e.mu.Lock()
	exec, ok := e.active[id]
	if !ok {
		e.mu.Unlock()
		return &domain.TradeExecution{ID: id, Status: domain.StatusFailed, Error: cause.Error()}
	}
	exec.Status = domain.StatusFailed
	exec.Error = cause.Error()
	exec.CompletedAt = time.Now().UTC()
	delete(e.active, id)
	e.stats.FailedTrades++
	final := *exec
	e.mu.Unlock()

	e.metrics.TradeFailed(ctx)
	e.log.Error(ctx, "trade failed", "execution_id", id, "pair", final.Pair(), "error", cause)
	e.report(ctx, final)
	return &final
}

func (e *TradeExecutor) complete(ctx context.Context, id string, sell exchangeDomain.SwapResult, profit decimal.Decimal) *domain.TradeExecution {
	e.mu.Lock()
	exec, ok := e.active[id]
	if !ok {
		e.mu.Unlock()
		return &domain.TradeExecution{ID: id, Status: domain.StatusCancelled}
	}
	r := sell
	exec.SellResult = &r
	exec.Status = domain.StatusCompleted
	exec.Profit = profit
	exec.CompletedAt = time.Now().UTC()
	delete(e.active, id)
	e.stats.SuccessfulTrades++
	e.stats.TotalProfit = e.stats.TotalProfit.Add(profit)
	final := *exec
	e.mu.Unlock()

	pf, _ := profit.Float64()
	e.metrics.TradeCompleted(ctx, pf)
	e.log.Info(ctx, "trade completed",
		"execution_id", id,
		"pair", final.Pair(),
		"profit", profit.String(),
		"duration", final.Duration().String(),
	)
	e.report(ctx, final)
	return &final
}

func (e *TradeExecutor) report(ctx context.Context, exec domain.TradeExecution) {
	if e.reporter != nil {
		e.reporter.ReportExecution(ctx, exec)
	}
}
