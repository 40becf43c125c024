package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	arbApp "github.com/fd1az/gala-arbitrage/business/arbitrage/app"
	arbDomain "github.com/fd1az/gala-arbitrage/business/arbitrage/domain"
	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
	tradingApp "github.com/fd1az/gala-arbitrage/business/trading/app"
	"github.com/fd1az/gala-arbitrage/internal/apperror"
	"github.com/fd1az/gala-arbitrage/internal/logger"
)

// engine ties detection to execution: a ticker drives batch scans over the
// configured pairs, and an optional observation channel feeds reactive
// detection from live venue swaps.
type engine struct {
	detector     *arbApp.Detector
	executor     *tradingApp.TradeExecutor
	pairs        []exchangeDomain.TradingPair
	scanInterval time.Duration
	observations <-chan exchangeDomain.SwapObservation
	log          logger.LoggerInterface
}

// run blocks until ctx is cancelled. In-flight trades finish on their own
// goroutines; the errgroup only carries the two loops.
func (e *engine) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return e.scanLoop(ctx) })
	if e.observations != nil {
		g.Go(func() error { return e.streamLoop(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (e *engine) scanLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.scanInterval)
	defer ticker.Stop()

	// First pass immediately rather than one interval in.
	e.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.scanOnce(ctx)
		}
	}
}

func (e *engine) scanOnce(ctx context.Context) {
	opps := e.detector.DetectAllOpportunities(ctx, e.pairs)
	for _, opp := range opps {
		e.offer(ctx, opp)
	}
}

func (e *engine) streamLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case obs, ok := <-e.observations:
			if !ok {
				e.log.Warn(ctx, "observation stream closed")
				return nil
			}
			if opp := e.detector.EvaluateSwapOperation(ctx, obs); opp != nil {
				e.offer(ctx, *opp)
			}
		}
	}
}

// offer hands one opportunity to the executor. Refusals are expected
// steady-state noise (no funds, capacity full) and only logged.
func (e *engine) offer(ctx context.Context, opp arbDomain.Opportunity) {
	if !opp.HasFunds {
		e.log.Debug(ctx, "skipping opportunity without funds",
			"pair", opp.Pair(), "shortfall", opp.Shortfall.String())
		return
	}

	go func() {
		exec, err := e.executor.ExecuteTrade(ctx, opp)
		if err != nil {
			switch apperror.GetCode(err) {
			case apperror.CodeCapacityExceeded, apperror.CodeInsufficientFunds:
				e.log.Debug(ctx, "trade not admitted", "pair", opp.Pair(), "error", err)
			default:
				e.log.Error(ctx, "trade execution error", "pair", opp.Pair(), "error", err)
			}
			return
		}
		_ = exec
	}()
}
