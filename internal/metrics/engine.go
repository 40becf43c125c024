package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Engine holds the arbitrage engine's instruments. A nil *Engine is safe to
// use; every method no-ops, so tests and tools can skip metrics wiring.
type Engine struct {
	opportunities   metric.Int64Counter
	quoteFailures   metric.Int64Counter
	tradesStarted   metric.Int64Counter
	tradesCompleted metric.Int64Counter
	tradesFailed    metric.Int64Counter
	realizedProfit  metric.Float64Counter
	detectionTime   metric.Float64Histogram
}

// NewEngine creates the engine instruments on the global meter provider.
func NewEngine() (*Engine, error) {
	meter := otel.GetMeterProvider().Meter("gala_arbitrage_engine")

	var e Engine
	var err error

	if e.opportunities, err = meter.Int64Counter("arbitrage_opportunities_total",
		metric.WithDescription("Opportunities emitted by detection strategies")); err != nil {
		return nil, err
	}
	if e.quoteFailures, err = meter.Int64Counter("arbitrage_quote_failures_total",
		metric.WithDescription("Quote requests the venue could not price")); err != nil {
		return nil, err
	}
	if e.tradesStarted, err = meter.Int64Counter("arbitrage_trades_started_total",
		metric.WithDescription("Trade executions admitted past the capacity gate")); err != nil {
		return nil, err
	}
	if e.tradesCompleted, err = meter.Int64Counter("arbitrage_trades_completed_total",
		metric.WithDescription("Trade executions that finished both legs")); err != nil {
		return nil, err
	}
	if e.tradesFailed, err = meter.Int64Counter("arbitrage_trades_failed_total",
		metric.WithDescription("Trade executions terminated by a leg failure")); err != nil {
		return nil, err
	}
	if e.realizedProfit, err = meter.Float64Counter("arbitrage_realized_profit_total",
		metric.WithDescription("Cumulative realized profit in home token units")); err != nil {
		return nil, err
	}
	if e.detectionTime, err = meter.Float64Histogram("arbitrage_detection_seconds",
		metric.WithDescription("Duration of a full detection pass")); err != nil {
		return nil, err
	}

	return &e, nil
}

// OpportunityDetected counts an emitted opportunity by strategy.
func (e *Engine) OpportunityDetected(ctx context.Context, strategy string) {
	if e == nil {
		return
	}
	e.opportunities.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", strategy)))
}

// QuoteFailed counts a quote the venue refused to price.
func (e *Engine) QuoteFailed(ctx context.Context, pair string) {
	if e == nil {
		return
	}
	e.quoteFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("pair", pair)))
}

// TradeStarted counts an admitted execution.
func (e *Engine) TradeStarted(ctx context.Context) {
	if e == nil {
		return
	}
	e.tradesStarted.Add(ctx, 1)
}

// TradeCompleted counts a completed execution and its realized profit.
func (e *Engine) TradeCompleted(ctx context.Context, profit float64) {
	if e == nil {
		return
	}
	e.tradesCompleted.Add(ctx, 1)
	e.realizedProfit.Add(ctx, profit)
}

// TradeFailed counts a failed execution.
func (e *Engine) TradeFailed(ctx context.Context) {
	if e == nil {
		return
	}
	e.tradesFailed.Add(ctx, 1)
}

// DetectionPass records the duration of a detection pass in seconds.
func (e *Engine) DetectionPass(ctx context.Context, seconds float64) {
	if e == nil {
		return
	}
	e.detectionTime.Record(ctx, seconds)
}
