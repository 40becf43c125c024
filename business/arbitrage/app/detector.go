package app

import (
	"context"
	"strings"
	"time"

	"github.com/fd1az/gala-arbitrage/business/arbitrage/domain"
	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/internal/apm"
	"github.com/fd1az/gala-arbitrage/internal/logger"
	"github.com/fd1az/gala-arbitrage/internal/metrics"
)

// Detector fans detection out over the registered strategies and merges
// their results. Strategies are independent: one failing is logged and the
// pass continues with the rest.
type Detector struct {
	xs         ExchangeAccess
	strategies []Strategy
	homeToken  string
	metrics    *metrics.Engine
	tracer     apm.Tracer
	log        logger.LoggerInterface
}

func NewDetector(xs ExchangeAccess, homeToken string, strategies []Strategy, eng *metrics.Engine, tracer apm.Tracer, log logger.LoggerInterface) *Detector {
	return &Detector{
		xs:         xs,
		strategies: strategies,
		homeToken:  strings.ToUpper(homeToken),
		metrics:    eng,
		tracer:     tracer,
		log:        log,
	}
}

// Strategies returns the names of the registered strategies.
func (d *Detector) Strategies() []string {
	names := make([]string, 0, len(d.strategies))
	for _, s := range d.strategies {
		names = append(names, s.Name())
	}
	return names
}

// DetectAllOpportunities runs one batch pass over the configured pairs.
// Pairs not involving the home token are skipped before any strategy runs,
// and duplicate pairs are evaluated once.
func (d *Detector) DetectAllOpportunities(ctx context.Context, pairs []exchangeDomain.TradingPair) []domain.Opportunity {
	ctx, span := d.tracer.StartSpanFromContext(ctx, "detector.scan")
	defer span.End()
	start := time.Now()

	qualifying := d.filterPairs(pairs)
	if len(qualifying) == 0 {
		return nil
	}

	var all []domain.Opportunity
	for _, strat := range d.strategies {
		opps, err := strat.DetectPairs(ctx, qualifying, d.xs)
		if err != nil {
			d.log.Warn(ctx, "strategy pass failed", "strategy", strat.Name(), "error", err)
			continue
		}
		for _, opp := range opps {
			d.metrics.OpportunityDetected(ctx, opp.Strategy)
			d.log.Info(ctx, "opportunity detected",
				"strategy", opp.Strategy,
				"pair", opp.Pair(),
				"profit_pct", opp.ProfitPct.StringFixed(4),
				"has_funds", opp.HasFunds,
			)
		}
		all = append(all, opps...)
	}

	d.metrics.DetectionPass(ctx, time.Since(start).Seconds())
	return all
}

// DetectOpportunitiesForSwap reacts to a single observed swap.
func (d *Detector) DetectOpportunitiesForSwap(ctx context.Context, obs exchangeDomain.SwapObservation) []domain.Opportunity {
	ctx, span := d.tracer.StartSpanFromContext(ctx, "detector.swap")
	defer span.End()

	if !obs.Pair().Involves(d.homeToken) {
		return nil
	}

	var all []domain.Opportunity
	for _, strat := range d.strategies {
		opps, err := strat.DetectSwap(ctx, obs, d.xs)
		if err != nil {
			d.log.Warn(ctx, "swap evaluation failed", "strategy", strat.Name(), "tx", obs.TransactionID, "error", err)
			continue
		}
		for _, opp := range opps {
			d.metrics.OpportunityDetected(ctx, opp.Strategy)
		}
		all = append(all, opps...)
	}
	return all
}

// EvaluateSwapOperation is the single-result convenience over
// DetectOpportunitiesForSwap: the most profitable hit, or nil.
func (d *Detector) EvaluateSwapOperation(ctx context.Context, obs exchangeDomain.SwapObservation) *domain.Opportunity {
	opps := d.DetectOpportunitiesForSwap(ctx, obs)
	if len(opps) == 0 {
		return nil
	}
	best := opps[0]
	for _, opp := range opps[1:] {
		if opp.ProfitPct.GreaterThan(best.ProfitPct) {
			best = opp
		}
	}
	return &best
}

func (d *Detector) filterPairs(pairs []exchangeDomain.TradingPair) []exchangeDomain.TradingPair {
	seen := make(map[string]struct{}, len(pairs))
	out := make([]exchangeDomain.TradingPair, 0, len(pairs))
	for _, pair := range pairs {
		if !pair.Involves(d.homeToken) {
			continue
		}
		key := pair.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, pair)
	}
	return out
}
