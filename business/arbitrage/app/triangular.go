package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/gala-arbitrage/business/arbitrage/domain"
	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
)

// TriangularStrategy detects three-hop cycles anchored at the home token:
// home -> X -> B -> home. The middle and exit hops are folded into a single
// routed exit quote so the downstream executor still sees two legs.
//
// Only routes whose every hop touches the home token set (the home token
// plus the configured bridge tokens) are considered.
type TriangularStrategy struct {
	homeToken      string
	homeSet        map[string]struct{}
	pairs          []exchangeDomain.TradingPair
	maxTradeAmount decimal.Decimal
	calc           ProfitCalculator
}

// NewTriangularStrategy takes the full configured pair universe up front;
// the per-scan pairs argument only selects which anchors to explore.
func NewTriangularStrategy(homeToken string, bridgeTokens []string, pairs []exchangeDomain.TradingPair, minProfitPct, maxTradeAmount decimal.Decimal) *TriangularStrategy {
	set := map[string]struct{}{strings.ToUpper(homeToken): {}}
	for _, b := range bridgeTokens {
		set[strings.ToUpper(b)] = struct{}{}
	}
	return &TriangularStrategy{
		homeToken:      strings.ToUpper(homeToken),
		homeSet:        set,
		pairs:          pairs,
		maxTradeAmount: maxTradeAmount,
		calc:           NewProfitCalculator(minProfitPct),
	}
}

func (s *TriangularStrategy) Name() string { return "triangular" }

func (s *TriangularStrategy) DetectPairs(ctx context.Context, pairs []exchangeDomain.TradingPair, xs ExchangeAccess) ([]domain.Opportunity, error) {
	var found []domain.Opportunity
	seen := make(map[string]struct{})
	for _, pair := range pairs {
		if ctx.Err() != nil {
			return found, ctx.Err()
		}
		home, exit, ok := orientPair(pair, s.homeToken)
		if !ok {
			continue
		}
		for _, mid := range s.midpoints(exit.Symbol) {
			routeKey := home.Symbol + ">" + mid.Symbol + ">" + exit.Symbol
			if _, dup := seen[routeKey]; dup {
				continue
			}
			seen[routeKey] = struct{}{}

			opp, err := s.evaluateRoute(ctx, home, mid, exit, xs)
			if err != nil {
				continue
			}
			if opp != nil {
				found = append(found, *opp)
			}
		}
	}
	return found, nil
}

func (s *TriangularStrategy) DetectSwap(ctx context.Context, obs exchangeDomain.SwapObservation, xs ExchangeAccess) ([]domain.Opportunity, error) {
	pair := obs.Pair()
	if !pair.Involves(s.homeToken) {
		return nil, nil
	}
	// An observed swap only tells us a pool moved; re-scan the cycles that
	// cross it.
	return s.DetectPairs(ctx, []exchangeDomain.TradingPair{pair}, xs)
}

// midpoints lists tokens X such that both (home, X) and (X, exit) are
// configured pairs and X stays inside the home token set.
func (s *TriangularStrategy) midpoints(exitSymbol string) []exchangeDomain.TokenRef {
	var mids []exchangeDomain.TokenRef
	for _, p := range s.pairs {
		_, cand, ok := orientPair(p, s.homeToken)
		if !ok {
			continue
		}
		if strings.EqualFold(cand.Symbol, exitSymbol) {
			continue
		}
		if _, inSet := s.homeSet[strings.ToUpper(cand.Symbol)]; !inSet {
			continue
		}
		if s.havePair(cand.Symbol, exitSymbol) {
			mids = append(mids, cand)
		}
	}
	return mids
}

func (s *TriangularStrategy) havePair(a, b string) bool {
	for _, p := range s.pairs {
		if p.Involves(a) && p.Involves(b) {
			return true
		}
	}
	return false
}

func (s *TriangularStrategy) evaluateRoute(ctx context.Context, home, mid, exit exchangeDomain.TokenRef, xs ExchangeAccess) (*domain.Opportunity, error) {
	amount, check, err := sizeTrade(ctx, xs, home.ClassKey, s.maxTradeAmount)
	if err != nil {
		return nil, err
	}

	entry, err := xs.Quote(ctx, home, mid, amount)
	if err != nil {
		return nil, err
	}
	hop, err := xs.Quote(ctx, mid, exit, entry.OutputAmount)
	if err != nil {
		return nil, err
	}
	back, err := xs.Quote(ctx, exit, home, hop.OutputAmount)
	if err != nil {
		return nil, err
	}

	profitPct := s.calc.RoundTripPct(amount, back.OutputAmount)
	if !s.calc.Qualifies(profitPct) {
		return nil, nil
	}

	// The mid and exit hops collapse into one routed quote so execution
	// stays a two-leg round trip.
	exitQuote := exchangeDomain.SwapQuote{
		InputToken:   mid,
		OutputToken:  home,
		InputAmount:  entry.OutputAmount,
		OutputAmount: back.OutputAmount,
		PriceImpact:  hop.PriceImpact.Add(back.PriceImpact),
		FeeTier:      back.FeeTier,
		Route:        []exchangeDomain.TokenRef{mid, exit, home},
	}

	return &domain.Opportunity{
		ID:             uuid.NewString(),
		Strategy:       s.Name(),
		TokenA:         home,
		TokenB:         mid,
		QuoteAToB:      entry,
		QuoteBToA:      exitQuote,
		MaxTradeAmount: amount,
		ProfitPct:      profitPct,
		HasFunds:       check.HasFunds,
		CurrentBalance: check.CurrentBalance,
		Shortfall:      check.Shortfall,
		Route:          []exchangeDomain.TokenRef{home, mid, exit, home},
		DetectedAt:     time.Now().UTC(),
	}, nil
}
