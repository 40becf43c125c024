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

// DirectStrategy detects round-trip opportunities on a single pair:
// buy B with A, immediately sell the bought B back for A, and keep the
// difference when the venue quotes both legs favourably.
type DirectStrategy struct {
	homeToken      string
	maxTradeAmount decimal.Decimal
	calc           ProfitCalculator
}

func NewDirectStrategy(homeToken string, minProfitPct, maxTradeAmount decimal.Decimal) *DirectStrategy {
	return &DirectStrategy{
		homeToken:      strings.ToUpper(homeToken),
		maxTradeAmount: maxTradeAmount,
		calc:           NewProfitCalculator(minProfitPct),
	}
}

func (s *DirectStrategy) Name() string { return "direct" }

func (s *DirectStrategy) DetectPairs(ctx context.Context, pairs []exchangeDomain.TradingPair, xs ExchangeAccess) ([]domain.Opportunity, error) {
	var found []domain.Opportunity
	for _, pair := range pairs {
		if ctx.Err() != nil {
			return found, ctx.Err()
		}
		opp, err := s.evaluate(ctx, pair, xs)
		if err != nil {
			// One pair failing to quote must not mask the rest.
			continue
		}
		if opp != nil {
			found = append(found, *opp)
		}
	}
	return found, nil
}

func (s *DirectStrategy) DetectSwap(ctx context.Context, obs exchangeDomain.SwapObservation, xs ExchangeAccess) ([]domain.Opportunity, error) {
	pair := obs.Pair()
	if !pair.Involves(s.homeToken) {
		return nil, nil
	}
	opp, err := s.evaluate(ctx, pair, xs)
	if err != nil || opp == nil {
		return nil, err
	}
	return []domain.Opportunity{*opp}, nil
}

// evaluate prices the round trip home -> other -> home and returns an
// opportunity when the realized percentage clears the threshold. A nil
// opportunity with nil error means the pair is simply not profitable.
func (s *DirectStrategy) evaluate(ctx context.Context, pair exchangeDomain.TradingPair, xs ExchangeAccess) (*domain.Opportunity, error) {
	home, other, ok := orientPair(pair, s.homeToken)
	if !ok {
		return nil, nil
	}

	amount, check, err := sizeTrade(ctx, xs, home.ClassKey, s.maxTradeAmount)
	if err != nil {
		return nil, err
	}

	forward, err := xs.Quote(ctx, home, other, amount)
	if err != nil {
		return nil, err
	}
	back, err := xs.Quote(ctx, other, home, forward.OutputAmount)
	if err != nil {
		return nil, err
	}

	profitPct := s.calc.RoundTripPct(amount, back.OutputAmount)
	if !s.calc.Qualifies(profitPct) {
		return nil, nil
	}

	return &domain.Opportunity{
		ID:             uuid.NewString(),
		Strategy:       s.Name(),
		TokenA:         home,
		TokenB:         other,
		QuoteAToB:      forward,
		QuoteBToA:      back,
		MaxTradeAmount: amount,
		ProfitPct:      profitPct,
		HasFunds:       check.HasFunds,
		CurrentBalance: check.CurrentBalance,
		Shortfall:      check.Shortfall,
		Route:          []exchangeDomain.TokenRef{home, other, home},
		DetectedAt:     time.Now().UTC(),
	}, nil
}

// orientPair returns the pair with the home token first. ok is false when
// the pair does not involve the home token at all.
func orientPair(pair exchangeDomain.TradingPair, home string) (exchangeDomain.TokenRef, exchangeDomain.TokenRef, bool) {
	switch {
	case strings.EqualFold(pair.TokenA.Symbol, home):
		return pair.TokenA, pair.TokenB, true
	case strings.EqualFold(pair.TokenB.Symbol, home):
		return pair.TokenB, pair.TokenA, true
	default:
		return exchangeDomain.TokenRef{}, exchangeDomain.TokenRef{}, false
	}
}

// sizeTrade picks the trade size for an entry token: the configured ceiling
// when the balance covers it, the full balance when it covers less, and the
// ceiling with HasFunds=false when there is no balance at all so the
// opportunity still surfaces with its shortfall.
func sizeTrade(ctx context.Context, xs ExchangeAccess, key exchangeDomain.TokenClassKey, ceiling decimal.Decimal) (decimal.Decimal, exchangeDomain.FundsCheck, error) {
	check, err := xs.CheckTradingFunds(ctx, key, ceiling)
	if err != nil {
		return decimal.Zero, exchangeDomain.FundsCheck{}, err
	}
	amount := ceiling
	if !check.HasFunds && check.CurrentBalance.IsPositive() {
		amount = check.CurrentBalance
		check = exchangeDomain.FundsCheck{
			HasFunds:       true,
			CurrentBalance: check.CurrentBalance,
			Shortfall:      decimal.Zero,
		}
	}
	return amount, check, nil
}
