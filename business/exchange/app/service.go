package app

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/internal/apperror"
	"github.com/fd1az/gala-arbitrage/internal/logger"
)

// Config configures an ExchangeService. MockMode is fixed at construction
// time; interleaving mock and live swaps against one ledger would corrupt
// balance invariants, so the mode never changes over the service's lifetime.
type Config struct {
	MockMode         bool
	WalletAddress    string
	HoldingsPageSize int
	StaleAfter       time.Duration
	SeedBalances     map[domain.TokenClassKey]decimal.Decimal
}

// ExchangeService is the exchange-access abstraction: quoting, swap
// execution and balance snapshotting against the venue, with a
// behaviorally equivalent mock path that never contacts the venue for
// swaps or balances.
type ExchangeService struct {
	venue      VenueClient
	mock       *mockLedger
	mockMode   bool
	wallet     string
	pageSize   int
	staleAfter time.Duration
	log        logger.LoggerInterface

	snapMu   sync.RWMutex
	snapshot *domain.BalanceSnapshot
	sf       singleflight.Group

	tokenMu sync.RWMutex
	tokens  map[domain.TokenClassKey]domain.TokenRef
}

// NewExchangeService creates an ExchangeService in the mode fixed by cfg.
func NewExchangeService(venue VenueClient, cfg Config, log logger.LoggerInterface) *ExchangeService {
	s := &ExchangeService{
		venue:      venue,
		mockMode:   cfg.MockMode,
		wallet:     cfg.WalletAddress,
		pageSize:   cfg.HoldingsPageSize,
		staleAfter: cfg.StaleAfter,
		log:        log.With("component", "exchange"),
	}
	if s.pageSize <= 0 {
		s.pageSize = 100
	}
	if s.staleAfter <= 0 {
		s.staleAfter = 30 * time.Second
	}
	if cfg.MockMode {
		s.mock = newMockLedger(cfg.SeedBalances)
	}
	return s
}

// IsMockMode reports whether the service simulates swaps against the mock ledger.
func (s *ExchangeService) IsMockMode() bool {
	return s.mockMode
}

// AvailableTokens enumerates tradable tokens. In mock mode the set is
// derived from the seeded ledger without a venue round-trip.
func (s *ExchangeService) AvailableTokens(ctx context.Context) ([]domain.TokenRef, error) {
	if s.mockMode {
		keys := s.mock.tokens()
		tokens := make([]domain.TokenRef, 0, len(keys))
		for _, k := range keys {
			tokens = append(tokens, domain.TokenRef{Symbol: k.Collection, ClassKey: k})
		}
		s.cacheTokens(tokens)
		return tokens, nil
	}

	tokens, err := s.venue.AvailableTokens(ctx)
	if err != nil {
		return nil, apperror.External(apperror.CodeVenueAPIError, "list available tokens", err)
	}
	s.cacheTokens(tokens)
	return tokens, nil
}

func (s *ExchangeService) cacheTokens(tokens []domain.TokenRef) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	if s.tokens == nil {
		s.tokens = make(map[domain.TokenClassKey]domain.TokenRef, len(tokens))
	}
	for _, t := range tokens {
		s.tokens[t.ClassKey] = t
	}
}

// IsTokenAvailable tests class-key membership against the known token set,
// fetching the set on first use.
func (s *ExchangeService) IsTokenAvailable(ctx context.Context, key domain.TokenClassKey) bool {
	s.tokenMu.RLock()
	loaded := s.tokens != nil
	_, ok := s.tokens[key]
	s.tokenMu.RUnlock()
	if ok || loaded {
		return ok
	}

	if _, err := s.AvailableTokens(ctx); err != nil {
		s.log.Warn(ctx, "token availability check without token set", "error", err)
		return false
	}
	s.tokenMu.RLock()
	defer s.tokenMu.RUnlock()
	_, ok = s.tokens[key]
	return ok
}

// Quote asks the venue to price a swap. Quote failures mean "no opportunity
// from this leg", never a fatal condition; callers skip the pair or route.
func (s *ExchangeService) Quote(ctx context.Context, tokenIn, tokenOut domain.TokenRef, amount decimal.Decimal) (domain.SwapQuote, error) {
	if !amount.IsPositive() {
		return domain.SwapQuote{}, apperror.Validation(apperror.CodeInvalidTradeSize, "quote amount must be positive")
	}

	quote, err := s.venue.RequestQuote(ctx, tokenIn, tokenOut, amount)
	if err != nil {
		return domain.SwapQuote{}, apperror.External(
			apperror.CodeQuoteUnavailable,
			tokenIn.Symbol+"->"+tokenOut.Symbol,
			err,
		)
	}
	return quote, nil
}

// CheckTradingFunds verifies amount is covered by the current balance of the
// given token class, refreshing the snapshot when stale.
func (s *ExchangeService) CheckTradingFunds(ctx context.Context, key domain.TokenClassKey, amount decimal.Decimal) (domain.FundsCheck, error) {
	snap, err := s.BalanceSnapshot(ctx, false)
	if err != nil {
		return domain.FundsCheck{}, err
	}
	return snap.CheckFunds(key, amount), nil
}

// ExecuteSwap submits a swap. The live path goes to the venue; the mock path
// debits/credits the in-memory ledger and returns a synthetic result whose
// output equals the quote's output. Both paths present the same contract to
// callers; only the transaction hash shape differs.
func (s *ExchangeService) ExecuteSwap(ctx context.Context, tokenIn, tokenOut domain.TokenRef, amount, slippage decimal.Decimal, quote domain.SwapQuote) (domain.SwapResult, error) {
	if !amount.IsPositive() {
		return domain.SwapResult{}, apperror.Validation(apperror.CodeInvalidTradeSize, "swap amount must be positive")
	}

	if s.mockMode {
		return s.executeMockSwap(ctx, tokenIn, tokenOut, amount, quote)
	}

	result, err := s.venue.SubmitSwap(ctx, tokenIn, tokenOut, amount, slippage, quote)
	if err != nil {
		return domain.SwapResult{}, apperror.External(
			apperror.CodeSwapExecutionFailed,
			tokenIn.Symbol+"->"+tokenOut.Symbol,
			err,
		)
	}
	s.invalidateSnapshot()
	return result, nil
}

func (s *ExchangeService) executeMockSwap(ctx context.Context, tokenIn, tokenOut domain.TokenRef, amount decimal.Decimal, quote domain.SwapQuote) (domain.SwapResult, error) {
	if err := s.mock.apply(tokenIn.ClassKey, tokenOut.ClassKey, amount, quote.OutputAmount); err != nil {
		return domain.SwapResult{}, apperror.External(
			apperror.CodeSwapExecutionFailed,
			tokenIn.Symbol+"->"+tokenOut.Symbol,
			err,
		)
	}

	result := domain.SwapResult{
		TransactionHash: domain.MockTransactionPrefix + uuid.New().String(),
		InputAmount:     amount,
		OutputAmount:    quote.OutputAmount,
		ActualPrice:     quote.EffectivePrice(),
		GasUsed:         decimal.Zero,
		Timestamp:       time.Now(),
	}
	s.log.Debug(ctx, "mock swap executed",
		"in", tokenIn.Symbol, "out", tokenOut.Symbol,
		"amount", amount.String(), "output", quote.OutputAmount.String(),
	)
	return result, nil
}

// BalanceSnapshot returns the current balance snapshot. Mock mode derives it
// from the ledger on every call. Live mode serves the cached snapshot until
// it goes stale or forceRefresh is set; concurrent refreshes for the same
// wallet are coalesced into one venue query.
func (s *ExchangeService) BalanceSnapshot(ctx context.Context, forceRefresh bool) (domain.BalanceSnapshot, error) {
	if s.mockMode {
		return s.mock.snapshot(time.Now()), nil
	}

	if !forceRefresh {
		s.snapMu.RLock()
		cached := s.snapshot
		s.snapMu.RUnlock()
		if cached != nil && cached.Age(time.Now()) < s.staleAfter {
			return *cached, nil
		}
	}

	v, err, _ := s.sf.Do(s.wallet, func() (interface{}, error) {
		return s.refreshSnapshot(ctx)
	})
	if err != nil {
		return domain.BalanceSnapshot{}, err
	}
	return v.(domain.BalanceSnapshot), nil
}

func (s *ExchangeService) refreshSnapshot(ctx context.Context) (domain.BalanceSnapshot, error) {
	balances := make(map[domain.TokenClassKey]decimal.Decimal)

	for page := 1; ; page++ {
		holdings, err := s.venue.FetchHoldings(ctx, s.wallet, page, s.pageSize)
		if err != nil {
			return domain.BalanceSnapshot{}, apperror.External(apperror.CodeBalanceFetchFailed, s.wallet, err)
		}
		for _, h := range holdings {
			symbol := strings.ToUpper(strings.TrimSpace(h.Symbol))
			if symbol == "" {
				continue
			}
			qty, perr := decimal.NewFromString(strings.TrimSpace(h.Quantity))
			if perr != nil {
				// Venue rows with unparseable quantities (including
				// NaN/Inf text) are discarded, not zeroed.
				s.log.Warn(ctx, "discarding holding with invalid quantity",
					"symbol", symbol, "quantity", h.Quantity)
				continue
			}
			key := domain.TokenBySymbol(symbol).ClassKey
			balances[key] = balances[key].Add(qty)
		}
		if len(holdings) < s.pageSize {
			break
		}
	}

	snap := domain.NewBalanceSnapshot(balances, time.Now())
	s.snapMu.Lock()
	s.snapshot = &snap
	s.snapMu.Unlock()

	s.log.Debug(ctx, "balance snapshot refreshed", "tokens", strconv.Itoa(snap.Len()))
	return snap, nil
}

// invalidateSnapshot drops the cached snapshot after a live swap mutates
// venue-side balances.
func (s *ExchangeService) invalidateSnapshot() {
	s.snapMu.Lock()
	s.snapshot = nil
	s.snapMu.Unlock()
}
