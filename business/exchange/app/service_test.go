package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/internal/apperror"
	"github.com/fd1az/gala-arbitrage/internal/logger"
)

// fakeVenue scripts venue responses per test.
type fakeVenue struct {
	tokens       []domain.TokenRef
	quote        func(tokenIn, tokenOut domain.TokenRef, amount decimal.Decimal) (domain.SwapQuote, error)
	swapErr      error
	swapCalls    int
	holdings     [][]Holding
	holdingCalls int
}

func (f *fakeVenue) AvailableTokens(ctx context.Context) ([]domain.TokenRef, error) {
	return f.tokens, nil
}

func (f *fakeVenue) RequestQuote(ctx context.Context, tokenIn, tokenOut domain.TokenRef, amount decimal.Decimal) (domain.SwapQuote, error) {
	if f.quote == nil {
		return domain.SwapQuote{}, errors.New("no quote scripted")
	}
	return f.quote(tokenIn, tokenOut, amount)
}

func (f *fakeVenue) SubmitSwap(ctx context.Context, tokenIn, tokenOut domain.TokenRef, amount, slippage decimal.Decimal, quote domain.SwapQuote) (domain.SwapResult, error) {
	f.swapCalls++
	if f.swapErr != nil {
		return domain.SwapResult{}, f.swapErr
	}
	return domain.SwapResult{
		TransactionHash: "0xlive",
		InputAmount:     amount,
		OutputAmount:    quote.OutputAmount,
		Timestamp:       time.Now(),
	}, nil
}

func (f *fakeVenue) FetchHoldings(ctx context.Context, wallet string, page, pageSize int) ([]Holding, error) {
	f.holdingCalls++
	if page <= len(f.holdings) {
		return f.holdings[page-1], nil
	}
	return nil, nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test")
}

func fixedQuote(out decimal.Decimal) func(domain.TokenRef, domain.TokenRef, decimal.Decimal) (domain.SwapQuote, error) {
	return func(tokenIn, tokenOut domain.TokenRef, amount decimal.Decimal) (domain.SwapQuote, error) {
		return domain.SwapQuote{
			InputToken:   tokenIn,
			OutputToken:  tokenOut,
			InputAmount:  amount,
			OutputAmount: out,
		}, nil
	}
}

func newMockService(t *testing.T, seed map[domain.TokenClassKey]decimal.Decimal) (*ExchangeService, *fakeVenue) {
	t.Helper()
	venue := &fakeVenue{}
	svc := NewExchangeService(venue, Config{
		MockMode:     true,
		SeedBalances: seed,
	}, testLogger())
	return svc, venue
}

func TestMockSwapDebitsAndCredits(t *testing.T) {
	svc, venue := newMockService(t, map[domain.TokenClassKey]decimal.Decimal{
		domain.GALA.ClassKey: decimal.NewFromInt(1000),
	})
	ctx := context.Background()

	quote := domain.SwapQuote{
		InputToken:   domain.GALA,
		OutputToken:  domain.GUSDC,
		InputAmount:  decimal.NewFromInt(100),
		OutputAmount: decimal.NewFromInt(4),
	}

	result, err := svc.ExecuteSwap(ctx, domain.GALA, domain.GUSDC, decimal.NewFromInt(100), decimal.Zero, quote)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.TransactionHash, domain.MockTransactionPrefix),
		"mock tx hash %q should carry the mock prefix", result.TransactionHash)
	assert.True(t, result.OutputAmount.Equal(quote.OutputAmount))
	assert.Zero(t, venue.swapCalls, "mock swap must never reach the venue")

	snap, err := svc.BalanceSnapshot(ctx, false)
	require.NoError(t, err)
	assert.True(t, snap.Balance(domain.GALA.ClassKey).Equal(decimal.NewFromInt(900)))
	assert.True(t, snap.Balance(domain.GUSDC.ClassKey).Equal(decimal.NewFromInt(4)))
}

func TestMockSwapInsufficientBalanceLeavesLedgerUntouched(t *testing.T) {
	svc, _ := newMockService(t, map[domain.TokenClassKey]decimal.Decimal{
		domain.GALA.ClassKey: decimal.NewFromInt(50),
	})
	ctx := context.Background()

	quote := domain.SwapQuote{
		InputToken:   domain.GALA,
		OutputToken:  domain.GUSDC,
		InputAmount:  decimal.NewFromInt(100),
		OutputAmount: decimal.NewFromInt(4),
	}

	_, err := svc.ExecuteSwap(ctx, domain.GALA, domain.GUSDC, decimal.NewFromInt(100), decimal.Zero, quote)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSwapExecutionFailed, apperror.GetCode(err))

	snap, err := svc.BalanceSnapshot(ctx, false)
	require.NoError(t, err)
	assert.True(t, snap.Balance(domain.GALA.ClassKey).Equal(decimal.NewFromInt(50)),
		"failed swap must not debit")
	assert.True(t, snap.Balance(domain.GUSDC.ClassKey).IsZero(),
		"failed swap must not credit")
}

func TestMockRoundTripConservation(t *testing.T) {
	start := decimal.NewFromInt(1000)
	svc, _ := newMockService(t, map[domain.TokenClassKey]decimal.Decimal{
		domain.GALA.ClassKey: start,
	})
	ctx := context.Background()

	amount := decimal.NewFromInt(100)
	buyQuote := domain.SwapQuote{
		InputToken: domain.GALA, OutputToken: domain.GUSDC,
		InputAmount: amount, OutputAmount: decimal.NewFromInt(4),
	}
	buy, err := svc.ExecuteSwap(ctx, domain.GALA, domain.GUSDC, amount, decimal.Zero, buyQuote)
	require.NoError(t, err)

	sellQuote := domain.SwapQuote{
		InputToken: domain.GUSDC, OutputToken: domain.GALA,
		InputAmount: buy.OutputAmount, OutputAmount: decimal.NewFromInt(110),
	}
	sell, err := svc.ExecuteSwap(ctx, domain.GUSDC, domain.GALA, buy.OutputAmount, decimal.Zero, sellQuote)
	require.NoError(t, err)

	snap, err := svc.BalanceSnapshot(ctx, false)
	require.NoError(t, err)

	wantGala := start.Sub(amount).Add(sell.OutputAmount)
	assert.True(t, snap.Balance(domain.GALA.ClassKey).Equal(wantGala),
		"GALA balance %s, want %s", snap.Balance(domain.GALA.ClassKey), wantGala)
	assert.True(t, snap.Balance(domain.GUSDC.ClassKey).IsZero(),
		"intermediate token should be fully spent")
}

func TestMockModeTokensDerivedFromLedger(t *testing.T) {
	svc, _ := newMockService(t, map[domain.TokenClassKey]decimal.Decimal{
		domain.GALA.ClassKey:  decimal.NewFromInt(1),
		domain.GUSDC.ClassKey: decimal.NewFromInt(1),
	})

	tokens, err := svc.AvailableTokens(context.Background())
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
	assert.True(t, svc.IsMockMode())
}

func TestQuoteFailureWrapsAsQuoteUnavailable(t *testing.T) {
	venue := &fakeVenue{
		quote: func(domain.TokenRef, domain.TokenRef, decimal.Decimal) (domain.SwapQuote, error) {
			return domain.SwapQuote{}, errors.New("pool drained")
		},
	}
	svc := NewExchangeService(venue, Config{}, testLogger())

	_, err := svc.Quote(context.Background(), domain.GALA, domain.GUSDC, decimal.NewFromInt(10))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeQuoteUnavailable, apperror.GetCode(err))
}

func TestQuoteRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newMockService(t, nil)
	_, err := svc.Quote(context.Background(), domain.GALA, domain.GUSDC, decimal.Zero)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidTradeSize, apperror.GetCode(err))
}

func TestLiveBalanceSnapshotCachesUntilStale(t *testing.T) {
	venue := &fakeVenue{
		holdings: [][]Holding{{
			{Symbol: "GALA", Quantity: "250.5"},
			{Symbol: "gusdc", Quantity: "10"},
			{Symbol: "GWETH", Quantity: "not-a-number"},
		}},
	}
	svc := NewExchangeService(venue, Config{
		WalletAddress: "client|abc",
		StaleAfter:    time.Hour,
	}, testLogger())
	ctx := context.Background()

	snap, err := svc.BalanceSnapshot(ctx, false)
	require.NoError(t, err)
	assert.True(t, snap.Balance(domain.GALA.ClassKey).Equal(decimal.RequireFromString("250.5")))
	assert.True(t, snap.Balance(domain.GUSDC.ClassKey).Equal(decimal.NewFromInt(10)),
		"symbols are normalized to upper case")
	assert.True(t, snap.Balance(domain.GWETH.ClassKey).IsZero(),
		"unparseable quantities are discarded")
	require.Equal(t, 1, venue.holdingCalls)

	// Second read inside the staleness window serves the cache.
	_, err = svc.BalanceSnapshot(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, venue.holdingCalls)

	// Force refresh bypasses it.
	_, err = svc.BalanceSnapshot(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, venue.holdingCalls)
}

func TestLiveSwapInvalidatesSnapshot(t *testing.T) {
	venue := &fakeVenue{
		holdings: [][]Holding{{{Symbol: "GALA", Quantity: "100"}}},
	}
	svc := NewExchangeService(venue, Config{
		WalletAddress: "client|abc",
		StaleAfter:    time.Hour,
	}, testLogger())
	ctx := context.Background()

	_, err := svc.BalanceSnapshot(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, venue.holdingCalls)

	quote := domain.SwapQuote{OutputAmount: decimal.NewFromInt(1)}
	_, err = svc.ExecuteSwap(ctx, domain.GALA, domain.GUSDC, decimal.NewFromInt(10), decimal.Zero, quote)
	require.NoError(t, err)

	_, err = svc.BalanceSnapshot(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, venue.holdingCalls, "swap must invalidate the cached snapshot")
}
