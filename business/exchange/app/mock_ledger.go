package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/gala-arbitrage/business/exchange/domain"
)

// mockLedger is the in-memory balance book backing mock mode. A swap debits
// the input amount and credits the quoted output amount atomically; the two
// sides are never observable half-applied.
type mockLedger struct {
	mu       sync.Mutex
	balances map[domain.TokenClassKey]decimal.Decimal
}

func newMockLedger(seed map[domain.TokenClassKey]decimal.Decimal) *mockLedger {
	balances := make(map[domain.TokenClassKey]decimal.Decimal, len(seed))
	for k, v := range seed {
		balances[k] = v
	}
	return &mockLedger{balances: balances}
}

// apply debits amountIn of tokenIn and credits amountOut of tokenOut.
// Fails without touching the ledger when tokenIn's balance cannot cover the
// debit, mirroring a live venue rejection.
func (l *mockLedger) apply(tokenIn, tokenOut domain.TokenClassKey, amountIn, amountOut decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	have := l.balances[tokenIn]
	if have.LessThan(amountIn) {
		return fmt.Errorf("mock ledger: %s balance %s cannot cover %s", tokenIn, have, amountIn)
	}
	l.balances[tokenIn] = have.Sub(amountIn)
	l.balances[tokenOut] = l.balances[tokenOut].Add(amountOut)
	return nil
}

// snapshot returns an immutable view of the current ledger state.
func (l *mockLedger) snapshot(now time.Time) domain.BalanceSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.NewBalanceSnapshot(l.balances, now)
}

// tokens lists the token classes seeded into the ledger.
func (l *mockLedger) tokens() []domain.TokenClassKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]domain.TokenClassKey, 0, len(l.balances))
	for k := range l.balances {
		keys = append(keys, k)
	}
	return keys
}
