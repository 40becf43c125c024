package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is an immutable point-in-time view of held token
// quantities, keyed by token class key. Refreshes replace the whole
// snapshot; readers never observe a partially updated map.
type BalanceSnapshot struct {
	balances  map[TokenClassKey]decimal.Decimal
	FetchedAt time.Time
}

// NewBalanceSnapshot copies the given balances into a fresh snapshot.
func NewBalanceSnapshot(balances map[TokenClassKey]decimal.Decimal, fetchedAt time.Time) BalanceSnapshot {
	m := make(map[TokenClassKey]decimal.Decimal, len(balances))
	for k, v := range balances {
		m[k] = v
	}
	return BalanceSnapshot{balances: m, FetchedAt: fetchedAt}
}

// Balance returns the held quantity for the key, zero when absent.
func (s BalanceSnapshot) Balance(key TokenClassKey) decimal.Decimal {
	if s.balances == nil {
		return decimal.Zero
	}
	return s.balances[key]
}

// Len returns the number of tracked token classes.
func (s BalanceSnapshot) Len() int {
	return len(s.balances)
}

// Age returns how long ago the snapshot was fetched.
func (s BalanceSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// FundsCheck is the result of verifying whether a trade amount is covered by
// the current balance of its input token.
type FundsCheck struct {
	HasFunds       bool
	CurrentBalance decimal.Decimal
	Shortfall      decimal.Decimal // max(0, amount - balance)
}

// CheckFunds derives a FundsCheck for amount against the snapshot.
func (s BalanceSnapshot) CheckFunds(key TokenClassKey, amount decimal.Decimal) FundsCheck {
	balance := s.Balance(key)
	shortfall := amount.Sub(balance)
	if shortfall.IsNegative() {
		shortfall = decimal.Zero
	}
	return FundsCheck{
		HasFunds:       balance.GreaterThanOrEqual(amount),
		CurrentBalance: balance,
		Shortfall:      shortfall,
	}
}
