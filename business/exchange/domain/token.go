// Package domain contains the core domain types for the exchange context.
package domain

import (
	"fmt"
	"strings"
)

// TokenClassKey is the composite identifier of an asset class on GalaChain,
// made of four parts joined by "|", e.g. "GALA|Unit|none|none".
type TokenClassKey struct {
	Collection    string
	Category      string
	Type          string
	AdditionalKey string
}

// NewTokenClassKey composes a TokenClassKey from its four parts.
func NewTokenClassKey(collection, category, typ, additionalKey string) TokenClassKey {
	return TokenClassKey{
		Collection:    collection,
		Category:      category,
		Type:          typ,
		AdditionalKey: additionalKey,
	}
}

// ParseTokenClassKey parses a "collection|category|type|additionalKey" string.
func ParseTokenClassKey(s string) (TokenClassKey, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 4 {
		return TokenClassKey{}, fmt.Errorf("token class key %q: expected 4 parts, got %d", s, len(parts))
	}
	return NewTokenClassKey(parts[0], parts[1], parts[2], parts[3]), nil
}

// String returns the pipe-joined wire form of the key.
func (k TokenClassKey) String() string {
	return strings.Join([]string{k.Collection, k.Category, k.Type, k.AdditionalKey}, "|")
}

// IsZero reports whether the key is empty.
func (k TokenClassKey) IsZero() bool {
	return k == TokenClassKey{}
}

// TokenRef identifies a tradable token by symbol and class key.
// Compared by value.
type TokenRef struct {
	Symbol   string
	ClassKey TokenClassKey
}

// String returns the token symbol.
func (t TokenRef) String() string {
	return t.Symbol
}

// TradingPair is a pair of tokens quotable against each other on the venue.
// Conceptually undirected; quotes are requested in both directions.
type TradingPair struct {
	TokenA TokenRef
	TokenB TokenRef
}

// Involves reports whether either leg of the pair carries the given symbol.
// Symbols compare case-insensitively, matching config input.
func (p TradingPair) Involves(symbol string) bool {
	return strings.EqualFold(p.TokenA.Symbol, symbol) || strings.EqualFold(p.TokenB.Symbol, symbol)
}

// String returns e.g. "GALA/GUSDC".
func (p TradingPair) String() string {
	return p.TokenA.Symbol + "/" + p.TokenB.Symbol
}
