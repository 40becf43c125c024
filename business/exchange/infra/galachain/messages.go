// Package galachain implements the VenueClient interface against the
// GalaChain DEX backend.
package galachain

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/fd1az/gala-arbitrage/business/exchange/domain"
)

// envelope is the common response wrapper of the DEX backend.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Error   bool            `json:"error,omitempty"`
	Data    json.RawMessage `json:"data"`
}

// tokenRow is one entry of the token list endpoint.
type tokenRow struct {
	Symbol        string `json:"symbol"`
	Collection    string `json:"collection"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	AdditionalKey string `json:"additionalKey"`
}

func (t tokenRow) toDomain() domain.TokenRef {
	return domain.TokenRef{
		Symbol:   t.Symbol,
		ClassKey: domain.NewTokenClassKey(t.Collection, t.Category, t.Type, t.AdditionalKey),
	}
}

// quoteRequest is the payload of the quote endpoint.
type quoteRequest struct {
	TokenIn  string `json:"tokenIn"`  // token class key wire form
	TokenOut string `json:"tokenOut"` // token class key wire form
	AmountIn string `json:"amountIn"`
}

// quoteResponse is the data section of a quote reply.
type quoteResponse struct {
	AmountIn    string   `json:"amountIn"`
	AmountOut   string   `json:"amountOut"`
	PriceImpact string   `json:"priceImpact"`
	FeeTier     int      `json:"feeTier"`
	Route       []string `json:"route"` // token class keys traversed
}

// swapRequest is the payload of the swap submission endpoint.
type swapRequest struct {
	TokenIn           string `json:"tokenIn"`
	TokenOut          string `json:"tokenOut"`
	AmountIn          string `json:"amountIn"`
	AmountOutMinimum  string `json:"amountOutMinimum"`
	FeeTier           int    `json:"fee"`
	WalletAddress     string `json:"walletAddress"`
	SlippageTolerance string `json:"slippageTolerance"`
}

// swapResponse is the data section of a swap reply.
type swapResponse struct {
	TransactionID string `json:"transactionId"`
	AmountIn      string `json:"amountIn"`
	AmountOut     string `json:"amountOut"`
	GasUsed       string `json:"gasUsed"`
}

// holdingRow is one entry of the paginated asset holdings query.
type holdingRow struct {
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
}

// holdingsResponse is the data section of an asset holdings reply.
type holdingsResponse struct {
	Tokens []holdingRow `json:"token"`
	Count  int          `json:"count"`
}

// streamOperation is a raw operation pushed on the bundle WebSocket. Only
// Swap operations are translated into observations.
type streamOperation struct {
	Method        string `json:"method"`
	TransactionID string `json:"transactionId"`
	DTO           struct {
		Zero       bool   `json:"zeroForOne"`
		Token0     string `json:"token0"`
		Token1     string `json:"token1"`
		Amount0    string `json:"amount0"`
		Amount1    string `json:"amount1"`
		Token0Sym  string `json:"token0Symbol"`
		Token1Sym  string `json:"token1Symbol"`
	} `json:"dto"`
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Abs()
}
