package galachain

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/gala-arbitrage/internal/logger"
)

func testStream() *EventStream {
	return NewEventStream(StreamConfig{URL: "wss://example.com"},
		logger.New(io.Discard, logger.LevelError, "test"))
}

func TestParseSwapOperation(t *testing.T) {
	stream := testStream()
	frame := []byte(`{
		"method": "Swap",
		"transactionId": "tx-123",
		"dto": {
			"zeroForOne": true,
			"token0": "GALA|Unit|none|none",
			"token1": "GUSDC|Unit|none|none",
			"amount0": "100",
			"amount1": "-1.61"
		}
	}`)

	obs, ok := stream.parse(context.Background(), frame)
	require.True(t, ok)
	assert.Equal(t, "tx-123", obs.TransactionID)
	assert.Equal(t, "GALA", obs.TokenIn.Symbol)
	assert.Equal(t, "GUSDC", obs.TokenOut.Symbol)
	assert.True(t, obs.AmountIn.Equal(decimal.NewFromInt(100)))
	assert.True(t, obs.AmountOut.Equal(decimal.RequireFromString("1.61")), "amounts are absolute values")
}

func TestParseSwapDirectionFlips(t *testing.T) {
	stream := testStream()
	frame := []byte(`{
		"method": "Swap",
		"transactionId": "tx-124",
		"dto": {
			"zeroForOne": false,
			"token0": "GALA|Unit|none|none",
			"token1": "GUSDC|Unit|none|none",
			"amount0": "-100",
			"amount1": "1.61"
		}
	}`)

	obs, ok := stream.parse(context.Background(), frame)
	require.True(t, ok)
	assert.Equal(t, "GUSDC", obs.TokenIn.Symbol, "zeroForOne=false swaps token1 in")
	assert.Equal(t, "GALA", obs.TokenOut.Symbol)
	assert.True(t, obs.AmountIn.Equal(decimal.RequireFromString("1.61")))
	assert.True(t, obs.AmountOut.Equal(decimal.NewFromInt(100)))
}

func TestParseDropsNonSwapAndMalformedFrames(t *testing.T) {
	stream := testStream()

	tests := []struct {
		name  string
		frame string
	}{
		{"not json", `{{{`},
		{"other method", `{"method":"AddLiquidity","transactionId":"tx-1","dto":{}}`},
		{"bad token key", `{"method":"Swap","transactionId":"tx-2","dto":{"token0":"GALA","token1":"GUSDC|Unit|none|none","amount0":"1","amount1":"1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := stream.parse(context.Background(), []byte(tt.frame))
			assert.False(t, ok)
		})
	}
}
