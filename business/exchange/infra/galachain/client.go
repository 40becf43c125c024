package galachain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"

	exchangeApp "github.com/fd1az/gala-arbitrage/business/exchange/app"
	"github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/internal/apm"
	"github.com/fd1az/gala-arbitrage/internal/apperror"
	"github.com/fd1az/gala-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/gala-arbitrage/internal/httpclient"
	"github.com/fd1az/gala-arbitrage/internal/logger"
	"github.com/fd1az/gala-arbitrage/internal/ratelimit"
)

const tracerName = "galachain"

const (
	pathTokens   = "/v1/trade/tokens"
	pathQuote    = "/v1/trade/quote"
	pathSwap     = "/v1/trade/swap"
	pathHoldings = "/user/assets"
)

// ClientConfig holds configuration for the GalaChain DEX client.
type ClientConfig struct {
	BaseURL            string
	WalletAddress      string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
}

// Client talks to the GalaChain DEX backend over its REST API. All calls go
// through a rate limiter and a circuit breaker; a tripped breaker surfaces
// as an ordinary call error, never a panic.
type Client struct {
	http    httpclient.Client
	wallet  string
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker[*envelope]
	tracer  apm.Tracer
	logger  logger.LoggerInterface
}

// NewClient creates a GalaChain DEX client.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	opts := []httpclient.Option{
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithProviderName("galachain"),
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, httpclient.WithTimeout(cfg.RequestTimeout))
	}
	hc, err := httpclient.New(opts...)
	if err != nil {
		return nil, err
	}

	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}

	cbCfg := circuitbreaker.DefaultConfig("galachain-rest")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &Client{
		http:    hc,
		wallet:  cfg.WalletAddress,
		limiter: ratelimit.New(perMinute),
		breaker: circuitbreaker.New[*envelope](cbCfg),
		tracer:  apm.NewTracer(tracerName),
		logger:  log.With("component", "galachain"),
	}, nil
}

// call runs one REST request through the limiter and breaker and unwraps
// the response envelope.
func (c *Client) call(ctx context.Context, build func() (*httpclient.Response, error)) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.breaker.Execute(func() (*envelope, error) {
		resp, err := build()
		if err != nil {
			return nil, err
		}
		var env envelope
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		if resp.IsError() || env.Error {
			msg := env.Message
			if msg == "" {
				msg = resp.Status
			}
			return nil, fmt.Errorf("venue replied %d: %s", resp.StatusCode, msg)
		}
		return &env, nil
	})
}

// AvailableTokens enumerates tokens tradable on the DEX.
func (c *Client) AvailableTokens(ctx context.Context) ([]domain.TokenRef, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "galachain.tokens")
	defer span.End()

	env, err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().Get(ctx, pathTokens)
	})
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	var rows []tokenRow
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		span.NoticeError(err)
		return nil, fmt.Errorf("decode token list: %w", err)
	}

	tokens := make([]domain.TokenRef, 0, len(rows))
	for _, r := range rows {
		tokens = append(tokens, r.toDomain())
	}
	span.SetAttributes(attribute.Int("tokens", len(tokens)))
	return tokens, nil
}

// RequestQuote asks the DEX to price a swap of amount tokenIn into tokenOut.
func (c *Client) RequestQuote(ctx context.Context, tokenIn, tokenOut domain.TokenRef, amount decimal.Decimal) (domain.SwapQuote, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "galachain.quote")
	defer span.End()
	span.SetAttributes(
		attribute.String("token_in", tokenIn.Symbol),
		attribute.String("token_out", tokenOut.Symbol),
		attribute.String("amount", amount.String()),
	)

	env, err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetBody(quoteRequest{
				TokenIn:  tokenIn.ClassKey.String(),
				TokenOut: tokenOut.ClassKey.String(),
				AmountIn: amount.String(),
			}).
			Post(ctx, pathQuote)
	})
	if err != nil {
		span.NoticeError(err)
		return domain.SwapQuote{}, err
	}

	var qr quoteResponse
	if err := json.Unmarshal(env.Data, &qr); err != nil {
		span.NoticeError(err)
		return domain.SwapQuote{}, fmt.Errorf("decode quote: %w", err)
	}

	out, err := decimal.NewFromString(qr.AmountOut)
	if err != nil {
		return domain.SwapQuote{}, fmt.Errorf("quote amountOut %q: %w", qr.AmountOut, err)
	}
	impact, err := decimal.NewFromString(qr.PriceImpact)
	if err != nil {
		impact = decimal.Zero
	}

	route := make([]domain.TokenRef, 0, len(qr.Route))
	for _, raw := range qr.Route {
		key, kerr := domain.ParseTokenClassKey(raw)
		if kerr != nil {
			return domain.SwapQuote{}, apperror.Validation(apperror.CodeInvalidTokenClass, raw)
		}
		route = append(route, domain.TokenRef{Symbol: key.Collection, ClassKey: key})
	}
	if len(route) == 0 {
		route = []domain.TokenRef{tokenIn, tokenOut}
	}

	return domain.SwapQuote{
		InputToken:   tokenIn,
		OutputToken:  tokenOut,
		InputAmount:  amount,
		OutputAmount: out,
		PriceImpact:  impact,
		FeeTier:      qr.FeeTier,
		Route:        route,
	}, nil
}

// SubmitSwap submits a swap for on-chain execution.
func (c *Client) SubmitSwap(ctx context.Context, tokenIn, tokenOut domain.TokenRef, amount, slippage decimal.Decimal, quote domain.SwapQuote) (domain.SwapResult, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "galachain.swap")
	defer span.End()
	span.SetAttributes(
		attribute.String("token_in", tokenIn.Symbol),
		attribute.String("token_out", tokenOut.Symbol),
		attribute.String("amount", amount.String()),
	)

	// Minimum acceptable output applies the slippage tolerance to the
	// quoted output; the venue rejects fills below it.
	hundred := decimal.NewFromInt(100)
	minOut := quote.OutputAmount.Mul(hundred.Sub(slippage)).Div(hundred)

	env, err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetBody(swapRequest{
				TokenIn:           tokenIn.ClassKey.String(),
				TokenOut:          tokenOut.ClassKey.String(),
				AmountIn:          amount.String(),
				AmountOutMinimum:  minOut.String(),
				FeeTier:           quote.FeeTier,
				WalletAddress:     c.wallet,
				SlippageTolerance: slippage.String(),
			}).
			Post(ctx, pathSwap)
	})
	if err != nil {
		span.NoticeError(err)
		return domain.SwapResult{}, err
	}

	var sr swapResponse
	if err := json.Unmarshal(env.Data, &sr); err != nil {
		span.NoticeError(err)
		return domain.SwapResult{}, fmt.Errorf("decode swap result: %w", err)
	}

	out, err := decimal.NewFromString(sr.AmountOut)
	if err != nil {
		return domain.SwapResult{}, fmt.Errorf("swap amountOut %q: %w", sr.AmountOut, err)
	}
	gas, err := decimal.NewFromString(sr.GasUsed)
	if err != nil {
		gas = decimal.Zero
	}

	actualPrice := decimal.Zero
	if !amount.IsZero() {
		actualPrice = out.Div(amount)
	}

	return domain.SwapResult{
		TransactionHash: sr.TransactionID,
		InputAmount:     amount,
		OutputAmount:    out,
		ActualPrice:     actualPrice,
		GasUsed:         gas,
		Timestamp:       time.Now(),
	}, nil
}

// FetchHoldings returns one page of wallet asset holdings.
func (c *Client) FetchHoldings(ctx context.Context, wallet string, page, pageSize int) ([]exchangeApp.Holding, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "galachain.holdings")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page))

	env, err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetQueryParam("address", wallet).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("limit", strconv.Itoa(pageSize)).
			Get(ctx, pathHoldings)
	})
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	var hr holdingsResponse
	if err := json.Unmarshal(env.Data, &hr); err != nil {
		span.NoticeError(err)
		return nil, fmt.Errorf("decode holdings: %w", err)
	}

	holdings := make([]exchangeApp.Holding, 0, len(hr.Tokens))
	for _, row := range hr.Tokens {
		holdings = append(holdings, exchangeApp.Holding{Symbol: row.Symbol, Quantity: row.Quantity})
	}
	return holdings, nil
}
