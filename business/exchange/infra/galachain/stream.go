package galachain

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/internal/logger"
	"github.com/fd1az/gala-arbitrage/internal/wsconn"
)

// StreamConfig configures the bundle event stream.
type StreamConfig struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int
}

// EventStream consumes the venue's bundle WebSocket and translates Swap
// operations into SwapObservations. Non-swap operations and malformed
// frames are dropped.
type EventStream struct {
	conn   *wsconn.Client
	logger logger.LoggerInterface
	out    chan domain.SwapObservation
}

// NewEventStream creates a stream client for the given bundle endpoint.
func NewEventStream(cfg StreamConfig, log logger.LoggerInterface) *EventStream {
	wsCfg := wsconn.DefaultConfig(cfg.URL)
	if cfg.InitialBackoff > 0 {
		wsCfg.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		wsCfg.MaxBackoff = cfg.MaxBackoff
	}
	wsCfg.MaxReconnects = cfg.MaxReconnects
	wsCfg.Subscribe = []byte(`{"event":"subscribe","channel":"bundled-transactions"}`)

	return &EventStream{
		conn:   wsconn.New(wsCfg),
		logger: log.With("component", "galachain_stream"),
		out:    make(chan domain.SwapObservation, 64),
	}
}

// Start connects and begins translating frames until ctx is cancelled. The
// observation channel closes when the underlying connection gives up.
func (s *EventStream) Start(ctx context.Context) (<-chan domain.SwapObservation, error) {
	if err := s.conn.Connect(ctx); err != nil {
		return nil, err
	}
	go s.run(ctx)
	return s.out, nil
}

func (s *EventStream) run(ctx context.Context) {
	defer close(s.out)

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-s.conn.Messages():
			if !ok {
				s.logger.Warn(ctx, "event stream closed")
				return
			}
			obs, ok := s.parse(ctx, frame)
			if !ok {
				continue
			}
			select {
			case s.out <- obs:
			case <-ctx.Done():
				return
			}
		}
	}
}

// parse translates one raw frame into an observation. Returns false for
// frames that are not well-formed Swap operations.
func (s *EventStream) parse(ctx context.Context, frame []byte) (domain.SwapObservation, bool) {
	var op streamOperation
	if err := json.Unmarshal(frame, &op); err != nil {
		s.logger.Debug(ctx, "dropping unparseable frame", "error", err)
		return domain.SwapObservation{}, false
	}
	if !strings.EqualFold(op.Method, "Swap") {
		return domain.SwapObservation{}, false
	}

	token0, err0 := domain.ParseTokenClassKey(op.DTO.Token0)
	token1, err1 := domain.ParseTokenClassKey(op.DTO.Token1)
	if err0 != nil || err1 != nil {
		s.logger.Debug(ctx, "dropping swap with malformed token class keys",
			"token0", op.DTO.Token0, "token1", op.DTO.Token1)
		return domain.SwapObservation{}, false
	}

	in := domain.TokenRef{Symbol: symbolOr(op.DTO.Token0Sym, token0), ClassKey: token0}
	out := domain.TokenRef{Symbol: symbolOr(op.DTO.Token1Sym, token1), ClassKey: token1}
	amountIn := parseAmount(op.DTO.Amount0)
	amountOut := parseAmount(op.DTO.Amount1)

	// zeroForOne=false means the swap moved token1 into token0.
	if !op.DTO.Zero {
		in, out = out, in
		amountIn, amountOut = amountOut, amountIn
	}

	return domain.SwapObservation{
		TransactionID: op.TransactionID,
		TokenIn:       in,
		TokenOut:      out,
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		ObservedAt:    time.Now(),
	}, true
}

func symbolOr(symbol string, key domain.TokenClassKey) string {
	if symbol != "" {
		return strings.ToUpper(symbol)
	}
	return key.Collection
}

// Close terminates the stream connection.
func (s *EventStream) Close() error {
	return s.conn.Close()
}
