// Package main is the entry point for the GalaChain arbitrage daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	arbApp "github.com/fd1az/gala-arbitrage/business/arbitrage/app"
	exchangeApp "github.com/fd1az/gala-arbitrage/business/exchange/app"
	exchangeDomain "github.com/fd1az/gala-arbitrage/business/exchange/domain"
	"github.com/fd1az/gala-arbitrage/business/exchange/infra/galachain"
	tradingApp "github.com/fd1az/gala-arbitrage/business/trading/app"
	tradingInfra "github.com/fd1az/gala-arbitrage/business/trading/infra"
	"github.com/fd1az/gala-arbitrage/internal/apm"
	"github.com/fd1az/gala-arbitrage/internal/config"
	"github.com/fd1az/gala-arbitrage/internal/health"
	"github.com/fd1az/gala-arbitrage/internal/logger"
	"github.com/fd1az/gala-arbitrage/internal/metrics"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("arbd %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name)
	log.Info(ctx, "starting arbitrage daemon",
		"version", version,
		"environment", cfg.App.Environment,
		"mock_mode", cfg.Mock.Enabled,
	)

	// Observability: tracing, metrics and the Prometheus scrape endpoint.
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider, err = apm.NewTraceProvider(
			apm.Provider(cfg.Telemetry.TraceProvider),
			cfg.Telemetry.OTLPEndpoint,
			cfg.Telemetry.ServiceName,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider)

		if _, err := metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
		); err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(port)
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	engineMetrics, err := metrics.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create engine metrics: %w", err)
	}

	healthPort := cfg.Telemetry.HealthPort
	if healthPort == 0 {
		healthPort = 8081
	}
	healthServer := health.NewServer(healthPort)
	healthServer.Start()
	defer healthServer.Stop(ctx)
	log.Info(ctx, "health server started", "port", healthPort)

	// Exchange access: live venue client, optionally shadowed by the mock
	// ledger for swaps and balances.
	venue, err := galachain.NewClient(galachain.ClientConfig{
		BaseURL:            cfg.Venue.BaseURL,
		WalletAddress:      cfg.Venue.WalletAddress,
		RequestTimeout:     cfg.Venue.RequestTimeout,
		RateLimitPerMinute: cfg.Venue.RateLimitPerMinute,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create venue client: %w", err)
	}

	seeds, err := parseSeedBalances(cfg.Mock)
	if err != nil {
		return fmt.Errorf("invalid mock balances: %w", err)
	}

	exchange := exchangeApp.NewExchangeService(venue, exchangeApp.Config{
		MockMode:         cfg.Mock.Enabled,
		WalletAddress:    cfg.Venue.WalletAddress,
		HoldingsPageSize: cfg.Venue.HoldingsPageSize,
		StaleAfter:       cfg.Trading.BalanceStaleAfter,
		SeedBalances:     seeds,
	}, log)

	healthServer.RegisterCheck("venue", func(ctx context.Context) (bool, string) {
		if exchange.IsMockMode() {
			return true, "mock mode"
		}
		if _, err := exchange.AvailableTokens(ctx); err != nil {
			return false, err.Error()
		}
		return true, "ok"
	})

	// Detection strategies.
	pairs, err := buildPairs(cfg.Arbitrage)
	if err != nil {
		return fmt.Errorf("invalid pairs: %w", err)
	}

	minProfit := cfg.Arbitrage.MinProfitPctDecimal()
	maxTrade := cfg.Arbitrage.MaxTradeAmountDecimal()

	strategies := []arbApp.Strategy{
		arbApp.NewDirectStrategy(cfg.Arbitrage.HomeToken, minProfit, maxTrade),
	}
	if cfg.Arbitrage.EnableTriangular {
		strategies = append(strategies,
			arbApp.NewTriangularStrategy(cfg.Arbitrage.HomeToken, bridgeSymbols(pairs, cfg.Arbitrage.HomeToken), pairs, minProfit, maxTrade))
	}

	detector := arbApp.NewDetector(exchange, cfg.Arbitrage.HomeToken, strategies,
		engineMetrics, apm.NewTracer("arbitrage.detector"), log)
	log.Info(ctx, "detector configured",
		"strategies", detector.Strategies(),
		"pairs", len(pairs),
		"min_profit_pct", minProfit.String(),
	)

	// Trade execution.
	reporter := tradingInfra.NewConsoleReporter(log)
	executor := tradingApp.NewTradeExecutor(exchange, reporter, tradingApp.Config{
		MaxConcurrentTrades: cfg.Trading.MaxConcurrentTrades,
		SlippagePct:         cfg.Arbitrage.SlippagePctDecimal(),
	}, engineMetrics, log)

	// Optional live swap stream for reactive detection.
	var observations <-chan exchangeDomain.SwapObservation
	if cfg.Arbitrage.StreamEvents && !cfg.Mock.Enabled {
		stream := galachain.NewEventStream(galachain.StreamConfig{
			URL:            cfg.Venue.WebSocketURL,
			InitialBackoff: cfg.Venue.InitialBackoff,
			MaxBackoff:     cfg.Venue.MaxBackoff,
			MaxReconnects:  cfg.Venue.MaxReconnects,
		}, log)
		observations, err = stream.Start(ctx)
		if err != nil {
			return fmt.Errorf("failed to start event stream: %w", err)
		}
		defer stream.Close()
		log.Info(ctx, "event stream connected", "url", cfg.Venue.WebSocketURL)
	}

	eng := &engine{
		detector:     detector,
		executor:     executor,
		pairs:        pairs,
		scanInterval: cfg.Arbitrage.ScanInterval,
		observations: observations,
		log:          log,
	}

	err = eng.run(ctx)

	stats := executor.Stats()
	log.Info(ctx, "shutting down",
		"total_trades", stats.TotalTrades,
		"successful", stats.SuccessfulTrades,
		"failed", stats.FailedTrades,
		"cancelled", stats.CancelledTrades,
		"total_profit", stats.TotalProfit.String(),
	)
	return err
}

func buildPairs(cfg config.ArbitrageConfig) ([]exchangeDomain.TradingPair, error) {
	symbols, err := cfg.PairSymbols()
	if err != nil {
		return nil, err
	}
	pairs := make([]exchangeDomain.TradingPair, 0, len(symbols))
	for _, s := range symbols {
		pairs = append(pairs, exchangeDomain.TradingPair{
			TokenA: exchangeDomain.TokenBySymbol(s[0]),
			TokenB: exchangeDomain.TokenBySymbol(s[1]),
		})
	}
	return pairs, nil
}

// bridgeSymbols collects the non-home side of every configured pair; those
// are the tokens triangular routes may pass through.
func bridgeSymbols(pairs []exchangeDomain.TradingPair, home string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range pairs {
		for _, ref := range []exchangeDomain.TokenRef{p.TokenA, p.TokenB} {
			sym := ref.Symbol
			if strings.EqualFold(sym, home) {
				continue
			}
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	return out
}

func parseSeedBalances(cfg config.MockConfig) (map[exchangeDomain.TokenClassKey]decimal.Decimal, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	seeds := make(map[exchangeDomain.TokenClassKey]decimal.Decimal, len(cfg.Balances))
	for raw, amount := range cfg.BalancesDecimal() {
		key, err := exchangeDomain.ParseTokenClassKey(raw)
		if err != nil {
			return nil, fmt.Errorf("balance key %q: %w", raw, err)
		}
		seeds[key] = amount
	}
	return seeds, nil
}
