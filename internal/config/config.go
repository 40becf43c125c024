// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Venue     VenueConfig     `mapstructure:"venue"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Trading   TradingConfig   `mapstructure:"trading"`
	Mock      MockConfig      `mapstructure:"mock"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// VenueConfig holds GalaChain swap venue connectivity settings.
type VenueConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	WebSocketURL       string        `mapstructure:"websocket_url"`
	WalletAddress      string        `mapstructure:"wallet_address"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	MaxReconnects      int           `mapstructure:"max_reconnects"`
	InitialBackoff     time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff         time.Duration `mapstructure:"max_backoff"`
	HoldingsPageSize   int           `mapstructure:"holdings_page_size"`
}

// ArbitrageConfig holds opportunity detection configuration.
type ArbitrageConfig struct {
	HomeToken         string        `mapstructure:"home_token"`
	Pairs             []string      `mapstructure:"pairs"` // e.g. "GALA-GUSDC"
	MinProfitPct      float64       `mapstructure:"min_profit_pct"`
	MaxTradeAmount    float64       `mapstructure:"max_trade_amount"`
	SlippagePct       float64       `mapstructure:"slippage_pct"`
	ScanInterval      time.Duration `mapstructure:"scan_interval"`
	EnableTriangular  bool          `mapstructure:"enable_triangular"`
	StreamEvents      bool          `mapstructure:"stream_events"`
}

// TradingConfig holds trade execution configuration.
type TradingConfig struct {
	MaxConcurrentTrades int           `mapstructure:"max_concurrent_trades"`
	BalanceStaleAfter   time.Duration `mapstructure:"balance_stale_after"`
}

// MockConfig holds the mock-mode flag and seed ledger balances keyed by
// token class key, e.g. "GALA|Unit|none|none": 1000.
type MockConfig struct {
	Enabled  bool               `mapstructure:"enabled"`
	Balances map[string]float64 `mapstructure:"balances"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// MinProfitPctDecimal returns the minimum profit threshold as decimal.Decimal.
func (c *ArbitrageConfig) MinProfitPctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitPct)
}

// MaxTradeAmountDecimal returns the trade amount ceiling as decimal.Decimal.
func (c *ArbitrageConfig) MaxTradeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxTradeAmount)
}

// SlippagePctDecimal returns the slippage tolerance as decimal.Decimal.
func (c *ArbitrageConfig) SlippagePctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.SlippagePct)
}

// PairSymbols parses the configured "TOKENA-TOKENB" pair strings.
func (c *ArbitrageConfig) PairSymbols() ([][2]string, error) {
	pairs := make([][2]string, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		parts := strings.Split(p, "-")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid pair %q: expected TOKENA-TOKENB", p)
		}
		pairs = append(pairs, [2]string{parts[0], parts[1]})
	}
	return pairs, nil
}

// BalancesDecimal returns the mock seed balances as decimals keyed by the
// raw token class key string.
func (c *MockConfig) BalancesDecimal() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.Balances))
	for k, v := range c.Balances {
		out[k] = decimal.NewFromFloat(v)
	}
	return out
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Venue
	v.BindEnv("venue.base_url", "ARB_VENUE_BASE_URL", "GSWAP_BASE_URL")
	v.BindEnv("venue.websocket_url", "ARB_VENUE_WS_URL", "GSWAP_WS_URL")
	v.BindEnv("venue.wallet_address", "ARB_WALLET_ADDRESS", "GSWAP_WALLET_ADDRESS")

	// Arbitrage
	v.BindEnv("arbitrage.home_token", "ARB_HOME_TOKEN")
	v.BindEnv("arbitrage.pairs", "ARB_PAIRS")
	v.BindEnv("arbitrage.min_profit_pct", "ARB_MIN_PROFIT_PCT")
	v.BindEnv("arbitrage.max_trade_amount", "ARB_MAX_TRADE_AMOUNT")

	// Trading
	v.BindEnv("trading.max_concurrent_trades", "ARB_MAX_CONCURRENT_TRADES")

	// Mock
	v.BindEnv("mock.enabled", "ARB_MOCK_MODE", "MOCK_MODE")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "gala-arbitrage")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Venue defaults
	v.SetDefault("venue.base_url", "https://dex-backend-prod1.defi.gala.com")
	v.SetDefault("venue.websocket_url", "wss://bundle-backend-prod1.defi.gala.com")
	v.SetDefault("venue.request_timeout", "10s")
	v.SetDefault("venue.rate_limit_per_minute", 120)
	v.SetDefault("venue.max_reconnects", 0) // infinite
	v.SetDefault("venue.initial_backoff", "1s")
	v.SetDefault("venue.max_backoff", "30s")
	v.SetDefault("venue.holdings_page_size", 100)

	// Arbitrage defaults
	v.SetDefault("arbitrage.home_token", "GALA")
	v.SetDefault("arbitrage.pairs", []string{"GALA-GUSDC", "GALA-GUSDT", "GALA-GWETH"})
	v.SetDefault("arbitrage.min_profit_pct", 0.5)
	v.SetDefault("arbitrage.max_trade_amount", 100)
	v.SetDefault("arbitrage.slippage_pct", 1.0)
	v.SetDefault("arbitrage.scan_interval", "30s")
	v.SetDefault("arbitrage.enable_triangular", true)
	v.SetDefault("arbitrage.stream_events", false)

	// Trading defaults
	v.SetDefault("trading.max_concurrent_trades", 3)
	v.SetDefault("trading.balance_stale_after", "30s")

	// Mock defaults
	v.SetDefault("mock.enabled", true)
	v.SetDefault("mock.balances", map[string]float64{
		"GALA|Unit|none|none":  1000,
		"GUSDC|Unit|none|none": 1000,
	})

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "gala-arbitrage")
	v.SetDefault("telemetry.trace_provider", "console")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Arbitrage.HomeToken == "" {
		return fmt.Errorf("arbitrage.home_token is required")
	}
	if len(c.Arbitrage.Pairs) == 0 {
		return fmt.Errorf("arbitrage.pairs cannot be empty")
	}
	if _, err := c.Arbitrage.PairSymbols(); err != nil {
		return err
	}
	if c.Arbitrage.MinProfitPct <= 0 {
		return fmt.Errorf("arbitrage.min_profit_pct must be a positive epsilon, got %v", c.Arbitrage.MinProfitPct)
	}
	if c.Arbitrage.MaxTradeAmount <= 0 {
		return fmt.Errorf("arbitrage.max_trade_amount must be positive")
	}
	if c.Trading.MaxConcurrentTrades < 1 {
		return fmt.Errorf("trading.max_concurrent_trades must be at least 1")
	}
	if !c.Mock.Enabled {
		if c.Venue.BaseURL == "" {
			return fmt.Errorf("venue.base_url is required in live mode")
		}
		if c.Venue.WalletAddress == "" {
			return fmt.Errorf("venue.wallet_address is required in live mode")
		}
	}
	return nil
}
