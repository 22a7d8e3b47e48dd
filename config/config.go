package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Revetex/tradeguard/executor"
	"github.com/Revetex/tradeguard/internal/clock"
	"github.com/Revetex/tradeguard/internal/logger"
	"github.com/Revetex/tradeguard/internal/trace"
	"github.com/Revetex/tradeguard/order"
	"github.com/Revetex/tradeguard/quote"
	"github.com/Revetex/tradeguard/risk"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "TRADEGUARD_"

// Config represents the complete engine configuration
type Config struct {
	Account    AccountConfig   `json:"account" yaml:"account"`
	Guardrails GuardrailConfig `json:"guardrails" yaml:"guardrails"`
	Market     MarketConfig    `json:"market" yaml:"market"`
	Signals    SignalConfig    `json:"signals" yaml:"signals"`
	Live       LiveConfig      `json:"live" yaml:"live"`
	Clock      ClockConfig     `json:"clock" yaml:"clock"`
	Journal    JournalConfig   `json:"journal" yaml:"journal"`
	Log        LogConfig       `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID           string          `json:"id" yaml:"id"`
	StartingCash decimal.Decimal `json:"starting_cash" yaml:"starting_cash"`
	Mode         string          `json:"mode" yaml:"mode"` // "paper" or "live"
}

// GuardrailConfig holds the per-day limits. Zero means unlimited.
type GuardrailConfig struct {
	MaxTradesPerDay            int             `json:"max_trades_per_day" yaml:"max_trades_per_day"`
	GlobalCooldownSeconds      int             `json:"global_cooldown_seconds" yaml:"global_cooldown_seconds"`
	SymbolCooldownSeconds      int             `json:"symbol_cooldown_seconds" yaml:"symbol_cooldown_seconds"`
	MaxQtyPerSymbolPerDay      decimal.Decimal `json:"max_qty_per_symbol_per_day" yaml:"max_qty_per_symbol_per_day"`
	MaxNotionalPerSymbolPerDay decimal.Decimal `json:"max_notional_per_symbol_per_day" yaml:"max_notional_per_symbol_per_day"`
}

// MarketConfig selects where reference prices come from
type MarketConfig struct {
	PriceStalenessSeconds int                        `json:"price_staleness_seconds" yaml:"price_staleness_seconds"`
	Provider              string                     `json:"provider" yaml:"provider"` // "static" or "http"
	BaseURL               string                     `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKeyEnv             string                     `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	TimeoutSeconds        int                        `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	StaticPrices          map[string]decimal.Decimal `json:"static_prices,omitempty" yaml:"static_prices,omitempty"`
}

// SignalConfig gates strategy signals
type SignalConfig struct {
	Enabled  bool            `json:"enabled" yaml:"enabled"`
	BaseSize decimal.Decimal `json:"base_size" yaml:"base_size"`
}

// LiveConfig bounds calls into the live executor
type LiveConfig struct {
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ClockConfig fixes the trading-day boundary
type ClockConfig struct {
	Timezone string `json:"timezone" yaml:"timezone"`
}

// JournalConfig contains journaling parameters. The csv type writes activity
// to ActivityFile and keeps the signal ledger and account state at DBPath.
type JournalConfig struct {
	Type         string `json:"type" yaml:"type"` // "memory", "sqlite" or "csv"
	DBPath       string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	ActivityFile string `json:"activity_file,omitempty" yaml:"activity_file,omitempty"`
}

// LogConfig contains logging and tracing parameters
type LogConfig struct {
	Level   string `json:"level" yaml:"level"`
	Format  string `json:"format" yaml:"format"`
	Tracing bool   `json:"tracing" yaml:"tracing"`
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths, JSON otherwise
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.ID == "" {
		return fmt.Errorf("account.id is required")
	}
	if c.Account.StartingCash.IsNegative() {
		return fmt.Errorf("account.starting_cash must not be negative")
	}
	switch order.Mode(strings.ToLower(c.Account.Mode)) {
	case "", order.Paper, order.Live:
	default:
		return fmt.Errorf("account.mode must be 'paper' or 'live'")
	}

	g := c.Guardrails
	if g.MaxTradesPerDay < 0 || g.GlobalCooldownSeconds < 0 || g.SymbolCooldownSeconds < 0 ||
		g.MaxQtyPerSymbolPerDay.IsNegative() || g.MaxNotionalPerSymbolPerDay.IsNegative() {
		return fmt.Errorf("guardrails must not be negative")
	}

	if c.Market.PriceStalenessSeconds < 0 {
		return fmt.Errorf("market.price_staleness_seconds must not be negative")
	}
	switch c.Market.Provider {
	case "", "static":
		for sym, px := range c.Market.StaticPrices {
			if !px.IsPositive() {
				return fmt.Errorf("market.static_prices[%s] must be positive", sym)
			}
		}
	case "http":
		if c.Market.TimeoutSeconds < 0 {
			return fmt.Errorf("market.timeout_seconds must not be negative")
		}
	default:
		return fmt.Errorf("market.provider must be 'static' or 'http'")
	}

	if c.Signals.BaseSize.IsNegative() {
		return fmt.Errorf("signals.base_size must not be negative")
	}
	if c.Signals.Enabled && c.Signals.BaseSize.IsZero() {
		return fmt.Errorf("signals.base_size required when signals are enabled")
	}
	if c.Live.TimeoutSeconds < 0 {
		return fmt.Errorf("live.timeout_seconds must not be negative")
	}
	if _, err := clock.Location(c.Clock.Timezone); err != nil {
		return fmt.Errorf("clock.timezone: %w", err)
	}

	switch c.Journal.Type {
	case "memory":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "csv":
		if c.Journal.ActivityFile == "" {
			return fmt.Errorf("journal activity_file required for CSV type")
		}
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for CSV type, it holds the signal ledger")
		}
	default:
		return fmt.Errorf("journal.type must be 'memory', 'sqlite' or 'csv'")
	}
	return nil
}

// Default returns a paper configuration with conservative guardrails
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:           "paper-001",
			StartingCash: decimal.NewFromInt(100000),
			Mode:         string(order.Paper),
		},
		Guardrails: GuardrailConfig{
			MaxTradesPerDay:       10,
			GlobalCooldownSeconds: 60,
			SymbolCooldownSeconds: 300,
		},
		Market: MarketConfig{
			PriceStalenessSeconds: 300,
			Provider:              "static",
			APIKeyEnv:             EnvPrefix + "API_KEY",
			TimeoutSeconds:        10,
		},
		Signals: SignalConfig{
			Enabled:  false,
			BaseSize: decimal.NewFromInt(1000),
		},
		Live: LiveConfig{
			TimeoutSeconds: 10,
		},
		Clock: ClockConfig{
			Timezone: "UTC",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./tradeguard.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ApplyEnv loads any of the given dotenv files that exist, then applies
// TRADEGUARD_* overrides. Variables already set in the process win over
// dotenv values.
func (c *Config) ApplyEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var firstErr error
	parse := func(name string, set func(string) error) {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || firstErr != nil {
			return
		}
		if err := set(v); err != nil {
			firstErr = fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
	}
	intVar := func(dst *int) func(string) error {
		return func(v string) (err error) { *dst, err = strconv.Atoi(v); return }
	}
	decVar := func(dst *decimal.Decimal) func(string) error {
		return func(v string) (err error) { *dst, err = decimal.NewFromString(v); return }
	}
	boolVar := func(dst *bool) func(string) error {
		return func(v string) (err error) { *dst, err = strconv.ParseBool(v); return }
	}

	str("ACCOUNT_ID", &c.Account.ID)
	str("MODE", &c.Account.Mode)
	parse("STARTING_CASH", decVar(&c.Account.StartingCash))
	parse("MAX_TRADES_PER_DAY", intVar(&c.Guardrails.MaxTradesPerDay))
	parse("GLOBAL_COOLDOWN_SECONDS", intVar(&c.Guardrails.GlobalCooldownSeconds))
	parse("SYMBOL_COOLDOWN_SECONDS", intVar(&c.Guardrails.SymbolCooldownSeconds))
	parse("PRICE_STALENESS_SECONDS", intVar(&c.Market.PriceStalenessSeconds))
	str("MARKET_PROVIDER", &c.Market.Provider)
	str("MARKET_BASE_URL", &c.Market.BaseURL)
	parse("SIGNALS_ENABLED", boolVar(&c.Signals.Enabled))
	parse("BASE_SIZE", decVar(&c.Signals.BaseSize))
	parse("LIVE_TIMEOUT_SECONDS", intVar(&c.Live.TimeoutSeconds))
	str("TIMEZONE", &c.Clock.Timezone)
	str("JOURNAL_TYPE", &c.Journal.Type)
	str("DB_PATH", &c.Journal.DBPath)
	str("ACTIVITY_FILE", &c.Journal.ActivityFile)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	parse("TRACING", boolVar(&c.Log.Tracing))
	return firstErr
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Policy converts the guardrail section.
func (c *Config) Policy() (risk.Policy, error) {
	loc, err := clock.Location(c.Clock.Timezone)
	if err != nil {
		return risk.Policy{}, err
	}
	return risk.Policy{
		MaxTradesPerDay:      c.Guardrails.MaxTradesPerDay,
		GlobalCooldown:       seconds(c.Guardrails.GlobalCooldownSeconds),
		SymbolCooldown:       seconds(c.Guardrails.SymbolCooldownSeconds),
		MaxQtyPerSymbol:      c.Guardrails.MaxQtyPerSymbolPerDay,
		MaxNotionalPerSymbol: c.Guardrails.MaxNotionalPerSymbolPerDay,
		Location:             loc,
	}, nil
}

// Executor builds the executor configuration.
func (c *Config) Executor() (executor.Config, error) {
	p, err := c.Policy()
	if err != nil {
		return executor.Config{}, err
	}
	return executor.Config{
		AccountID:    c.Account.ID,
		StartingCash: c.Account.StartingCash,
		Mode:         order.Mode(strings.ToLower(c.Account.Mode)),
		Enabled:      c.Signals.Enabled,
		BaseSize:     c.Signals.BaseSize,
		Policy:       p,
		LiveTimeout:  seconds(c.Live.TimeoutSeconds),
	}, nil
}

// QuoteSource builds the configured price source, wrapped in a staleness
// cache.
func (c *Config) QuoteSource(clk clock.Clock) (*quote.Cache, error) {
	var src quote.Source
	switch c.Market.Provider {
	case "", "static":
		prices := make(map[string]decimal.Decimal, len(c.Market.StaticPrices))
		for sym, px := range c.Market.StaticPrices {
			prices[order.NormalizeSymbol(sym)] = px
		}
		src = quote.NewStatic(clk, prices)
	case "http":
		var key string
		if c.Market.APIKeyEnv != "" {
			key = os.Getenv(c.Market.APIKeyEnv)
		}
		src = quote.NewHTTP(quote.HTTPConfig{
			BaseURL: c.Market.BaseURL,
			APIKey:  key,
			Timeout: seconds(c.Market.TimeoutSeconds),
			Clock:   clk,
		})
	default:
		return nil, fmt.Errorf("unknown market provider %q", c.Market.Provider)
	}
	return quote.NewCache(src, clk, seconds(c.Market.PriceStalenessSeconds)), nil
}

// Logger returns the logging section in the logger's terms.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// Trace returns the tracing section in the tracer's terms.
func (c *Config) Trace(version string) trace.Config {
	return trace.Config{Enabled: c.Log.Tracing, Version: version}
}
