package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	ModeManual = "manual"
	ModeAuto   = "auto"

	SourceREST   = "rest"
	SourceStream = "ws"
)

// Config represents the complete bot configuration
type Config struct {
	Trading   TradingConfig   `json:"trading" yaml:"trading"`
	Portfolio PortfolioConfig `json:"portfolio" yaml:"portfolio"`
	Ledger    LedgerConfig    `json:"ledger" yaml:"ledger"`
	Market    MarketConfig    `json:"market" yaml:"market"`
	Loop      LoopConfig      `json:"loop" yaml:"loop"`
}

// TradingConfig contains the fixed trade parameters and signal inputs
type TradingConfig struct {
	Pair         string  `json:"pair" yaml:"pair"`
	PositionSize float64 `json:"position_size" yaml:"position_size"`
	TakeProfit   float64 `json:"take_profit" yaml:"take_profit"` // fraction of entry
	StopLoss     float64 `json:"stop_loss" yaml:"stop_loss"`     // absolute price offset
	SpreadLimit  float64 `json:"spread_limit" yaml:"spread_limit"`
	Sentiment    float64 `json:"sentiment" yaml:"sentiment"`
	Risk         float64 `json:"risk" yaml:"risk"`
	Mode         string  `json:"mode" yaml:"mode"` // "manual" or "auto"
	Live         bool    `json:"live" yaml:"live"`
	Timezone     string  `json:"timezone" yaml:"timezone"`
}

// PortfolioConfig contains the starting capital
type PortfolioConfig struct {
	Initial string `json:"initial" yaml:"initial"` // decimal string, e.g. "1000"
}

// LedgerConfig contains persistence parameters
type LedgerConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv" or "sqlite"
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	SnapshotDir string `json:"snapshot_dir" yaml:"snapshot_dir"`
	Attempts    int    `json:"attempts" yaml:"attempts"`
	RetryDelay  string `json:"retry_delay" yaml:"retry_delay"` // e.g. "1s"
}

// MarketConfig selects the ticker source
type MarketConfig struct {
	Source    string `json:"source" yaml:"source"` // "rest" or "ws"
	RESTURL   string `json:"rest_url,omitempty" yaml:"rest_url,omitempty"`
	StreamURL string `json:"stream_url,omitempty" yaml:"stream_url,omitempty"`
}

// LoopConfig contains orchestrator parameters
type LoopConfig struct {
	ErrorPause             string `json:"error_pause" yaml:"error_pause"`
	MaxConsecutiveFailures int    `json:"max_consecutive_failures" yaml:"max_consecutive_failures"`
}

// ParseDuration converts the retry delay string to time.Duration
func (l LedgerConfig) ParseDuration() (time.Duration, error) {
	if l.RetryDelay == "" {
		return 0, nil
	}
	return time.ParseDuration(l.RetryDelay)
}

// ParseDuration converts the error pause string to time.Duration
func (l LoopConfig) ParseDuration() (time.Duration, error) {
	if l.ErrorPause == "" {
		return 0, nil
	}
	return time.ParseDuration(l.ErrorPause)
}

// Location resolves the configured timezone.
func (t TradingConfig) Location() (*time.Location, error) {
	if t.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(t.Timezone)
}

// InitialPortfolio parses the starting capital.
func (c *Config) InitialPortfolio() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Portfolio.Initial)
	if err != nil {
		return decimal.Zero, fmt.Errorf("portfolio.initial: %w", err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("portfolio.initial must not be negative")
	}
	return d, nil
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON).
// Fields absent from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML or JSON based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

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
	t := c.Trading
	if t.Pair == "" || !strings.Contains(t.Pair, "/") {
		return fmt.Errorf("trading.pair must look like BASE/QUOTE")
	}
	if t.PositionSize <= 0 {
		return fmt.Errorf("trading.position_size must be positive")
	}
	if t.TakeProfit <= 0 || t.TakeProfit >= 1 {
		return fmt.Errorf("trading.take_profit must be between 0 and 1")
	}
	if t.StopLoss <= 0 {
		return fmt.Errorf("trading.stop_loss must be positive")
	}
	if t.SpreadLimit <= 0 {
		return fmt.Errorf("trading.spread_limit must be positive")
	}
	if t.Sentiment <= 0 {
		return fmt.Errorf("trading.sentiment must be positive")
	}
	if t.Risk <= 0 {
		return fmt.Errorf("trading.risk must be positive")
	}
	if t.Mode != ModeManual && t.Mode != ModeAuto {
		return fmt.Errorf("trading.mode must be 'manual' or 'auto'")
	}
	if _, err := t.Location(); err != nil {
		return fmt.Errorf("trading.timezone: %w", err)
	}

	if _, err := c.InitialPortfolio(); err != nil {
		return err
	}

	if c.Ledger.Type != "csv" && c.Ledger.Type != "sqlite" {
		return fmt.Errorf("ledger.type must be 'csv' or 'sqlite'")
	}
	if c.Ledger.Type == "csv" && c.Ledger.Path == "" {
		return fmt.Errorf("ledger path required for CSV type")
	}
	if c.Ledger.Type == "sqlite" && c.Ledger.DBPath == "" {
		return fmt.Errorf("ledger db_path required for SQLite type")
	}
	if c.Ledger.Attempts < 1 {
		return fmt.Errorf("ledger.attempts must be at least 1")
	}
	if _, err := c.Ledger.ParseDuration(); err != nil {
		return fmt.Errorf("ledger.retry_delay: %w", err)
	}

	if c.Market.Source != SourceREST && c.Market.Source != SourceStream {
		return fmt.Errorf("market.source must be 'rest' or 'ws'")
	}

	if _, err := c.Loop.ParseDuration(); err != nil {
		return fmt.Errorf("loop.error_pause: %w", err)
	}
	if c.Loop.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("loop.max_consecutive_failures must not be negative")
	}
	return nil
}

// Default returns a configuration with the stock flashbot parameters
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Pair:         "BTC/USDT",
			PositionSize: 10,
			TakeProfit:   0.03,
			StopLoss:     6.50,
			SpreadLimit:  0.001,
			Sentiment:    1.0,
			Risk:         1.0,
			Mode:         ModeManual,
			Timezone:     "Asia/Makassar",
		},
		Portfolio: PortfolioConfig{
			Initial: "1000",
		},
		Ledger: LedgerConfig{
			Type:        "csv",
			Path:        "./bue_log.csv",
			DBPath:      "./bue_log.sqlite",
			SnapshotDir: ".",
			Attempts:    3,
			RetryDelay:  "1s",
		},
		Market: MarketConfig{
			Source: SourceREST,
		},
		Loop: LoopConfig{
			ErrorPause: "5s",
		},
	}
}
