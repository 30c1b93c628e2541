package backtest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the simulation parameters for a run. Immutable once the run
// starts.
type Config struct {
	InitialCapital  float64 `yaml:"initial_capital"`   // starting cash
	MaxPositionSize float64 `yaml:"max_position_size"` // fraction of capital per position
	TransactionCost float64 `yaml:"transaction_cost"`  // fraction charged on each leg
	RiskFreeRate    float64 `yaml:"risk_free_rate"`    // annual, for Sharpe/Sortino
	MinConfidence   float64 `yaml:"min_confidence"`    // signals below this are skipped
	RebalanceDays   int     `yaml:"rebalance_days"`    // cadence for opening new positions
}

// DefaultConfig returns the standard simulation parameters.
func DefaultConfig() Config {
	return Config{
		InitialCapital:  100000,
		MaxPositionSize: 0.2,
		TransactionCost: 0.001,
		RiskFreeRate:    0.02,
		MinConfidence:   0.5,
		RebalanceDays:   5,
	}
}

// LoadConfig reads a config from YAML, filling unset fields from defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read backtest config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse backtest config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid backtest config in %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the config for values that would make a run meaningless.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %.2f", c.InitialCapital)
	}
	if c.MaxPositionSize <= 0 || c.MaxPositionSize > 1 {
		return fmt.Errorf("max_position_size must be in (0,1], got %.2f", c.MaxPositionSize)
	}
	if c.TransactionCost < 0 || c.TransactionCost >= 1 {
		return fmt.Errorf("transaction_cost must be in [0,1), got %.4f", c.TransactionCost)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %.2f", c.MinConfidence)
	}
	if c.RebalanceDays <= 0 {
		return fmt.Errorf("rebalance_days must be positive, got %d", c.RebalanceDays)
	}
	return nil
}
