package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits contains the hard thresholds applied by the validation chain.
type Limits struct {
	MinConfidence          float64 `yaml:"min_confidence"`           // ≥0.70 to trade
	MaxRiskPerTrade        float64 `yaml:"max_risk_per_trade"`       // 2% of portfolio at risk
	MaxPositionSize        float64 `yaml:"max_position_size"`        // 20% of portfolio per position
	MinRiskReward          float64 `yaml:"min_risk_reward"`          // ≥2.0 reward per unit risk
	MaxConcurrentPositions int     `yaml:"max_concurrent_positions"` // 5 open positions
	MaxPortfolioDrawdown   float64 `yaml:"max_portfolio_drawdown"`   // 15% circuit breaker

	// Defaults applied when a caller has no explicit exit levels.
	StandardStopLoss float64 `yaml:"standard_stop_loss"` // 0.95 → -5%
	StandardTarget   float64 `yaml:"standard_target"`    // 1.07 → +7%
}

// DefaultLimits returns the production risk limits.
func DefaultLimits() Limits {
	return Limits{
		MinConfidence:          0.70,
		MaxRiskPerTrade:        0.02,
		MaxPositionSize:        0.20,
		MinRiskReward:          2.0,
		MaxConcurrentPositions: 5,
		MaxPortfolioDrawdown:   0.15,
		StandardStopLoss:       0.95,
		StandardTarget:         1.07,
	}
}

// LoadLimits reads limits from a YAML file, filling unset fields from defaults.
func LoadLimits(path string) (Limits, error) {
	limits := DefaultLimits()

	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("failed to read risk limits: %w", err)
	}

	if err := yaml.Unmarshal(data, &limits); err != nil {
		return limits, fmt.Errorf("failed to parse risk limits: %w", err)
	}

	if err := limits.Validate(); err != nil {
		return limits, fmt.Errorf("invalid risk limits in %s: %w", path, err)
	}

	return limits, nil
}

// Validate checks the limits for internally inconsistent values.
func (l Limits) Validate() error {
	if l.MinConfidence < 0 || l.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %.2f", l.MinConfidence)
	}
	if l.MaxRiskPerTrade <= 0 || l.MaxRiskPerTrade > 1 {
		return fmt.Errorf("max_risk_per_trade must be in (0,1], got %.2f", l.MaxRiskPerTrade)
	}
	if l.MaxPositionSize <= 0 || l.MaxPositionSize > 1 {
		return fmt.Errorf("max_position_size must be in (0,1], got %.2f", l.MaxPositionSize)
	}
	if l.MinRiskReward <= 0 {
		return fmt.Errorf("min_risk_reward must be positive, got %.2f", l.MinRiskReward)
	}
	if l.MaxConcurrentPositions <= 0 {
		return fmt.Errorf("max_concurrent_positions must be positive, got %d", l.MaxConcurrentPositions)
	}
	if l.MaxPortfolioDrawdown <= 0 || l.MaxPortfolioDrawdown > 1 {
		return fmt.Errorf("max_portfolio_drawdown must be in (0,1], got %.2f", l.MaxPortfolioDrawdown)
	}
	return nil
}

// StandardLevels derives stop and target prices from an entry price for callers
// that have no model-supplied exit levels.
func (l Limits) StandardLevels(entryPrice float64) (stopLoss, target float64) {
	return entryPrice * l.StandardStopLoss, entryPrice * l.StandardTarget
}
