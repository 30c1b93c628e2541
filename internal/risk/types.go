package risk

import (
	"time"
)

// SignalType is the direction of a candidate signal.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// RejectionReason identifies which rule rejected a signal. The wire values are
// stable strings so downstream consumers can branch on them.
type RejectionReason string

const (
	// Signal quality
	ReasonConfidenceTooLow RejectionReason = "confidence_below_minimum"

	// Position sizing
	ReasonPositionTooLarge RejectionReason = "position_exceeds_size_limit"

	// Risk/reward
	ReasonRiskRewardUnfavorable RejectionReason = "risk_reward_ratio_below_minimum"

	// Portfolio constraints
	ReasonMaxPositionsExceeded RejectionReason = "max_concurrent_positions_reached"
	ReasonPortfolioInDrawdown  RejectionReason = "portfolio_drawdown_exceeds_limit"

	// Data quality
	ReasonInvalidPriceLevels    RejectionReason = "entry_target_stop_invalid"
	ReasonMissingRequiredFields RejectionReason = "missing_required_fields"
)

// SignalRequest is a candidate signal submitted for validation. TargetPrice and
// StopLoss are pointers because a caller may omit them entirely, which is a
// distinct failure from supplying a non-positive level.
type SignalRequest struct {
	Ticker      string     `json:"ticker"`
	SignalType  SignalType `json:"signal_type"`
	Confidence  float64    `json:"confidence"`
	EntryPrice  float64    `json:"entry_price"`
	TargetPrice *float64   `json:"target_price"`
	StopLoss    *float64   `json:"stop_loss"`

	// Optional indicator context, carried through for auditing only.
	RSIValue       *float64 `json:"rsi_value,omitempty"`
	MACDValue      *float64 `json:"macd_value,omitempty"`
	SentimentScore *float64 `json:"sentiment_score,omitempty"`
}

// PortfolioState is the caller-supplied snapshot the gate reads. DrawdownPct is
// expressed in percent (0-100), matching how portfolio monitors report it.
type PortfolioState struct {
	PortfolioValue   float64 `json:"portfolio_value"`
	CurrentPositions int     `json:"current_positions"`
	DrawdownPct      float64 `json:"portfolio_drawdown_pct"`
}

// Result is produced fresh per Validate call and never mutated after return.
// Risk metrics are populated whenever the price levels were coherent enough to
// compute them, regardless of the final verdict.
type Result struct {
	Passed           bool            `json:"passed"`
	RejectionReason  RejectionReason `json:"rejection_reason,omitempty"`
	RejectionMessage string          `json:"rejection_message,omitempty"`

	PositionSizePct     float64 `json:"position_size_pct"`
	PositionSizeDollars float64 `json:"position_size_dollars"`
	RiskRewardRatio     float64 `json:"risk_reward_ratio"`
	RiskDollars         float64 `json:"risk_dollars"`

	ValidatedAt time.Time `json:"validated_at"`
	Notes       []string  `json:"notes"`
}

// Stats is a snapshot of a validator's usage counters.
type Stats struct {
	Validations    int     `json:"total_validations"`
	Accepted       int     `json:"accepted_signals"`
	Rejected       int     `json:"rejected_signals"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}
