package risk

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Validator applies the ordered risk rule chain to candidate signals. Each
// instance owns its own usage counters, so independent callers (tests, parallel
// pipelines) never share state. Validate itself reads no mutable state besides
// the counters and may be called concurrently.
type Validator struct {
	limits Limits
	stages []stage

	mu          sync.Mutex
	validations int
	accepted    int
	rejected    int

	metrics *GateMetrics
}

// stage is a single link in the validation chain. A nil return means continue;
// a non-nil return terminates the chain with that rejection.
type stage struct {
	name string
	eval func(v *Validator, req *SignalRequest, pf *PortfolioState, res *Result) *rejection
}

type rejection struct {
	reason  RejectionReason
	message string
}

// Option configures a Validator.
type Option func(*Validator)

// WithMetrics wires the validator's accept/reject counts into prometheus.
func WithMetrics(m *GateMetrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// NewValidator creates a validator enforcing the given limits.
func NewValidator(limits Limits, opts ...Option) *Validator {
	v := &Validator{limits: limits}
	v.stages = []stage{
		{name: "required_fields", eval: (*Validator).checkRequiredFields},
		{name: "confidence", eval: (*Validator).checkConfidence},
		{name: "price_levels", eval: (*Validator).checkPriceLevels},
		{name: "risk_metrics", eval: (*Validator).computeRiskMetrics},
		{name: "risk_reward", eval: (*Validator).checkRiskReward},
		{name: "position_size", eval: (*Validator).checkPositionSize},
		{name: "position_count", eval: (*Validator).checkPositionCount},
		{name: "drawdown", eval: (*Validator).checkDrawdown},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Limits returns the limits this validator enforces.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate runs the candidate signal through the rule chain and returns the
// verdict with computed risk metrics and a per-stage audit trail. A rejection
// is an expected outcome, not an error.
func (v *Validator) Validate(req SignalRequest, portfolio PortfolioState) Result {
	result := Result{
		ValidatedAt: time.Now().UTC(),
		Notes:       []string{},
	}

	for _, st := range v.stages {
		if rej := st.eval(v, &req, &portfolio, &result); rej != nil {
			result.RejectionReason = rej.reason
			result.RejectionMessage = rej.message
			v.record(false, rej.reason)
			log.Debug().
				Str("ticker", req.Ticker).
				Str("stage", st.name).
				Str("reason", string(rej.reason)).
				Msg("signal rejected")
			return result
		}
	}

	result.Passed = true
	result.Notes = append(result.Notes, "signal passed all risk checks")
	v.record(true, "")

	log.Info().
		Str("ticker", req.Ticker).
		Str("signal", string(req.SignalType)).
		Float64("entry", req.EntryPrice).
		Float64("position_pct", result.PositionSizePct).
		Msg("signal accepted")

	return result
}

func (v *Validator) record(passed bool, reason RejectionReason) {
	v.mu.Lock()
	v.validations++
	if passed {
		v.accepted++
	} else {
		v.rejected++
	}
	v.mu.Unlock()

	if v.metrics != nil {
		v.metrics.observe(passed, reason)
	}
}

// Stats returns a snapshot of the validator's usage counters.
func (v *Validator) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()

	rate := 0.0
	if v.validations > 0 {
		rate = float64(v.accepted) / float64(v.validations)
	}
	return Stats{
		Validations:    v.validations,
		Accepted:       v.accepted,
		Rejected:       v.rejected,
		AcceptanceRate: rate,
	}
}

// ResetStats zeroes the usage counters.
func (v *Validator) ResetStats() {
	v.mu.Lock()
	v.validations = 0
	v.accepted = 0
	v.rejected = 0
	v.mu.Unlock()
}

// Stage 1: every required field present and within its domain.
func (v *Validator) checkRequiredFields(req *SignalRequest, _ *PortfolioState, res *Result) *rejection {
	missing := ""
	switch {
	case strings.TrimSpace(req.Ticker) == "":
		missing = "ticker"
	case req.SignalType == "":
		missing = "signal_type"
	case req.TargetPrice == nil:
		missing = "target_price"
	case req.StopLoss == nil:
		missing = "stop_loss"
	}
	if missing != "" {
		msg := fmt.Sprintf("missing required field: %s", missing)
		res.Notes = append(res.Notes, "required fields: "+msg)
		return &rejection{ReasonMissingRequiredFields, msg}
	}

	if req.Confidence < 0 || req.Confidence > 1 {
		msg := fmt.Sprintf("confidence must be 0.0-1.0, got %.2f", req.Confidence)
		res.Notes = append(res.Notes, "required fields: "+msg)
		return &rejection{ReasonMissingRequiredFields, msg}
	}

	if req.EntryPrice <= 0 || *req.TargetPrice <= 0 || *req.StopLoss <= 0 {
		msg := "prices must be positive"
		res.Notes = append(res.Notes, "required fields: "+msg)
		return &rejection{ReasonMissingRequiredFields, msg}
	}

	res.Notes = append(res.Notes, "required fields: present and valid")
	return nil
}

// Stage 2: confidence threshold. Runs before any price reasoning so a weak
// signal is rejected identically no matter what its levels look like.
func (v *Validator) checkConfidence(req *SignalRequest, _ *PortfolioState, res *Result) *rejection {
	if req.Confidence < v.limits.MinConfidence {
		msg := fmt.Sprintf("confidence %.1f%% below minimum %.0f%%",
			req.Confidence*100, v.limits.MinConfidence*100)
		res.Notes = append(res.Notes, "confidence filter: "+msg)
		return &rejection{ReasonConfidenceTooLow, msg}
	}
	res.Notes = append(res.Notes, fmt.Sprintf("confidence filter: %.1f%% >= %.0f%%",
		req.Confidence*100, v.limits.MinConfidence*100))
	return nil
}

// Stage 3: price level ordering. BUY needs stop < entry < target, SELL the
// mirror image.
func (v *Validator) checkPriceLevels(req *SignalRequest, _ *PortfolioState, res *Result) *rejection {
	target, stop := *req.TargetPrice, *req.StopLoss

	switch req.SignalType {
	case SignalBuy:
		if !(stop < req.EntryPrice && req.EntryPrice < target) {
			msg := fmt.Sprintf("BUY requires stop_loss(%.2f) < entry(%.2f) < target(%.2f)",
				stop, req.EntryPrice, target)
			res.Notes = append(res.Notes, "price validation: "+msg)
			return &rejection{ReasonInvalidPriceLevels, msg}
		}
	case SignalSell:
		if !(target < req.EntryPrice && req.EntryPrice < stop) {
			msg := fmt.Sprintf("SELL requires target(%.2f) < entry(%.2f) < stop_loss(%.2f)",
				target, req.EntryPrice, stop)
			res.Notes = append(res.Notes, "price validation: "+msg)
			return &rejection{ReasonInvalidPriceLevels, msg}
		}
	}

	res.Notes = append(res.Notes, "price validation: levels are valid")
	return nil
}

// Stage 4: risk metric computation. Never rejects; always runs once the levels
// are coherent so the result carries metrics even when a later stage fails.
func (v *Validator) computeRiskMetrics(req *SignalRequest, pf *PortfolioState, res *Result) *rejection {
	var riskDistance, rewardDistance float64
	if req.SignalType == SignalBuy {
		riskDistance = req.EntryPrice - *req.StopLoss
		rewardDistance = *req.TargetPrice - req.EntryPrice
	} else {
		riskDistance = *req.StopLoss - req.EntryPrice
		rewardDistance = req.EntryPrice - *req.TargetPrice
	}

	if riskDistance > 0 {
		res.RiskRewardRatio = rewardDistance / riskDistance
	}

	res.RiskDollars = pf.PortfolioValue * v.limits.MaxRiskPerTrade

	if riskDistance > 0 {
		shares := res.RiskDollars / riskDistance
		res.PositionSizeDollars = shares * req.EntryPrice
	}

	maxPositionDollars := pf.PortfolioValue * v.limits.MaxPositionSize
	if res.PositionSizeDollars > maxPositionDollars {
		res.PositionSizeDollars = maxPositionDollars
	}

	if pf.PortfolioValue > 0 {
		res.PositionSizePct = res.PositionSizeDollars / pf.PortfolioValue
	}

	return nil
}

// Stage 5: minimum risk/reward ratio.
func (v *Validator) checkRiskReward(_ *SignalRequest, _ *PortfolioState, res *Result) *rejection {
	if res.RiskRewardRatio < v.limits.MinRiskReward {
		msg := fmt.Sprintf("risk/reward ratio %.2f below minimum %.1f",
			res.RiskRewardRatio, v.limits.MinRiskReward)
		res.Notes = append(res.Notes, "risk/reward: "+msg)
		return &rejection{ReasonRiskRewardUnfavorable, msg}
	}
	res.Notes = append(res.Notes, fmt.Sprintf("risk/reward: %.2f >= %.1f",
		res.RiskRewardRatio, v.limits.MinRiskReward))
	return nil
}

// Stage 6: position size cap.
func (v *Validator) checkPositionSize(_ *SignalRequest, _ *PortfolioState, res *Result) *rejection {
	if res.PositionSizePct > v.limits.MaxPositionSize {
		msg := fmt.Sprintf("position size %.1f%% exceeds %.0f%% limit",
			res.PositionSizePct*100, v.limits.MaxPositionSize*100)
		res.Notes = append(res.Notes, "position sizing: "+msg)
		return &rejection{ReasonPositionTooLarge, msg}
	}
	res.Notes = append(res.Notes, fmt.Sprintf("position sizing: %.1f%% of portfolio, $%.0f at risk",
		res.PositionSizePct*100, res.RiskDollars))
	return nil
}

// Stage 7: concurrent position cap. Evaluated before the drawdown check.
func (v *Validator) checkPositionCount(_ *SignalRequest, pf *PortfolioState, res *Result) *rejection {
	if pf.CurrentPositions >= v.limits.MaxConcurrentPositions {
		msg := fmt.Sprintf("portfolio has %d positions (max %d)",
			pf.CurrentPositions, v.limits.MaxConcurrentPositions)
		res.Notes = append(res.Notes, "max positions: "+msg)
		return &rejection{ReasonMaxPositionsExceeded, msg}
	}
	res.Notes = append(res.Notes, fmt.Sprintf("max positions: %d/%d open",
		pf.CurrentPositions, v.limits.MaxConcurrentPositions))
	return nil
}

// Stage 8: portfolio drawdown circuit breaker. DrawdownPct is percent (0-100).
func (v *Validator) checkDrawdown(_ *SignalRequest, pf *PortfolioState, res *Result) *rejection {
	maxPct := v.limits.MaxPortfolioDrawdown * 100
	if pf.DrawdownPct > maxPct {
		msg := fmt.Sprintf("portfolio drawdown %.1f%% exceeds %.0f%% limit",
			pf.DrawdownPct, maxPct)
		res.Notes = append(res.Notes, "drawdown limit: "+msg)
		return &rejection{ReasonPortfolioInDrawdown, msg}
	}
	res.Notes = append(res.Notes, fmt.Sprintf("drawdown limit: %.1f%% within %.0f%%",
		pf.DrawdownPct, maxPct))
	return nil
}
