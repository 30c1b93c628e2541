package backtest

import (
	"math"
)

// tradingDays is the annualization basis for return and volatility figures.
const tradingDays = 252

// epsilon guards every ratio denominator. Degenerate inputs (constant equity,
// zero losing trades) then produce stable near-infinite values instead of NaN,
// and outputs stay bit-comparable across runs.
const epsilon = 1e-8

// CalculateSummary derives the full performance statistics block from an
// equity curve and its trade log. The equity slice must include the pre-run
// initial capital as its first sample.
func CalculateSummary(equity []float64, trades []Trade, riskFreeRate float64) Summary {
	var s Summary
	if len(equity) < 2 {
		return s
	}

	returns := dailyReturns(equity)
	n := float64(len(returns))

	s.TotalReturn = (equity[len(equity)-1] - equity[0]) / equity[0]
	s.AnnualReturn = math.Pow(1+s.TotalReturn, tradingDays/n) - 1
	s.Volatility = stdDev(returns) * math.Sqrt(tradingDays)

	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - riskFreeRate/tradingDays
	}
	s.SharpeRatio = mean(excess) / (stdDev(excess) + epsilon) * math.Sqrt(tradingDays)

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downsideVol := 0.0
	if len(downside) > 0 {
		downsideVol = stdDev(downside) * math.Sqrt(tradingDays)
	}
	s.SortinoRatio = mean(excess) / (downsideVol + epsilon) * math.Sqrt(tradingDays)

	s.MaxDrawdown = maxDrawdown(returns)
	s.CalmarRatio = s.AnnualReturn / (math.Abs(s.MaxDrawdown) + epsilon)

	fillTradeStats(&s, trades)
	return s
}

// fillTradeStats populates win/loss statistics. With no trades every figure
// stays zero.
func fillTradeStats(s *Summary, trades []Trade) {
	s.NumTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var wins, losses int
	var totalWins, totalLosses float64
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			wins++
			totalWins += t.PnL
		case t.PnL < 0:
			losses++
			totalLosses += -t.PnL
		}
	}

	s.NumWinningTrades = wins
	s.NumLosingTrades = losses
	s.WinRate = float64(wins) / float64(len(trades))

	if totalLosses > 0 {
		s.ProfitFactor = totalWins / (totalLosses + epsilon)
	} else {
		s.ProfitFactor = math.Inf(1)
	}

	if wins > 0 {
		s.AvgWin = totalWins / (float64(wins) + epsilon)
	}
	if losses > 0 {
		s.AvgLoss = totalLosses / (float64(losses) + epsilon)
	}

	if s.AvgLoss != 0 {
		s.WinLossRatio = math.Abs(s.AvgWin / (s.AvgLoss + epsilon))
	} else {
		s.WinLossRatio = math.Inf(1)
	}
}

// dailyReturns is the simple percentage change between consecutive samples.
func dailyReturns(equity []float64) []float64 {
	returns := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		returns[i-1] = (equity[i] - equity[i-1]) / equity[i-1]
	}
	return returns
}

// maxDrawdown is the most negative peak-to-trough decline of the cumulative
// return product. Always <= 0.
func maxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := 1.0
	runningMax := math.Inf(-1)
	worst := math.Inf(1)
	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > runningMax {
			runningMax = cumulative
		}
		drawdown := (cumulative - runningMax) / runningMax
		if drawdown < worst {
			worst = drawdown
		}
	}
	return worst
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
