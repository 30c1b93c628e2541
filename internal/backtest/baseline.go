package backtest

import (
	"math"
	"sort"
)

// BuyAndHold computes the unmanaged baseline for the reference instrument: buy
// at its first observation, hold to its last. The reference is the first ticker
// encountered in the price table. Returns nil when the reference has fewer than
// two observations.
func BuyAndHold(prices []PriceBar) *Baseline {
	if len(prices) == 0 {
		return nil
	}

	ticker := prices[0].Ticker
	var series []PriceBar
	for _, bar := range prices {
		if bar.Ticker == ticker {
			series = append(series, bar)
		}
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	if len(series) < 2 {
		return nil
	}

	closes := make([]float64, len(series))
	for i, bar := range series {
		closes[i] = bar.Close
	}
	returns := dailyReturns(closes)

	return &Baseline{
		Strategy:    "buy_and_hold",
		Ticker:      ticker,
		TotalReturn: (closes[len(closes)-1] - closes[0]) / closes[0],
		Volatility:  stdDev(returns) * math.Sqrt(tradingDays),
		SharpeRatio: mean(returns) / (stdDev(returns) + epsilon) * math.Sqrt(tradingDays),
		MaxDrawdown: maxDrawdown(returns),
	}
}
