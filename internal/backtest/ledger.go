package backtest

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Ledger owns the open-position map and the closed-trade log, and is the only
// writer of running capital during a simulation. Keyed by ticker, it enforces
// at most one open position per ticker by construction: opening over an
// existing entry is a no-op.
type Ledger struct {
	cfg       Config
	positions map[string]*Position
	order     []string // tickers in open order, for deterministic iteration
	trades    []Trade
	capital   float64
}

// NewLedger creates a ledger starting from the configured initial capital.
func NewLedger(cfg Config) *Ledger {
	return &Ledger{
		cfg:       cfg,
		positions: make(map[string]*Position),
		capital:   cfg.InitialCapital,
	}
}

// Capital returns the current running capital.
func (l *Ledger) Capital() float64 {
	return l.capital
}

// OpenPositions returns the number of currently open positions.
func (l *Ledger) OpenPositions() int {
	return len(l.positions)
}

// Trades returns the closed-trade log in close order.
func (l *Ledger) Trades() []Trade {
	return l.trades
}

// closeFlipped closes every open position whose ticker has a prediction today
// with a different direction, or a neutral one. Prices come from the latest bar
// at or before the current date, never after it. Runs before any opens.
func (l *Ledger) closeFlipped(date time.Time, dayPredictions []Prediction, book *priceBook) {
	signals := make(map[string]int, len(dayPredictions))
	for _, p := range dayPredictions {
		if _, seen := signals[p.Ticker]; !seen {
			signals[p.Ticker] = p.Signal
		}
	}

	for _, ticker := range append([]string(nil), l.order...) {
		pos, ok := l.positions[ticker]
		if !ok {
			continue
		}

		price, ok := book.latestAtOrBefore(ticker, date)
		if !ok {
			continue
		}

		signal, ok := signals[ticker]
		if !ok {
			continue
		}

		if signal != pos.Signal || signal == SignalHold {
			l.closePosition(ticker, date, price)
		}
	}
}

// openSignals opens positions for today's actionable predictions, in input
// order. Only called on rebalance days.
func (l *Ledger) openSignals(date time.Time, dayPredictions []Prediction, book *priceBook) {
	for _, p := range dayPredictions {
		if p.Confidence < l.cfg.MinConfidence {
			log.Debug().Str("ticker", p.Ticker).Float64("confidence", p.Confidence).
				Msg("skipping low-confidence signal")
			continue
		}
		if p.Signal == SignalHold {
			continue
		}
		if _, open := l.positions[p.Ticker]; open {
			continue
		}

		entryPrice, ok := book.closeOn(p.Ticker, date)
		if !ok {
			continue
		}

		value := l.positionSize(p.Confidence)
		if value <= 0 {
			continue
		}

		shares := value / entryPrice
		l.capital -= value * l.cfg.TransactionCost

		l.positions[p.Ticker] = &Position{
			Ticker:     p.Ticker,
			EntryDate:  date,
			EntryPrice: entryPrice,
			Signal:     p.Signal,
			Shares:     shares,
			Confidence: p.Confidence,
			Value:      value,
		}
		l.order = append(l.order, p.Ticker)

		log.Debug().Str("ticker", p.Ticker).Int("signal", p.Signal).
			Float64("entry", entryPrice).Float64("value", value).
			Msg("opened position")
	}
}

// positionSize computes a confidence-weighted allocation. The factor maps
// confidence 0.5 to 0x and 1.0 to 2x the base allocation; the absolute cap at
// the base bounds the final size.
func (l *Ledger) positionSize(confidence float64) float64 {
	base := l.capital * l.cfg.MaxPositionSize
	factor := (confidence - 0.5) * 2
	size := base * factor

	if size > base {
		size = base
	}
	if size < 0 {
		size = 0
	}
	return size
}

// closeAll force-closes every remaining position at the final available price
// for its ticker. Called once after the last simulated day.
func (l *Ledger) closeAll(date time.Time, book *priceBook) {
	for _, ticker := range append([]string(nil), l.order...) {
		if _, ok := l.positions[ticker]; !ok {
			continue
		}
		price, ok := book.latestAtOrBefore(ticker, date)
		if !ok {
			continue
		}
		l.closePosition(ticker, date, price)
	}
}

// closePosition realizes P&L for one position, applying transaction cost to
// both legs, records the trade, and removes the position from the open map.
func (l *Ledger) closePosition(ticker string, exitDate time.Time, exitPrice float64) {
	pos, ok := l.positions[ticker]
	if !ok {
		return
	}

	cost := l.cfg.TransactionCost
	var pnl float64
	if pos.Signal == SignalLong {
		// Paid shares*entry plus fee, received shares*exit minus fee.
		pnl = pos.Shares*exitPrice*(1-cost) - pos.Shares*pos.EntryPrice*(1+cost)
	} else {
		// Short: received shares*entry minus fee, paid shares*exit plus fee.
		pnl = pos.Shares*pos.EntryPrice*(1-cost) - pos.Shares*exitPrice*(1+cost)
	}

	pnlPct := 0.0
	if pos.Value > 0 {
		pnlPct = pnl / pos.Value
	}

	l.trades = append(l.trades, Trade{
		Ticker:       ticker,
		EntryDate:    pos.EntryDate,
		EntryPrice:   pos.EntryPrice,
		Signal:       pos.Signal,
		ExitDate:     exitDate,
		ExitPrice:    exitPrice,
		Shares:       pos.Shares,
		DurationDays: int(exitDate.Sub(pos.EntryDate).Hours() / 24),
		PnL:          pnl,
		PnLPct:       pnlPct,
	})

	l.capital += pnl
	delete(l.positions, ticker)
	l.removeFromOrder(ticker)

	log.Debug().Str("ticker", ticker).Float64("pnl", pnl).Float64("pnl_pct", pnlPct).
		Msg("closed position")
}

func (l *Ledger) removeFromOrder(ticker string) {
	for i, t := range l.order {
		if t == ticker {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}
