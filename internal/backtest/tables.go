package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"
)

// dateLayout is the wire format for dates in input tables.
const dateLayout = "2006-01-02"

// defaultConfidence is assigned to prediction rows without a confidence column.
const defaultConfidence = 0.6

// ValidatePredictions checks the prediction table before a run. Structural
// problems abort here rather than mid-loop.
func ValidatePredictions(predictions []Prediction) error {
	if len(predictions) == 0 {
		return fmt.Errorf("predictions table is empty")
	}
	for i, p := range predictions {
		if p.Ticker == "" {
			return fmt.Errorf("predictions row %d: missing ticker", i)
		}
		if p.Date.IsZero() {
			return fmt.Errorf("predictions row %d: missing date", i)
		}
		if p.Signal != SignalShort && p.Signal != SignalHold && p.Signal != SignalLong {
			return fmt.Errorf("predictions row %d: signal must be -1 (short), 0 (hold), or 1 (long), got %d", i, p.Signal)
		}
	}
	return nil
}

// ValidatePrices checks the price table before a run.
func ValidatePrices(prices []PriceBar) error {
	if len(prices) == 0 {
		return fmt.Errorf("prices table is empty")
	}
	for i, p := range prices {
		if p.Ticker == "" {
			return fmt.Errorf("prices row %d: missing ticker", i)
		}
		if p.Date.IsZero() {
			return fmt.Errorf("prices row %d: missing date", i)
		}
		if p.Close <= 0 {
			return fmt.Errorf("prices row %d: prices must be positive, got %.4f", i, p.Close)
		}
	}
	return nil
}

// priceBook indexes price bars for the two lookups the simulation needs: the
// exact close on a given day and the latest close at or before a day.
type priceBook struct {
	byTicker map[string][]PriceBar
}

func newPriceBook(prices []PriceBar) *priceBook {
	book := &priceBook{byTicker: make(map[string][]PriceBar)}
	for _, bar := range prices {
		book.byTicker[bar.Ticker] = append(book.byTicker[bar.Ticker], bar)
	}
	for ticker := range book.byTicker {
		series := book.byTicker[ticker]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})
	}
	return book
}

// closeOn returns the close for ticker on exactly date.
func (b *priceBook) closeOn(ticker string, date time.Time) (float64, bool) {
	series := b.byTicker[ticker]
	idx := sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(date)
	})
	if idx < len(series) && series[idx].Date.Equal(date) {
		return series[idx].Close, true
	}
	return 0, false
}

// latestAtOrBefore returns the most recent close for ticker with date <= the
// given date. This is the only price access the day loop uses for closes, which
// keeps the no-lookahead invariant structural.
func (b *priceBook) latestAtOrBefore(ticker string, date time.Time) (float64, bool) {
	series := b.byTicker[ticker]
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(date)
	})
	if idx == 0 {
		return 0, false
	}
	return series[idx-1].Close, true
}

// LoadPredictionsCSV reads a predictions table from a CSV file with columns
// date,ticker,signal[,confidence]. A missing confidence column defaults each
// row to 0.6.
func LoadPredictionsCSV(path string) ([]Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions header: %w", err)
	}

	cols, err := columnIndex(header, []string{"date", "ticker", "signal"})
	if err != nil {
		return nil, fmt.Errorf("predictions table: %w", err)
	}
	confidenceCol, hasConfidence := cols["confidence"]

	var predictions []Prediction
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("predictions line %d: %w", line, err)
		}

		date, err := time.ParseInLocation(dateLayout, record[cols["date"]], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("predictions line %d: invalid date %q: %w", line, record[cols["date"]], err)
		}
		signal, err := strconv.Atoi(record[cols["signal"]])
		if err != nil {
			return nil, fmt.Errorf("predictions line %d: invalid signal %q: %w", line, record[cols["signal"]], err)
		}

		confidence := defaultConfidence
		if hasConfidence {
			confidence, err = strconv.ParseFloat(record[confidenceCol], 64)
			if err != nil {
				return nil, fmt.Errorf("predictions line %d: invalid confidence %q: %w", line, record[confidenceCol], err)
			}
		}

		predictions = append(predictions, Prediction{
			Date:       date,
			Ticker:     record[cols["ticker"]],
			Signal:     signal,
			Confidence: confidence,
		})
	}

	if err := ValidatePredictions(predictions); err != nil {
		return nil, err
	}
	return predictions, nil
}

// LoadPricesCSV reads a price table from a CSV file with columns
// date,ticker,close_price.
func LoadPricesCSV(path string) ([]PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prices file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read prices header: %w", err)
	}

	cols, err := columnIndex(header, []string{"date", "ticker", "close_price"})
	if err != nil {
		return nil, fmt.Errorf("prices table: %w", err)
	}

	var prices []PriceBar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("prices line %d: %w", line, err)
		}

		date, err := time.ParseInLocation(dateLayout, record[cols["date"]], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("prices line %d: invalid date %q: %w", line, record[cols["date"]], err)
		}
		close, err := strconv.ParseFloat(record[cols["close_price"]], 64)
		if err != nil {
			return nil, fmt.Errorf("prices line %d: invalid close_price %q: %w", line, record[cols["close_price"]], err)
		}

		prices = append(prices, PriceBar{
			Date:   date,
			Ticker: record[cols["ticker"]],
			Close:  close,
		})
	}

	if err := ValidatePrices(prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// columnIndex maps header names to positions and errors on any missing
// required column.
func columnIndex(header []string, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column: %s", name)
		}
	}
	return cols, nil
}
