package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/HarshilMaks/TFT-Stock-Trader/internal/backtest"
	"github.com/HarshilMaks/TFT-Stock-Trader/internal/persistence"
)

// runsRepo implements persistence.RunsRepo for PostgreSQL.
type runsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRunsRepo creates a PostgreSQL-backed runs repository.
func NewRunsRepo(db *sqlx.DB, timeout time.Duration) persistence.RunsRepo {
	return &runsRepo{
		db:      db,
		timeout: timeout,
	}
}

// SaveRun stores the run row for a completed report.
func (r *runsRepo) SaveRun(ctx context.Context, report *backtest.Report) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	s := report.Summary
	query := `
		INSERT INTO backtest_runs
			(run_id, model, started_at, completed_at, final_capital, total_return,
			 sharpe_ratio, max_drawdown, num_trades, win_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		report.RunID, s.Model, report.StartedAt, report.CompletedAt,
		s.FinalCapital, s.TotalReturn, s.SharpeRatio, s.MaxDrawdown,
		s.NumTrades, s.WinRate)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate run %s: %w", report.RunID, err)
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// SaveTrades stores the closed-trade log for a run atomically.
func (r *runsRepo) SaveTrades(ctx context.Context, runID string, trades []backtest.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(trades)/100+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO backtest_trades
			(run_id, ticker, entry_date, entry_price, signal, exit_date, exit_price,
			 shares, duration_days, pnl, pnl_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		_, err := stmt.ExecContext(ctx,
			runID, t.Ticker, t.EntryDate, t.EntryPrice, t.Signal,
			t.ExitDate, t.ExitPrice, t.Shares, t.DurationDays, t.PnL, t.PnLPct)
		if err != nil {
			return fmt.Errorf("failed to insert trade for %s: %w", t.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trades: %w", err)
	}
	return nil
}

// GetRun retrieves one run by ID.
func (r *runsRepo) GetRun(ctx context.Context, runID string) (*persistence.BacktestRun, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var run persistence.BacktestRun
	query := `
		SELECT run_id, model, started_at, completed_at, final_capital, total_return,
		       sharpe_ratio, max_drawdown, num_trades, win_rate, created_at
		FROM backtest_runs
		WHERE run_id = $1`

	if err := r.db.GetContext(ctx, &run, query, runID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (r *runsRepo) ListRuns(ctx context.Context, limit int) ([]persistence.BacktestRun, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	var runs []persistence.BacktestRun
	query := `
		SELECT run_id, model, started_at, completed_at, final_capital, total_return,
		       sharpe_ratio, max_drawdown, num_trades, win_rate, created_at
		FROM backtest_runs
		ORDER BY completed_at DESC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetTrades retrieves the trade log for a run in close order.
func (r *runsRepo) GetTrades(ctx context.Context, runID string) ([]backtest.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(ctx, `
		SELECT ticker, entry_date, entry_price, signal, exit_date, exit_price,
		       shares, duration_days, pnl, pnl_pct
		FROM backtest_trades
		WHERE run_id = $1
		ORDER BY exit_date, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		if err := rows.Scan(&t.Ticker, &t.EntryDate, &t.EntryPrice, &t.Signal,
			&t.ExitDate, &t.ExitPrice, &t.Shares, &t.DurationDays, &t.PnL, &t.PnLPct); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
