package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"BreakoutScanner/internal/model"
)

// SQLiteRecorder persists scan runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while scans write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id                   TEXT PRIMARY KEY,
			created_at           INTEGER NOT NULL,
			symbol               TEXT NOT NULL,
			start_date           TEXT,
			end_date             TEXT,
			volume_threshold_pct REAL,
			price_threshold_pct  REAL,
			holding_period_days  INTEGER,
			bars                 INTEGER,
			skipped              INTEGER,
			total_trades         INTEGER,
			win_rate             REAL,
			average_return       REAL,
			max_return           REAL,
			min_return           REAL,
			std_dev              REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON scan_runs(symbol, created_at)`,

		`CREATE TABLE IF NOT EXISTS scan_trades (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL REFERENCES scan_runs(id),
			seq          INTEGER NOT NULL,
			entry_date   TEXT,
			entry_price  REAL,
			exit_date    TEXT,
			exit_price   REAL,
			return_pct   REAL,
			volume_ratio REAL,
			entry_index  INTEGER,
			exit_index   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON scan_trades(run_id, seq)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	s := run.Summary
	if _, err := tx.Exec(`INSERT INTO scan_runs
		(id, created_at, symbol, start_date, end_date,
		 volume_threshold_pct, price_threshold_pct, holding_period_days,
		 bars, skipped, total_trades, win_rate, average_return, max_return, min_return, std_dev)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.CreatedAt.Unix(), run.Symbol,
		run.Start.Format(model.DateLayout), run.End.Format(model.DateLayout),
		run.Params.VolumeThresholdPct, run.Params.PriceThresholdPct, run.Params.HoldingPeriodDays,
		run.Bars, run.Skipped,
		s.TotalTrades, s.WinRate, s.AverageReturn, s.MaxReturn, s.MinReturn, s.StdDev,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, tr := range run.Trades {
		if _, err := tx.Exec(`INSERT INTO scan_trades
			(run_id, seq, entry_date, entry_price, exit_date, exit_price, return_pct, volume_ratio, entry_index, exit_index)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			run.ID, i,
			tr.EntryDate.Format(model.DateLayout), tr.EntryPrice,
			tr.ExitDate.Format(model.DateLayout), tr.ExitPrice,
			tr.ReturnPct, tr.VolumeRatio, tr.EntryIndex, tr.ExitIndex,
		); err != nil {
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs for symbol, newest first, with their trades.
func (r *SQLiteRecorder) RecentRuns(symbol string, limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, created_at, symbol, start_date, end_date,
		volume_threshold_pct, price_threshold_pct, holding_period_days, bars, skipped,
		total_trades, win_rate, average_return, max_return, min_return, std_dev
		FROM scan_runs WHERE symbol = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	var runs []RunRecord
	for rows.Next() {
		var (
			run        RunRecord
			createdAt  int64
			start, end string
		)
		if err := rows.Scan(&run.ID, &createdAt, &run.Symbol, &start, &end,
			&run.Params.VolumeThresholdPct, &run.Params.PriceThresholdPct, &run.Params.HoldingPeriodDays,
			&run.Bars, &run.Skipped,
			&run.Summary.TotalTrades, &run.Summary.WinRate, &run.Summary.AverageReturn,
			&run.Summary.MaxReturn, &run.Summary.MinReturn, &run.Summary.StdDev); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt = time.Unix(createdAt, 0).UTC()
		run.Start, _ = time.Parse(model.DateLayout, start)
		run.End, _ = time.Parse(model.DateLayout, end)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		trades, err := r.loadTrades(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Trades = trades
	}
	return runs, nil
}

func (r *SQLiteRecorder) loadTrades(runID string) ([]model.TradeRecord, error) {
	rows, err := r.db.Query(`SELECT entry_date, entry_price, exit_date, exit_price,
		return_pct, volume_ratio, entry_index, exit_index
		FROM scan_trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []model.TradeRecord
	for rows.Next() {
		var (
			tr                  model.TradeRecord
			entryDate, exitDate string
		)
		if err := rows.Scan(&entryDate, &tr.EntryPrice, &exitDate, &tr.ExitPrice,
			&tr.ReturnPct, &tr.VolumeRatio, &tr.EntryIndex, &tr.ExitIndex); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		tr.EntryDate, _ = time.Parse(model.DateLayout, entryDate)
		tr.ExitDate, _ = time.Parse(model.DateLayout, exitDate)
		tr.HoldingDays = tr.ExitIndex - tr.EntryIndex
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
