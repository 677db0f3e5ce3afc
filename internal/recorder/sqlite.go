package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"CoinSentinel/internal/backtest"
	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
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
	// One connection: the bot is the only writer and ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_runs (
			id            TEXT PRIMARY KEY,
			job           TEXT NOT NULL,
			started_at    INTEGER NOT NULL,
			finished_at   INTEGER,
			status        TEXT,
			coins_fetched INTEGER,
			signals       INTEGER,
			buys          INTEGER,
			sells         INTEGER,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_job_started ON signal_runs(job, started_at)`,

		`CREATE TABLE IF NOT EXISTS transitions (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL,
			day      TEXT NOT NULL,
			symbol   TEXT NOT NULL,
			action   TEXT NOT NULL,
			price    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_day ON transitions(day)`,

		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id              TEXT NOT NULL,
			symbol              TEXT NOT NULL,
			day                 TEXT NOT NULL,
			action              TEXT NOT NULL,
			price               TEXT,
			quantity            TEXT,
			profit_loss         TEXT,
			profit_loss_percent TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backtest_run ON backtest_trades(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts or updates a run.
func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var finished sql.NullInt64
	if !run.FinishedAt.IsZero() {
		finished = sql.NullInt64{Int64: run.FinishedAt.Unix(), Valid: true}
	}
	_, err := r.db.Exec(`INSERT INTO signal_runs
		(id, job, started_at, finished_at, status, coins_fetched, signals, buys, sells, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at=excluded.finished_at, status=excluded.status,
			coins_fetched=excluded.coins_fetched, signals=excluded.signals,
			buys=excluded.buys, sells=excluded.sells, error=excluded.error`,
		run.ID, run.Job, run.StartedAt.Unix(), finished, run.Status,
		run.CoinsFetched, run.Signals, run.Buys, run.Sells, run.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordTransitions(runID string, day time.Time, transitions model.Transitions, prices map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	d := model.Day(day).Format("2006-01-02")
	for _, sym := range transitions.Symbols() {
		if _, err := tx.Exec(`INSERT INTO transitions (run_id, day, symbol, action, price) VALUES (?,?,?,?,?)`,
			runID, d, sym, string(transitions[sym]), prices[sym]); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert transition %s: %w", sym, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordBacktest(runID string, report backtest.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, t := range report.Trades {
		var pl, pct sql.NullString
		if t.Action == model.ActionSell {
			pl = sql.NullString{String: t.ProfitLoss.String(), Valid: true}
			pct = sql.NullString{String: t.ProfitLossPercent.String(), Valid: true}
		}
		if _, err := tx.Exec(`INSERT INTO backtest_trades
			(run_id, symbol, day, action, price, quantity, profit_loss, profit_loss_percent)
			VALUES (?,?,?,?,?,?,?,?)`,
			runID, t.Symbol, model.Day(t.Date).Format("2006-01-02"), string(t.Action),
			t.Price.String(), t.Quantity.String(), pl, pct); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert backtest trade: %w", err)
		}
	}
	return tx.Commit()
}

// LastRun returns the most recently started run for job.
func (r *SQLiteRecorder) LastRun(job string) (*RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		run      RunRecord
		started  int64
		finished sql.NullInt64
		status   sql.NullString
		errText  sql.NullString
	)
	err := r.db.QueryRow(`SELECT id, job, started_at, finished_at, status, coins_fetched, signals, buys, sells, error
		FROM signal_runs WHERE job = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, job).
		Scan(&run.ID, &run.Job, &started, &finished, &status, &run.CoinsFetched, &run.Signals, &run.Buys, &run.Sells, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	run.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		run.FinishedAt = time.Unix(finished.Int64, 0).UTC()
	}
	run.Status = status.String
	run.Error = errText.String
	return &run, nil
}

// CountTransitions returns the number of stored transitions for a day.
func (r *SQLiteRecorder) CountTransitions(day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM transitions WHERE day = ?`, model.Day(day).Format("2006-01-02")).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	logger.Info("closing sqlite recorder")
	return r.db.Close()
}
