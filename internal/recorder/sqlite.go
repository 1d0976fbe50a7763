package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"FactorBench/internal/model"
)

// SQLiteRecorder persists backtest results to a SQLite database.
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

	// WAL mode so dashboards can read while a run writes.
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
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER,
			method      TEXT,
			factors     TEXT,
			splits      INTEGER,
			status      TEXT,
			note        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS factor_quality (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			split         INTEGER NOT NULL,
			factor        TEXT NOT NULL,
			train_ic_mean REAL,
			train_ic_std  REAL,
			train_ic_ir   REAL,
			train_n       INTEGER,
			orientation   REAL,
			weight        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fq_run ON factor_quality(run_id, split)`,

		`CREATE TABLE IF NOT EXISTS split_performance (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			split      INTEGER NOT NULL,
			test_start INTEGER,
			test_end   INTEGER,
			cost_bps   REAL,
			mean_daily REAL,
			vol_daily  REAL,
			sharpe     REAL,
			days       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_perf_run ON split_performance(run_id, split)`,

		`CREATE TABLE IF NOT EXISTS daily_returns (
			run_id TEXT NOT NULL,
			date   INTEGER NOT NULL,
			ret    REAL,
			PRIMARY KEY (run_id, date)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps NaN and infinities to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// RecordRun inserts the run or updates it when the run id already exists.
func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var finished sql.NullInt64
	if !evt.FinishedAt.IsZero() {
		finished = sql.NullInt64{Int64: evt.FinishedAt.Unix(), Valid: true}
	}
	_, err := r.db.Exec(`INSERT INTO runs
		(run_id, started_at, finished_at, method, factors, splits, status, note)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(run_id) DO UPDATE SET
			finished_at = excluded.finished_at,
			splits      = excluded.splits,
			status      = excluded.status,
			note        = excluded.note`,
		evt.RunID, evt.StartedAt.Unix(), finished, evt.Method,
		strings.Join(evt.Factors, ","), evt.Splits, evt.Status, evt.Note,
	)
	return err
}

func (r *SQLiteRecorder) RecordFactorQuality(runID string, recs []model.FactorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO factor_quality
			(run_id, split, factor, train_ic_mean, train_ic_std, train_ic_ir, train_n, orientation, weight)
			VALUES (?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, rec := range recs {
			if _, err := stmt.Exec(runID, rec.Split, rec.Factor,
				nullable(rec.TrainICMean), nullable(rec.TrainICStd), nullable(rec.TrainICIR),
				rec.TrainN, rec.Orientation, nullable(rec.Weight)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordPerformance(runID string, rows []model.PerformanceRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO split_performance
			(run_id, split, test_start, test_end, cost_bps, mean_daily, vol_daily, sharpe, days)
			VALUES (?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, row := range rows {
			if _, err := stmt.Exec(runID, row.Split, row.TestStart.Unix(), row.TestEnd.Unix(), row.CostBps,
				nullable(row.MeanDaily), nullable(row.VolDaily), nullable(row.Sharpe), row.Days); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordDailyReturns(runID string, s model.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO daily_returns (run_id, date, ret) VALUES (?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, d := range s.Dates {
			if _, err := stmt.Exec(runID, d.Unix(), nullable(s.Values[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// RunStatus returns the recorded status of a run, mainly for inspection and tests.
func (r *SQLiteRecorder) RunStatus(runID string) (string, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var status string
	var finished sql.NullInt64
	err := r.db.QueryRow(`SELECT status, finished_at FROM runs WHERE run_id = ?`, runID).Scan(&status, &finished)
	if err != nil {
		return "", time.Time{}, err
	}
	var at time.Time
	if finished.Valid {
		at = time.Unix(finished.Int64, 0)
	}
	return status, at, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
