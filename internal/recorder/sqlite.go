package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the HTTP API can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                 TEXT PRIMARY KEY,
			timestamp          INTEGER NOT NULL,
			duration_ms        INTEGER,
			tickers_file       TEXT,
			reporting_currency TEXT,
			succeeded          INTEGER,
			failed             INTEGER,
			total_value        TEXT,
			outputs            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS run_securities (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL REFERENCES runs(id),
			position        INTEGER,
			symbol          TEXT NOT NULL,
			price           REAL,
			currency        TEXT,
			fx_rate         REAL,
			reporting_value TEXT,
			payload         BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_securities_run ON run_securities(run_id)`,

		`CREATE TABLE IF NOT EXISTS run_failures (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			symbol TEXT NOT NULL,
			error  TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS fx_rates (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL REFERENCES runs(id),
			currency TEXT NOT NULL,
			rate     REAL,
			degraded INTEGER
		)`,
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

	batch := run.Batch
	_, err = tx.Exec(`INSERT INTO runs
		(id, timestamp, duration_ms, tickers_file, reporting_currency, succeeded, failed, total_value, outputs)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.Duration.Milliseconds(), run.TickersFile,
		batch.Rates.Reporting(), len(batch.Securities), len(batch.Failures),
		run.TotalValue.String(), strings.Join(run.Outputs, "\n"),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i := range batch.Securities {
		m := &batch.Securities[i]
		payload, err := encodeSnapshot(m)
		if err != nil {
			return fmt.Errorf("encode %s: %w", m.Symbol, err)
		}
		var value any
		if v := m.ReportingValue(); v.Valid {
			value = v.Decimal.String()
		}
		if _, err := tx.Exec(`INSERT INTO run_securities
			(run_id, position, symbol, price, currency, fx_rate, reporting_value, payload)
			VALUES (?,?,?,?,?,?,?,?)`,
			run.ID, i, m.Symbol, m.CurrentPrice, m.Currency, m.FxRate, value, payload,
		); err != nil {
			return fmt.Errorf("insert security %s: %w", m.Symbol, err)
		}
	}

	for _, f := range batch.Failures {
		if _, err := tx.Exec(`INSERT INTO run_failures (run_id, symbol, error) VALUES (?,?,?)`,
			run.ID, f.Symbol, f.Error,
		); err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Symbol, err)
		}
	}

	for _, cur := range batch.Rates.Currencies() {
		if _, err := tx.Exec(`INSERT INTO fx_rates (run_id, currency, rate, degraded) VALUES (?,?,?,?)`,
			run.ID, cur, batch.Rates.Rate(cur), batch.Rates.Degraded(cur),
		); err != nil {
			return fmt.Errorf("insert fx rate %s: %w", cur, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("run", run.ID).Int("securities", len(batch.Securities)).Msg("run recorded")
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT id, timestamp, duration_ms, tickers_file, reporting_currency,
		succeeded, failed, total_value, outputs
		FROM runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s       RunSummary
			ts      int64
			total   string
			outputs string
		)
		if err := rows.Scan(&s.ID, &ts, &s.DurationMs, &s.TickersFile, &s.ReportingCurrency,
			&s.Succeeded, &s.Failed, &total, &outputs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.StartedAt = time.Unix(ts, 0)
		if s.TotalValue, err = decimal.NewFromString(total); err != nil {
			s.TotalValue = decimal.Zero
		}
		if outputs != "" {
			s.Outputs = strings.Split(outputs, "\n")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RunSecurities returns the recorded securities of a run in input order.
func (r *SQLiteRecorder) RunSecurities(runID string) ([]SecurityRow, error) {
	rows, err := r.db.Query(`SELECT symbol, price, currency, fx_rate, reporting_value, payload
		FROM run_securities WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query securities: %w", err)
	}
	defer rows.Close()

	var out []SecurityRow
	for rows.Next() {
		var (
			row     SecurityRow
			value   sql.NullString
			payload []byte
		)
		if err := rows.Scan(&row.Symbol, &row.Price, &row.Currency, &row.FxRate, &value, &payload); err != nil {
			return nil, fmt.Errorf("scan security: %w", err)
		}
		if value.Valid {
			if d, err := decimal.NewFromString(value.String); err == nil {
				row.ReportingValue = decimal.NewNullDecimal(d)
			}
		}
		if row.Snapshot, err = decodeSnapshot(payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", row.Symbol, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
