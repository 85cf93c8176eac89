package usage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"parrot-hq/parrot/pkg/client"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS usage_records (
	request_id    TEXT PRIMARY KEY,
	model         TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	recorded_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_recorded_at ON usage_records(recorded_at);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_records(model);
`

// Record is one persisted usage row.
type Record struct {
	RequestID    string
	Model        string
	InputTokens  int
	OutputTokens int
	RecordedAt   time.Time
}

// Ledger persists per-request usage rows to a SQLite database. It
// implements client.UsageRecorder; persistence failures are logged
// rather than surfaced, since bookkeeping must never fail a request.
//
// The ledger uses WAL journaling for concurrent read performance and a
// single writer connection, which is all SQLite supports anyway.
type Ledger struct {
	db        *sql.DB
	logger    *slog.Logger
	closeOnce sync.Once

	insertStmt *sql.Stmt
}

// OpenLedger opens or creates the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	insertStmt, err := db.Prepare(`
		INSERT OR REPLACE INTO usage_records
			(request_id, model, input_tokens, output_tokens, recorded_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	return &Ledger{
		db:         db,
		logger:     slog.Default().With("component", "usage.ledger"),
		insertStmt: insertStmt,
	}, nil
}

// Record persists one request's usage row.
func (l *Ledger) Record(requestID, model string, usage client.Usage) {
	_, err := l.insertStmt.Exec(requestID, model,
		usage.PromptTokens, usage.CompletionTokens, time.Now().UTC())
	if err != nil {
		l.logger.Error("failed to persist usage record",
			"error", err,
			"request_id", requestID,
			"model", model,
		)
	}
}

// Recent returns up to limit rows, newest first.
func (l *Ledger) Recent(limit int) ([]Record, error) {
	rows, err := l.db.Query(`
		SELECT request_id, model, input_tokens, output_tokens, recorded_at
		FROM usage_records
		ORDER BY recorded_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.RequestID, &r.Model,
			&r.InputTokens, &r.OutputTokens, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ModelTotals sums the persisted rows for one model.
func (l *Ledger) ModelTotals(model string) (Totals, error) {
	var tot Totals
	err := l.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		FROM usage_records
		WHERE model = ?`, model).
		Scan(&tot.Requests, &tot.InputTokens, &tot.OutputTokens)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to sum usage records: %w", err)
	}
	return tot, nil
}

// Prune deletes rows recorded before the cutoff and returns the number
// of rows removed.
func (l *Ledger) Prune(cutoff time.Time) (int64, error) {
	res, err := l.db.Exec(`DELETE FROM usage_records WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database handle. Safe to call more than once.
func (l *Ledger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.insertStmt.Close()
		err = l.db.Close()
	})
	return err
}
