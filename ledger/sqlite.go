package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const Schema = `
CREATE TABLE IF NOT EXISTS ledger (
	fingerprint TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	kind TEXT NOT NULL,
	signal_id TEXT NOT NULL,
	bucket TEXT NOT NULL,
	outcome TEXT NOT NULL,
	order_id TEXT NOT NULL DEFAULT '',
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_bucket ON ledger(bucket);
`

// SQLite is a Ledger backed by a table in db. The PRIMARY KEY on
// fingerprint makes Reserve an atomic insert-if-absent.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates the ledger table in db if needed. The caller owns db.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("ledger schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (l *SQLite) Reserve(ctx context.Context, e Entry) (Result, error) {
	if err := validate(e); err != nil {
		return Accepted, err
	}
	if e.Outcome == "" {
		e.Outcome = Reserved
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO ledger
		(fingerprint, symbol, kind, signal_id, bucket, outcome, order_id, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Fingerprint, e.Symbol, e.Kind, e.SignalID, e.Bucket, string(e.Outcome), e.OrderID, e.Time.UTC(),
	)
	if err != nil {
		return Accepted, fmt.Errorf("ledger reserve %q: %w", e.Fingerprint, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Accepted, err
	}
	if n == 1 {
		return Accepted, nil
	}
	return Duplicate, nil
}

func (l *SQLite) Resolve(ctx context.Context, fingerprint string, outcome Outcome, orderID string) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE ledger SET outcome = ?, order_id = ? WHERE fingerprint = ?`,
		string(outcome), orderID, fingerprint)
	if err != nil {
		return fmt.Errorf("ledger resolve %q: %w", fingerprint, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *SQLite) Release(ctx context.Context, fingerprint string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM ledger WHERE fingerprint = ?`, fingerprint)
	return err
}

func (l *SQLite) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT fingerprint, symbol, kind, signal_id, bucket, outcome, order_id, time
		FROM ledger
		ORDER BY time ASC, fingerprint ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			outcome string
		)
		if err := rows.Scan(
			&e.Fingerprint,
			&e.Symbol,
			&e.Kind,
			&e.SignalID,
			&e.Bucket,
			&outcome,
			&e.OrderID,
			&e.Time,
		); err != nil {
			return nil, err
		}
		e.Outcome = Outcome(outcome)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *SQLite) Prune(ctx context.Context, beforeBucket string) (int, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM ledger WHERE bucket < ?`, beforeBucket)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
