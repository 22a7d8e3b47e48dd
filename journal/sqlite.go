package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores activity and state snapshots in one database file. The
// handle is shared with the signal ledger through DB.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// One writer keeps :memory: databases coherent and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) DB() *sql.DB { return j.db }

func (j *SQLite) Append(ctx context.Context, a Activity) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO activity
		(id, time, order_id, symbol, side, type, source, mode, status, fill_qty, fill_price, cash_delta, reason, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Time.UTC(), a.OrderID, a.Symbol, string(a.Side), string(a.Type), string(a.Source),
		string(a.Mode), a.Status, a.FillQty, a.FillPrice, a.CashDelta, a.Reason, a.Fingerprint,
	)
	return err
}

func (j *SQLite) List(ctx context.Context) ([]Activity, error) {
	return j.query(ctx, `ORDER BY time ASC, id ASC`)
}

func (j *SQLite) SaveState(ctx context.Context, name string, blob []byte) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO state (name, blob, updated) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET blob = excluded.blob, updated = excluded.updated`,
		name, blob, time.Now().UTC(),
	)
	return err
}

// LoadState returns the blob saved under name, or nil when there is none.
func (j *SQLite) LoadState(ctx context.Context, name string) ([]byte, error) {
	var blob []byte
	err := j.db.QueryRowContext(ctx, `SELECT blob FROM state WHERE name = ?`, name).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return blob, err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
