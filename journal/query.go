package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const activityColumns = `id, time, order_id, symbol, side, type, source, mode, status, fill_qty, fill_price, cash_delta, reason, fingerprint`

// GetActivity returns a single activity record by ID.
func (j *SQLite) GetActivity(ctx context.Context, id string) (Activity, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activity WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Activity{}, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return Activity{}, err
	}
	return a, nil
}

// ListBetween returns activity whose time is within [start, end).
func (j *SQLite) ListBetween(ctx context.Context, start, end time.Time) ([]Activity, error) {
	return j.query(ctx, `WHERE time >= ? AND time < ? ORDER BY time ASC, id ASC`, start.UTC(), end.UTC())
}

// ListBySymbol returns the activity for one symbol in time order.
func (j *SQLite) ListBySymbol(ctx context.Context, symbol string) ([]Activity, error) {
	return j.query(ctx, `WHERE symbol = ? ORDER BY time ASC, id ASC`, symbol)
}

func (j *SQLite) query(ctx context.Context, tail string, args ...any) ([]Activity, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+activityColumns+` FROM activity `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (Activity, error) {
	var a Activity
	err := s.Scan(
		&a.ID,
		&a.Time,
		&a.OrderID,
		&a.Symbol,
		&a.Side,
		&a.Type,
		&a.Source,
		&a.Mode,
		&a.Status,
		&a.FillQty,
		&a.FillPrice,
		&a.CashDelta,
		&a.Reason,
		&a.Fingerprint,
	)
	return a, err
}
