package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/order"
)

var csvHeader = []string{
	"id", "time", "order_id", "symbol", "side", "type", "source", "mode",
	"status", "fill_qty", "fill_price", "cash_delta", "reason", "fingerprint",
}

// CSV appends activity to a file. An existing file is appended to.
type CSV struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return &CSV{path: path, f: f, w: w}, nil
}

func (j *CSV) Append(ctx context.Context, a Activity) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.w.Write([]string{
		a.ID,
		a.Time.UTC().Format(time.RFC3339Nano),
		a.OrderID,
		a.Symbol,
		string(a.Side),
		string(a.Type),
		string(a.Source),
		string(a.Mode),
		a.Status,
		a.FillQty.String(),
		a.FillPrice.String(),
		a.CashDelta.String(),
		a.Reason,
		a.Fingerprint,
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

// List reads the file back.
func (j *CSV) List(ctx context.Context) ([]Activity, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]Activity, 0, len(rows)-1)
	for i, row := range rows[1:] {
		a, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", j.path, i+2, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func parseRow(row []string) (Activity, error) {
	if len(row) != len(csvHeader) {
		return Activity{}, fmt.Errorf("want %d fields, got %d", len(csvHeader), len(row))
	}
	ts, err := time.Parse(time.RFC3339Nano, row[1])
	if err != nil {
		return Activity{}, err
	}
	qty, err := decimal.NewFromString(row[9])
	if err != nil {
		return Activity{}, err
	}
	px, err := decimal.NewFromString(row[10])
	if err != nil {
		return Activity{}, err
	}
	cash, err := decimal.NewFromString(row[11])
	if err != nil {
		return Activity{}, err
	}
	return Activity{
		ID:          row[0],
		Time:        ts,
		OrderID:     row[2],
		Symbol:      row[3],
		Side:        order.Side(row[4]),
		Type:        order.Type(row[5]),
		Source:      Source(row[6]),
		Mode:        order.Mode(row[7]),
		Status:      row[8],
		FillQty:     qty,
		FillPrice:   px,
		CashDelta:   cash,
		Reason:      row[12],
		Fingerprint: row[13],
	}, nil
}
