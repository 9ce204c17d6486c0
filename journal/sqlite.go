package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// SQLiteSink keeps the ledger in a single SQLite table with the same
// columns as the CSV layout.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ledger schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

func (j *SQLiteSink) Append(r Row) error {
	rec := r.Record()
	_, err := j.db.Exec(`
		INSERT INTO ledger
		(ts, action, symbol, close_reason, pnl, portfolio_value)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Time.UTC(), r.Action, r.Symbol, r.Reason, rec[4], rec[5],
	)
	return err
}

// ListBetween returns rows with ts in [start, end), oldest first.
func (j *SQLiteSink) ListBetween(start, end time.Time) ([]Row, error) {
	rows, err := j.db.Query(`
		SELECT ts, action, symbol, close_reason, pnl, portfolio_value
		FROM ledger
		WHERE ts >= ? AND ts < ?
		ORDER BY id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			rec   Row
			value string
		)
		if err := rows.Scan(&rec.Time, &rec.Action, &rec.Symbol, &rec.Reason, &rec.PnL, &value); err != nil {
			return nil, err
		}
		if rec.PortfolioValue, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("portfolio_value %q: %w", value, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLiteSink) Close() error {
	return j.db.Close()
}
