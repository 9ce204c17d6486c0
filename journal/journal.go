// Package journal is the durable side of the bot: the append-only ledger
// of account events and the daily trade-log snapshots.
package journal

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// NotApplicable fills the pnl column for rows that carry no pnl.
const NotApplicable = "N/A"

// Header is the ledger column layout consumed by the dashboard. It must
// stay stable.
var Header = []string{"timestamp", "action", "symbol", "close_reason", "pnl", "portfolio_value"}

// Row is one ledger line.
type Row struct {
	Time           time.Time
	Action         string
	Symbol         string
	Reason         string
	PnL            string
	PortfolioValue decimal.Decimal
}

// Sink appends rows to durable storage. One call, one attempt.
type Sink interface {
	Append(Row) error
	Close() error
}

// Record returns r as ledger columns.
func (r Row) Record() []string {
	pnl := r.PnL
	if pnl == "" {
		pnl = NotApplicable
	}
	return []string{
		unixSeconds(r.Time),
		r.Action,
		r.Symbol,
		r.Reason,
		pnl,
		r.PortfolioValue.String(),
	}
}

func unixSeconds(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64)
}

func parseUnixSeconds(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(int64(f*1e6 + 0.5)), nil
}
