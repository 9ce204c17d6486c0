package journal

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Filter keeps rows whose symbol is in symbols and whose close reason is
// in reasons. An empty list matches everything.
func Filter(rows []Row, symbols, reasons []string) []Row {
	sym := toSet(symbols)
	rsn := toSet(reasons)

	var out []Row
	for _, r := range rows {
		if len(sym) > 0 && !sym[r.Symbol] {
			continue
		}
		if len(rsn) > 0 && !rsn[r.Reason] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// EquityPoint is one sample of the portfolio value series.
type EquityPoint struct {
	Time  time.Time
	Value decimal.Decimal
}

// EquitySeries sums portfolio values per timestamp, in time order.
func EquitySeries(rows []Row) []EquityPoint {
	var out []EquityPoint
	index := map[int64]int{}
	for _, r := range rows {
		key := r.Time.UnixMicro()
		if i, ok := index[key]; ok {
			out[i].Value = out[i].Value.Add(r.PortfolioValue)
			continue
		}
		index[key] = len(out)
		out = append(out, EquityPoint{Time: r.Time, Value: r.PortfolioValue})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// Distinct lists the unique values of a column in first-seen order.
func Distinct(rows []Row, col func(Row) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		v := col(r)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}
