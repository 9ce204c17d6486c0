package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteSink, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='ledger'`).Scan(&name)
	assert.NoError(t, err)
	assert.Equal(t, "ledger", name)
}

func TestSQLiteAppendAndList(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	t0 := time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC)
	require.NoError(t, j.Append(Row{Time: t0, Action: "DEPOSIT", Symbol: "500", Reason: "Deposit", PortfolioValue: decimal.NewFromInt(1500)}))
	require.NoError(t, j.Append(Row{Time: t0.Add(time.Minute), Action: "CLOSE", Symbol: "BTC/USDT", Reason: "Settled", PortfolioValue: decimal.NewFromInt(1500)}))
	require.NoError(t, j.Append(Row{Time: t0.Add(2 * time.Hour), Action: "CLOSE", Symbol: "BTC/USDT", Reason: "StopLoss", PortfolioValue: decimal.NewFromInt(1500)}))

	rows, err := j.ListBetween(t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, t0.Equal(rows[0].Time))
	assert.Equal(t, "DEPOSIT", rows[0].Action)
	assert.Equal(t, "500", rows[0].Symbol)
	assert.Equal(t, NotApplicable, rows[0].PnL)
	assert.Equal(t, "1500", rows[0].PortfolioValue.String())
	assert.Equal(t, "Settled", rows[1].Reason)
}
