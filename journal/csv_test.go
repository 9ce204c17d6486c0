package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVSinkWritesHeaderOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bue_log.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)

	ts := time.Unix(1717378215, 0)
	require.NoError(t, j.Append(Row{Time: ts, Action: "DEPOSIT", Symbol: "500", Reason: "Deposit", PortfolioValue: decimal.NewFromInt(1500)}))
	require.NoError(t, j.Append(Row{Time: ts.Add(time.Minute), Action: "CLOSE", Symbol: "BTC/USDT", Reason: "TakeProfit", PortfolioValue: decimal.NewFromInt(1500)}))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"1717378215.000000", "DEPOSIT", "500", "Deposit", "N/A", "1500"}, records[1])
	assert.Equal(t, []string{"1717378275.000000", "CLOSE", "BTC/USDT", "TakeProfit", "N/A", "1500"}, records[2])
}

func TestCSVSinkAppendsToExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bue_log.csv")
	first, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(Row{Time: time.Unix(1, 0), Action: "DEPOSIT", PortfolioValue: decimal.NewFromInt(1)}))

	second, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, second.Append(Row{Time: time.Unix(2, 0), Action: "DEPOSIT", PortfolioValue: decimal.NewFromInt(2)}))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].PortfolioValue.String())
	assert.Equal(t, "2", rows[1].PortfolioValue.String())
}

func TestCSVSinkCreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "bue_log.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(Row{Time: time.Unix(1, 0), Action: "CLOSE", PortfolioValue: decimal.Zero}))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNewCSVRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewCSV("")
	assert.Error(t, err)
}

func TestReadCSVMissingFile(t *testing.T) {
	t.Parallel()

	rows, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSVRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bue_log.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)

	want := Row{
		Time:           time.Unix(1717378215, 250000000),
		Action:         "CLOSE",
		Symbol:         "BTC/USDT",
		Reason:         "StopLoss",
		PnL:            "-3.25",
		PortfolioValue: decimal.RequireFromString("1000.5"),
	}
	require.NoError(t, j.Append(want))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.True(t, want.Time.Equal(got.Time), "time %v != %v", want.Time, got.Time)
	assert.Equal(t, want.Action, got.Action)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Reason, got.Reason)
	assert.Equal(t, want.PnL, got.PnL)
	assert.True(t, want.PortfolioValue.Equal(got.PortfolioValue))
}

func TestReadCSVWithoutHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "legacy.csv")
	legacy := "1717378215.5,DEPOSIT,500,Deposit,N/A,1500\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DEPOSIT", rows[0].Action)
	assert.Equal(t, int64(1717378215500000), rows[0].Time.UnixMicro())
}

func TestReadCSVRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,DEPOSIT,500,Deposit,N/A,1500\n"), 0644))

	_, err := ReadCSV(path)
	assert.Error(t, err)
}
