package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickerSpread(t *testing.T) {
	t.Parallel()

	tk := Ticker{Last: 100, Bid: 100, Ask: 100.05}
	assert.InDelta(t, 0.0005, tk.Spread(), 1e-12)

	wide := Ticker{Last: 100, Bid: 100, Ask: 100.2}
	assert.Greater(t, wide.Spread(), 0.001)
}

func TestTickerValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Ticker{Last: 1, Bid: 1, Ask: 1}.Validate())
	assert.ErrorIs(t, Ticker{Last: 0, Bid: 1, Ask: 1}.Validate(), ErrInvalidQuote)
	assert.ErrorIs(t, Ticker{Last: 1, Bid: 0, Ask: 1}.Validate(), ErrInvalidQuote)
	assert.ErrorIs(t, Ticker{Last: 1, Bid: 2, Ask: 1}.Validate(), ErrInvalidQuote)
}

func TestSymbol(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "BTCUSDT", Symbol("BTC/USDT"))
	assert.Equal(t, "ETHUSDT", Symbol("eth/usdt"))
	assert.Equal(t, "BTCUSDT", Symbol("BTCUSDT"))
}
