package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// BinanceURL is the public spot REST endpoint.
	BinanceURL = "https://api.binance.com"
)

// Client polls the Binance 24h ticker endpoint, which carries last, bid
// and ask in one response.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = BinanceURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type ticker24hr struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	BidPrice  string `json:"bidPrice"`
	AskPrice  string `json:"askPrice"`
	CloseTime int64  `json:"closeTime"`
}

// Ticker fetches the current snapshot for pair, e.g. "BTC/USDT".
func (c *Client) Ticker(ctx context.Context, pair string) (Ticker, error) {
	if pair == "" {
		return Ticker{}, fmt.Errorf("pair is required")
	}

	params := url.Values{}
	params.Set("symbol", Symbol(pair))
	apiURL := fmt.Sprintf("%s/api/v3/ticker/24hr?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Ticker{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Ticker{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Ticker{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var raw ticker24hr
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Ticker{}, fmt.Errorf("decode response: %w", err)
	}

	t, err := parseTicker(pair, raw.LastPrice, raw.BidPrice, raw.AskPrice, raw.CloseTime)
	if err != nil {
		return Ticker{}, err
	}
	return t, nil
}

func parseTicker(pair, last, bid, ask string, ms int64) (Ticker, error) {
	l, err := strconv.ParseFloat(last, 64)
	if err != nil {
		return Ticker{}, fmt.Errorf("parse last price: %w", err)
	}
	b, err := strconv.ParseFloat(bid, 64)
	if err != nil {
		return Ticker{}, fmt.Errorf("parse bid price: %w", err)
	}
	a, err := strconv.ParseFloat(ask, 64)
	if err != nil {
		return Ticker{}, fmt.Errorf("parse ask price: %w", err)
	}

	t := Ticker{Pair: pair, Last: l, Bid: b, Ask: a, Time: time.UnixMilli(ms)}
	if ms == 0 {
		t.Time = time.Now()
	}
	if err := t.Validate(); err != nil {
		return Ticker{}, err
	}
	return t, nil
}
