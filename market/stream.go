package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// BinanceStreamURL is the public spot websocket endpoint.
	BinanceStreamURL = "wss://stream.binance.com:9443"

	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// Stream keeps the latest ticker for each subscribed pair from the Binance
// 24h ticker stream. It reconnects with exponential backoff until stopped.
type Stream struct {
	baseURL string
	pairs   map[string]string // exchange symbol -> pair

	mu     sync.RWMutex
	latest map[string]Ticker
	conn   *websocket.Conn

	cancel context.CancelFunc
	wg     sync.WaitGroup

	ReadTimeout time.Duration
	MaxAge      time.Duration
	Logger      *slog.Logger
}

func NewStream(baseURL string, pairs ...string) *Stream {
	if baseURL == "" {
		baseURL = BinanceStreamURL
	}
	s := &Stream{
		baseURL:     strings.TrimRight(baseURL, "/"),
		pairs:       make(map[string]string, len(pairs)),
		latest:      make(map[string]Ticker),
		ReadTimeout: 60 * time.Second,
		MaxAge:      2 * time.Minute,
		Logger:      slog.Default(),
	}
	for _, p := range pairs {
		s.pairs[Symbol(p)] = p
	}
	return s
}

// URL is the combined-stream endpoint for the subscribed pairs.
func (s *Stream) URL() string {
	streams := make([]string, 0, len(s.pairs))
	for sym := range s.pairs {
		streams = append(streams, strings.ToLower(sym)+"@ticker")
	}
	return s.baseURL + "/stream?streams=" + strings.Join(streams, "/")
}

// Start launches the connection loop.
func (s *Stream) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.runLoop(ctx)
}

// Stop closes the connection and waits for the loop to exit.
func (s *Stream) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.close()
	s.wg.Wait()
}

// Ticker returns the latest quote for pair.
func (s *Stream) Ticker(ctx context.Context, pair string) (Ticker, error) {
	if err := ctx.Err(); err != nil {
		return Ticker{}, err
	}

	s.mu.RLock()
	t, ok := s.latest[Symbol(pair)]
	s.mu.RUnlock()

	if !ok {
		return Ticker{}, fmt.Errorf("%w: %s", ErrNoQuote, pair)
	}
	if s.MaxAge > 0 && time.Since(t.Time) > s.MaxAge {
		return Ticker{}, fmt.Errorf("%w: %s quote is %s old", ErrNoQuote, pair, time.Since(t.Time).Round(time.Second))
	}
	return t, nil
}

func (s *Stream) runLoop(ctx context.Context) {
	defer s.wg.Done()
	retry := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connect(ctx); err != nil {
			delay := backoff(retry)
			s.Logger.Warn("ticker stream connect failed", "err", err, "retry", retry, "delay", delay)
			retry++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0
		s.process()
	}
}

func (s *Stream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.URL(), nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.Logger.Info("ticker stream connected", "pairs", len(s.pairs))
	return nil
}

func (s *Stream) process() {
	for {
		s.mu.RLock()
		c := s.conn
		s.mu.RUnlock()
		if c == nil {
			return
		}

		if s.ReadTimeout > 0 {
			c.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		}
		_, msg, err := c.ReadMessage()
		if err != nil {
			s.Logger.Warn("ticker stream read failed", "err", err)
			s.close()
			return
		}

		if err := s.handle(msg); err != nil {
			s.Logger.Debug("ticker stream message skipped", "err", err)
		}
	}
}

// streamEvent is a 24h ticker event. Binance uses case-distinct keys
// (b bid price, B bid qty, ...), so every colliding key is declared to
// stop encoding/json from folding them onto one field.
type streamEvent struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Last      string `json:"c"`
	CloseTime int64  `json:"C"`
	Bid       string `json:"b"`
	BidQty    string `json:"B"`
	Ask       string `json:"a"`
	AskQty    string `json:"A"`
}

type combinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

func (s *Stream) handle(msg []byte) error {
	var wrapped combinedMessage
	if err := json.Unmarshal(msg, &wrapped); err != nil {
		return err
	}
	payload := msg
	if len(wrapped.Data) > 0 {
		payload = wrapped.Data
	}

	var ev streamEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	pair, ok := s.pairs[ev.Symbol]
	if !ok {
		return fmt.Errorf("unsubscribed symbol %q", ev.Symbol)
	}

	t, err := parseTicker(pair, ev.Last, ev.Bid, ev.Ask, ev.EventTime)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.latest[ev.Symbol] = t
	s.mu.Unlock()
	return nil
}

func (s *Stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// backoff doubles from one second up to a minute.
func backoff(retry int) time.Duration {
	if retry < 0 {
		return baseDelay
	}
	if retry > 30 {
		return maxDelay
	}
	d := baseDelay * time.Duration(1<<retry)
	if d > maxDelay {
		return maxDelay
	}
	return d
}
