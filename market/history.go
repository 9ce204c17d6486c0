package market

import "sync"

// History keeps the last few recorded prices, newest last.
type History struct {
	mu     sync.Mutex
	size   int
	prices []float64
}

// NewHistory keeps at most size prices; size is at least 3.
func NewHistory(size int) *History {
	if size < 3 {
		size = 3
	}
	return &History{size: size}
}

// Record appends price, dropping the oldest beyond capacity.
func (h *History) Record(price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.prices = append(h.prices, price)
	if len(h.prices) > h.size {
		h.prices = append(h.prices[:0], h.prices[len(h.prices)-h.size:]...)
	}
}

// References returns the second- and third-most-recent prices. ok is
// false until three prices have been recorded.
func (h *History) References() (fn1, fn2 float64, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.prices)
	if n < 3 {
		return 0, 0, false
	}
	return h.prices[n-2], h.prices[n-3], true
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.prices)
}
