package journal

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
)

// Log wraps a Sink with a fixed retry policy. Append never fails from the
// caller's point of view: once the attempts are used up the row is logged
// and dropped.
type Log struct {
	Sink     Sink
	Attempts int
	Delay    time.Duration
	Sleep    func(ctx context.Context, d time.Duration) error
	Logger   *slog.Logger
}

func NewLog(sink Sink, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		Sink:     sink,
		Attempts: DefaultAttempts,
		Delay:    DefaultRetryDelay,
		Sleep:    SleepContext,
		Logger:   logger,
	}
}

// Append writes r, retrying with a fixed delay between attempts.
func (l *Log) Append(ctx context.Context, r Row) {
	attempts := l.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = l.Sink.Append(r); err == nil {
			return
		}
		if attempt == attempts {
			break
		}

		l.Logger.Warn("ledger write failed, retrying",
			slog.Int("attempt", attempt),
			slog.String("action", r.Action),
			slog.Any("err", err))

		if serr := l.Sleep(ctx, l.Delay); serr != nil {
			err = serr
			break
		}
	}

	l.Logger.Error("ledger write dropped",
		slog.Int("attempts", attempts),
		slog.String("action", r.Action),
		slog.String("symbol", r.Symbol),
		slog.Any("err", err))
}

func (l *Log) Close() error {
	return l.Sink.Close()
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
