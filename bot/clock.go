package bot

import (
	"context"
	"time"

	"github.com/rustyeddy/flashbot/journal"
)

// Clock is the loop's source of time and sleep.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	return journal.SleepContext(ctx, d)
}

// NextMinute is the wait from t until the top of the next minute. On an
// exact minute boundary it is a full minute.
func NextMinute(t time.Time) time.Duration {
	return t.Truncate(time.Minute).Add(time.Minute).Sub(t)
}
