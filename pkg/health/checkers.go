package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger matches pgxpool.Pool and anything else with a context-aware ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck returns a readiness CheckFunc backed by Pinger, typically the
// database pool.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// GoroutineCountCheck flags a goroutine leak once the count passes threshold.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}
