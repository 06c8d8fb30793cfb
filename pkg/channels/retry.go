package channels

import (
	"context"
	"time"

	"relaybot/pkg/logger"
)

// retrier re-runs an operation on transient failures with exponential
// backoff bounded between min and max.
type retrier struct {
	attempts  int
	min, max  time.Duration
	transient func(error) bool
}

func newRetrier(transient func(error) bool) retrier {
	return retrier{
		attempts:  3,
		min:       2 * time.Second,
		max:       10 * time.Second,
		transient: transient,
	}
}

func (r retrier) do(ctx context.Context, component, op string, fn func() error) error {
	backoff := r.min
	var err error

	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= r.attempts || (r.transient != nil && !r.transient(err)) {
			return err
		}

		logger.WarnCF(component, "Transient failure, retrying", map[string]any{
			"op":      op,
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   err.Error(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > r.max {
			backoff = r.max
		}
	}
}
