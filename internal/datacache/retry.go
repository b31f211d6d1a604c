package datacache

import (
	"context"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 2 * time.Second
	maxBackoff         = 30 * time.Second
)

// RetryPolicy bounds automatic retries of a failed fetch. MaxAttempts counts
// every attempt including the first. Backoff returns the delay after the
// given number of failures (zero based).
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(failures int) time.Duration
}

// DefaultRetryPolicy returns three attempts with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		Backoff: func(failures int) time.Duration {
			return calculateBackoff(failures, defaultBackoffBase)
		},
	}
}

// NoBackoff retries immediately.
func NoBackoff(int) time.Duration { return 0 }

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Backoff == nil {
		p.Backoff = def.Backoff
	}
	return p
}

// calculateBackoff doubles base for every failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures < 0 {
		failures = 0
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	if backoff > maxBackoff {
		return maxBackoff
	}
	return backoff
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
