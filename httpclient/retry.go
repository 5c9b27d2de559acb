package httpclient

import (
	"context"
	"errors"
	"time"
)

type sleepFunc func(ctx context.Context, d time.Duration) error

type retryPolicy struct {
	maxAttempts int
	delay       time.Duration
	backoff     float64
}

func newRetryPolicy(maxAttempts int, delay time.Duration, backoff float64) retryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	if delay < 0 {
		delay = 0
	}

	if backoff <= 0 {
		backoff = 1
	}

	return retryPolicy{
		maxAttempts: maxAttempts,
		delay:       delay,
		backoff:     backoff,
	}
}

func defaultRetryPolicy() retryPolicy {
	return newRetryPolicy(DefaultMaxAttempts, DefaultRetryDelay, DefaultRetryBackoff)
}

// delayAfter returns the wait before the next attempt once `failed` attempts have failed.
// delayAfter(1) == delay, delayAfter(2) == delay*backoff, and so on.
func (p retryPolicy) delayAfter(failed int) time.Duration {
	wait := float64(p.delay)
	for range failed - 1 {
		wait *= p.backoff
	}

	return time.Duration(wait)
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrRequestFailed) || errors.Is(err, ErrServiceError)
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
