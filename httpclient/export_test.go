package httpclient

import (
	"context"
	"time"
)

func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = fn
	}
}

func RetryDelays(maxAttempts int, delay time.Duration, backoff float64) []time.Duration {
	policy := newRetryPolicy(maxAttempts, delay, backoff)
	if policy.maxAttempts <= 1 {
		return nil
	}

	delays := make([]time.Duration, 0, policy.maxAttempts-1)

	for failed := 1; failed < policy.maxAttempts; failed++ {
		delays = append(delays, policy.delayAfter(failed))
	}

	return delays
}
