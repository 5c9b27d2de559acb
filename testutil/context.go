package testutil

import (
	"context"
	"testing"
	"time"
)

const defaultTimeout = 30 * time.Second

// Context returns a context cancelled when the test ends.
func Context(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)

	return ctx
}

func ContextWithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()

	return ContextWithCustomTimeout(t, defaultTimeout)
}

func ContextWithCustomTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), timeout)
	t.Cleanup(cancel)

	return ctx, cancel
}

// CancelAfter returns a context that is cancelled d after the call.
func CancelAfter(t *testing.T, d time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(t.Context())
	timer := time.AfterFunc(d, cancel)

	t.Cleanup(func() {
		timer.Stop()
		cancel()
	})

	return ctx
}
