package browser

import (
	"context"
	"time"
)

// WaitFunc blocks for d or until ctx is done. Collectors accept one so that
// tests can skip real settle delays.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Wait blocks for d or until ctx is done, returning ctx.Err() in the latter case.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
