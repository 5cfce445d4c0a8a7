package resilience

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout bounds fn by the given duration. A non-positive timeout runs
// fn directly. fn receives the derived context and must honor it; on expiry
// WithTimeout returns without waiting for fn to finish.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	boundedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(boundedCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-boundedCtx.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s: %w (limit: %v)", name, context.DeadlineExceeded, timeout)
	}
}
