package solclient

import (
	"context"
	"time"
)

// retry runs fn up to attempts times with doubling delays capped at maxDelay.
func retry(ctx context.Context, attempts int, initial, maxDelay time.Duration, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}
	d := initial
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
			if d < maxDelay {
				d *= 2
				if d > maxDelay {
					d = maxDelay
				}
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
