package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// ReadyPollInterval is the delay between readiness probes.
const ReadyPollInterval = 100 * time.Millisecond

// WaitForReady pings p until it responds or timeout expires.
func WaitForReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(ReadyPollInterval))
	var last error
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			last = err
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if last == nil {
			last = err
		}
		return fmt.Errorf("timeout waiting for database: %w", last)
	}
	return nil
}
