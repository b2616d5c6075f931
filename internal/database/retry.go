package database

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// withConnectRetry retries fn with exponential backoff. Every failure is
// considered transient; the last error is returned once attempts run out.
func withConnectRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retryWith(ctx, retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff)), fn)
}

func retryWith(ctx context.Context, backoff retry.Backoff, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
