package services

import (
	"context"
	"time"
)

// RetryPolicy retries an operation with exponential backoff: the delay
// before attempt n+1 is BaseDelay * 2^n.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Do runs fn until it succeeds, fails with an error retryable rejects, or
// the retries are spent. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, retryable func(error) bool, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		// permanent errors
		if !retryable(err) {
			return err
		}

		if attempt < p.MaxRetries {
			delay := p.BaseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
