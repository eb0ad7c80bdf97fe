package embeddings

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimited marks a transient rate-limit or quota error from the
// embedding provider. Only errors wrapping it are retried.
var ErrRateLimited = errors.New("rate limited")

// RetryPolicy retries an operation with exponential backoff: the delay
// doubles after each attempt, capped at MaxDelay, up to MaxRetries
// retries. Any error the Retryable predicate rejects propagates
// immediately.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Retryable  func(error) bool
	// Sleep is overridable for tests. Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns the policy used for embedding calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  1 * time.Second,
		MaxDelay:   16 * time.Second,
		Retryable:  func(err error) bool { return errors.Is(err, ErrRateLimited) },
	}
}

// Do runs op, retrying per the policy. Exceeding the retry ceiling
// returns the last error.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return errors.Is(err, ErrRateLimited) }
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	delay := p.BaseDelay
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt >= p.MaxRetries {
			return err
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
