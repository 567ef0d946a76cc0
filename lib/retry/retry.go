package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is the one retry policy applied to flaky scraping operations.
// it replaces the ad hoc bounded loops that otherwise get copied around
// every fetch site.
type Policy struct {
	// MaxAttempts counts the initial try, so 3 means two retries.
	MaxAttempts uint64
	// InitialDelay is the wait before the first retry; subsequent
	// waits grow exponentially.
	InitialDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second * 2,
	}
}

// Permanent wraps an error so the policy stops retrying it. used for
// failures that more attempts cannot fix, like a key that has no data.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func (p Policy) Do(ctx context.Context, name string, op func() error) error {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	if p.InitialDelay > 0 {
		expo.InitialInterval = p.InitialDelay
	}

	attempt := 0
	return backoff.Retry(
		func() error {
			attempt++
			err := op()
			if err == nil {
				return nil
			}
			var perm *backoff.PermanentError
			if !errors.As(err, &perm) && uint64(attempt) < p.MaxAttempts {
				slog.WarnContext(ctx, "operation failed, retrying",
					"op", name, "attempt", attempt, "err", err)
			}
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(expo, p.MaxAttempts-1), ctx),
	)
}
