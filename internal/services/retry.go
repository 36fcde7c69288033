package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"happymemories/internal/domain"
)

// storageRetries is how many extra attempts a storage call gets after ErrStorageUnavailable.
const storageRetries = 1

func newBackOff(delay time.Duration) backoff.BackOff {
	if delay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = delay
	b.MaxElapsedTime = 0
	return b
}

// withRetry runs op and repeats it once when it fails with domain.ErrStorageUnavailable.
// Every other error is returned as is on the first attempt. An expired or canceled ctx
// is reported as domain.ErrStorageUnavailable.
func withRetry(ctx context.Context, delay time.Duration, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(delay), storageRetries), ctx)
	err := backoff.Retry(func() error {
		err := op()
		if err != nil && !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	if cerr := ctx.Err(); err != nil && cerr != nil && errors.Is(err, cerr) && !errors.Is(err, domain.ErrStorageUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return err
}
