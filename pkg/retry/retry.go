// Package retry wraps github.com/cenkalti/backoff/v4 into a bounded-retry
// pattern: transient failures are retried with exponential backoff until a
// retry count or an overall elapsed-time limit is reached, then it gives up.
// Individual attempts have no deadline of their own. Its caller in the
// pipeline is the audio download step of feed retrieval.
package retry

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// Options configures a bounded retry sequence.
type Options struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      int // 0 means unbounded until MaxElapsedTime
}

// DefaultOptions returns sensible retry defaults for network operations.
func DefaultOptions() Options {
	return Options{
		MaxElapsedTime:  2 * time.Minute,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		MaxRetries:      5,
	}
}

// Do runs fn, retrying only errors the caller marks retryable via
// apperrors.AppError.IsRetryable(). Any other error returned from fn aborts
// the sequence immediately (backoff.Permanent).
func Do(ctx context.Context, opts Options, label string, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialInterval
	b.MaxInterval = opts.MaxInterval
	b.MaxElapsedTime = opts.MaxElapsedTime

	var bo backoff.BackOff = b
	if opts.MaxRetries > 0 {
		bo = backoff.WithMaxRetries(b, uint64(opts.MaxRetries))
	}
	bo = backoff.WithContext(bo, ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if appErr, ok := err.(*apperrors.AppError); !ok || !appErr.IsRetryable() {
			return backoff.Permanent(err)
		}

		log.Printf("[WARN] %s: attempt %d failed, retrying: %v", label, attempt, err)
		return err
	}

	if err := backoff.Retry(operation, bo); err != nil {
		return err
	}
	return nil
}
