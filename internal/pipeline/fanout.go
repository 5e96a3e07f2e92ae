package pipeline

import (
	"context"
	"time"

	"commentary-ai/log"
	"commentary-ai/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// IndexedResult tags a fan-out result with the index of the work item that
// produced it, so callers can reassemble in input order regardless of
// completion order.
type IndexedResult[R any] struct {
	Index int
	Value R
	Err   error
}

const maxBackoff = 30 * time.Second

// backoffBase is a variable so tests can shrink the delays.
var backoffBase = time.Second

func backoffDelay(attempt int) time.Duration {
	delay := backoffBase << attempt
	if delay > maxBackoff || delay <= 0 {
		return maxBackoff
	}
	return delay
}

// fanOut runs fn for every index in [0, count) on a bounded worker pool.
// Each item gets maxRetries extra attempts with exponential backoff, but
// only for retryable provider errors; every attempt runs under its own
// perCallTimeout. Per-item failures land in the result slice, which is
// always fully populated and index-ordered. The returned error is non-nil
// only on cancellation.
func fanOut[R any](
	ctx context.Context,
	count int,
	concurrency int,
	limiter *rate.Limiter,
	maxRetries int,
	perCallTimeout time.Duration,
	fn func(ctx context.Context, index int) (R, error),
) ([]IndexedResult[R], error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]IndexedResult[R], count)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i := 0; i < count; i++ {
		index := i
		group.Go(func() error {
			value, err := callWithRetry(groupCtx, index, limiter, maxRetries, perCallTimeout, fn)
			results[index] = IndexedResult[R]{Index: index, Value: value, Err: err}
			// Cancellation is the only error that stops the pool.
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(errors.CodeCancelled, "fan-out cancelled", err)
	}
	return results, nil
}

func callWithRetry[R any](
	ctx context.Context,
	index int,
	limiter *rate.Limiter,
	maxRetries int,
	perCallTimeout time.Duration,
	fn func(ctx context.Context, index int) (R, error),
) (R, error) {
	var zero R
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoffDelay(attempt - 1)):
			}
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}

		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if perCallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, perCallTimeout)
		}
		value, err := fn(callCtx, index)
		cancel()

		if err == nil {
			return value, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		// Timeouts count as transient for retry purposes.
		if callCtx.Err() == context.DeadlineExceeded {
			lastErr = errors.Wrap(errors.CodeProviderTransient, "call timed out", err)
			continue
		}
		if !errors.IsRetryable(err) {
			return zero, err
		}
		log.GetLogger().Warn("retrying fan-out item",
			zap.Int("index", index),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return zero, lastErr
}
