package model

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryOptions configure the retrying decorator.
type RetryOptions struct {
	// MaxAttempts bounds the total number of tries (first call included). Values < 1 mean 1.
	MaxAttempts uint
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// MaxInterval caps a single backoff delay.
	MaxInterval time.Duration
	// Retryable decides whether an error is transient. Nil retries every error
	// except context cancellation and ErrNoResponse.
	Retryable func(err error) bool
}

type retryModel struct {
	next Model
	opts RetryOptions
}

// WithRetry wraps m so every request is retried with exponential backoff. Each
// attempt re-sends the identical Request, so the decorator preserves the
// idempotence of a round-trip.
func WithRetry(m Model, optFns ...func(o *RetryOptions)) Model {
	opts := RetryOptions{
		MaxAttempts:     3,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &retryModel{next: m, opts: opts}
}

func (r *retryModel) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if r.opts.Retryable != nil {
		return r.opts.Retryable(err)
	}
	return !errors.Is(err, ErrNoResponse)
}

// Generate implements Model. Only the final response is forwarded.
func (r *retryModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		b := backoff.NewExponentialBackOff()
		b.InitialInterval = r.opts.InitialInterval
		b.MaxInterval = r.opts.MaxInterval

		resp, err := backoff.Retry(ctx, func() (Response, error) {
			resp, err := Collect(ctx, r.next, req)
			if err != nil && !r.retryable(err) {
				return Response{}, backoff.Permanent(err)
			}
			return resp, err
		}, backoff.WithBackOff(b), backoff.WithMaxTries(r.opts.MaxAttempts))
		if err != nil {
			errCh <- err
			return
		}
		out <- resp
	}()

	return out, errCh
}

// Info implements Model by delegating to the wrapped model.
func (r *retryModel) Info() Info { return r.next.Info() }
