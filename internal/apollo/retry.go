package apollo

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/esim-gateway/internal/model"
)

// RetryPolicy: linear backoff (Backoff × attempt), no jitter.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Retryable   map[int]bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     200 * time.Millisecond,
		Retryable:   map[int]bool{502: true, 503: true, 504: true},
	}
}

// Delay is the pause taken after a failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.Backoff * time.Duration(attempt)
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier runs a Fetcher under a RetryPolicy. Attempts are strictly sequential.
type Retrier struct {
	next   Fetcher
	policy RetryPolicy
	sleep  SleepFunc
	log    *zap.Logger
}

var _ Fetcher = (*Retrier)(nil)

func NewRetrier(next Fetcher, policy RetryPolicy, log *zap.Logger) *Retrier {
	def := DefaultRetryPolicy()
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.Backoff < 0 {
		policy.Backoff = def.Backoff
	}
	if policy.Retryable == nil {
		policy.Retryable = def.Retryable
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Retrier{next: next, policy: policy, sleep: sleepCtx, log: log}
}

// WithSleep swaps the backoff sleeper; tests use it to observe delays.
func (r *Retrier) WithSleep(fn SleepFunc) *Retrier {
	r.sleep = fn
	return r
}

func (r *Retrier) Policy() RetryPolicy { return r.policy }

func (r *Retrier) FetchDetail(ctx context.Context, code model.ProductCode) (model.ProductDetail, error) {
	var last error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		detail, err := r.next.FetchDetail(ctx, code)
		if err == nil {
			return detail, nil
		}
		last = err

		// caller gave up; don't start another attempt
		if ctx.Err() != nil {
			return nil, &NetworkError{Err: ctx.Err()}
		}
		if attempt == r.policy.MaxAttempts || !r.retryable(err) {
			break
		}

		delay := r.policy.Delay(attempt)
		r.log.Info("apollo attempt failed, retrying",
			zap.String("code", code.String()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if err := r.sleep(ctx, delay); err != nil {
			return nil, &NetworkError{Err: err}
		}
	}
	return nil, last
}

func (r *Retrier) retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return r.policy.Retryable[se.StatusCode]
	}
	var ne *NetworkError
	return errors.As(err, &ne)
}
