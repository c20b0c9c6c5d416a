package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy decides whether a failed completion is attempted again.
//
// The zero value and DefaultRetryPolicy make exactly one attempt. Transport
// failures and malformed answers are enabled separately; other errors
// (cancellation, exhausted scripts, configuration) are never retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 mean 1.
	MaxAttempts int

	OnTransport bool
	OnMalformed bool

	// Backoff is the delay before the second attempt. It doubles for each
	// further attempt, capped at MaxBackoff when that is set.
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy makes a single attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Retryable reports whether err is in a class the policy retries.
func (p RetryPolicy) Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case IsTransport(err):
		return p.OnTransport
	case IsMalformed(err):
		return p.OnMalformed
	default:
		return false
	}
}

// Delay returns the wait before attempt n (n ≥ 2).
func (p RetryPolicy) Delay(n int) time.Duration {
	if p.Backoff <= 0 || n < 2 {
		return 0
	}
	d := p.Backoff
	for i := 2; i < n; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Retrying wraps a Completer with a RetryPolicy.
type Retrying struct {
	next   Completer
	policy RetryPolicy
	logger *slog.Logger
}

// WithRetry wraps c so failed calls are retried according to p.
func WithRetry(c Completer, p RetryPolicy, logger *slog.Logger) *Retrying {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{next: c, policy: p, logger: logger}
}

// Complete implements Completer. The last error is returned, annotated with
// the number of attempts made when more than one.
func (r *Retrying) Complete(ctx context.Context, req Request) (Result, error) {
	limit := r.policy.attempts()

	var err error
	for n := 1; n <= limit; n++ {
		if n > 1 {
			if werr := wait(ctx, r.policy.Delay(n)); werr != nil {
				return Result{}, fmt.Errorf("after %d attempts: %w (last error: %v)", n-1, werr, err)
			}
		}

		var res Result
		res, err = r.next.Complete(ctx, req)
		if err == nil {
			return res, nil
		}
		if !r.policy.Retryable(err) || n == limit {
			if n > 1 {
				return Result{}, fmt.Errorf("after %d attempts: %w", n, err)
			}
			return Result{}, err
		}
		r.logger.Warn("completion failed, retrying",
			"attempt", n, "max_attempts", limit, "model", req.Model, "error", err)
	}
	return Result{}, err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
