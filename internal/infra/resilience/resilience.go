// Package resilience provides fault-tolerance patterns:
// retry policy with exponential backoff, circuit breaker, and bulkhead.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
type Config struct {
	// MaxRetries is the total number of attempts, the first one included.
	MaxRetries     int
	InitialBackoff time.Duration
}

// ErrPermanent marks failures that must not be retried.
var ErrPermanent = errors.New("permanent failure")

type permanentError struct{ err error }

func (e *permanentError) Error() string        { return e.err.Error() }
func (e *permanentError) Unwrap() error        { return e.err }
func (e *permanentError) Is(target error) bool { return target == ErrPermanent }

// Permanent wraps err so that IsPermanent reports true. errors.As and
// errors.Is keep seeing the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// DefaultJitter returns a multiplier uniformly drawn from [0.8, 1.2).
func DefaultJitter() float64 {
	return 0.8 + rand.Float64()*0.4
}

// RetryPolicy decides how many times a call runs and how long to wait
// between runs. Delay depends only on the attempt number.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Jitter returns the multiplier applied to each delay.
	// Nil means DefaultJitter.
	Jitter func() float64

	// NonRetryable reports errors that end the loop immediately.
	// Nil means IsPermanent.
	NonRetryable func(error) bool
}

// NewRetryPolicy builds the policy described by cfg.
func NewRetryPolicy(cfg Config) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.InitialBackoff,
	}
}

// Attempts is the effective attempt bound (at least one).
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay is the wait before attempt number attempt (zero-based):
// BaseDelay * 2^attempt * jitter. The first attempt never waits.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	jitter := p.Jitter
	if jitter == nil {
		jitter = DefaultJitter
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)) * jitter())
}

// Retryable reports whether err may be retried under this policy.
func (p RetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.NonRetryable != nil {
		return !p.NonRetryable(err)
	}
	return !IsPermanent(err)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. The last error is returned. fn receives the zero-based
// attempt number. Context cancellation interrupts the wait.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt < p.Attempts(); attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(p.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !p.Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// NewCircuitBreaker creates a circuit breaker with sensible defaults.
// Permanent failures do not count against the breaker.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsPermanent(err)
		},
	})
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}
