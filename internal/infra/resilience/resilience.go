// Package resilience hardens the outbound bank integrations. The
// webhook notifier and the CNAB remittance endpoint are slow and flake
// under load, so calls go through retry with capped backoff, a shared
// circuit breaker and a bulkhead that limits in-flight uploads.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds the retry and concurrency parameters for one outbound
// integration.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration // zero means 30s
	MaxConcurrency int
}

const defaultMaxBackoff = 30 * time.Second

// RetryWithBackoff runs fn until it succeeds or the retry budget is
// spent. The wait doubles per attempt up to MaxBackoff, with jitter so
// paused deliveries do not retry in lockstep. Context cancellation
// wins over the remaining budget.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}

	backoff := cfg.InitialBackoff
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries {
			return lastErr
		}

		wait := backoff
		if wait > 0 {
			wait += time.Duration(rand.Int63n(int64(wait/2) + 1))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// NewCircuitBreaker builds the breaker shared by the bank-facing
// clients. Bank endpoints degrade for minutes at a time, so the
// breaker trips on a sustained failure ratio rather than a single
// error, and probes with a few requests once half-open.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})
}

// Bulkhead caps concurrent remittance uploads so a slow bank endpoint
// cannot pile up goroutines holding file contents.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead admitting at most maxConcurrency
// callers.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot frees up or the context is done.
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
