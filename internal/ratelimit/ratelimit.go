// Package ratelimit gates outbound request issuance to a configured
// ceiling.
//
// A Limiter combines a token bucket (sustained request rate) with a
// counting semaphore (concurrent in-flight cap); both must be satisfied
// before a request proceeds. Acquire never rejects a caller for being too
// fast, it only delays. A Limiter is constructed per run and passed by
// reference into every fetch path; there is no package-level state.
package ratelimit

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter throttles request issuance.
type Limiter struct {
	bucket   *rate.Limiter
	inflight *semaphore.Weighted
}

// New creates a Limiter allowing perSecond sustained requests with the
// given burst, and at most maxInFlight concurrently outstanding requests.
func New(perSecond float64, burst, maxInFlight int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(perSecond), burst),
		inflight: semaphore.NewWeighted(int64(maxInFlight)),
	}
}

// Acquire blocks until an in-flight slot and a rate token are both
// available, or ctx is done. Every successful Acquire must be paired with
// exactly one Release around exactly one request.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.inflight.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := l.bucket.Wait(ctx); err != nil {
		l.inflight.Release(1)
		return err
	}
	return nil
}

// Release returns the in-flight slot taken by a successful Acquire.
func (l *Limiter) Release() {
	l.inflight.Release(1)
}
