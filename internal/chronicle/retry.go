package chronicle

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy controls retry/backoff for transient request failures. One
// policy is applied uniformly to every fetch in a run.
type RetryPolicy struct {
	// MaxAttempts is the total attempt ceiling, including the first try.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration

	// Multiplier grows the backoff per attempt.
	Multiplier float64
}

// DefaultRetryPolicy mirrors the retry behavior the Chronicle API is known
// to tolerate.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// Delay returns the backoff to sleep after the given attempt (1-based).
// The result is jittered to 50-150% of the exponential value and never
// falls below floor, which carries a server-provided Retry-After hint.
func (p RetryPolicy) Delay(attempt int, floor time.Duration) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	jittered := time.Duration(d * (0.5 + rand.Float64()))
	if jittered < floor {
		jittered = floor
	}
	return jittered
}

// Wait sleeps the computed backoff, honoring context cancellation.
func (p RetryPolicy) Wait(ctx context.Context, attempt int, floor time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Delay(attempt, floor)):
		return nil
	}
}
