package policy

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle bounds how often a caller may ask for policy evaluations —
// a defense-in-depth guard in front of the CLI's batch verify path,
// independent of the per-call gas/depth accounting the evaluator itself
// enforces. The evaluator remains synchronous and single-call; Throttle
// only governs how many such calls a host issues per second.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a token-bucket throttle allowing ratePerSecond calls
// per second with the given burst capacity.
func NewThrottle(ratePerSecond float64, burst int) *Throttle {
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// DefaultThrottle returns a throttle with conservative defaults: 50
// evaluations per second, burst of 100.
func DefaultThrottle() *Throttle {
	return NewThrottle(50, 100)
}

// Allow reports whether a call may proceed right now without blocking.
func (t *Throttle) Allow() bool {
	return t.limiter.Allow()
}

// Wait blocks until a call may proceed or ctx is canceled.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
