package retry

import (
	"context"
	"math/rand"
	"time"

	"cortex/pkg/errors"
)

// Strategy selects how the delay grows between attempts
type Strategy string

const (
	// StrategyExponential multiplies the delay after every failed attempt
	StrategyExponential Strategy = "exponential"

	// StrategyLinear grows the delay by the initial delay each attempt
	StrategyLinear Strategy = "linear"

	// StrategyConstant keeps the delay fixed
	StrategyConstant Strategy = "constant"
)

// Policy describes a bounded retry loop with backoff and jitter.
// One policy is shared by every external-call boundary: the analysis client,
// the health probe and the workflow auto-retry rule.
type Policy struct {
	MaxAttempts  int           // Total attempts including the first (default 3)
	InitialDelay time.Duration // Delay before the second attempt (default 1s)
	MaxDelay     time.Duration // Upper bound for any single delay (default 30s)
	Multiplier   float64       // Exponential growth factor (default 2.0)
	Strategy     Strategy      // Backoff strategy (default exponential)
	JitterPct    float64       // Random jitter fraction in [0,1] added to each delay
}

// DefaultPolicy returns the policy used when callers pass a zero value
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
	}
}

// withDefaults fills unset fields
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Multiplier <= 1 {
		p.Multiplier = def.Multiplier
	}
	if p.Strategy == "" {
		p.Strategy = def.Strategy
	}
	return p
}

// Delay returns the pause before attempt n (n is 1-based; attempt 1 has no delay)
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt <= 1 {
		return 0
	}

	var d time.Duration
	switch p.Strategy {
	case StrategyConstant:
		d = p.InitialDelay
	case StrategyLinear:
		d = time.Duration(attempt-1) * p.InitialDelay
	default:
		d = p.InitialDelay
		for i := 2; i < attempt; i++ {
			d = time.Duration(float64(d) * p.Multiplier)
			if d >= p.MaxDelay {
				break
			}
		}
	}

	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.JitterPct > 0 && p.JitterPct <= 1 {
		d += time.Duration(rand.Float64() * p.JitterPct * float64(d))
	}
	return d
}

// Do runs fn until it succeeds, attempts are exhausted or the context ends.
// The last error is returned wrapped with the attempt count.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if delay := p.Delay(attempt); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
	}

	return errors.Wrapf(lastErr, "all %d attempts failed", p.MaxAttempts)
}
