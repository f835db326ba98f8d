package retry

import (
	"math/rand/v2"
	"time"
)

// Policy computes a retry delay using exponential backoff with jitter:
// delay = min(base · 2^attempt, max_delay), then
// delay ± delay·jitter_factor·U(-1,1).
type Policy struct {
	Base          time.Duration
	MaxDelay      time.Duration
	JitterFactor  float64
	MaxAttempts   int
}

// DefaultJitterFactor spreads concurrent retries apart by ±30%.
const DefaultJitterFactor = 0.3

// TransientPolicy is the preset for Transient-class errors: base 100 ms,
// cap 30 s, ceiling 10 attempts.
func TransientPolicy() Policy {
	return Policy{Base: 100 * time.Millisecond, MaxDelay: 30 * time.Second, JitterFactor: DefaultJitterFactor, MaxAttempts: 10}
}

// RecoverablePolicy is the preset for Recoverable-class errors: base
// 500 ms, cap 60 s, ceiling 5.
func RecoverablePolicy() Policy {
	return Policy{Base: 500 * time.Millisecond, MaxDelay: 60 * time.Second, JitterFactor: DefaultJitterFactor, MaxAttempts: 5}
}

// EnvironmentalPolicy is the preset for Environmental-class errors: base
// 5 s, cap 300 s, ceiling 20.
func EnvironmentalPolicy() Policy {
	return Policy{Base: 5 * time.Second, MaxDelay: 300 * time.Second, JitterFactor: DefaultJitterFactor, MaxAttempts: 20}
}

// ShouldRetry reports whether another attempt is permitted at the given
// (zero-based) attempt index.
func (p Policy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxAttempts
}

// NextDelay computes the backoff delay before the given (zero-based)
// attempt index per the formula. The jitter term uses
// math/rand/v2, which does not require manual seeding.
func (p Policy) NextDelay(attempt int) time.Duration {
	delay := p.Base << attempt // base * 2^attempt
	if delay <= 0 || delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	jitter := float64(delay) * p.JitterFactor * (rand.Float64()*2 - 1)
	result := time.Duration(float64(delay) + jitter)
	if result < 0 {
		result = 0
	}
	return result
}
