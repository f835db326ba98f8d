package breaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// State mirrors the three states, re-exported in this module's
// own vocabulary so callers don't need to import gobreaker directly.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Config names the breaker's three tunables: FailureThreshold
// consecutive failures open the circuit (default 5); after Timeout
// (default 30s) it transitions to half-open; SuccessThreshold
// consecutive successes close it again (default 3).
type Config struct {
	Name             string
	FailureThreshold uint32
	SuccessThreshold uint32
	Timeout          time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 3,
		Timeout:          30 * time.Second,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker, exposing the
// execute-a-closure surface package recovery drives.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// New constructs a CircuitBreaker per cfg. An unset FailureThreshold,
// SuccessThreshold, or Timeout falls back to DefaultConfig's values.
func New(cfg Config) *CircuitBreaker {
	d := DefaultConfig(cfg.Name)
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = d.FailureThreshold
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = d.SuccessThreshold
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = d.Timeout
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.SuccessThreshold,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker: if the circuit is open the call
// fails immediately without invoking fn; otherwise fn runs and its
// success or failure is counted toward the state machine.
func (b *CircuitBreaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// State reports the breaker's current state.
func (b *CircuitBreaker) State() State {
	return fromGobreaker(b.cb.State())
}

// IsOpen reports whether err is the breaker's own rejection (the call was
// never made because the circuit was open, or half-open and saturated),
// as opposed to an error the closure itself returned.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
