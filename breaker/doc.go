// Package breaker implements a three-state circuit breaker
// (Closed/Open/HalfOpen) as a thin adapter over
// github.com/sony/gobreaker, translating this module's vocabulary
// (failure threshold, success threshold, timeout) onto gobreaker's
// ReadyToTrip/Settings mechanism.
package breaker
