package rng

import (
	"sync"

	"github.com/joeycumines/go-wipecore/entropy"
)

// global is the process-wide SecureRNG instance, lazily initialized.
// The singleton keeps the algorithm primitives concise; callers that
// prefer to thread their own source through pass an
// algorithms.RandomFiller (a *SecureRNG qualifies) via
// orchestrator.Options.RNG or directly to algorithms.Run.
var (
	globalOnce sync.Once
	globalRNG  *SecureRNG
	globalErr  error
)

// Global returns the process-wide SecureRNG, constructing it on first use
// from entropy.DefaultSources(). Fill is already mutex-guarded by
// SecureRNG itself; Global merely guarantees single construction.
func Global() (*SecureRNG, error) {
	globalOnce.Do(func() {
		globalRNG, globalErr = New(entropy.DefaultSources())
	})
	return globalRNG, globalErr
}

// MustGlobal is Global, panicking on error. No entropy sources being
// available is fatal; callers at process start-up that cannot proceed
// without an RNG should use this.
func MustGlobal() *SecureRNG {
	r, err := Global()
	if err != nil {
		panic(err)
	}
	return r
}
