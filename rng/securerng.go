package rng

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/joeycumines/go-wipecore/drbg"
	"github.com/joeycumines/go-wipecore/entropy"
)

// reseedByteThreshold forces a reseed once bytes_since_reseed plus the
// pending request length reaches 2^32.
const reseedByteThreshold = 1 << 32

// drbgReseedInterval mirrors drbg's internal 2^48 request ceiling, used
// here only to decide whether to proactively reseed before the DRBG itself
// would refuse.
const drbgReseedInterval = 1 << 48

// SecureRNG combines a multi-source entropy pool with an HMAC-DRBG
// behind a fill/reseed/health/entropy-estimate surface. The zero value
// is not usable; construct with New.
type SecureRNG struct {
	mu sync.Mutex

	pool *entropy.Pool
	drbg *drbg.HMACDRBG

	bytesSinceReseed uint64
	healthy          bool
	lastPrefix       [16]byte
	havePrefix       bool
}

// New constructs a SecureRNG over the given entropy sources. Pass
// entropy.DefaultSources() for the standard hardware/OS/jitter priority
// order described
func New(sources []entropy.Source) (*SecureRNG, error) {
	pool, err := entropy.NewPool(sources)
	if err != nil {
		return nil, fmt.Errorf("rng: %w", err)
	}

	r := &SecureRNG{
		pool:    pool,
		drbg:    drbg.New(pool.Seed()),
		healthy: true,
	}
	return r, nil
}

// Fill populates buf with cryptographically strong bytes, per the
// algorithm:
//
//  1. reseed if due
//  2. generate from the first available source into buf
//  3. generate from the DRBG and XOR into buf
//  4. fold a SHA-256 of the DRBG output back into the pool
//  5. run the FIPS 140-2 continuous test
//  6. advance bytes_since_reseed
func (r *SecureRNG) Fill(buf []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(buf) == 0 {
		return nil
	}

	if r.bytesSinceReseed+uint64(len(buf)) >= reseedByteThreshold || r.drbg.ReseedCounter() >= drbgReseedInterval {
		r.reseedLocked()
	}

	if err := r.pool.FirstAvailableFill(buf); err != nil {
		return fmt.Errorf("rng: source fill: %w", err)
	}

	drbgOut := make([]byte, len(buf))
	if err := r.drbg.Generate(drbgOut, nil); err != nil {
		if err == drbg.ErrReseedRequired {
			r.reseedLocked()
			if err := r.drbg.Generate(drbgOut, nil); err != nil {
				return fmt.Errorf("rng: drbg generate after reseed: %w", err)
			}
		} else {
			return fmt.Errorf("rng: drbg generate: %w", err)
		}
	}

	for i := range buf {
		buf[i] ^= drbgOut[i]
	}

	sum := sha256.Sum256(drbgOut)
	r.pool.Absorb(sum[:])

	if err := r.continuousTestLocked(buf); err != nil {
		r.healthy = false
		return err
	}

	r.bytesSinceReseed += uint64(len(buf))

	return nil
}

func (r *SecureRNG) reseedLocked() {
	seed := r.pool.Reseed()
	r.drbg.Reseed(seed)
	r.bytesSinceReseed = 0
}

// continuousTestLocked implements the FIPS 140-2 continuous test:
// compare the first 16 bytes of this call's output to the previous
// call's first 16 bytes.
func (r *SecureRNG) continuousTestLocked(buf []byte) error {
	n := len(buf)
	if n > 16 {
		n = 16
	}
	var cur [16]byte
	copy(cur[:], buf[:n])

	if r.havePrefix && cur == r.lastPrefix {
		return fmt.Errorf("rng: continuous test failed: repeated output")
	}

	r.lastPrefix = cur
	r.havePrefix = true
	return nil
}

// Reseed forces fresh entropy collection `reseed()`.
func (r *SecureRNG) Reseed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reseedLocked()
}

// Health reports whether the generator's continuous self-test has passed
// every call so far. Once unhealthy, a SecureRNG never recovers; callers
// must construct a new instance.
func (r *SecureRNG) Health() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.healthy
}

// EntropyEstimate returns the pool's [0,1] confidence score.
func (r *SecureRNG) EntropyEstimate() float64 {
	return r.pool.EntropyEstimate()
}
