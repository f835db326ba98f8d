package entropy

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

const defaultRingSize = 4096 // bytes, power of 2

// Pool is a fixed-size byte ring plus a running hash. Sources mix their
// bytes into the ring via
// XOR; reads fold the ring's current snapshot, a running SHA-256 hash of
// everything ever absorbed, a nanosecond timestamp, and a position counter
// into seed material suitable for instantiating or reseeding an HMAC-DRBG.
type Pool struct {
	mu       sync.Mutex
	ring     *ring
	hash     [32]byte
	absorbed uint64
	sources  []Source
	position uint64
}

// NewPool constructs a Pool over the given sources, probing each for
// availability and absorbing an initial sample from every available one.
// Sources are probed in the order given; this should be
// hardware RNG, OS crypto RNG, timing jitter (see DefaultSources).
func NewPool(sources []Source) (*Pool, error) {
	p := &Pool{
		ring:    newRing(defaultRingSize),
		sources: sources,
	}

	available := 0
	for _, s := range sources {
		if !s.Available() {
			continue
		}
		buf := make([]byte, 64)
		if err := s.FillBytes(buf); err != nil {
			continue
		}
		p.absorb(buf)
		available++
	}
	if available == 0 {
		return nil, fmt.Errorf("entropy: no sources available")
	}

	return p, nil
}

// absorb mixes buf into the ring and folds it into the running hash. Must
// be called with p.mu held.
func (p *Pool) absorb(buf []byte) {
	p.ring.write(buf)
	h := sha256.New()
	h.Write(p.hash[:])
	h.Write(buf)
	sum := h.Sum(nil)
	copy(p.hash[:], sum)
	p.absorbed += uint64(len(buf))
}

// Absorb folds externally-produced bytes (e.g. a hash of a DRBG generate
// output) back into the pool.
func (p *Pool) Absorb(buf []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.absorb(buf)
}

// FirstAvailableFill fills buf with fresh bytes from the first available
// source, in the priority order the pool was constructed with. A read
// error from the chosen source propagates up; it is not papered over by
// falling through to a lower-trust source.
func (p *Pool) FirstAvailableFill(buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sources {
		if !s.Available() {
			continue
		}
		if err := s.FillBytes(buf); err != nil {
			return fmt.Errorf("entropy: %s: %w", s.Name(), err)
		}
		return nil
	}
	return fmt.Errorf("entropy: no sources available")
}

// Reseed re-probes every available source and absorbs fresh samples from
// each, then folds in a nanosecond timestamp and position counter, and
// returns seed material for the DRBG.
func (p *Pool) Reseed() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.sources {
		if !s.Available() {
			continue
		}
		buf := make([]byte, 64)
		if err := s.FillBytes(buf); err != nil {
			continue
		}
		p.absorb(buf)
	}

	return p.seedLocked()
}

// Seed returns seed material derived from the pool's current state,
// without re-probing sources. Used at construction time.
func (p *Pool) Seed() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seedLocked()
}

func (p *Pool) seedLocked() []byte {
	p.position++

	h := sha256.New()
	h.Write(p.ring.snapshot())
	h.Write(p.hash[:])
	var tsBuf [8]byte
	ts := uint64(time.Now().UnixNano())
	for i := range tsBuf {
		tsBuf[i] = byte(ts >> (8 * i))
	}
	h.Write(tsBuf[:])
	var posBuf [8]byte
	for i := range posBuf {
		posBuf[i] = byte(p.position >> (8 * i))
	}
	h.Write(posBuf[:])

	return h.Sum(nil)
}

// EntropyEstimate returns a rough [0,1] confidence score in the pool's
// health, based on the quality-weighted count of currently-available
// sources. It is advisory only.
func (p *Pool) EntropyEstimate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	var total, max float64
	for _, s := range p.sources {
		max += s.Quality()
		if s.Available() {
			total += s.Quality()
		}
	}
	if max == 0 {
		return 0
	}
	return total / max
}
