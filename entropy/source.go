package entropy

import (
	"crypto/rand"
	"io"
	"os"
	"time"
)

// Source models a pluggable entropy contributor over a small capability
// set: fill bytes, quality, availability, name.
type Source interface {
	// Name identifies the source for logging and diagnostics.
	Name() string

	// Available reports whether the source can presently be read. Sources
	// are probed in priority order at construction time; an unavailable
	// source contributes nothing.
	Available() bool

	// Quality is a rough trust weighting in [0,1], used only for
	// diagnostics/estimate purposes; it never gates whether a source is
	// used once Available.
	Quality() float64

	// FillBytes writes exactly len(buf) bytes into buf, or returns an
	// error. Implementations must not retain buf.
	FillBytes(buf []byte) error
}

// HardwareSource reads from a platform hardware RNG device, when present.
// On Linux this is typically /dev/hwrng; when the device cannot be opened
// or read, Available reports false and the pool simply skips this source.
type HardwareSource struct {
	path string
}

// NewHardwareSource returns a HardwareSource reading from path (e.g.
// "/dev/hwrng"). The path is probed lazily, on first Available/FillBytes
// call, never at construction, so constructing one is always cheap and
// side-effect free.
func NewHardwareSource(path string) *HardwareSource {
	if path == "" {
		path = "/dev/hwrng"
	}
	return &HardwareSource{path: path}
}

func (s *HardwareSource) Name() string { return "hardware-rng" }

func (s *HardwareSource) Quality() float64 { return 0.9 }

func (s *HardwareSource) Available() bool {
	f, err := os.Open(s.path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func (s *HardwareSource) FillBytes(buf []byte) error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.ReadFull(f, buf)
	return err
}

// OSCryptoSource wraps crypto/rand.Reader. It is always available: the
// baseline source every platform provides.
type OSCryptoSource struct {
	reader io.Reader
}

// NewOSCryptoSource returns an OSCryptoSource backed by crypto/rand.Reader.
func NewOSCryptoSource() *OSCryptoSource {
	return &OSCryptoSource{reader: rand.Reader}
}

func (s *OSCryptoSource) Name() string { return "os-crypto-rng" }

func (s *OSCryptoSource) Quality() float64 { return 1.0 }

func (s *OSCryptoSource) Available() bool { return true }

func (s *OSCryptoSource) FillBytes(buf []byte) error {
	_, err := io.ReadFull(s.reader, buf)
	return err
}

// JitterSource derives bytes from successive timing-jitter samples: the
// nanosecond deltas between tight reads of the monotonic clock. It is the
// lowest-trust source in the probing order, but is always
// available, so the entropy pool never has zero sources.
type JitterSource struct{}

// NewJitterSource returns a JitterSource.
func NewJitterSource() *JitterSource { return &JitterSource{} }

func (s *JitterSource) Name() string { return "timing-jitter" }

func (s *JitterSource) Quality() float64 { return 0.2 }

func (s *JitterSource) Available() bool { return true }

func (s *JitterSource) FillBytes(buf []byte) error {
	var prev = time.Now().UnixNano()
	for i := range buf {
		now := time.Now().UnixNano()
		delta := now - prev
		prev = now
		// fold the delta's low-order bits; high-order bits of a tight-loop
		// delta are overwhelmingly zero and would otherwise bias the byte.
		buf[i] = byte(delta) ^ byte(delta>>8) ^ byte(delta>>16)
	}
	return nil
}

// DefaultSources returns the three sources in descending trust order:
// hardware RNG, OS crypto RNG, timing jitter.
func DefaultSources() []Source {
	return []Source{
		NewHardwareSource(""),
		NewOSCryptoSource(),
		NewJitterSource(),
	}
}
