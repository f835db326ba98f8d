package algorithms

// PassKind distinguishes a fixed byte-pattern pass from a random-fill
// pass.
type PassKind int

const (
	PassPattern PassKind = iota
	PassRandom
)

// Pass is one element of a multi-pass sequence (DoD's 3 entries, or one
// of Gutmann's 35).
type Pass struct {
	Kind        PassKind
	Pattern     []byte // repeating n-byte sequence, meaningful only when Kind == PassPattern
	Description string
}

// ZeroPattern is the all-zero byte pattern.
var ZeroPattern = []byte{0x00}

// OnesPattern is the all-ones byte pattern.
var OnesPattern = []byte{0xFF}

// FillPattern fills buf by repeating pattern per the "Fill
// with byte pattern (Zero, Ones, repeating n-byte sequence)" primitive.
func FillPattern(buf []byte, pattern []byte) {
	if len(pattern) == 0 {
		return
	}
	if len(pattern) == 1 {
		p := pattern[0]
		for i := range buf {
			buf[i] = p
		}
		return
	}
	for i := range buf {
		buf[i] = pattern[i%len(pattern)]
	}
}

// RandomFiller is the minimal contract algorithms need from the global
// SecureRNG,
// kept as a small interface here so tests can substitute a deterministic
// source without importing package rng.
type RandomFiller interface {
	Fill(buf []byte) error
}

// FillRandom fills buf from src per the random-fill primitive.
func FillRandom(buf []byte, src RandomFiller) error {
	return src.Fill(buf)
}
