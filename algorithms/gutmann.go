package algorithms

// DriveEncoding names the magnetic recording scheme used to prune the
// Gutmann sequence: "Drive-encoding detection (MFM |
// RLL | PRML | Unknown) may optionally prune the sequence."
type DriveEncoding string

const (
	EncodingMFM     DriveEncoding = "MFM"
	EncodingRLL     DriveEncoding = "RLL"
	EncodingPRML    DriveEncoding = "PRML"
	EncodingUnknown DriveEncoding = "UNKNOWN"
)

func p3(a, b, c byte) []byte { return []byte{a, b, c} }

// GutmannSequence returns the fixed 35-element table: passes 1-4 and
// 32-35 random (0-indexed: 0-3 and 31-34); passes 5-31
// (0-indexed 4-30) are the MFM/RLL-targeted patterns from Peter Gutmann's
// 1996 paper "Secure Deletion of Data from Magnetic and Solid-State
// Memory".
func GutmannSequence() []Pass {
	passes := make([]Pass, 0, 35)

	random := func(n int) Pass { return Pass{Kind: PassRandom, Description: gutmannDesc(n)} }
	pattern := func(n int, b []byte) Pass {
		return Pass{Kind: PassPattern, Pattern: b, Description: gutmannDesc(n)}
	}

	// passes 1-4 (index 0-3): random
	for i := 1; i <= 4; i++ {
		passes = append(passes, random(i))
	}

	// passes 5-31 (index 4-30): the specific MFM/RLL-targeted patterns.
	fixed := [][]byte{
		p3(0x55, 0x55, 0x55), // 5
		p3(0xAA, 0xAA, 0xAA), // 6
		p3(0x92, 0x49, 0x24), // 7
		p3(0x49, 0x24, 0x92), // 8
		p3(0x24, 0x92, 0x49), // 9
		p3(0x00, 0x00, 0x00), // 10
		p3(0x11, 0x11, 0x11), // 11
		p3(0x22, 0x22, 0x22), // 12
		p3(0x33, 0x33, 0x33), // 13
		p3(0x44, 0x44, 0x44), // 14
		p3(0x55, 0x55, 0x55), // 15
		p3(0x66, 0x66, 0x66), // 16
		p3(0x77, 0x77, 0x77), // 17
		p3(0x88, 0x88, 0x88), // 18
		p3(0x99, 0x99, 0x99), // 19
		p3(0xAA, 0xAA, 0xAA), // 20
		p3(0xBB, 0xBB, 0xBB), // 21
		p3(0xCC, 0xCC, 0xCC), // 22
		p3(0xDD, 0xDD, 0xDD), // 23
		p3(0xEE, 0xEE, 0xEE), // 24
		p3(0xFF, 0xFF, 0xFF), // 25
		p3(0x92, 0x49, 0x24), // 26
		p3(0x49, 0x24, 0x92), // 27
		p3(0x24, 0x92, 0x49), // 28
		p3(0x6D, 0xB6, 0xDB), // 29
		p3(0xB6, 0xDB, 0x6D), // 30
		p3(0xDB, 0x6D, 0xB6), // 31
	}
	for i, b := range fixed {
		passes = append(passes, pattern(5+i, b))
	}

	// passes 32-35 (index 31-34): random
	for i := 32; i <= 35; i++ {
		passes = append(passes, random(i))
	}

	return passes
}

func gutmannDesc(n int) string {
	switch {
	case n <= 4 || n >= 32:
		return "Gutmann pass (random)"
	default:
		return "Gutmann pass (fixed pattern)"
	}
}

// gutmannMFMIndices, gutmannRLLIndices, gutmannPRMLIndices are the
// 0-indexed retained-index sets of the pruning rule.
var (
	gutmannMFMIndices  = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 15, 20, 25, 31, 32, 33, 34}
	gutmannRLLIndices  = []int{0, 1, 2, 3, 4, 5, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34}
	gutmannPRMLIndices = []int{0, 1, 2, 3, 7, 13, 19, 25, 29, 30, 31, 32, 33, 34}
)

// PruneForEncoding implements the optional pruning: "MFM
// retains indices {0..10,15,20,25,31..34}; RLL retains {0..5,25..34};
// PRML retains a 14-element subset; Unknown runs all 35."
func PruneForEncoding(passes []Pass, encoding DriveEncoding) []Pass {
	var indices []int
	switch encoding {
	case EncodingMFM:
		indices = gutmannMFMIndices
	case EncodingRLL:
		indices = gutmannRLLIndices
	case EncodingPRML:
		indices = gutmannPRMLIndices
	default:
		return passes
	}
	out := make([]Pass, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(passes) {
			out = append(out, passes[i])
		}
	}
	return out
}
