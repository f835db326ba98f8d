package algorithms

import (
	"fmt"
	"math/rand"

	"github.com/joeycumines/go-wipecore/stats"
)

// uniformSampleOffsets is the enforced sample budget for per-pass
// verification: up to 1000 offsets uniformly spaced across the device,
// byte-compared for pattern passes, entropy-checked for random passes.
const uniformSampleOffsets = 1000

// randomWarnOffsets is the additional random-offset sample set for a
// random pass; its samples only warn below the soft entropy threshold,
// they never fail the pass.
const randomWarnOffsets = 100

// randomSampleChunkSize is the per-offset sample size for random-pass
// verification.
const randomSampleChunkSize = 4096

// ReadAtFunc reads exactly len(buf) bytes at offset, for use by
// VerifyPass without taking a compile-time dependency on *ioengine.Handle.
type ReadAtFunc func(buf []byte, offset int64) (int, error)

// PassVerification is the result of verifying a single completed pass.
type PassVerification struct {
	Pass        Pass
	SamplesRead int
	Mismatches  int
	MinEntropy  float64
	MeanEntropy float64
	Warnings    []string
	Passed      bool
}

// VerifyPass implements the per-pass verification: pattern passes are
// sampled byte-for-byte, random passes for Shannon entropy, both over
// offsets uniformly spaced across the device. rng selects the extra
// warn-only random offsets; pass deterministic offsets in tests by
// supplying a seeded *rand.Rand.
func VerifyPass(pass Pass, totalSize int64, read ReadAtFunc, rng *rand.Rand) (PassVerification, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	switch pass.Kind {
	case PassPattern:
		return verifyPatternPass(pass, totalSize, read)
	case PassRandom:
		return verifyRandomPass(pass, totalSize, read, rng)
	default:
		return PassVerification{}, fmt.Errorf("algorithms: unknown pass kind %d", pass.Kind)
	}
}

// uniformSpacing caps the sample count at the number of distinct
// chunk-sized positions and returns the stride that tiles [0, maxOffset]
// evenly.
func uniformSpacing(maxOffset, chunk int64, samples int) (int, int64) {
	if positions := maxOffset/chunk + 1; positions < int64(samples) {
		samples = int(positions)
	}
	var stride int64
	if samples > 1 {
		stride = maxOffset / int64(samples-1)
	}
	return samples, stride
}

func verifyPatternPass(pass Pass, totalSize int64, read ReadAtFunc) (PassVerification, error) {
	v := PassVerification{Pass: pass}
	if totalSize <= 0 || len(pass.Pattern) == 0 {
		v.Passed = true
		return v, nil
	}

	chunk := int64(len(pass.Pattern))
	if chunk < 4096 {
		chunk = 4096
	}
	if chunk > totalSize {
		chunk = totalSize
	}

	buf := make([]byte, chunk)
	plen := int64(len(pass.Pattern))

	maxOffset := totalSize - chunk
	samples, stride := uniformSpacing(maxOffset, chunk, uniformSampleOffsets)
	for i := 0; i < samples; i++ {
		offset := int64(i) * stride
		n, err := read(buf, offset)
		if err != nil {
			return v, fmt.Errorf("algorithms: verify read at offset %d: %w", offset, err)
		}
		v.SamplesRead++
		for j := 0; j < n; j++ {
			if buf[j] != pass.Pattern[(offset+int64(j))%plen] {
				v.Mismatches++
				break
			}
		}
	}

	v.Passed = v.Mismatches == 0
	if !v.Passed {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%d/%d sampled offsets mismatched expected pattern", v.Mismatches, v.SamplesRead))
	}
	return v, nil
}

func verifyRandomPass(pass Pass, totalSize int64, read ReadAtFunc, rng *rand.Rand) (PassVerification, error) {
	v := PassVerification{Pass: pass, MinEntropy: stats.EntropyPassThreshold + 1}
	if totalSize <= 0 {
		v.Passed = true
		v.MinEntropy = 0
		return v, nil
	}

	chunk := int64(randomSampleChunkSize)
	if chunk > totalSize {
		chunk = totalSize
	}
	maxOffset := totalSize - chunk

	buf := make([]byte, chunk)
	var entropySum float64
	enforced := 0
	failed := false

	// Enforced sweep: uniformly spaced offsets, each required to reach
	// the hard entropy floor.
	samples, stride := uniformSpacing(maxOffset, chunk, uniformSampleOffsets)
	for i := 0; i < samples; i++ {
		offset := int64(i) * stride
		n, err := read(buf, offset)
		if err != nil {
			return v, fmt.Errorf("algorithms: verify read at offset %d: %w", offset, err)
		}
		v.SamplesRead++
		enforced++

		h := stats.ShannonEntropy(buf[:n])
		entropySum += h
		if h < v.MinEntropy {
			v.MinEntropy = h
		}
		if h < stats.EntropyPassThreshold {
			failed = true
		}
	}

	if enforced > 0 {
		v.MeanEntropy = entropySum / float64(enforced)
	}

	// Additional random offsets, warn-only below the soft threshold.
	for i := 0; i < randomWarnOffsets; i++ {
		var offset int64
		if maxOffset > 0 {
			offset = rng.Int63n(maxOffset + 1)
		}
		n, err := read(buf, offset)
		if err != nil {
			return v, fmt.Errorf("algorithms: verify read at offset %d: %w", offset, err)
		}
		v.SamplesRead++

		if h := stats.ShannonEntropy(buf[:n]); h < stats.EntropyWarnThreshold {
			v.Warnings = append(v.Warnings, fmt.Sprintf("offset %d: entropy %.3f below warn threshold %.1f", offset, h, stats.EntropyWarnThreshold))
		}
	}

	v.Passed = !failed
	return v, nil
}
