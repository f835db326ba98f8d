package verify

import (
	"fmt"

	"github.com/joeycumines/go-wipecore/ioengine"
	"github.com/joeycumines/go-wipecore/logging"
	"github.com/joeycumines/go-wipecore/stats"
)

// PreWipeResult measures the analyzer's own detector quality against
// planted evidence `pre_wipe_capability_test`: pattern
// detection, sensitivity, and false-positive/false-negative rates.
type PreWipeResult struct {
	// PatternDetection is the fraction of planted file signatures the
	// signature scanner found.
	PatternDetection float64
	// Sensitivity is the fraction of planted structured (low-entropy)
	// chunks the entropy detector flagged.
	Sensitivity float64
	// FalsePositiveRate is the fraction of random control chunks any
	// detector fired on.
	FalsePositiveRate float64
	// FalseNegativeRate is the fraction of planted evidence chunks no
	// detector fired on.
	FalseNegativeRate float64
	// SimulationDetection is the fraction of planted partition magics the
	// recovery simulation's TestDisk-style scan found.
	SimulationDetection float64
}

// preWipeRegionChunks is the number of 4 KiB chunks the capability test
// writes into its test region: half planted evidence, half random
// controls.
const preWipeRegionChunks = 32

// PreWipeCapabilityTest writes known patterns into a small test region at
// the start of the device, reads them back, measures the analyzer's own
// detectors, then restores zeros
func (a *Analyzer) PreWipeCapabilityTest(h *ioengine.Handle, size int64) (*PreWipeResult, error) {
	regionSize := int64(preWipeRegionChunks * sampleChunkSize)
	if regionSize > size {
		return nil, fmt.Errorf("verify: device too small for capability test (%d < %d)", size, regionSize)
	}

	type planted struct {
		signature string
		partition bool
		lowEntropy bool
	}
	plan := make([]planted, preWipeRegionChunks)
	buf := make([]byte, sampleChunkSize)

	// Even chunks carry evidence, odd chunks are random controls.
	signatures := []struct {
		name      string
		magic     []byte
		partition bool
	}{
		{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}, false},
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, false},
		{"PDF", []byte("%PDF-1.7"), false},
		{"SQLITE", []byte("SQLite format 3\x00"), false},
		{"GPT-HEADER", []byte("EFI PART"), true},
		{"NTFS", []byte("NTFS    "), true},
		{"XFS", []byte("XFSB"), true},
		{"LUKS", []byte("LUKS\xba\xbe"), true},
	}

	for i := 0; i < preWipeRegionChunks; i++ {
		offset := int64(i) * sampleChunkSize
		if i%2 == 1 {
			if err := a.fillControl(buf); err != nil {
				return nil, err
			}
		} else {
			sig := signatures[(i/2)%len(signatures)]
			lowEntropy := (i/2)%2 == 0
			a.fillEvidence(buf, sig.magic, lowEntropy)
			plan[i] = planted{signature: sig.name, partition: sig.partition, lowEntropy: lowEntropy}
		}
		if _, err := h.WriteAt(buf, offset); err != nil {
			return nil, fmt.Errorf("verify: capability test write: %w", err)
		}
	}
	if err := h.Sync(); err != nil {
		return nil, err
	}

	result := &PreWipeResult{}
	var (
		plantedTotal, sigFound       int
		lowEntropyTotal, lowFound    int
		controlTotal, falsePositives int
		partitionTotal, partFound    int
		missed                       int
	)

	for i := 0; i < preWipeRegionChunks; i++ {
		offset := int64(i) * sampleChunkSize
		n, err := h.ReadAt(buf, offset)
		if err != nil && n == 0 {
			return nil, fmt.Errorf("verify: capability test read: %w", err)
		}
		chunk := buf[:n]
		hits := scanSignatures(chunk, offset)
		entropy := stats.ShannonEntropy(chunk)
		structured := entropy < a.thresholds.StructuredEntropy

		if i%2 == 1 {
			controlTotal++
			if len(hits) > 0 || structured {
				falsePositives++
			}
			continue
		}

		p := plan[i]
		plantedTotal++
		detected := false
		for _, hit := range hits {
			if hit.Name == p.signature {
				sigFound++
				detected = true
				break
			}
		}
		if p.partition {
			partitionTotal++
			for _, hit := range hits {
				if partitionSignatureNames[hit.Name] {
					partFound++
					break
				}
			}
		}
		if p.lowEntropy {
			lowEntropyTotal++
			if structured {
				lowFound++
				detected = true
			}
		}
		if !detected {
			missed++
		}
	}

	if plantedTotal > 0 {
		result.PatternDetection = float64(sigFound) / float64(plantedTotal)
		result.FalseNegativeRate = float64(missed) / float64(plantedTotal)
	}
	if lowEntropyTotal > 0 {
		result.Sensitivity = float64(lowFound) / float64(lowEntropyTotal)
	}
	if controlTotal > 0 {
		result.FalsePositiveRate = float64(falsePositives) / float64(controlTotal)
	}
	if partitionTotal > 0 {
		result.SimulationDetection = float64(partFound) / float64(partitionTotal)
	}

	// Restore zeros over the test region.
	for i := range buf {
		buf[i] = 0
	}
	for i := 0; i < preWipeRegionChunks; i++ {
		if _, err := h.WriteAt(buf, int64(i)*sampleChunkSize); err != nil {
			return nil, fmt.Errorf("verify: capability test restore: %w", err)
		}
	}
	if err := h.Sync(); err != nil {
		return nil, err
	}

	logging.WithComponent(a.log, "verify").Info().
		Float64("pattern_detection", result.PatternDetection).
		Float64("false_negative_rate", result.FalseNegativeRate).
		Log("pre-wipe capability test complete")

	return result, nil
}

// fillEvidence writes magic at the chunk start, then either repeats a
// low-entropy filler or pads with pseudo-random bytes.
func (a *Analyzer) fillEvidence(buf []byte, magic []byte, lowEntropy bool) {
	if lowEntropy {
		for i := range buf {
			buf[i] = byte(i % 4)
		}
	} else {
		a.rand.Read(buf)
	}
	copy(buf, magic)
}

// fillControl fills buf with pseudo-random control bytes.
func (a *Analyzer) fillControl(buf []byte) error {
	_, err := a.rand.Read(buf)
	return err
}
