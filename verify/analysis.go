package verify

import (
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/stats"
)

// SectorFinding flags one sampled sector: low entropy, or a match from
// the sensitive-keyword list.
type SectorFinding struct {
	Offset  int64
	Entropy float64
	Keyword string
}

// HeatCell is one cell of the Level4 entropy heat map.
type HeatCell struct {
	Offset  int64
	Length  int64
	Entropy float64
}

// HiddenAreaInput is the collaborator-supplied evidence for the Level4
// hidden-area checks. Drive enumeration, SMART polling,
// and cache control are external concerns; this core only
// consumes and scores the data shape.
type HiddenAreaInput struct {
	HPAPresent         bool
	DCOPresent         bool
	HiddenSectors      uint64
	Health             devicetypes.Health
	CacheFlushVerified bool
	// OverProvisioningChecked reports whether the over-provisioned area
	// was addressed (hardware erase or sanitize), where applicable.
	OverProvisioningChecked bool
}

// HiddenAreaResult is the scored outcome of the hidden-area checks.
type HiddenAreaResult struct {
	Input    HiddenAreaInput
	Verified bool
	Findings []string
}

func evaluateHiddenAreas(in HiddenAreaInput) *HiddenAreaResult {
	r := &HiddenAreaResult{Input: in, Verified: true}
	if in.HPAPresent {
		r.Verified = false
		r.Findings = append(r.Findings, "host protected area still present")
	}
	if in.DCOPresent {
		r.Verified = false
		r.Findings = append(r.Findings, "device configuration overlay still present")
	}
	if in.HiddenSectors > 0 {
		r.Verified = false
		r.Findings = append(r.Findings, "hidden sectors remain unaddressed")
	}
	if !in.CacheFlushVerified {
		r.Verified = false
		r.Findings = append(r.Findings, "controller cache flush not verified")
	}
	if in.Health.ReallocatedSectorCount > 0 {
		r.Findings = append(r.Findings, "reallocated sectors may retain pre-wipe data in the grown defect list")
	}
	if in.Health.PendingSectorCount > 0 {
		r.Findings = append(r.Findings, "pending sectors were unreadable during the wipe")
	}
	return r
}

// FluxAnalysis is the Level4 MFM-style flux-transition check for HDDs:
// overwritten magnetic media should show a transition density close to
// that of random data; strong bias suggests residual structure.
type FluxAnalysis struct {
	TransitionRatio float64
	Suspicious      bool
}

func analyzeFlux(data []byte) FluxAnalysis {
	if len(data) == 0 {
		return FluxAnalysis{TransitionRatio: 0.5}
	}
	transitions := 0
	totalBits := len(data) * 8
	var prev byte
	first := true
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			if !first && bit != prev {
				transitions++
			}
			prev = bit
			first = false
		}
	}
	ratio := float64(transitions) / float64(totalBits-1)
	return FluxAnalysis{
		TransitionRatio: ratio,
		Suspicious:      ratio < 0.45 || ratio > 0.55,
	}
}

// PostWipeAnalysis is the structured post-wipe result
type PostWipeAnalysis struct {
	Level          Level
	DeviceSize     int64
	BytesSampled   int64
	ChunksAnalyzed int

	MeanEntropy float64
	MinEntropy  float64
	ChiSquare   float64
	Panel       stats.Panel

	EntropyPass   bool
	ChiSquarePass bool

	// RepeatingWindow reports the pattern-analysis trigger: a single
	// window of size {4,8,16} occupying more than half of the analyzed
	// chunks.
	RepeatingWindow     bool
	RepeatingWindowSize int

	SignatureHits    []SignatureHit
	StructuredChunks int
	SuspectSectors   []SectorFinding

	// Hidden, Flux, and HeatMap are populated at Level4 only.
	Hidden  *HiddenAreaResult
	Flux    *FluxAnalysis
	HeatMap []HeatCell

	// Recovery is populated at Level3 and above.
	Recovery *RecoverySimulation
}

// windowCounter tallies leading windows of size {4,8,16} across chunks
// to detect a dominant repeating pattern: a single window occupying more
// than half of all chunks.
type windowCounter struct {
	counts map[int]map[string]int
	chunks int
}

func newWindowCounter() *windowCounter {
	return &windowCounter{counts: map[int]map[string]int{4: {}, 8: {}, 16: {}}}
}

func (w *windowCounter) observe(chunk []byte) {
	w.chunks++
	for _, size := range []int{4, 8, 16} {
		if len(chunk) < size {
			continue
		}
		w.counts[size][string(chunk[:size])]++
	}
}

func (w *windowCounter) dominant(fraction float64) (bool, int) {
	if w.chunks == 0 {
		return false, 0
	}
	for _, size := range []int{4, 8, 16} {
		for _, n := range w.counts[size] {
			if float64(n) > float64(w.chunks)*fraction {
				return true, size
			}
		}
	}
	return false, 0
}
