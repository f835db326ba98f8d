package verify

import "github.com/joeycumines/go-wipecore/stats"

// Thresholds externalizes the analyzer's pass criteria so they can be
// tuned per compliance standard rather than baked in. The zero value is
// not meaningful; start from DefaultThresholds.
type Thresholds struct {
	// Entropy is the bits/byte floor a wiped chunk must reach.
	Entropy float64
	// EntropyWarn is the softer warning floor. The Analyzer does not read
	// it: EntropyPass depends on Entropy alone, and no warning is derived
	// from this value.
	EntropyWarn float64
	// ChiSquare is the goodness-of-fit ceiling for typical sample sizes.
	ChiSquare float64
	// StructuredEntropy is the ceiling below which a chunk is flagged as
	// structured data rather than overwritten noise.
	StructuredEntropy float64
	// SectorEntropy is the per-sector floor for sector sampling; sectors
	// below it are flagged.
	SectorEntropy float64
	// DominantWindowFraction is the repeating-window detector's trigger:
	// a single window occupying more than this fraction of chunks.
	DominantWindowFraction float64
	// FalseNegativeCeiling is the false-negative rate below which the
	// pre-wipe capability component earns full marks in the confidence
	// score.
	FalseNegativeCeiling float64
}

// DefaultThresholds returns the standard values; callers override them
// per compliance standard.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Entropy:                stats.EntropyPassThreshold,
		EntropyWarn:            stats.EntropyWarnThreshold,
		ChiSquare:              stats.ChiSquarePassThreshold,
		StructuredEntropy:      4.0,
		SectorEntropy:          6.0,
		DominantWindowFraction: 0.5,
		FalseNegativeCeiling:   0.01,
	}
}
