package verify

import (
	"fmt"
	"math/rand"

	"github.com/joeycumines/go-wipecore/ioengine"
	"github.com/joeycumines/go-wipecore/logging"
	"github.com/joeycumines/go-wipecore/stats"
)

// Analyzer runs the pre- and post-wipe analyses against
// an open I/O handle.
type Analyzer struct {
	thresholds Thresholds
	log        *logging.Logger
	rand       *rand.Rand
	hidden     *HiddenAreaInput
}

// AnalyzerOption configures an Analyzer at construction.
type AnalyzerOption func(*Analyzer)

// WithHiddenAreaInput supplies the collaborator-gathered evidence used by
// Level4's hidden-area checks. Without it, Level4 reports the checks as
// unverified.
func WithHiddenAreaInput(in HiddenAreaInput) AnalyzerOption {
	return func(a *Analyzer) { a.hidden = &in }
}

// WithRand fixes the sampling offset source, for deterministic tests.
func WithRand(r *rand.Rand) AnalyzerOption {
	return func(a *Analyzer) { a.rand = r }
}

// NewAnalyzer constructs an Analyzer with the given thresholds; pass
// DefaultThresholds() for the standard criteria.
func NewAnalyzer(th Thresholds, log *logging.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{thresholds: th, log: log}
	for _, opt := range opts {
		opt(a)
	}
	if a.rand == nil {
		a.rand = rand.New(rand.NewSource(rand.Int63()))
	}
	return a
}

// chunkAccumulator folds sampled chunks into the running analysis.
type chunkAccumulator struct {
	th      Thresholds
	a       *PostWipeAnalysis
	windows *windowCounter

	entropySum float64
	chiSample  []byte
	panelData  []byte
}

// Bounded carry-over for the aggregate chi-square and panel inputs, so a
// full scan does not hold the device in memory.
const (
	chiSampleCap   = 1 << 20
	panelSampleCap = 64 << 10
)

func newChunkAccumulator(th Thresholds, a *PostWipeAnalysis) *chunkAccumulator {
	a.MinEntropy = 8.0
	return &chunkAccumulator{th: th, a: a, windows: newWindowCounter()}
}

func (c *chunkAccumulator) observe(chunk []byte, offset int64) {
	if len(chunk) == 0 {
		return
	}
	c.a.ChunksAnalyzed++
	c.a.BytesSampled += int64(len(chunk))

	h := stats.ShannonEntropy(chunk)
	c.entropySum += h
	if h < c.a.MinEntropy {
		c.a.MinEntropy = h
	}
	if h < c.th.StructuredEntropy {
		c.a.StructuredChunks++
	}

	c.windows.observe(chunk)
	c.a.SignatureHits = append(c.a.SignatureHits, scanSignatures(chunk, offset)...)

	// Sector sampling within the chunk
	for s := 0; s+ioengine.SectorSize <= len(chunk); s += ioengine.SectorSize {
		sector := chunk[s : s+ioengine.SectorSize]
		sh := stats.ShannonEntropy(sector)
		kw := matchKeyword(sector)
		if sh < c.th.SectorEntropy || kw != "" {
			c.a.SuspectSectors = append(c.a.SuspectSectors, SectorFinding{
				Offset:  offset + int64(s),
				Entropy: sh,
				Keyword: kw,
			})
		}
	}

	if len(c.chiSample) < chiSampleCap {
		c.chiSample = append(c.chiSample, chunk...)
	}
	if len(c.panelData) < panelSampleCap {
		c.panelData = append(c.panelData, chunk...)
	}
}

func (c *chunkAccumulator) finish() {
	a := c.a
	if a.ChunksAnalyzed > 0 {
		a.MeanEntropy = c.entropySum / float64(a.ChunksAnalyzed)
	} else {
		a.MinEntropy = 0
	}
	a.ChiSquare = stats.ChiSquare(c.chiSample)
	a.Panel = stats.EvaluatePanel(c.panelData)
	a.EntropyPass = a.ChunksAnalyzed == 0 || a.MinEntropy >= c.th.Entropy
	a.ChiSquarePass = a.ChunksAnalyzed == 0 || a.ChiSquare < c.th.ChiSquare
	a.RepeatingWindow, a.RepeatingWindowSize = c.windows.dominant(c.th.DominantWindowFraction)
}

// PostWipeVerification runs the analysis at the given depth.
func (a *Analyzer) PostWipeVerification(h *ioengine.Handle, size int64, level Level) (*PostWipeAnalysis, error) {
	analysis := &PostWipeAnalysis{Level: level, DeviceSize: size}
	acc := newChunkAccumulator(a.thresholds, analysis)

	if size > 0 {
		var err error
		switch level {
		case Level1RandomSampling:
			err = a.sampleStratified(h, size, acc)
		case Level2SystematicSampling:
			err = a.sampleSystematic(h, size, acc)
		case Level3FullScan, Level4ForensicScan:
			err = a.fullScan(h, size, acc, level == Level4ForensicScan, analysis)
		default:
			return nil, fmt.Errorf("verify: unknown level %d", level)
		}
		if err != nil {
			return nil, err
		}
	}
	acc.finish()

	if level >= Level4ForensicScan {
		in := HiddenAreaInput{}
		if a.hidden != nil {
			in = *a.hidden
		}
		analysis.Hidden = evaluateHiddenAreas(in)
		flux := analyzeFlux(acc.panelData)
		analysis.Flux = &flux
	}
	if level >= Level3FullScan {
		analysis.Recovery = simulateRecovery(analysis)
	}

	logging.WithComponent(a.log, "verify").Info().
		Str("level", level.String()).
		Int("chunks", analysis.ChunksAnalyzed).
		Float64("mean_entropy", analysis.MeanEntropy).
		Log("post-wipe analysis complete")

	return analysis, nil
}

// sampleStratified implements Level1: beginning, middle, and end quarters
// plus uniform-random chunks, ~1% of the device bounded to 10 MiB-1 GiB.
func (a *Analyzer) sampleStratified(h *ioengine.Handle, size int64, acc *chunkAccumulator) error {
	target := size / 100
	if target < level1MinSample {
		target = level1MinSample
	}
	if target > level1MaxSample {
		target = level1MaxSample
	}
	if target > size {
		target = size
	}

	chunks := int(target / sampleChunkSize)
	if chunks < 1 {
		chunks = 1
	}

	buf := make([]byte, sampleChunkSize)
	read := func(offset int64) error {
		if offset < 0 || offset >= size {
			return nil
		}
		chunk := buf
		if remaining := size - offset; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}
		n, err := h.ReadAt(chunk, offset)
		if err != nil && n == 0 {
			return err
		}
		acc.observe(chunk[:n], offset)
		return nil
	}

	// On devices small enough that the budget covers everything, the
	// sample is the device.
	if target >= size {
		for offset := int64(0); offset < size; offset += sampleChunkSize {
			if err := read(offset); err != nil {
				return err
			}
		}
		return nil
	}

	// One quarter of the budget each at the beginning, middle, and end;
	// the rest uniform-random.
	strata := chunks / 4
	for i := 0; i < strata; i++ {
		if err := read(int64(i) * sampleChunkSize); err != nil {
			return err
		}
	}
	midBase := (size / 2) / sampleChunkSize * sampleChunkSize
	for i := 0; i < strata; i++ {
		offset := midBase + int64(i)*sampleChunkSize
		if offset >= size {
			break
		}
		if err := read(offset); err != nil {
			return err
		}
	}
	endBase := size - int64(strata)*sampleChunkSize
	if endBase < 0 {
		endBase = 0
	}
	for i := 0; i < strata; i++ {
		offset := endBase + int64(i)*sampleChunkSize
		if offset >= size {
			break
		}
		if err := read(offset); err != nil {
			return err
		}
	}
	maxChunk := size / sampleChunkSize
	for i := strata * 3; i < chunks; i++ {
		var offset int64
		if maxChunk > 0 {
			offset = a.rand.Int63n(maxChunk) * sampleChunkSize
		}
		if err := read(offset); err != nil {
			return err
		}
	}
	return nil
}

// sampleSystematic implements Level2: a chunk read at every Nth sector.
func (a *Analyzer) sampleSystematic(h *ioengine.Handle, size int64, acc *chunkAccumulator) error {
	stride := int64(systematicSectorStride) * ioengine.SectorSize
	buf := make([]byte, sampleChunkSize)
	for offset := int64(0); offset < size; offset += stride {
		chunk := buf
		if remaining := size - offset; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}
		n, err := h.ReadAt(chunk, offset)
		if err != nil && n == 0 {
			return err
		}
		acc.observe(chunk[:n], offset)
	}
	return nil
}

// fullScan implements Level3/Level4: read the whole device, analyzing
// every 10th chunk to bound memory; Level4 also builds the entropy heat
// map.
func (a *Analyzer) fullScan(h *ioengine.Handle, size int64, acc *chunkAccumulator, heatMap bool, analysis *PostWipeAnalysis) error {
	const heatCells = 64
	cellSize := size / heatCells
	if cellSize < sampleChunkSize {
		cellSize = sampleChunkSize
	}

	var (
		chunkIndex  int
		cellStart   int64
		cellEntropy float64
		cellChunks  int
	)
	flushCell := func(end int64) {
		if !heatMap || cellChunks == 0 {
			return
		}
		analysis.HeatMap = append(analysis.HeatMap, HeatCell{
			Offset:  cellStart,
			Length:  end - cellStart,
			Entropy: cellEntropy / float64(cellChunks),
		})
		cellStart = end
		cellEntropy = 0
		cellChunks = 0
	}

	err := ioengine.SequentialRead(h, size, func(buf []byte, offset int64, n int) error {
		chunk := buf[:n]
		if chunkIndex%fullScanAnalyzeEvery == 0 {
			acc.observe(chunk, offset)
		}
		chunkIndex++
		if heatMap {
			cellEntropy += stats.ShannonEntropy(chunk)
			cellChunks++
			if offset+int64(n)-cellStart >= cellSize {
				flushCell(offset + int64(n))
			}
		}
		return nil
	}, nil)
	if err != nil {
		return err
	}
	flushCell(size)
	return nil
}
