package algorithms

import (
	"math/rand"

	"github.com/joeycumines/go-wipecore/ioengine"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

// Sequence resolves the named algorithm to its pass list. Zero and
// Random are single-pass; DoD5220 and Gutmann compose the respective
// multi-pass tables.
func Sequence(name string, encoding DriveEncoding) []Pass {
	switch name {
	case "Zero":
		return []Pass{{Kind: PassPattern, Pattern: ZeroPattern, Description: "single pass: 0x00"}}
	case "Random":
		return []Pass{{Kind: PassRandom, Description: "single pass: random"}}
	case "DoD5220":
		return DoDSequence()
	case "Gutmann":
		return PruneForEncoding(GutmannSequence(), encoding)
	default:
		return nil
	}
}

// PassProgress reports per-pass progress to a caller-supplied callback
// (normally the orchestrator, which folds it into a checkpoint record and
// a ProgressEvent).
type PassProgress struct {
	PassIndex    int
	TotalPasses  int
	BytesWritten int64
	TotalSize    int64
	Description  string
}

// ProgressFunc receives progress as each buffer is filled for writing and
// once more after each pass completes (write, then verify if enabled).
type ProgressFunc func(PassProgress)

// RunOptions configures Run.
type RunOptions struct {
	// Verify enables per-pass verification, mirroring
	// devicetypes.WipeConfig.Verify.
	Verify bool

	// Encoding optionally prunes a Gutmann sequence.
	Encoding DriveEncoding

	// Progress is called as each buffer is filled for writing and once
	// more after each pass completes (write, then verify if enabled). May
	// be nil.
	Progress ProgressFunc

	// Interrupted polls the process-wide interrupt flag between buffers.
	// May be nil.
	Interrupted ioengine.InterruptCheck

	// Rand seeds the warn-only random sample offsets of per-pass
	// verification; the enforced sweep is uniformly spaced and needs no
	// randomness. A nil value uses a fixed-seed source.
	Rand *rand.Rand

	// StartAtPass resumes a prior run from the given 0-indexed pass,
	// per the checkpoint-resume contract.
	StartAtPass int

	// StartOffset addresses a sub-region of the handle's device (an SMR
	// zone, an NVMe namespace, an eMMC boot partition) instead of the
	// beginning. Defaults to 0.
	StartOffset int64

	// AfterPass runs after each pass completes (write, sync, and verify
	// when enabled), before the next pass begins. A non-nil error aborts
	// the run. The orchestrator commits its per-pass checkpoint here, so
	// a crash between passes resumes at the right one. May be nil.
	AfterPass func(passIndex, totalPasses int, result PassResult) error
}

// PassResult is Run's per-pass outcome.
type PassResult struct {
	Pass         Pass
	Verification *PassVerification
}

// Result is Run's overall outcome.
type Result struct {
	Algorithm string
	Passes    []PassResult
}

// Run executes algorithm against h for size bytes, composing
// fill/write/verify/progress: "for each pass: fill each
// buffer per the pass's kind, write sequentially, then verify".
func Run(h *ioengine.Handle, algorithm string, size int64, src RandomFiller, opts RunOptions) (Result, error) {
	passes := Sequence(algorithm, opts.Encoding)
	if passes == nil {
		return Result{}, &wipeerrors.Unsupported{Reason: "algorithms: unknown algorithm " + algorithm}
	}
	if opts.StartAtPass < 0 || opts.StartAtPass > len(passes) {
		opts.StartAtPass = 0
	}

	result := Result{Algorithm: algorithm}

	for i := opts.StartAtPass; i < len(passes); i++ {
		pass := passes[i]

		fill := passFillFunc(pass, src, opts.StartOffset)
		if err := ioengine.SequentialWriteRange(h, opts.StartOffset, size, fillWithProgress(fill, i, len(passes), size, opts.StartOffset, pass.Description, opts.Progress), opts.Interrupted); err != nil {
			return result, err
		}
		if err := h.Sync(); err != nil {
			return result, err
		}

		pr := PassResult{Pass: pass}
		if opts.Verify {
			v, err := VerifyPass(pass, size, offsetReader(h.ReadAt, opts.StartOffset), opts.Rand)
			if err != nil {
				return result, err
			}
			pr.Verification = &v
		}
		result.Passes = append(result.Passes, pr)

		if opts.AfterPass != nil {
			if err := opts.AfterPass(i, len(passes), pr); err != nil {
				return result, err
			}
		}

		if opts.Progress != nil {
			desc := pass.Description
			if opts.Verify {
				desc += " (verified)"
			}
			opts.Progress(PassProgress{
				PassIndex:    i,
				TotalPasses:  len(passes),
				BytesWritten: size,
				TotalSize:    size,
				Description:  desc,
			})
		}
	}

	return result, nil
}

// offsetReader rebases a ReadAtFunc so pattern/entropy sampling addresses
// a sub-region starting at base, keeping VerifyPass's own offsets
// zero-based relative to the region under test.
func offsetReader(read ReadAtFunc, base int64) ReadAtFunc {
	if base == 0 {
		return read
	}
	return func(buf []byte, offset int64) (int, error) {
		return read(buf, base+offset)
	}
}

func passFillFunc(pass Pass, src RandomFiller, base int64) ioengine.FillFunc {
	return func(buf []byte, offset int64) (int, error) {
		switch pass.Kind {
		case PassPattern:
			if n := int64(len(pass.Pattern)); n > 1 {
				// Tie the pattern's phase to the region offset, so byte o of
				// the region is Pattern[o mod len(Pattern)] whatever the
				// buffer size.
				for i := range buf {
					buf[i] = pass.Pattern[(offset-base+int64(i))%n]
				}
			} else {
				FillPattern(buf, pass.Pattern)
			}
		case PassRandom:
			if err := FillRandom(buf, src); err != nil {
				return 0, err
			}
		}
		return len(buf), nil
	}
}

func fillWithProgress(fill ioengine.FillFunc, passIndex, totalPasses int, totalSize, startOffset int64, desc string, progress ProgressFunc) ioengine.FillFunc {
	if progress == nil {
		return fill
	}
	return func(buf []byte, offset int64) (int, error) {
		n, err := fill(buf, offset)
		if err != nil {
			return n, err
		}
		progress(PassProgress{
			PassIndex:    passIndex,
			TotalPasses:  totalPasses,
			BytesWritten: offset - startOffset + int64(n),
			TotalSize:    totalSize,
			Description:  desc,
		})
		return n, nil
	}
}
