package strategies

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
)

// SMRStrategy is the zone-aware destruction path for shingled drives:
// reset all sequential zones, then write each zone sequentially from its
// start LBA; multi-pass algorithms execute the full zone sweep once per
// pass.
type SMRStrategy struct {
	// SectorSize converts LBA/sector counts to byte offsets. Defaults to
	// ioengine.SectorSize when zero.
	SectorSize int64
}

func (s SMRStrategy) Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	sectorSize := s.SectorSize
	if sectorSize == 0 {
		sectorSize = ioengine.SectorSize
	}

	for _, z := range dev.Zones {
		if z.IsSequential() {
			if err := hw.ResetZone(ctx, dev, z); err != nil {
				return Result{}, fmt.Errorf("strategies: smr reset zone %d: %w", z.Number, err)
			}
		}
	}

	passSequence := algorithms.Sequence(string(cfg.Algorithm), algorithms.EncodingUnknown)
	if passSequence == nil {
		return Result{}, fmt.Errorf("strategies: smr unknown algorithm %q", cfg.Algorithm)
	}

	var res Result
	// Each pass is driven once across every zone before the next pass
	// begins.
	for passIdx, pass := range passSequence {
		if passIdx < hooks.StartAtPass {
			continue
		}
		for _, z := range dev.Zones {
			zoneOffset := int64(z.StartLBA) * sectorSize
			zoneSize := int64(z.CapacitySectors) * sectorSize
			if zoneSize <= 0 {
				continue
			}

			fill := func(buf []byte, offset int64) (int, error) {
				switch pass.Kind {
				case algorithms.PassPattern:
					if n := int64(len(pass.Pattern)); n > 1 {
						for i := range buf {
							buf[i] = pass.Pattern[(offset-zoneOffset+int64(i))%n]
						}
					} else {
						algorithms.FillPattern(buf, pass.Pattern)
					}
				case algorithms.PassRandom:
					if err := algorithms.FillRandom(buf, src); err != nil {
						return 0, err
					}
				}
				return len(buf), nil
			}

			if err := ioengine.SequentialWriteRange(h, zoneOffset, zoneSize, fill, hooks.Interrupted); err != nil {
				return res, fmt.Errorf("strategies: smr zone %d pass %d: %w", z.Number, passIdx, err)
			}
			if err := h.Sync(); err != nil {
				return res, err
			}

			pr := algorithms.PassResult{Pass: pass}
			if cfg.Verify {
				read := func(buf []byte, offset int64) (int, error) { return h.ReadAt(buf, zoneOffset+offset) }
				v, err := algorithms.VerifyPass(pass, zoneSize, read, nil)
				if err != nil {
					return res, fmt.Errorf("strategies: smr zone %d verify: %w", z.Number, err)
				}
				pr.Verification = &v
			}
			res.Passes = append(res.Passes, pr)

			emit(progress, Event{
				Kind:        EventTick,
				Description: fmt.Sprintf("zone %d: %s", z.Number, pass.Description),
				PassIndex:   passIdx,
				TotalPasses: len(passSequence),
				BytesDone:   zoneSize,
				TotalBytes:  zoneSize,
			})
		}

		if hooks.AfterPass != nil {
			if err := hooks.AfterPass(passIdx, len(passSequence), algorithms.PassResult{Pass: pass}); err != nil {
				return res, err
			}
		}
	}

	return res, nil
}
