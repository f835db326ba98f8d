package strategies

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

// raidMetadataRegionSize is the trailing region most RAID metadata
// formats (mdadm superblock 1.0/1.1/1.2, most hardware-RAID vendor
// formats) occupy; used only when OverwriteMetadata requests the extra
// pass described
const raidMetadataRegionSize = 1 << 20

// RAIDStrategy wipes a RAID member with the default 3-pass, optionally
// overwriting the trailing metadata region, and only under an explicit
// force flag.
type RAIDStrategy struct {
	// Force must be true before a RAID member is touched; destroying a
	// disk that still belongs to an array is never implicit.
	Force bool
	// OverwriteMetadata additionally zeroes the trailing metadata region
	// after the member's main 3-pass completes.
	OverwriteMetadata bool
}

func (r RAIDStrategy) Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	if !r.Force {
		return Result{}, &wipeerrors.Unsupported{Reason: "strategies: RAID member requires explicit force"}
	}

	passes, err := runSoftwareOverwrite(h, dod3Pass, dev.SizeBytes, src, cfg, hooks, progress)
	res := Result{Passes: passes}
	if err != nil {
		return res, err
	}

	if r.OverwriteMetadata {
		metaSize := int64(raidMetadataRegionSize)
		if metaSize > dev.SizeBytes {
			metaSize = dev.SizeBytes
		}
		metaOffset := dev.SizeBytes - metaSize

		out, err := algorithms.Run(h, string(devicetypes.AlgorithmZero), metaSize, src, algorithms.RunOptions{
			Verify:      cfg.Verify,
			Progress:    toStrategyProgress(progress),
			StartOffset: metaOffset,
		})
		res.Passes = append(res.Passes, out.Passes...)
		if err != nil {
			return res, fmt.Errorf("strategies: raid metadata region: %w", err)
		}
	}

	return res, nil
}
