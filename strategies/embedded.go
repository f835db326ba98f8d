package strategies

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
)

// emmcBootPartitionSize is the conventional size of each of an eMMC
// device's two boot-area partitions (typically 4 MiB), zeroed ahead of
// the user-data area. The device descriptor carries no boot-partition
// geometry, so this strategy treats the device's leading
// 2×emmcBootPartitionSize bytes as the boot areas and everything after
// as user data.
const emmcBootPartitionSize = 4 << 20

// EmbeddedStrategy attempts hardware secure erase on eMMC/UFS storage;
// on failure it random-overwrites the user-data area and zeroes the boot
// partitions.
type EmbeddedStrategy struct{}

func (EmbeddedStrategy) Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	if dev.Capabilities.SupportsSecureErase {
		if err := hw.SecureErase(ctx, dev, false); err == nil {
			return Result{HardwareUsed: true}, nil
		} else {
			emit(progress, Event{Kind: EventFallback, Description: fmt.Sprintf("secure erase failed: %v", err), Err: err})
		}
	}

	bootSize := int64(2 * emmcBootPartitionSize)
	if bootSize > dev.SizeBytes {
		bootSize = dev.SizeBytes
	}
	userDataSize := dev.SizeBytes - bootSize

	res := Result{FallbackReason: "secure erase unsupported or failed"}
	if bootSize > 0 {
		passes, err := algorithms.Run(h, string(devicetypes.AlgorithmZero), bootSize, src, algorithms.RunOptions{
			Verify:      cfg.Verify,
			Progress:    toStrategyProgress(progress),
			Interrupted: hooks.Interrupted,
		})
		res.Passes = append(res.Passes, passes.Passes...)
		if err != nil {
			return res, fmt.Errorf("strategies: embedded boot partition zero: %w", err)
		}
	}
	if userDataSize > 0 {
		passes, err := algorithms.Run(h, string(devicetypes.AlgorithmRandom), userDataSize, src, algorithms.RunOptions{
			Verify:      cfg.Verify,
			Progress:    toStrategyProgress(progress),
			Interrupted: hooks.Interrupted,
			AfterPass:   hooks.AfterPass,
			StartOffset: bootSize,
		})
		res.Passes = append(res.Passes, passes.Passes...)
		if err != nil {
			return res, fmt.Errorf("strategies: embedded user-data overwrite: %w", err)
		}
	}
	return res, nil
}
