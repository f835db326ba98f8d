package strategies

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
)

// HybridSSHDStrategy unpins and flushes the SSD cache layer first, then
// runs the 3-pass overwrite (0x00, 0xFF, random) over the HDD portion.
type HybridSSHDStrategy struct{}

func (HybridSSHDStrategy) Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	if err := hw.UnpinCache(ctx, dev); err != nil {
		return Result{}, fmt.Errorf("strategies: hybrid unpin cache: %w", err)
	}
	if err := hw.FlushCache(ctx, dev); err != nil {
		return Result{}, fmt.Errorf("strategies: hybrid flush cache: %w", err)
	}

	passes, err := runSoftwareOverwrite(h, dod3Pass, dev.SizeBytes, src, cfg, hooks, progress)
	return Result{Passes: passes}, err
}
