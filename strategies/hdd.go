package strategies

import (
	"context"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
)

// HDDStrategy is the plain software overwrite for conventional drives.
type HDDStrategy struct{}

func (HDDStrategy) Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	passes, err := runSoftwareOverwrite(h, string(cfg.Algorithm), dev.SizeBytes, src, cfg, hooks, progress)
	return Result{Passes: passes}, err
}
