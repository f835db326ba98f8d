package strategies

import (
	"context"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

// UnsupportedStrategy refuses USB and unknown drive classes outright.
type UnsupportedStrategy struct{}

func (UnsupportedStrategy) Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	return Result{}, &wipeerrors.Unsupported{Reason: "strategies: drive class " + string(dev.Class) + " has no destruction strategy"}
}
