package strategies

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
)

// SSDStrategy runs the software overwrite, followed by a discard pass
// when the drive supports TRIM and the configuration asks for it.
type SSDStrategy struct{}

func (SSDStrategy) Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	passes, err := runSoftwareOverwrite(h, string(cfg.Algorithm), dev.SizeBytes, src, cfg, hooks, progress)
	if err != nil {
		return Result{Passes: passes}, err
	}

	res := Result{Passes: passes}
	if cfg.UseTrimAfter && dev.Capabilities.SupportsTRIM {
		if err := hw.Trim(ctx, dev); err != nil {
			emit(progress, Event{Kind: EventError, Description: fmt.Sprintf("TRIM failed: %v", err), Err: err})
			return res, fmt.Errorf("strategies: ssd trim: %w", err)
		}
		emit(progress, Event{Kind: EventPassDone, Description: "discard pass complete"})
	}
	return res, nil
}
