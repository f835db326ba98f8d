package strategies

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
)

// OptaneStrategy prefers hardware Instant Secure Erase when the device
// supports it, and otherwise runs the 3-phase software overwrite (0x00,
// 0xFF, random) across every namespace.
type OptaneStrategy struct{}

func (OptaneStrategy) Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	if dev.Capabilities.SupportsEnhancedErase {
		if err := hw.InstantSecureErase(ctx, dev); err == nil {
			return Result{HardwareUsed: true}, nil
		} else {
			emit(progress, Event{Kind: EventFallback, Description: fmt.Sprintf("instant secure erase failed: %v", err), Err: err})
		}
	}

	namespaces := dev.Namespaces
	if len(namespaces) == 0 {
		namespaces = []devicetypes.Namespace{{NSID: 1, SizeBytes: dev.SizeBytes, Type: devicetypes.NamespaceTypeBlock, DevicePath: dev.Path, Active: true}}
	}

	res := Result{FallbackReason: "instant secure erase unsupported or failed"}
	var offset int64
	for _, ns := range namespaces {
		out, err := algorithms.Run(h, dod3Pass, ns.SizeBytes, src, algorithms.RunOptions{
			Verify:      cfg.Verify,
			Progress:    toStrategyProgress(progress),
			Interrupted: hooks.Interrupted,
			StartAtPass: hooks.StartAtPass,
			AfterPass:   hooks.AfterPass,
			StartOffset: offset,
		})
		res.Passes = append(res.Passes, out.Passes...)
		if err != nil {
			return res, fmt.Errorf("strategies: optane namespace %d: %w", ns.NSID, err)
		}
		offset += ns.SizeBytes
	}
	return res, nil
}
