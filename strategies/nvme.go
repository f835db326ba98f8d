package strategies

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
)

// NVMeStrategy destroys NVMe devices. With advanced features present
// (ZNS, multiple active namespaces) it dispatches per namespace: block
// and computational namespaces get the 3-pass overwrite, zoned
// namespaces reset then write sequentially, key-value namespaces are
// formatted. Otherwise it attempts a crypto-erase-mode sanitize and
// falls back to the software 3-pass on failure.
type NVMeStrategy struct {
	SectorSize int64
}

func (n NVMeStrategy) hasAdvancedFeatures(dev devicetypes.Device) bool {
	if len(dev.Namespaces) > 1 {
		return true
	}
	for _, ns := range dev.Namespaces {
		if ns.Type == devicetypes.NamespaceTypeZoned {
			return true
		}
	}
	return false
}

func (n NVMeStrategy) Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	if n.hasAdvancedFeatures(dev) {
		return n.executePerNamespace(ctx, dev, cfg, hooks, h, src, hw, progress)
	}

	for _, mode := range dev.Capabilities.SanitizeModes {
		if mode != devicetypes.SanitizeModeCryptoErase {
			continue
		}
		if err := hw.Sanitize(ctx, dev, mode); err == nil {
			return Result{HardwareUsed: true}, nil
		} else {
			emit(progress, Event{Kind: EventFallback, Description: fmt.Sprintf("sanitize crypto erase failed: %v", err), Err: err})
		}
	}

	passes, err := runSoftwareOverwrite(h, dod3Pass, dev.SizeBytes, src, cfg, hooks, progress)
	return Result{Passes: passes, FallbackReason: "sanitize unsupported or failed"}, err
}

func (n NVMeStrategy) executePerNamespace(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error) {
	sectorSize := n.SectorSize
	if sectorSize == 0 {
		sectorSize = ioengine.SectorSize
	}

	var res Result
	var offset int64
	for _, ns := range dev.Namespaces {
		switch ns.Type {
		case devicetypes.NamespaceTypeBlock, devicetypes.NamespaceTypeComputational:
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
				return res, fmt.Errorf("strategies: nvme namespace %d: %w", ns.NSID, err)
			}

		case devicetypes.NamespaceTypeZoned:
			zoneStrategy := SMRStrategy{SectorSize: sectorSize}
			zoneDev := dev
			zoneDev.Zones = ns.Zones
			zoneDev.SizeBytes = ns.SizeBytes
			out, err := zoneStrategy.Execute(ctx, zoneDev, cfg, hooks, h, src, hw, progress)
			res.Passes = append(res.Passes, out.Passes...)
			if err != nil {
				return res, fmt.Errorf("strategies: nvme zoned namespace %d: %w", ns.NSID, err)
			}

		case devicetypes.NamespaceTypeKeyValue:
			if err := hw.FormatNamespace(ctx, dev, ns); err != nil {
				return res, fmt.Errorf("strategies: nvme format key-value namespace %d: %w", ns.NSID, err)
			}
			res.HardwareUsed = true
		}

		offset += ns.SizeBytes
	}

	return res, nil
}
