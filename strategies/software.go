package strategies

import (
	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
)

// runSoftwareOverwrite executes the full multi-pass algorithm named by
// algorithm against h, the shared software-overwrite fallback every
// hardware-assisted strategy drops into.
func runSoftwareOverwrite(h *ioengine.Handle, algorithm string, size int64, src algorithms.RandomFiller, cfg devicetypes.WipeConfig, hooks ExecHooks, progress ProgressFunc) ([]algorithms.PassResult, error) {
	result, err := algorithms.Run(h, algorithm, size, src, algorithms.RunOptions{
		Verify:      cfg.Verify,
		Progress:    toStrategyProgress(progress),
		Interrupted: hooks.Interrupted,
		StartAtPass: hooks.StartAtPass,
		AfterPass:   hooks.AfterPass,
	})
	if err != nil {
		return result.Passes, err
	}
	return result.Passes, nil
}

// dod3Pass is the default 3-pass overwrite shared by the hardware
// fallback paths (Optane, HybridSSHD, RAID member, NVMe sanitize
// failure).
const dod3Pass = string(devicetypes.AlgorithmDoD5220)
