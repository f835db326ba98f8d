package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/go-wipecore/devicetypes"
)

// ExecuteMany wipes several devices in parallel with bounded fan-out:
// each device gets its own orchestrator, coordinator, checkpoint row,
// and I/O handle; they share only the RNG and the checkpoint database
// carried in opts. Results are positionally aligned
// with devices; a device that failed before producing a result leaves a
// nil slot. The first error is returned after every in-flight device
// finishes.
func ExecuteMany(ctx context.Context, devices []devicetypes.Device, cfg devicetypes.WipeConfig, opts Options, maxParallel int) ([]*Result, error) {
	if maxParallel <= 0 {
		maxParallel = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	results := make([]*Result, len(devices))
	for i, dev := range devices {
		i, dev := i, dev
		g.Go(func() error {
			o, err := New(dev, cfg, opts)
			if err != nil {
				return err
			}
			res, err := o.Execute(ctx)
			results[i] = res
			return err
		})
	}
	return results, g.Wait()
}
