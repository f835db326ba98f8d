package strategies

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-wipecore/devicetypes"
)

// UnfreezeStrategy is one named vendor-specific mitigation for an
// asserted ATA SECURITY FREEZE. Actually
// invoking the hotplug/ACPI mechanism remains an external collaborator
// concern; this package only defines the interface and the
// order strategies are tried in.
type UnfreezeStrategy interface {
	// Name identifies the strategy for logging and the certificate.
	Name() string
	// Attempt asks hw to try this strategy against dev.
	Attempt(ctx context.Context, hw HardwareCommander, dev devicetypes.Device) error
}

type namedUnfreeze string

func (n namedUnfreeze) Name() string { return string(n) }

func (n namedUnfreeze) Attempt(ctx context.Context, hw HardwareCommander, dev devicetypes.Device) error {
	if err := hw.Unfreeze(ctx, dev, string(n)); err != nil {
		return fmt.Errorf("strategies: unfreeze strategy %q: %w", n, err)
	}
	return nil
}

// Default unfreeze strategies, tried in order by the recovery
// coordinator's self-healer.
const (
	UnfreezeHotplug       = namedUnfreeze("hotplug")
	UnfreezeSuspendResume = namedUnfreeze("suspend-resume")
	UnfreezeSleepWake     = namedUnfreeze("sleep-wake")
)

// DefaultUnfreezeChain is the ordered registry tried by the recovery
// coordinator's self-healer when a DriveFrozen error is classified.
func DefaultUnfreezeChain() []UnfreezeStrategy {
	return []UnfreezeStrategy{UnfreezeHotplug, UnfreezeSuspendResume, UnfreezeSleepWake}
}
