package recovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/strategies"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

// Healer attempts to repair the condition behind a Recoverable-class
// error so the original operation can be retried.
type Healer interface {
	// Name identifies the healer for logging.
	Name() string
	// CanHeal reports whether this healer applies to err.
	CanHeal(err error) bool
	// Heal attempts the repair. Success means the coordinator retries the
	// original operation once.
	Heal(ctx context.Context, err error) error
}

// UnfreezeHealer clears an asserted drive freeze by trying the unfreeze
// strategies in Chain, in order, stopping at the first success. The
// coordinator invokes it when a *wipeerrors.DriveFrozen error is
// classified Recoverable.
type UnfreezeHealer struct {
	Chain    []strategies.UnfreezeStrategy
	Hardware strategies.HardwareCommander
	Device   devicetypes.Device
}

// NewUnfreezeHealer builds an UnfreezeHealer over the default strategy
// chain.
func NewUnfreezeHealer(hw strategies.HardwareCommander, dev devicetypes.Device) *UnfreezeHealer {
	return &UnfreezeHealer{
		Chain:    strategies.DefaultUnfreezeChain(),
		Hardware: hw,
		Device:   dev,
	}
}

func (h *UnfreezeHealer) Name() string { return "unfreeze" }

func (h *UnfreezeHealer) CanHeal(err error) bool {
	var frozen *wipeerrors.DriveFrozen
	return errors.As(err, &frozen)
}

func (h *UnfreezeHealer) Heal(ctx context.Context, err error) error {
	var lastErr error
	for _, s := range h.Chain {
		if attemptErr := s.Attempt(ctx, h.Hardware, h.Device); attemptErr == nil {
			return nil
		} else {
			lastErr = attemptErr
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("recovery: no unfreeze strategies configured")
	}
	return fmt.Errorf("recovery: every unfreeze strategy failed: %w", lastErr)
}
