package strategies

import (
	"context"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
)

// HardwareCommander is the external device collaborator strategies call
// through for vendor-specific commands; per-command timeouts live on its
// side of the boundary. Every method may return a
// *wipeerrors.HardwareCommandFailed (or a more specific classified
// error); strategies interpret failures as a fallback signal, never as a
// reason to retry here. Retry belongs to the recovery coordinator.
type HardwareCommander interface {
	// SecureErase issues ATA SECURITY ERASE UNIT (or equivalent).
	SecureErase(ctx context.Context, dev devicetypes.Device, enhanced bool) error
	// InstantSecureErase issues an Optane/3D XPoint ISE command.
	InstantSecureErase(ctx context.Context, dev devicetypes.Device) error
	// CryptoErase issues a SED crypto-erase. method is the OPAL method
	// actually used ("PSID_RESET" or "INSTANT_SECURE_ERASE"), recorded
	// in the certificate-facing result.
	CryptoErase(ctx context.Context, dev devicetypes.Device) (method string, err error)
	// Sanitize issues an NVMe Sanitize command in the given mode.
	Sanitize(ctx context.Context, dev devicetypes.Device, mode devicetypes.SanitizeMode) error
	// Trim issues a TRIM/UNMAP/discard over the whole device.
	Trim(ctx context.Context, dev devicetypes.Device) error
	// ResetZone resets a single SMR/ZNS zone's write pointer to its start.
	ResetZone(ctx context.Context, dev devicetypes.Device, zone devicetypes.Zone) error
	// FlushCache flushes and disables a hybrid drive's SSD cache layer.
	FlushCache(ctx context.Context, dev devicetypes.Device) error
	// UnpinCache releases any pinned regions in a hybrid drive's SSD
	// cache before the cache is flushed and disabled.
	UnpinCache(ctx context.Context, dev devicetypes.Device) error
	// FormatNamespace issues an NVMe Format NVM for a key-value namespace.
	FormatNamespace(ctx context.Context, dev devicetypes.Device, ns devicetypes.Namespace) error
	// Unfreeze attempts to clear an asserted ATA SECURITY FREEZE using the
	// named strategy (see UnfreezeStrategy).
	Unfreeze(ctx context.Context, dev devicetypes.Device, strategy string) error
	// DetectHPA reports whether a host protected area or device
	// configuration overlay hides capacity, and how many sectors it hides.
	DetectHPA(ctx context.Context, dev devicetypes.Device) (present bool, hiddenSectors uint64, err error)
	// RemoveHPA reveals the hidden capacity, returning the original
	// visible sector count so it can be restored afterwards.
	RemoveHPA(ctx context.Context, dev devicetypes.Device) (originalSectors uint64, err error)
	// RestoreHPA re-establishes the HPA at the original visible sector
	// count recorded by RemoveHPA.
	RestoreHPA(ctx context.Context, dev devicetypes.Device, originalSectors uint64) error
}

// ExecHooks carries the coordinator-facing hooks one operation threads
// through its strategy: the resume position from a prior checkpoint, the
// process-wide interrupt poll, and the per-pass checkpoint commit.
type ExecHooks struct {
	// StartAtPass resumes a prior run from the given 0-indexed pass;
	// passes strictly below it are skipped.
	StartAtPass int

	// Interrupted polls the process-wide interrupt flag between buffers.
	// May be nil.
	Interrupted ioengine.InterruptCheck

	// AfterPass runs after each software-overwrite pass completes; the
	// orchestrator commits its per-pass checkpoint here. A non-nil error
	// aborts the strategy. May be nil.
	AfterPass func(passIndex, totalPasses int, result algorithms.PassResult) error
}

// ProgressFunc receives structured progress during strategy execution,
// per the structured progress model. Strategies
// forward it into algorithms.Run's own ProgressFunc and additionally
// report strategy-level milestones (zone boundaries, fallback events).
type ProgressFunc func(Event)

// EventKind classifies a structured progress event (pass start, tick,
// pass done, fallback, error).
type EventKind int

const (
	EventPassStart EventKind = iota
	EventTick
	EventPassDone
	EventFallback
	EventError
)

// Event is one structured progress update.
type Event struct {
	Kind        EventKind
	Description string
	PassIndex   int
	TotalPasses int
	BytesDone   int64
	TotalBytes  int64
	Err         error
}

// Result is a strategy's outcome, surfaced to the certificate-facing
// caller.
type Result struct {
	// HardwareUsed reports whether a hardware-assisted path completed the
	// operation (as opposed to falling back to software overwrite).
	HardwareUsed bool
	// FallbackReason is non-empty when a hardware path was attempted and
	// failed per the "fallback is never silent" rule.
	FallbackReason string
	// SEDMethod records which OPAL method was used, when CryptoErase was
	// the hardware path taken (the SED reporting detail).
	SEDMethod string
	// Passes is the software-overwrite pass history, empty when a pure
	// hardware path completed the operation.
	Passes []algorithms.PassResult
}

// Strategy executes one drive-class's destruction sequence.
type Strategy interface {
	// Execute runs the strategy against dev using h for I/O and src for
	// random fill bytes, reporting progress via progress (which may be
	// nil). hooks threads resume position and per-pass checkpointing
	// through from the coordinator.
	Execute(ctx context.Context, dev devicetypes.Device, cfg devicetypes.WipeConfig, hooks ExecHooks, h *ioengine.Handle, src algorithms.RandomFiller, hw HardwareCommander, progress ProgressFunc) (Result, error)
}

func emit(progress ProgressFunc, ev Event) {
	if progress != nil {
		progress(ev)
	}
}

func toStrategyProgress(progress ProgressFunc) algorithms.ProgressFunc {
	if progress == nil {
		return nil
	}
	return func(p algorithms.PassProgress) {
		progress(Event{
			Kind:        EventTick,
			Description: p.Description,
			PassIndex:   p.PassIndex,
			TotalPasses: p.TotalPasses,
			BytesDone:   p.BytesWritten,
			TotalBytes:  p.TotalSize,
		})
	}
}
