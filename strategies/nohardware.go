package strategies

import (
	"context"

	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

// NoHardware is a HardwareCommander for environments with no vendor
// command collaborator wired in (tests, file-backed devices). Every
// command reports "not supported", which the orchestrator's fallback
// policy translates into the software overwrite path.
type NoHardware struct{}

func (NoHardware) err(command string) error {
	return &wipeerrors.HardwareCommandFailed{Command: command, Message: "not supported"}
}

func (n NoHardware) SecureErase(context.Context, devicetypes.Device, bool) error {
	return n.err("secure-erase")
}

func (n NoHardware) InstantSecureErase(context.Context, devicetypes.Device) error {
	return n.err("instant-secure-erase")
}

func (n NoHardware) CryptoErase(context.Context, devicetypes.Device) (string, error) {
	return "", n.err("crypto-erase")
}

func (n NoHardware) Sanitize(context.Context, devicetypes.Device, devicetypes.SanitizeMode) error {
	return n.err("sanitize")
}

func (n NoHardware) Trim(context.Context, devicetypes.Device) error {
	return n.err("trim")
}

func (n NoHardware) ResetZone(context.Context, devicetypes.Device, devicetypes.Zone) error {
	return n.err("reset-zone")
}

func (n NoHardware) FlushCache(context.Context, devicetypes.Device) error {
	return n.err("flush-cache")
}

func (n NoHardware) UnpinCache(context.Context, devicetypes.Device) error {
	return n.err("unpin-cache")
}

func (n NoHardware) FormatNamespace(context.Context, devicetypes.Device, devicetypes.Namespace) error {
	return n.err("format-namespace")
}

func (n NoHardware) Unfreeze(context.Context, devicetypes.Device, string) error {
	return n.err("unfreeze")
}

func (NoHardware) DetectHPA(context.Context, devicetypes.Device) (bool, uint64, error) {
	return false, 0, nil
}

func (n NoHardware) RemoveHPA(context.Context, devicetypes.Device) (uint64, error) {
	return 0, n.err("remove-hpa")
}

func (n NoHardware) RestoreHPA(context.Context, devicetypes.Device, uint64) error {
	return n.err("restore-hpa")
}
