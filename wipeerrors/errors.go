package wipeerrors

import "fmt"

// IoFault wraps a failed transfer. The underlying cause (Cause) determines
// its classification, not the fact that it is an IoFault.
type IoFault struct {
	Op     string // "read" or "write"
	Offset int64
	Cause  error
}

func (e *IoFault) Error() string {
	return fmt.Sprintf("wipeerrors: io fault during %s at offset %d: %v", e.Op, e.Offset, e.Cause)
}

func (e *IoFault) Unwrap() error { return e.Cause }

// DriveFrozen indicates the drive's security state (ATA SECURITY FREEZE or
// equivalent) prevents the command from executing. Recoverable: the
// coordinator's Healer (recovery.UnfreezeHealer) attempts an unfreeze
// strategy before retrying.
type DriveFrozen struct {
	Device string
}

func (e *DriveFrozen) Error() string {
	return fmt.Sprintf("wipeerrors: drive frozen: %s", e.Device)
}

// HardwareCommandFailed indicates a vendor command (secure erase, sanitize,
// crypto-erase, ...) returned failure. Transient by default; Fatal when
// Message indicates the command itself is unsupported.
type HardwareCommandFailed struct {
	Command string
	Message string
}

func (e *HardwareCommandFailed) Error() string {
	return fmt.Sprintf("wipeerrors: hardware command %q failed: %s", e.Command, e.Message)
}

// SmartReadFailed indicates a SMART attribute read failed. Transient.
type SmartReadFailed struct {
	Device string
	Cause  error
}

func (e *SmartReadFailed) Error() string {
	return fmt.Sprintf("wipeerrors: SMART read failed for %s: %v", e.Device, e.Cause)
}

func (e *SmartReadFailed) Unwrap() error { return e.Cause }

// TemperatureExceeded indicates the device's measured temperature crossed
// the configured threshold. Environmental.
type TemperatureExceeded struct {
	Device      string
	CurrentC    float64
	ThresholdC  float64
}

func (e *TemperatureExceeded) Error() string {
	return fmt.Sprintf("wipeerrors: temperature %.1f°C exceeds threshold %.1f°C on %s", e.CurrentC, e.ThresholdC, e.Device)
}

// TrimFailed indicates a TRIM/discard command failed. Recoverable.
type TrimFailed struct {
	Device string
	Cause  error
}

func (e *TrimFailed) Error() string { return fmt.Sprintf("wipeerrors: TRIM failed on %s: %v", e.Device, e.Cause) }
func (e *TrimFailed) Unwrap() error { return e.Cause }

// CryptoEraseFailed indicates a crypto-erase/sanitize command failed.
// Recoverable (falls back to software overwrite).
type CryptoEraseFailed struct {
	Device string
	Cause  error
}

func (e *CryptoEraseFailed) Error() string {
	return fmt.Sprintf("wipeerrors: crypto erase failed on %s: %v", e.Device, e.Cause)
}
func (e *CryptoEraseFailed) Unwrap() error { return e.Cause }

// UnlockFailed indicates an SED unlock command failed. Recoverable.
type UnlockFailed struct {
	Device string
	Cause  error
}

func (e *UnlockFailed) Error() string {
	return fmt.Sprintf("wipeerrors: unlock failed on %s: %v", e.Device, e.Cause)
}
func (e *UnlockFailed) Unwrap() error { return e.Cause }

// Timeout indicates an operation exceeded its deadline. Transient, unless
// Count exceeds the coordinator's per-context ceiling (5),
// in which case the classifier escalates it to Fatal.
type Timeout struct {
	Op    string
	Count int
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("wipeerrors: timeout during %s (count=%d)", e.Op, e.Count)
}

// PermissionDenied indicates the operation lacks the privilege to act on
// the device. Fatal.
type PermissionDenied struct {
	Device string
}

func (e *PermissionDenied) Error() string {
	return fmt.Sprintf("wipeerrors: permission denied: %s", e.Device)
}

// NotFound indicates the device path does not exist. Fatal.
type NotFound struct {
	Device string
}

func (e *NotFound) Error() string { return fmt.Sprintf("wipeerrors: device not found: %s", e.Device) }

// Unsupported indicates the requested operation has no valid strategy for
// the device's class (e.g. USB, Unknown). Fatal.
type Unsupported struct {
	Reason string
}

func (e *Unsupported) Error() string { return fmt.Sprintf("wipeerrors: unsupported: %s", e.Reason) }

// Interrupted indicates the process-wide SIGINT flag was observed between
// buffers. UserInterrupted: the coordinator aborts without
// retry.
type Interrupted struct{}

func (e *Interrupted) Error() string { return "wipeerrors: interrupted by user" }
