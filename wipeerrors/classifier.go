package wipeerrors

import (
	"errors"
	"io"
	"strings"
	"syscall"
)

// Class is one of the five recovery classes
type Class int

const (
	// ClassTransient errors are retried immediately with backoff.
	ClassTransient Class = iota
	// ClassRecoverable errors are retried with a different approach.
	ClassRecoverable
	// ClassEnvironmental errors wait for conditions to clear.
	ClassEnvironmental
	// ClassFatal errors abort the operation.
	ClassFatal
	// ClassUserInterrupted errors abort cleanly, without retry.
	ClassUserInterrupted
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "Transient"
	case ClassRecoverable:
		return "Recoverable"
	case ClassEnvironmental:
		return "Environmental"
	case ClassFatal:
		return "Fatal"
	case ClassUserInterrupted:
		return "UserInterrupted"
	default:
		return "Unknown"
	}
}

// DefaultMaxAttempts are the default retry ceilings per class.
var DefaultMaxAttempts = map[Class]int{
	ClassTransient:       10,
	ClassRecoverable:     5,
	ClassEnvironmental:   20,
	ClassFatal:           0,
	ClassUserInterrupted: 0,
}

// maxTimeoutsBeforeFatal escalates a Timeout from Transient to Fatal
// after more than five timeouts accumulate on the same context.
const maxTimeoutsBeforeFatal = 5

// Classifier maps an error to a Class
type Classifier struct{}

// NewClassifier constructs a Classifier. It holds no state; the
// constructor exists for symmetry with the rest of this module's
// collaborators and to leave room for future configuration (e.g.
// additional not-supported phrase lists) without an API break.
func NewClassifier() *Classifier { return &Classifier{} }

// Classify implements the dispatch
func (c *Classifier) Classify(err error) Class {
	if err == nil {
		return ClassTransient
	}

	var (
		frozen      *DriveFrozen
		hwCmd       *HardwareCommandFailed
		smart       *SmartReadFailed
		temp        *TemperatureExceeded
		trim        *TrimFailed
		crypto      *CryptoEraseFailed
		unlock      *UnlockFailed
		timeout     *Timeout
		perm        *PermissionDenied
		notFound    *NotFound
		unsupported *Unsupported
		interrupted *Interrupted
		ioFault     *IoFault
	)

	switch {
	case errors.As(err, &interrupted):
		return ClassUserInterrupted
	case errors.As(err, &notFound):
		return ClassFatal
	case errors.As(err, &perm):
		return ClassFatal
	case errors.As(err, &unsupported):
		return ClassFatal
	case errors.As(err, &frozen):
		return ClassRecoverable
	case errors.As(err, &trim):
		return ClassRecoverable
	case errors.As(err, &crypto):
		return ClassRecoverable
	case errors.As(err, &unlock):
		return ClassRecoverable
	case errors.As(err, &smart):
		return ClassTransient
	case errors.As(err, &temp):
		return ClassEnvironmental
	case errors.As(err, &timeout):
		if timeout.Count > maxTimeoutsBeforeFatal {
			return ClassFatal
		}
		return ClassTransient
	case errors.As(err, &hwCmd):
		if containsNotSupported(hwCmd.Message) {
			return ClassFatal
		}
		return ClassTransient
	case errors.As(err, &ioFault):
		return c.classifyCause(ioFault.Cause)
	}

	return c.classifyCause(err)
}

// classifyCause handles the syscall/stdlib-level causes: temporary I/O,
// timeout, device busy, interrupted syscalls, would-block, and broken
// pipe are Transient; unexpected-EOF is Recoverable.
func (c *Classifier) classifyCause(err error) Class {
	if err == nil {
		return ClassTransient
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ClassRecoverable
	}
	if errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EWOULDBLOCK) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.EBUSY) {
		return ClassTransient
	}
	if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
		return ClassFatal
	}
	if errors.Is(err, syscall.ENOENT) {
		return ClassFatal
	}

	var timeouter interface{ Timeout() bool }
	if errors.As(err, &timeouter) && timeouter.Timeout() {
		return ClassTransient
	}

	return ClassTransient
}

func containsNotSupported(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "not supported")
}
