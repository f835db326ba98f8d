// Package retry implements the exponential-backoff-with-jitter retry
// policy, with per-error-class presets
// (Transient/Recoverable/Environmental).
package retry
