// Package recovery implements the error-recovery coordinator: it
// composes the error classifier, per-class retry policies, the
// circuit breaker, the bad-sector handler, the self-healer chain, and the
// degraded-mode manager, and wraps every fallible core operation in
// ExecuteWithRecovery. It also owns the checkpoint lifecycle for one
// operation (MaybeCheckpoint, ResumeFromCheckpoint, DeleteCheckpoint).
package recovery
