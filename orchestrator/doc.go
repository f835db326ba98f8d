// Package orchestrator is the sole authorized entry point for
// destruction operations. It dispatches on drive class,
// mediates hardware-assisted versus software-overwrite fallback, drives
// the selected strategy through the recovery coordinator, commits a
// checkpoint per pass, and hands the finished device to the verification
// analyzer.
package orchestrator
