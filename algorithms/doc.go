// Package algorithms implements the WipeAlgorithms: Zero,
// Ones/random single-pass fills, the DoD 5220.22-M 3-pass sequence, and
// the Gutmann 35-pass sequence, plus the shared per-pass verification and
// checkpoint-emission primitives every algorithm composes from.
package algorithms
