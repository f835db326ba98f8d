// Package stats implements the statistical primitives shared by
// algorithms' per-pass verification and verify's post-wipe
// analysis: Shannon entropy, chi-square goodness of fit, and
// the NIST-style randomness panel (runs, monobit, poker, serial,
// autocorrelation).
package stats
