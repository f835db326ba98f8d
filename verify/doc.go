// Package verify implements the forensic verification analyzer:
// pre-wipe capability testing, post-wipe analysis at four depth
// levels (random sampling, systematic sampling, full scan, forensic
// scan), the statistical test panel, file-signature and pattern scanning,
// recovery simulation, and the 0-100 confidence score with its
// compliance-standard tags.
package verify
