// Package wipeerrors implements the error taxonomy: a small
// set of structured error kinds, and a Classifier that maps any error
// (whether one of these kinds or an arbitrary wrapped error) to one of the
// five recovery classes the coordinator in package recovery acts on.
package wipeerrors
