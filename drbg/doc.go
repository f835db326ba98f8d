// Package drbg implements an HMAC_DRBG per NIST SP 800-90A §10.1.2,
// adapted from the update/instantiate/reseed/generate algorithm steps of
// Canonical's vendored go-sp800.90a implementation, renamed to this
// module's conventions, with a plain sentinel error (ErrReseedRequired).
package drbg
