// Package entropy implements the multi-source entropy pool that seeds the
// HMAC-DRBG used throughout go-wipecore. It never produces output directly;
// see package rng for the public fill/reseed contract.
package entropy
