// Package rng implements the SecureRNG: a multi-source
// entropy pool (package entropy) feeding an HMAC-DRBG (package drbg), with
// a FIPS 140-2 continuous self-test and a process-wide, mutex-guarded
// singleton for the rest of go-wipecore to consume.
package rng
