package drbg

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
)

// ErrReseedRequired is returned by Generate when the reseed counter has
// exceeded the NIST SP 800-90A reseed interval (2^48).
var ErrReseedRequired = errors.New("drbg: reseed required")

// reseedInterval is the maximum number of Generate calls permitted between
// reseeds, per NIST SP 800-90A.
const reseedInterval = 1 << 48

// HMACDRBG implements HMAC_DRBG using HMAC-SHA256, per NIST SP 800-90A
// §10.1.2.
//
// The zero value is not usable; construct with New or NewWithSeed.
type HMACDRBG struct {
	key           []byte
	v             []byte
	reseedCounter uint64
}

func newHash() hash.Hash { return sha256.New() }

// update implements HMAC_DRBG_Update (SP800-90A §10.1.2.2).
func (d *HMACDRBG) update(providedData []byte) {
	h := hmac.New(newHash, d.key)
	h.Write(d.v)
	h.Write([]byte{0x00})
	h.Write(providedData)
	d.key = h.Sum(nil)

	h = hmac.New(newHash, d.key)
	h.Write(d.v)
	d.v = h.Sum(nil)

	if len(providedData) == 0 {
		return
	}

	h = hmac.New(newHash, d.key)
	h.Write(d.v)
	h.Write([]byte{0x01})
	h.Write(providedData)
	d.key = h.Sum(nil)

	h = hmac.New(newHash, d.key)
	h.Write(d.v)
	d.v = h.Sum(nil)
}

// New instantiates an HMAC_DRBG from the given seed material (entropy
// input concatenated with any nonce/personalization the caller wishes to
// supply ahead of time), per HMAC_DRBG_Instantiate_algorithm
// (SP800-90A §10.1.2.3).
func New(seedMaterial []byte) *HMACDRBG {
	d := &HMACDRBG{
		key: make([]byte, sha256.Size),
		v:   bytes.Repeat([]byte{0x01}, sha256.Size),
	}
	d.update(seedMaterial)
	d.reseedCounter = 1
	return d
}

// Reseed implements HMAC_DRBG_Reseed_algorithm (SP800-90A §10.1.2.4).
func (d *HMACDRBG) Reseed(entropyInput []byte) {
	d.update(entropyInput)
	d.reseedCounter = 1
}

// Generate implements HMAC_DRBG_Generate_algorithm (SP800-90A §10.1.2.5),
// writing len(data) pseudorandom bytes into data. additionalInput may be
// nil.
func (d *HMACDRBG) Generate(data, additionalInput []byte) error {
	if d.reseedCounter > reseedInterval {
		return ErrReseedRequired
	}

	if len(additionalInput) > 0 {
		d.update(additionalInput)
	}

	var temp bytes.Buffer
	h := hmac.New(newHash, d.key)
	for temp.Len() < len(data) {
		h.Reset()
		h.Write(d.v)
		d.v = h.Sum(nil)
		temp.Write(d.v)
	}
	copy(data, temp.Bytes())

	d.update(additionalInput)
	d.reseedCounter++

	return nil
}

// ReseedCounter reports the SP 800-90A reseed counter: one more than the
// number of Generate calls since the last New/Reseed, for callers
// implementing their own reseeding policy.
func (d *HMACDRBG) ReseedCounter() uint64 {
	return d.reseedCounter
}

// String implements fmt.Stringer for debug logging without leaking key
// material.
func (d *HMACDRBG) String() string {
	return fmt.Sprintf("HMACDRBG{reseedCounter=%d}", d.reseedCounter)
}
