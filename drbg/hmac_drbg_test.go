package drbg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACDRBG_GenerateDeterministic(t *testing.T) {
	seed := []byte("fixed seed material for reproducibility in this test")
	d1 := New(seed)
	d2 := New(seed)

	out1 := make([]byte, 64)
	out2 := make([]byte, 64)
	require.NoError(t, d1.Generate(out1, nil))
	require.NoError(t, d2.Generate(out2, nil))

	assert.Equal(t, out1, out2, "same seed must produce same output stream")
}

func TestHMACDRBG_SuccessiveOutputsDiffer(t *testing.T) {
	d := New([]byte("seed"))
	a := make([]byte, 16)
	b := make([]byte, 16)
	require.NoError(t, d.Generate(a, nil))
	require.NoError(t, d.Generate(b, nil))
	assert.False(t, bytes.Equal(a, b), "continuous test relies on successive outputs differing")
}

func TestHMACDRBG_ReseedCounterAdvances(t *testing.T) {
	d := New([]byte("seed"))
	require.EqualValues(t, 1, d.ReseedCounter())
	buf := make([]byte, 8)
	require.NoError(t, d.Generate(buf, nil))
	require.EqualValues(t, 2, d.ReseedCounter())

	d.Reseed([]byte("more entropy"))
	require.EqualValues(t, 1, d.ReseedCounter())
}

func TestHMACDRBG_ReseedChangesOutput(t *testing.T) {
	d1 := New([]byte("seed"))
	d2 := New([]byte("seed"))
	d2.Reseed([]byte("extra"))

	out1 := make([]byte, 32)
	out2 := make([]byte, 32)
	require.NoError(t, d1.Generate(out1, nil))
	require.NoError(t, d2.Generate(out2, nil))
	assert.NotEqual(t, out1, out2)
}
