package entropy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name      string
	available bool
	fill      byte
}

func (f *fakeSource) Name() string       { return f.name }
func (f *fakeSource) Available() bool    { return f.available }
func (f *fakeSource) Quality() float64   { return 0.5 }
func (f *fakeSource) FillBytes(b []byte) error {
	for i := range b {
		b[i] = f.fill
	}
	return nil
}

func TestNewPool_NoSourcesAvailable(t *testing.T) {
	_, err := NewPool([]Source{&fakeSource{name: "a"}})
	require.Error(t, err)
}

func TestNewPool_SeedChangesOverTime(t *testing.T) {
	p, err := NewPool([]Source{&fakeSource{name: "a", available: true, fill: 0x42}})
	require.NoError(t, err)

	s1 := p.Seed()
	s2 := p.Seed()
	assert.False(t, bytes.Equal(s1, s2), "successive seeds must differ (position counter advances)")
}

func TestPool_FirstAvailableFillUsesPriorityOrder(t *testing.T) {
	p, err := NewPool([]Source{
		&fakeSource{name: "a", available: false, fill: 0xAA},
		&fakeSource{name: "b", available: true, fill: 0xBB},
		&fakeSource{name: "c", available: true, fill: 0xCC},
	})
	require.NoError(t, err)

	buf := make([]byte, 16)
	require.NoError(t, p.FirstAvailableFill(buf))
	for _, b := range buf {
		assert.Equal(t, byte(0xBB), b)
	}
}

func TestPool_FirstAvailableFillNoSources(t *testing.T) {
	p := &Pool{ring: newRing(defaultRingSize)}
	require.Error(t, p.FirstAvailableFill(make([]byte, 8)))
}

func TestPool_EntropyEstimate(t *testing.T) {
	p, err := NewPool([]Source{
		&fakeSource{name: "a", available: true},
		&fakeSource{name: "b", available: false},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.EntropyEstimate(), 0.01)
}

func TestRing_WrapsAndXORs(t *testing.T) {
	r := newRing(4)
	r.write([]byte{1, 2, 3, 4})
	first := r.snapshot()
	require.Len(t, first, 4)
	r.write([]byte{5, 6})
	second := r.snapshot()
	require.Len(t, second, 4)
	assert.NotEqual(t, first, second)
}
