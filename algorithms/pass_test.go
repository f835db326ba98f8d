package algorithms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillPattern_SingleByte(t *testing.T) {
	buf := make([]byte, 10)
	FillPattern(buf, ZeroPattern)
	for _, b := range buf {
		assert.Equal(t, byte(0x00), b)
	}
	FillPattern(buf, OnesPattern)
	for _, b := range buf {
		assert.Equal(t, byte(0xFF), b)
	}
}

func TestFillPattern_MultiByte(t *testing.T) {
	buf := make([]byte, 7)
	FillPattern(buf, []byte{0x92, 0x49, 0x24})
	require.Equal(t, []byte{0x92, 0x49, 0x24, 0x92, 0x49, 0x24, 0x92}, buf)
}

func TestFillPattern_Empty(t *testing.T) {
	buf := []byte{1, 2, 3}
	FillPattern(buf, nil)
	assert.Equal(t, []byte{1, 2, 3}, buf)
}

type constFiller byte

func (c constFiller) Fill(buf []byte) error {
	for i := range buf {
		buf[i] = byte(c)
	}
	return nil
}

type errFiller struct{}

func (errFiller) Fill(buf []byte) error { return errors.New("filler: boom") }

func TestFillRandom(t *testing.T) {
	buf := make([]byte, 4)
	require.NoError(t, FillRandom(buf, constFiller(0x7A)))
	assert.Equal(t, []byte{0x7A, 0x7A, 0x7A, 0x7A}, buf)

	assert.Error(t, FillRandom(buf, errFiller{}))
}
