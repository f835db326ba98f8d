package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGutmannSequence_Has35Passes(t *testing.T) {
	passes := GutmannSequence()
	require.Len(t, passes, 35)

	for i := 0; i < 4; i++ {
		assert.Equal(t, PassRandom, passes[i].Kind, "pass %d should be random", i+1)
	}
	for i := 31; i < 35; i++ {
		assert.Equal(t, PassRandom, passes[i].Kind, "pass %d should be random", i+1)
	}
	for i := 4; i < 31; i++ {
		assert.Equal(t, PassPattern, passes[i].Kind, "pass %d should be a fixed pattern", i+1)
		assert.Len(t, passes[i].Pattern, 3)
	}
}

func TestGutmannSequence_SpecificPatterns(t *testing.T) {
	passes := GutmannSequence()
	assert.Equal(t, []byte{0x55, 0x55, 0x55}, passes[4].Pattern)  // pass 5
	assert.Equal(t, []byte{0x00, 0x00, 0x00}, passes[9].Pattern)  // pass 10
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, passes[24].Pattern) // pass 25
	assert.Equal(t, []byte{0xDB, 0x6D, 0xB6}, passes[30].Pattern) // pass 31
}

func TestPruneForEncoding_Unknown_RunsAll35(t *testing.T) {
	passes := GutmannSequence()
	pruned := PruneForEncoding(passes, EncodingUnknown)
	assert.Len(t, pruned, 35)
}

func TestPruneForEncoding_MFM(t *testing.T) {
	passes := GutmannSequence()
	pruned := PruneForEncoding(passes, EncodingMFM)
	assert.Len(t, pruned, len(gutmannMFMIndices))
}

func TestPruneForEncoding_RLL(t *testing.T) {
	passes := GutmannSequence()
	pruned := PruneForEncoding(passes, EncodingRLL)
	assert.Len(t, pruned, len(gutmannRLLIndices))
}

func TestPruneForEncoding_PRML(t *testing.T) {
	passes := GutmannSequence()
	pruned := PruneForEncoding(passes, EncodingPRML)
	assert.Len(t, pruned, len(gutmannPRMLIndices))
}
