package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoDSequence(t *testing.T) {
	passes := DoDSequence()
	require.Len(t, passes, 3)

	assert.Equal(t, PassPattern, passes[0].Kind)
	assert.Equal(t, ZeroPattern, passes[0].Pattern)

	assert.Equal(t, PassPattern, passes[1].Kind)
	assert.Equal(t, OnesPattern, passes[1].Pattern)

	assert.Equal(t, PassRandom, passes[2].Kind)
}
