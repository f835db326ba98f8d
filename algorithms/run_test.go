package algorithms

import (
	"crypto/rand"
	"os"
	"testing"

	"github.com/joeycumines/go-wipecore/ioengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHandle(t *testing.T, size int64) *ioengine.Handle {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "algo-run-*")
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	path := f.Name()
	require.NoError(t, f.Close())

	h, err := ioengine.Open(path, ioengine.SmallReadOptimized(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestSequence_KnownAlgorithms(t *testing.T) {
	assert.Len(t, Sequence("Zero", EncodingUnknown), 1)
	assert.Len(t, Sequence("Random", EncodingUnknown), 1)
	assert.Len(t, Sequence("DoD5220", EncodingUnknown), 3)
	assert.Len(t, Sequence("Gutmann", EncodingUnknown), 35)
	assert.Len(t, Sequence("Gutmann", EncodingMFM), len(gutmannMFMIndices))
	assert.Nil(t, Sequence("NotReal", EncodingUnknown))
}

func TestRun_ZeroAlgorithm_WritesAndVerifies(t *testing.T) {
	size := int64(64 * 1024)
	h := openTestHandle(t, size)

	var progressCalls int
	opts := RunOptions{
		Verify:   true,
		Progress: func(PassProgress) { progressCalls++ },
	}

	result, err := Run(h, "Zero", size, nil, opts)
	require.NoError(t, err)
	require.Len(t, result.Passes, 1)
	assert.True(t, result.Passes[0].Verification.Passed)
	assert.Greater(t, progressCalls, 0)
}

type cryptoRandFiller struct{}

func (cryptoRandFiller) Fill(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

func TestRun_RandomAlgorithm_WritesAndVerifies(t *testing.T) {
	size := int64(64 * 1024)
	h := openTestHandle(t, size)

	result, err := Run(h, "Random", size, cryptoRandFiller{}, RunOptions{Verify: true})
	require.NoError(t, err)
	require.Len(t, result.Passes, 1)
	assert.True(t, result.Passes[0].Verification.Passed)
}

func TestRun_DoD5220_AllPassesRun(t *testing.T) {
	size := int64(32 * 1024)
	h := openTestHandle(t, size)

	result, err := Run(h, "DoD5220", size, cryptoRandFiller{}, RunOptions{Verify: true})
	require.NoError(t, err)
	require.Len(t, result.Passes, 3)
	for _, p := range result.Passes {
		assert.True(t, p.Verification.Passed, p.Pass.Description)
	}
}

func TestRun_UnknownAlgorithm_ReturnsUnsupported(t *testing.T) {
	size := int64(4096)
	h := openTestHandle(t, size)

	_, err := Run(h, "NotReal", size, cryptoRandFiller{}, RunOptions{})
	assert.Error(t, err)
}

func TestRun_ResumesFromStartAtPass(t *testing.T) {
	size := int64(16 * 1024)
	h := openTestHandle(t, size)

	result, err := Run(h, "DoD5220", size, cryptoRandFiller{}, RunOptions{Verify: true, StartAtPass: 2})
	require.NoError(t, err)
	require.Len(t, result.Passes, 1)
	assert.Equal(t, PassRandom, result.Passes[0].Pass.Kind)
}
