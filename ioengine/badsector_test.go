package ioengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequentialRead_SkipsUnreadableOffsetsWhenHooked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 64<<10), 0o644))

	h, err := Open(path, SmallReadOptimized(), nil, nil)
	require.NoError(t, err)
	defer h.Close()

	var skipped []int64
	h.OnUnreadable(func(offset int64) { skipped = append(skipped, offset) })

	var processed int64
	// Reading past EOF makes the trailing buffer unreadable; the hook
	// turns that into skip-and-continue.
	err = SequentialRead(h, 128<<10, func(buf []byte, offset int64, n int) error {
		processed += int64(n)
		return nil
	}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(64<<10), processed)
	require.NotEmpty(t, skipped)
	require.Equal(t, int64(64<<10), skipped[0])
}

func TestSequentialRead_AbortsOnUnreadableWithoutHook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 4<<10), 0o644))

	h, err := Open(path, SmallReadOptimized(), nil, nil)
	require.NoError(t, err)
	defer h.Close()

	err = SequentialRead(h, 128<<10, func([]byte, int64, int) error { return nil }, nil)
	require.Error(t, err)
}
