package ioengine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPool_AcquireRelease(t *testing.T) {
	cfg := Config{InitialBufferSize: 4096, QueueDepth: 2, MaxBuffers: 2}
	pool := NewBufferPool(cfg)

	b1, err := pool.Acquire()
	require.NoError(t, err)
	require.Len(t, b1.Bytes(), 4096)

	b2, err := pool.Acquire()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		b3, err := pool.Acquire()
		require.NoError(t, err)
		b3.Release()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Acquire should have blocked while pool is exhausted")
	default:
	}

	b1.Release()
	<-done
	b2.Release()
}

func TestBufferPool_ReleaseZeroesSecretContent(t *testing.T) {
	pool := NewBufferPool(Config{InitialBufferSize: 16, QueueDepth: 1, MaxBuffers: 1})
	b, err := pool.Acquire()
	require.NoError(t, err)
	for i := range b.Bytes() {
		b.Bytes()[i] = 0xAA
	}
	b.Release()

	b2, err := pool.Acquire()
	require.NoError(t, err)
	for _, v := range b2.Bytes() {
		assert.Equal(t, byte(0), v)
	}
}

func TestBufferPool_AlignedWhenDirectIO(t *testing.T) {
	pool := NewBufferPool(Config{InitialBufferSize: 8192, QueueDepth: 1, MaxBuffers: 1, UseDirectIO: true})
	b, err := pool.Acquire()
	require.NoError(t, err)
	assert.True(t, isAligned(int64(addrOf(b.Bytes())), PageSize))
}

func TestBufferPool_GrowsUpToMax(t *testing.T) {
	pool := NewBufferPool(Config{InitialBufferSize: 4096, QueueDepth: 1, MaxBuffers: 3})
	var bufs []*PooledBuffer
	for i := 0; i < 3; i++ {
		b, err := pool.Acquire()
		require.NoError(t, err)
		bufs = append(bufs, b)
	}
	for _, b := range bufs {
		b.Release()
	}
}

func TestBufferPool_CloseWaitsForInFlight(t *testing.T) {
	pool := NewBufferPool(Config{InitialBufferSize: 16, QueueDepth: 1, MaxBuffers: 1})
	b, err := pool.Acquire()
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		b.Release()
	}()

	pool.Close()
	wg.Wait()
}
