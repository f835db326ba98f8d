package ioengine

import (
	"fmt"
	"sync"
)

// PooledBuffer is a page-aligned memory region of configured size,
// exclusively owned by whichever write/read operation acquired it: never
// shared concurrently; content after acquisition is undefined; content
// is treated as secret (zeroed on release and on pool teardown).
type PooledBuffer struct {
	raw   []byte // not set; data holds the only reference to the allocation
	data  []byte // the page-aligned slice callers use
	pool  *BufferPool
	zero  bool // not set; Release zeroes data without recording it here
}

// Bytes returns the page-aligned buffer. The slice is valid until
// Release.
func (b *PooledBuffer) Bytes() []byte { return b.data }

// Release zeroes the buffer (defense in depth against residual secret
// content) and returns it to its pool.
func (b *PooledBuffer) Release() {
	if b == nil || b.pool == nil {
		return
	}
	for i := range b.data {
		b.data[i] = 0
	}
	b.pool.release(b)
}

// newPooledBuffer allocates a PooledBuffer of size bytes, page-aligned
// when directIO is true.
func newPooledBuffer(size int, directIO bool) *PooledBuffer {
	var data []byte
	if directIO {
		data = alignedSlice(size, PageSize)
	} else {
		data = make([]byte, size)
	}
	return &PooledBuffer{data: data}
}

// BufferPool pre-allocates QueueDepth buffers at open and grows on
// demand up to MaxBuffers. Acquire blocks (rather than returning a busy
// error) when the pool is exhausted and at its maximum.
type BufferPool struct {
	mu         sync.Mutex
	cond       *sync.Cond
	free       []*PooledBuffer
	bufSize    int
	directIO   bool
	allocated  int
	maxBuffers int
	closed     bool
	inFlight   int
}

// NewBufferPool pre-allocates cfg.QueueDepth buffers of cfg.InitialBufferSize
// bytes.
func NewBufferPool(cfg Config) *BufferPool {
	p := &BufferPool{
		bufSize:    cfg.InitialBufferSize,
		directIO:   cfg.UseDirectIO,
		maxBuffers: cfg.MaxBuffers,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < cfg.QueueDepth; i++ {
		p.free = append(p.free, newPooledBuffer(p.bufSize, p.directIO))
		p.allocated++
	}
	return p
}

// Acquire returns an exclusively-owned buffer, blocking if the pool is
// exhausted and already at MaxBuffers
func (p *BufferPool) Acquire() (*PooledBuffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if p.closed {
			return nil, fmt.Errorf("ioengine: buffer pool closed")
		}
		if n := len(p.free); n > 0 {
			b := p.free[n-1]
			p.free = p.free[:n-1]
			b.pool = p
			p.inFlight++
			return b, nil
		}
		if p.allocated < p.maxBuffers {
			p.allocated++
			b := newPooledBuffer(p.bufSize, p.directIO)
			b.pool = p
			p.inFlight++
			return b, nil
		}
		p.cond.Wait()
	}
}

func (p *BufferPool) release(b *PooledBuffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b.pool = nil
	p.inFlight--
	p.free = append(p.free, b)
	p.cond.Signal()
}

// BufSize returns the pool's current per-buffer allocation size.
func (p *BufferPool) BufSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bufSize
}

// Resize grows the per-buffer size for subsequently-allocated buffers,
// used by the PerformanceTuner between iterations when
// AdaptiveTuning is on. Buffers already allocated keep their old size and
// are reused from the free list as they are; only buffers allocated after
// the call use newSize.
func (p *BufferPool) Resize(newSize int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bufSize = newSize
}

// Close waits for all in-flight buffers to be released, then zeroes and
// discards the free list.
func (p *BufferPool) Close() {
	p.mu.Lock()
	for p.inFlight > 0 {
		p.cond.Wait()
	}
	p.closed = true
	for _, b := range p.free {
		for i := range b.data {
			b.data[i] = 0
		}
	}
	p.free = nil
	p.mu.Unlock()
	p.cond.Broadcast()
}
