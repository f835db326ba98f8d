package ioengine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/go-wipecore/logging"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

// Handle is the aligned direct-I/O handle: open, write_at,
// read_at, sync, acquire_buffer, plus the SequentialWrite/SequentialRead
// helpers.
type Handle struct {
	file    *os.File
	path    string
	cfg     Config
	pool    *BufferPool
	metrics *Metrics
	thermal *thermalGovernor
	log     *logging.Logger

	// badSector, when set, turns unreadable offsets during sequential
	// reads into skip-and-continue instead of abort.
	badSector func(offset int64)

	closed bool
}

// Open opens path for read/write under cfg `open(path,
// config) → handle`. sensor may be nil, in which case thermal monitoring
// is disabled regardless of cfg.TemperatureThreshold (the (out-of-scope)
// health collaborator was not supplied).
func Open(path string, cfg Config, sensor ThermalSensor, log *logging.Logger) (*Handle, error) {
	cfg = cfg.withDefaults()

	flags := os.O_RDWR
	if cfg.UseDirectIO {
		flags |= directIOFlag
	}
	f, err := os.OpenFile(path, flags, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &wipeerrors.NotFound{Device: path}
		}
		if os.IsPermission(err) {
			return nil, &wipeerrors.PermissionDenied{Device: path}
		}
		return nil, &wipeerrors.IoFault{Op: "open", Cause: err}
	}

	h := &Handle{
		file:    f,
		path:    path,
		cfg:     cfg,
		pool:    NewBufferPool(cfg),
		metrics: NewMetrics(),
		thermal: newThermalGovernor(sensor, path, cfg, log),
		log:     log,
	}
	return h, nil
}

// AcquireBuffer returns an exclusively-owned pooled buffer.
func (h *Handle) AcquireBuffer() (*PooledBuffer, error) {
	return h.pool.Acquire()
}

// WriteAt writes buf at offset. With direct I/O enabled, buffer address,
// file offset, and length must all be multiples of the page size.
func (h *Handle) WriteAt(buf []byte, offset int64) (int, error) {
	if h.cfg.UseDirectIO {
		if !isAligned(offset, PageSize) || !isAligned(int64(len(buf)), PageSize) {
			return 0, fmt.Errorf("ioengine: misaligned direct write: offset=%d len=%d", offset, len(buf))
		}
	}
	start := time.Now()
	n, err := h.file.WriteAt(buf, offset)
	h.metrics.RecordOp(time.Since(start), n)
	if err != nil {
		return n, &wipeerrors.IoFault{Op: "write", Offset: offset, Cause: err}
	}
	h.thermal.afterWrite(context.Background(), n)
	return n, nil
}

// ReadAt reads into buf from offset.
func (h *Handle) ReadAt(buf []byte, offset int64) (int, error) {
	if h.cfg.UseDirectIO {
		if !isAligned(offset, PageSize) || !isAligned(int64(len(buf)), PageSize) {
			return 0, fmt.Errorf("ioengine: misaligned direct read: offset=%d len=%d", offset, len(buf))
		}
	}
	start := time.Now()
	n, err := h.file.ReadAt(buf, offset)
	h.metrics.RecordOp(time.Since(start), n)
	if err != nil {
		return n, &wipeerrors.IoFault{Op: "read", Offset: offset, Cause: err}
	}
	return n, nil
}

// Sync flushes the handle to stable storage `sync()`.
func (h *Handle) Sync() error {
	if err := h.file.Sync(); err != nil {
		return &wipeerrors.IoFault{Op: "sync", Cause: err}
	}
	return nil
}

// OnUnreadable registers fn to be called with the offset of any buffer a
// sequential read cannot read at all; the read then skips that buffer
// and continues, letting the bad-sector handler log the offset and keep
// the operation going. Without a hook, unreadable offsets abort the
// read.
func (h *Handle) OnUnreadable(fn func(offset int64)) {
	h.badSector = fn
}

// Metrics returns the handle's cumulative latency/throughput metrics.
func (h *Handle) Metrics() *Metrics { return h.metrics }

// Path returns the device path this handle was opened against.
func (h *Handle) Path() string { return h.path }

// Size returns the device's size in bytes per the device
// descriptor; implemented via Seek(0, io.SeekEnd) for both regular files
// and (on platforms where the kernel reports it) block devices.
func (h *Handle) Size() (int64, error) {
	size, err := h.file.Seek(0, 2)
	if err != nil {
		return 0, &wipeerrors.IoFault{Op: "seek", Cause: err}
	}
	if _, err := h.file.Seek(0, 0); err != nil {
		return 0, &wipeerrors.IoFault{Op: "seek", Cause: err}
	}
	return size, nil
}

// Close closes the handle's file descriptor and its buffer pool. The
// handle exclusively owns the descriptor; the pool waits for in-flight
// buffers before tearing down.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.pool.Close()
	return h.file.Close()
}

// FillFunc produces up to len(buf) bytes of pattern/random content at the
// given device offset, returning the number of bytes it actually filled
// (normally len(buf)). Used by SequentialWrite.
type FillFunc func(buf []byte, offset int64) (int, error)

// ProcessFunc consumes buf (n valid bytes) read from the given device
// offset. Used by SequentialRead.
type ProcessFunc func(buf []byte, offset int64, n int) error

// InterruptCheck polls the process-wide interrupt flag; when
// it returns true, SequentialWrite/SequentialRead return
// *wipeerrors.Interrupted at the next buffer boundary.
type InterruptCheck func() bool

// SequentialWrite iterates buffer-sized fills until total bytes have been
// written per the high-level helper. interrupted may be nil.
func SequentialWrite(h *Handle, total int64, fill FillFunc, interrupted InterruptCheck) error {
	return SequentialWriteRange(h, 0, total, fill, interrupted)
}

// SequentialWriteRange is SequentialWrite starting at startOffset instead
// of the beginning of the device, used by strategies that address a
// sub-region (an SMR zone, an NVMe namespace, an eMMC boot partition).
func SequentialWriteRange(h *Handle, startOffset, total int64, fill FillFunc, interrupted InterruptCheck) error {
	offset := startOffset
	end := startOffset + total
	for offset < end {
		if interrupted != nil && interrupted() {
			return &wipeerrors.Interrupted{}
		}

		buf, err := h.AcquireBuffer()
		if err != nil {
			return err
		}

		remaining := end - offset
		chunk := buf.Bytes()
		if int64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}

		n, err := fill(chunk, offset)
		if err != nil {
			buf.Release()
			return fmt.Errorf("ioengine: fill at offset %d: %w", offset, err)
		}

		if _, err := h.WriteAt(chunk[:n], offset); err != nil {
			buf.Release()
			return err
		}
		buf.Release()

		offset += int64(n)
		if n == 0 {
			return fmt.Errorf("ioengine: fill function made no progress at offset %d", offset)
		}
	}
	return nil
}

// SequentialRead iterates buffer-sized reads until total bytes have been
// processed per the high-level helper.
func SequentialRead(h *Handle, total int64, process ProcessFunc, interrupted InterruptCheck) error {
	return SequentialReadRange(h, 0, total, process, interrupted)
}

// SequentialReadRange is SequentialRead starting at startOffset instead of
// the beginning of the device.
func SequentialReadRange(h *Handle, startOffset, total int64, process ProcessFunc, interrupted InterruptCheck) error {
	offset := startOffset
	end := startOffset + total
	for offset < end {
		if interrupted != nil && interrupted() {
			return &wipeerrors.Interrupted{}
		}

		buf, err := h.AcquireBuffer()
		if err != nil {
			return err
		}

		remaining := end - offset
		chunk := buf.Bytes()
		if int64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}

		n, err := h.ReadAt(chunk, offset)
		if err != nil && n == 0 {
			if h.badSector != nil {
				h.badSector(offset)
				buf.Release()
				offset += int64(len(chunk))
				continue
			}
			buf.Release()
			return err
		}

		if perr := process(chunk, offset, n); perr != nil {
			buf.Release()
			return fmt.Errorf("ioengine: process at offset %d: %w", offset, perr)
		}
		buf.Release()

		offset += int64(n)
		if n == 0 {
			return fmt.Errorf("ioengine: read made no progress at offset %d", offset)
		}
	}
	return nil
}
