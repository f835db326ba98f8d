package ioengine

import "time"

// Config enumerates the block-I/O engine's tunables.
type Config struct {
	// UseDirectIO opens the device with O_DIRECT (where the platform
	// supports it), bypassing the page cache. Buffer memory, file
	// offsets, and transfer lengths must then be multiples of the page
	// size; the buffer pool guarantees this alignment.
	UseDirectIO bool

	// InitialBufferSize is the size, in bytes, of buffers the pool
	// pre-allocates at open.
	InitialBufferSize int

	// MaxBufferSize bounds PerformanceTuner growth when AdaptiveTuning is
	// enabled.
	MaxBufferSize int

	// QueueDepth is the number of buffers pre-allocated at open.
	QueueDepth int

	// MaxBuffers bounds on-demand pool growth beyond QueueDepth.
	MaxBuffers int

	// TemperatureThreshold is the Celsius threshold the thermal governor
	// throttles against.
	TemperatureThreshold float64

	// TemperatureCheckInterval is the byte interval between thermal
	// sensor reads.
	TemperatureCheckInterval int64

	// AdaptiveTuning enables the PerformanceTuner to grow the buffer size
	// between iterations; queue depth is not tuned.
	AdaptiveTuning bool

	// TargetEfficiency is the PerformanceTuner's goal fraction of
	// theoretical throughput, used only when AdaptiveTuning is set.
	TargetEfficiency float64
}

// SectorSize is the conventional block-device sector size assumed for
// direct-I/O length alignment; transfer lengths must be multiples of it.
const SectorSize = 512

// PageSize is the conventional page-alignment unit for direct-I/O buffer
// memory and offsets.
const PageSize = 4096

// NVMeOptimized is the NVMe preset: 16 MiB buffers, depth 32, 75°C.
func NVMeOptimized() Config {
	return Config{
		UseDirectIO:              true,
		InitialBufferSize:        16 << 20,
		MaxBufferSize:            32 << 20,
		QueueDepth:               32,
		MaxBuffers:               64,
		TemperatureThreshold:     75,
		TemperatureCheckInterval: 64 << 20,
		AdaptiveTuning:           true,
		TargetEfficiency:         0.85,
	}
}

// SATASSDOptimized is the SATA SSD preset: 8 MiB buffers, depth 8, 65°C.
func SATASSDOptimized() Config {
	return Config{
		UseDirectIO:              true,
		InitialBufferSize:        8 << 20,
		MaxBufferSize:            16 << 20,
		QueueDepth:               8,
		MaxBuffers:               16,
		TemperatureThreshold:     65,
		TemperatureCheckInterval: 64 << 20,
		AdaptiveTuning:           true,
		TargetEfficiency:         0.80,
	}
}

// HDDOptimized is the conventional-drive preset: 4 MiB buffers, depth 2,
// 55°C.
func HDDOptimized() Config {
	return Config{
		UseDirectIO:              true,
		InitialBufferSize:        4 << 20,
		MaxBufferSize:            8 << 20,
		QueueDepth:               2,
		MaxBuffers:               4,
		TemperatureThreshold:     55,
		TemperatureCheckInterval: 32 << 20,
		AdaptiveTuning:           false,
		TargetEfficiency:         0.70,
	}
}

// VerificationOptimized is a read-biased preset for the verification
// analyzer's sampling reads.
func VerificationOptimized() Config {
	return Config{
		UseDirectIO:              false,
		InitialBufferSize:        4 << 20,
		MaxBufferSize:            4 << 20,
		QueueDepth:               4,
		MaxBuffers:               8,
		TemperatureThreshold:     80,
		TemperatureCheckInterval: 128 << 20,
		AdaptiveTuning:           false,
		TargetEfficiency:         0.90,
	}
}

// SmallReadOptimized is the small-transfer preset: 64 KiB buffers, no
// direct I/O, no thermal checks. Used by the pre-wipe capability test's
// small sample region.
func SmallReadOptimized() Config {
	return Config{
		UseDirectIO:              false,
		InitialBufferSize:        64 << 10,
		MaxBufferSize:            64 << 10,
		QueueDepth:               2,
		MaxBuffers:               2,
		TemperatureThreshold:     0,
		TemperatureCheckInterval: 0,
		AdaptiveTuning:           false,
		TargetEfficiency:         0,
	}
}

// withDefaults fills zero-valued sizing fields so a caller may start from
// a partial literal: InitialBufferSize and QueueDepth take HDDOptimized's
// values, MaxBufferSize and MaxBuffers default to InitialBufferSize and
// QueueDepth, and TemperatureCheckInterval takes HDDOptimized's value only
// when a TemperatureThreshold is set. Other fields are left as given.
func (c Config) withDefaults() Config {
	d := HDDOptimized()
	if c.InitialBufferSize == 0 {
		c.InitialBufferSize = d.InitialBufferSize
	}
	if c.MaxBufferSize == 0 {
		c.MaxBufferSize = c.InitialBufferSize
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = d.QueueDepth
	}
	if c.MaxBuffers == 0 {
		c.MaxBuffers = c.QueueDepth
	}
	if c.TemperatureCheckInterval == 0 && c.TemperatureThreshold > 0 {
		c.TemperatureCheckInterval = d.TemperatureCheckInterval
	}
	return c
}

// thermalCheckDue reports whether bytesSinceCheck warrants a new sensor
// read per the thermal governor trigger.
func (c Config) thermalCheckDue(bytesSinceCheck int64) bool {
	return c.TemperatureThreshold > 0 && c.TemperatureCheckInterval > 0 && bytesSinceCheck >= c.TemperatureCheckInterval
}

// defaultTimeout bounds hardware sensor reads invoked by the governor.
const defaultTimeout = 2 * time.Second
