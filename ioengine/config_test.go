package ioengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresets(t *testing.T) {
	assert.Equal(t, 16<<20, NVMeOptimized().InitialBufferSize)
	assert.Equal(t, 32, NVMeOptimized().QueueDepth)
	assert.Equal(t, 8<<20, SATASSDOptimized().InitialBufferSize)
	assert.Equal(t, 4<<20, HDDOptimized().InitialBufferSize)
	assert.False(t, SmallReadOptimized().UseDirectIO)
	assert.Equal(t, float64(0), SmallReadOptimized().TemperatureThreshold)
}

func TestThermalCheckDue(t *testing.T) {
	cfg := Config{TemperatureThreshold: 65, TemperatureCheckInterval: 1000}
	assert.False(t, cfg.thermalCheckDue(999))
	assert.True(t, cfg.thermalCheckDue(1000))

	noThermal := Config{}
	assert.False(t, noThermal.thermalCheckDue(1 << 30))
}
