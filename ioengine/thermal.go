package ioengine

import (
	"context"
	"time"

	"github.com/joeycumines/go-wipecore/logging"
)

// ThermalSensor reads a device's current temperature. The concrete
// implementation (SMART, NVMe log page, platform sensor) is an external
// collaborator; this module only consumes the interface.
type ThermalSensor interface {
	ReadTemperatureC(ctx context.Context, device string) (float64, error)
}

// ThrottleAction is the governor's decision: sleep between writes, pause
// outright, or neither.
type ThrottleAction struct {
	SleepBetweenWrites time.Duration
	Pause              time.Duration
}

// computeThrottle implements the table:
//
//	< 0          : None
//	0 - 5°C      : slow factor 0.75
//	5 - 10°C     : slow factor 0.50
//	> 10°C       : pause for min(30, delta/5) seconds
func computeThrottle(currentC, thresholdC float64) ThrottleAction {
	delta := currentC - thresholdC
	switch {
	case delta < 0:
		return ThrottleAction{}
	case delta <= 5:
		return ThrottleAction{SleepBetweenWrites: slowFactorSleep(0.75)}
	case delta <= 10:
		return ThrottleAction{SleepBetweenWrites: slowFactorSleep(0.50)}
	default:
		pause := delta / 5
		if pause > 30 {
			pause = 30
		}
		return ThrottleAction{Pause: time.Duration(pause * float64(time.Second))}
	}
}

// slowFactorSleep converts a slow factor into the sleep duration between
// writes: (1-factor)·100 ms.
func slowFactorSleep(factor float64) time.Duration {
	return time.Duration((1 - factor) * 100 * float64(time.Millisecond))
}

// maxConsecutiveSensorFailures disables thermal monitoring for the
// handle's lifetime, with a warning, after this many consecutive sensor
// read failures; operations continue unthrottled.
const maxConsecutiveSensorFailures = 3

// thermalGovernor tracks bytes written since the last sensor read and
// applies the throttle table between buffers.
type thermalGovernor struct {
	sensor           ThermalSensor
	device           string
	thresholdC       float64
	checkInterval    int64
	bytesSinceCheck  int64
	consecutiveFails int
	disabled         bool
	log              *logging.Logger
}

func newThermalGovernor(sensor ThermalSensor, device string, cfg Config, log *logging.Logger) *thermalGovernor {
	if cfg.TemperatureThreshold <= 0 || sensor == nil {
		return &thermalGovernor{disabled: true}
	}
	return &thermalGovernor{
		sensor:        sensor,
		device:        device,
		thresholdC:    cfg.TemperatureThreshold,
		checkInterval: cfg.TemperatureCheckInterval,
		log:           log,
	}
}

// afterWrite is called after every write; it accounts bytes and, once the
// check interval has elapsed, reads the sensor and applies the resulting
// throttle action by sleeping/pausing inline.
func (g *thermalGovernor) afterWrite(ctx context.Context, n int) {
	if g == nil || g.disabled {
		return
	}
	g.bytesSinceCheck += int64(n)
	if g.bytesSinceCheck < g.checkInterval {
		return
	}
	g.bytesSinceCheck = 0

	readCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	current, err := g.sensor.ReadTemperatureC(readCtx, g.device)
	cancel()
	if err != nil {
		g.consecutiveFails++
		if g.consecutiveFails >= maxConsecutiveSensorFailures {
			g.disabled = true
			logging.WithComponent(g.log, "ioengine.thermal").Warning().Str("device", g.device).Log("thermal monitoring disabled after repeated sensor read failures")
		}
		return
	}
	g.consecutiveFails = 0

	action := computeThrottle(current, g.thresholdC)
	switch {
	case action.Pause > 0:
		logging.WithComponent(g.log, "ioengine.thermal").Warning().Str("device", g.device).Float64("temp_c", current).Log("pausing writes for thermal relief")
		time.Sleep(action.Pause)
	case action.SleepBetweenWrites > 0:
		time.Sleep(action.SleepBetweenWrites)
	}
}
