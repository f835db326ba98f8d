package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-wipecore/checkpoint"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
	"github.com/joeycumines/go-wipecore/strategies"
	"github.com/joeycumines/go-wipecore/verify"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

// testFiller is a deterministic RandomFiller so test outcomes are stable.
type testFiller struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newTestFiller() *testFiller {
	return &testFiller{r: rand.New(rand.NewSource(42))}
}

func (f *testFiller) Fill(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.r.Read(buf)
	return nil
}

func newFileDevice(t *testing.T, size int64, class devicetypes.DriveClass) devicetypes.Device {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.img")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return devicetypes.Device{
		Path:      path,
		Model:     "TESTDISK",
		Serial:    "TD-0001",
		SizeBytes: size,
		Class:     class,
	}
}

func testIOConfig() *ioengine.Config {
	cfg := ioengine.SmallReadOptimized()
	return &cfg
}

func openTestStore(t *testing.T) *checkpoint.Store {
	t.Helper()
	s, err := checkpoint.Open(filepath.Join(t.TempDir(), "ckpt.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestExecute_DoD3PassOnHDD(t *testing.T) {
	dev := newFileDevice(t, 1<<20, devicetypes.DriveClassHDD)
	cfg, err := devicetypes.NewWipeConfig(devicetypes.AlgorithmDoD5220, devicetypes.WithTempMonitor(false))
	require.NoError(t, err)

	store := openTestStore(t)
	o, err := New(dev, cfg, Options{
		RNG:         newTestFiller(),
		IOConfig:    testIOConfig(),
		Checkpoints: store,
	})
	require.NoError(t, err)

	res, err := o.Execute(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Passes, 3)
	for i, p := range res.Passes {
		require.NotNil(t, p.Verification, "pass %d", i)
		require.Truef(t, p.Verification.Passed, "pass %d verification", i)
	}
	require.False(t, res.HardwareUsed)
	require.Empty(t, res.FallbackReason)

	// The completed operation must have deleted its checkpoint record.
	rec, err := store.Load(dev.Path, string(devicetypes.AlgorithmDoD5220))
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestExecute_GutmannInterruptAndResume(t *testing.T) {
	dev := newFileDevice(t, 512<<10, devicetypes.DriveClassHDD)
	cfg, err := devicetypes.NewWipeConfig(devicetypes.AlgorithmGutmann, devicetypes.WithTempMonitor(false))
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := checkpoint.Open(filepath.Join(dir, "ckpt.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	// First run: interrupt once pass 8 (index 7) starts writing.
	interrupt := NewInterruptFlag()
	o, err := New(dev, cfg, Options{
		RNG:         newTestFiller(),
		IOConfig:    testIOConfig(),
		Checkpoints: store,
		Interrupt:   interrupt,
		Progress: func(ev ProgressEvent) {
			if ev.Kind == strategies.EventTick && ev.PassIndex >= 7 {
				interrupt.Set()
			}
		},
	})
	require.NoError(t, err)

	_, err = o.Execute(context.Background())
	require.Error(t, err)
	var interrupted *wipeerrors.Interrupted
	require.True(t, errors.As(err, &interrupted))

	rec, err := store.Load(dev.Path, string(devicetypes.AlgorithmGutmann))
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, 7, rec.CurrentPass)
	require.Equal(t, 35, rec.TotalPasses)

	// Second run resumes at pass 8 and finishes the remaining 28 passes.
	analyzer := verify.NewAnalyzer(verify.DefaultThresholds(), nil,
		verify.WithRand(rand.New(rand.NewSource(7))))
	o2, err := New(dev, cfg, Options{
		RNG:         newTestFiller(),
		IOConfig:    testIOConfig(),
		Checkpoints: store,
		Analyzer:    analyzer,
		VerifyLevel: verify.Level1RandomSampling,
	})
	require.NoError(t, err)

	res, err := o2.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, res.Resumed)
	require.Equal(t, 7, res.StartPass)
	require.Len(t, res.Passes, 28)

	require.NotNil(t, res.Report)
	require.GreaterOrEqual(t, res.Report.Confidence, 90)
	require.True(t, res.Report.PostWipe.EntropyPass)

	rec, err = store.Load(dev.Path, string(devicetypes.AlgorithmGutmann))
	require.NoError(t, err)
	require.Nil(t, rec)
}

// sanitizeRefusingHardware reports sanitize (and everything else) as not
// supported, but answers HPA queries cleanly.
type sanitizeRefusingHardware struct {
	strategies.NoHardware
	sanitizeAttempts int
}

func (h *sanitizeRefusingHardware) Sanitize(ctx context.Context, dev devicetypes.Device, mode devicetypes.SanitizeMode) error {
	h.sanitizeAttempts++
	return &wipeerrors.HardwareCommandFailed{Command: "sanitize", Message: "not supported"}
}

func TestExecute_NVMeSanitizeFallsBackToSoftware(t *testing.T) {
	dev := newFileDevice(t, 512<<10, devicetypes.DriveClassNVMe)
	cfg, err := devicetypes.NewWipeConfig(devicetypes.AlgorithmSanitize, devicetypes.WithTempMonitor(false))
	require.NoError(t, err)

	hw := &sanitizeRefusingHardware{}
	var fallbacks int
	o, err := New(dev, cfg, Options{
		RNG:      newTestFiller(),
		IOConfig: testIOConfig(),
		Hardware: hw,
		Progress: func(ev ProgressEvent) {
			if ev.Kind == strategies.EventFallback {
				fallbacks++
			}
		},
	})
	require.NoError(t, err)

	res, err := o.Execute(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, hw.sanitizeAttempts)
	require.GreaterOrEqual(t, fallbacks, 1)
	require.False(t, res.HardwareUsed)
	require.NotEmpty(t, res.FallbackReason)
	require.Equal(t, devicetypes.AlgorithmSanitize, res.Algorithm)
	require.Equal(t, devicetypes.AlgorithmDoD5220, res.EffectiveAlgorithm)
	require.Len(t, res.Passes, 3)
}

func TestExecute_EmptyDeviceTriviallyCompliant(t *testing.T) {
	dev := newFileDevice(t, 0, devicetypes.DriveClassHDD)
	cfg, err := devicetypes.NewWipeConfig(devicetypes.AlgorithmZero)
	require.NoError(t, err)

	o, err := New(dev, cfg, Options{IOConfig: testIOConfig()})
	require.NoError(t, err)

	res, err := o.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, res.TriviallyComplete)
	require.Empty(t, res.Passes)
	require.NotNil(t, res.Report)
	require.Equal(t, 100, res.Report.Confidence)
	require.Zero(t, res.Report.PostWipe.MeanEntropy)
}

func TestExecute_RAIDMemberRequiresForce(t *testing.T) {
	dev := newFileDevice(t, 256<<10, devicetypes.DriveClassRAID)
	cfg, err := devicetypes.NewWipeConfig(devicetypes.AlgorithmDoD5220, devicetypes.WithTempMonitor(false), devicetypes.WithVerify(false))
	require.NoError(t, err)

	o, err := New(dev, cfg, Options{RNG: newTestFiller(), IOConfig: testIOConfig()})
	require.NoError(t, err)

	_, err = o.Execute(context.Background())
	require.Error(t, err)
	var unsupported *wipeerrors.Unsupported
	require.True(t, errors.As(err, &unsupported))
}

func TestExecute_UnknownClassRefused(t *testing.T) {
	dev := newFileDevice(t, 256<<10, devicetypes.DriveClassUSB)
	cfg, err := devicetypes.NewWipeConfig(devicetypes.AlgorithmZero, devicetypes.WithTempMonitor(false), devicetypes.WithVerify(false))
	require.NoError(t, err)

	o, err := New(dev, cfg, Options{RNG: newTestFiller(), IOConfig: testIOConfig()})
	require.NoError(t, err)

	_, err = o.Execute(context.Background())
	require.Error(t, err)
	var unsupported *wipeerrors.Unsupported
	require.True(t, errors.As(err, &unsupported))
}

// trimCountingHardware accepts TRIM and counts invocations.
type trimCountingHardware struct {
	strategies.NoHardware
	trims int
}

func (h *trimCountingHardware) Trim(context.Context, devicetypes.Device) error {
	h.trims++
	return nil
}

func TestExecute_SSDDiscardPassAfterOverwrite(t *testing.T) {
	dev := newFileDevice(t, 256<<10, devicetypes.DriveClassSSD)
	dev.Capabilities.SupportsTRIM = true
	cfg, err := devicetypes.NewWipeConfig(devicetypes.AlgorithmZero,
		devicetypes.WithTempMonitor(false), devicetypes.WithTrimAfter(true))
	require.NoError(t, err)

	hw := &trimCountingHardware{}
	o, err := New(dev, cfg, Options{RNG: newTestFiller(), IOConfig: testIOConfig(), Hardware: hw})
	require.NoError(t, err)

	res, err := o.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, hw.trims)
	require.Len(t, res.Passes, 1)

	// Zero pass leaves the device all zeros.
	data, err := os.ReadFile(dev.Path)
	require.NoError(t, err)
	for i, b := range data {
		require.Zerof(t, b, "offset %d", i)
	}
}

// hpaHardware simulates a drive with a removable HPA.
type hpaHardware struct {
	strategies.NoHardware
	removed  bool
	restored bool
	original uint64
}

func (h *hpaHardware) RemoveHPA(context.Context, devicetypes.Device) (uint64, error) {
	h.removed = true
	return 1000000, nil
}

func (h *hpaHardware) RestoreHPA(_ context.Context, _ devicetypes.Device, orig uint64) error {
	h.restored = true
	h.original = orig
	return nil
}

func TestExecute_TemporaryHPARemoveAndRestore(t *testing.T) {
	dev := newFileDevice(t, 256<<10, devicetypes.DriveClassHDD)
	cfg, err := devicetypes.NewWipeConfig(devicetypes.AlgorithmZero,
		devicetypes.WithTempMonitor(false), devicetypes.WithVerify(false),
		devicetypes.WithHPADCO(devicetypes.HPADCOTemporaryRemove))
	require.NoError(t, err)

	hw := &hpaHardware{}
	o, err := New(dev, cfg, Options{RNG: newTestFiller(), IOConfig: testIOConfig(), Hardware: hw})
	require.NoError(t, err)

	res, err := o.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, hw.removed)
	require.True(t, hw.restored)
	require.Equal(t, uint64(1000000), hw.original)
	require.True(t, res.HPARemoved)
	require.True(t, res.HPARestored)
}

func TestExecute_SMRZoneAwareDispatch(t *testing.T) {
	const zoneSize = 64 << 10
	dev := newFileDevice(t, 4*zoneSize, devicetypes.DriveClassSMR)
	for i := uint64(0); i < 4; i++ {
		dev.Zones = append(dev.Zones, devicetypes.Zone{
			Number:          i,
			StartLBA:        i * (zoneSize / ioengine.SectorSize),
			CapacitySectors: zoneSize / ioengine.SectorSize,
			Type:            devicetypes.ZoneTypeSequentialWriteRequired,
			Condition:       devicetypes.ZoneConditionFull,
		})
	}
	cfg, err := devicetypes.NewWipeConfig(devicetypes.AlgorithmZero,
		devicetypes.WithTempMonitor(false), devicetypes.WithVerify(false))
	require.NoError(t, err)

	hw := &zoneResettingHardware{}
	o, err := New(dev, cfg, Options{RNG: newTestFiller(), IOConfig: testIOConfig(), Hardware: hw})
	require.NoError(t, err)

	res, err := o.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, hw.resets)
	require.Len(t, res.Passes, 4) // one Zero pass per zone

	data, err := os.ReadFile(dev.Path)
	require.NoError(t, err)
	for i, b := range data {
		require.Zerof(t, b, "offset %d", i)
	}
}

type zoneResettingHardware struct {
	strategies.NoHardware
	resets int
}

func (h *zoneResettingHardware) ResetZone(context.Context, devicetypes.Device, devicetypes.Zone) error {
	h.resets++
	return nil
}
