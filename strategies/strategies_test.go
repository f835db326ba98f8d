package strategies

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

type testFiller struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newTestFiller() *testFiller { return &testFiller{r: rand.New(rand.NewSource(7))} }

func (f *testFiller) Fill(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.r.Read(buf)
	return nil
}

// fakeHardware is a configurable HardwareCommander double.
type fakeHardware struct {
	NoHardware
	secureEraseErr error
	iseErr         error
	formatted      []uint32
	flushed        bool
	unpinned       bool
}

func (f *fakeHardware) SecureErase(context.Context, devicetypes.Device, bool) error {
	if f.secureEraseErr != nil {
		return f.secureEraseErr
	}
	return nil
}

func (f *fakeHardware) InstantSecureErase(context.Context, devicetypes.Device) error {
	if f.iseErr != nil {
		return f.iseErr
	}
	return nil
}

func (f *fakeHardware) FormatNamespace(_ context.Context, _ devicetypes.Device, ns devicetypes.Namespace) error {
	f.formatted = append(f.formatted, ns.NSID)
	return nil
}

func (f *fakeHardware) FlushCache(context.Context, devicetypes.Device) error {
	f.flushed = true
	return nil
}

func (f *fakeHardware) UnpinCache(context.Context, devicetypes.Device) error {
	f.unpinned = true
	return nil
}

func newHandle(t *testing.T, size int64) (*ioengine.Handle, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.img")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	h, err := ioengine.Open(path, ioengine.SmallReadOptimized(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h, path
}

func testConfig(t *testing.T, algo devicetypes.Algorithm) devicetypes.WipeConfig {
	t.Helper()
	cfg, err := devicetypes.NewWipeConfig(algo, devicetypes.WithTempMonitor(false), devicetypes.WithVerify(false))
	require.NoError(t, err)
	return cfg
}

func TestSelect_DispatchTable(t *testing.T) {
	cases := []struct {
		class devicetypes.DriveClass
		want  any
	}{
		{devicetypes.DriveClassSMR, SMRStrategy{}},
		{devicetypes.DriveClassOptane, OptaneStrategy{}},
		{devicetypes.DriveClassHybridSSHD, HybridSSHDStrategy{}},
		{devicetypes.DriveClassEMMC, EmbeddedStrategy{}},
		{devicetypes.DriveClassUFS, EmbeddedStrategy{}},
		{devicetypes.DriveClassNVMe, NVMeStrategy{}},
		{devicetypes.DriveClassSSD, SSDStrategy{}},
		{devicetypes.DriveClassHDD, HDDStrategy{}},
		{devicetypes.DriveClassRAID, RAIDStrategy{Force: true}},
		{devicetypes.DriveClassUSB, UnsupportedStrategy{}},
		{devicetypes.DriveClassUnknown, UnsupportedStrategy{}},
	}
	for _, tc := range cases {
		t.Run(string(tc.class), func(t *testing.T) {
			s, err := Select(devicetypes.Device{Class: tc.class}, true)
			require.NoError(t, err)
			require.IsType(t, tc.want, s)
		})
	}

	_, err := Select(devicetypes.Device{Class: devicetypes.DriveClass("TAPE")}, false)
	require.Error(t, err)
}

func TestOptane_HardwareISEShortCircuits(t *testing.T) {
	h, _ := newHandle(t, 64<<10)
	dev := devicetypes.Device{Path: "/dev/test", SizeBytes: 64 << 10, Class: devicetypes.DriveClassOptane}
	dev.Capabilities.SupportsEnhancedErase = true

	res, err := OptaneStrategy{}.Execute(context.Background(), dev, testConfig(t, devicetypes.AlgorithmDoD5220),
		ExecHooks{}, h, newTestFiller(), &fakeHardware{}, nil)
	require.NoError(t, err)
	require.True(t, res.HardwareUsed)
	require.Empty(t, res.Passes)
}

func TestOptane_FallsBackTo3PhasePerNamespace(t *testing.T) {
	h, path := newHandle(t, 128<<10)
	dev := devicetypes.Device{Path: path, SizeBytes: 128 << 10, Class: devicetypes.DriveClassOptane}
	dev.Capabilities.SupportsEnhancedErase = true
	dev.Namespaces = []devicetypes.Namespace{
		{NSID: 1, SizeBytes: 64 << 10, Type: devicetypes.NamespaceTypeBlock, Active: true},
		{NSID: 2, SizeBytes: 64 << 10, Type: devicetypes.NamespaceTypeBlock, Active: true},
	}

	hw := &fakeHardware{iseErr: &wipeerrors.HardwareCommandFailed{Command: "ise", Message: "not supported"}}
	var fallbackSeen bool
	res, err := OptaneStrategy{}.Execute(context.Background(), dev, testConfig(t, devicetypes.AlgorithmDoD5220),
		ExecHooks{}, h, newTestFiller(), hw, func(ev Event) {
			if ev.Kind == EventFallback {
				fallbackSeen = true
			}
		})
	require.NoError(t, err)
	require.True(t, fallbackSeen)
	require.NotEmpty(t, res.FallbackReason)
	require.Len(t, res.Passes, 6) // 3 passes per namespace
}

func TestEmbedded_FallbackZerosBootPartitionsAndRandomizesUserData(t *testing.T) {
	// 16 MiB: two 4 MiB boot areas plus 8 MiB user data.
	const size = 16 << 20
	h, path := newHandle(t, size)
	dev := devicetypes.Device{Path: path, SizeBytes: size, Class: devicetypes.DriveClassEMMC}
	dev.Capabilities.SupportsSecureErase = true

	hw := &fakeHardware{secureEraseErr: &wipeerrors.HardwareCommandFailed{Command: "secure-erase", Message: "not supported"}}
	res, err := EmbeddedStrategy{}.Execute(context.Background(), dev, testConfig(t, devicetypes.AlgorithmRandom),
		ExecHooks{}, h, newTestFiller(), hw, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.FallbackReason)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Boot partitions zeroed.
	for i := 0; i < 8<<20; i += 4096 {
		require.Zerof(t, data[i], "boot area offset %d", i)
	}
	// User data randomized: no 4 KiB page of zeros should remain.
	for off := 8 << 20; off < size; off += 4096 {
		allZero := true
		for _, b := range data[off : off+4096] {
			if b != 0 {
				allZero = false
				break
			}
		}
		require.Falsef(t, allZero, "user data page at %d untouched", off)
	}
}

func TestNVMe_PerNamespaceDispatchFormatsKeyValue(t *testing.T) {
	h, path := newHandle(t, 128<<10)
	dev := devicetypes.Device{Path: path, SizeBytes: 128 << 10, Class: devicetypes.DriveClassNVMe}
	dev.Namespaces = []devicetypes.Namespace{
		{NSID: 1, SizeBytes: 64 << 10, Type: devicetypes.NamespaceTypeBlock, Active: true},
		{NSID: 2, SizeBytes: 64 << 10, Type: devicetypes.NamespaceTypeKeyValue, Active: true},
	}

	hw := &fakeHardware{}
	res, err := NVMeStrategy{}.Execute(context.Background(), dev, testConfig(t, devicetypes.AlgorithmDoD5220),
		ExecHooks{}, h, newTestFiller(), hw, nil)
	require.NoError(t, err)
	require.Equal(t, []uint32{2}, hw.formatted)
	require.True(t, res.HardwareUsed)
	require.Len(t, res.Passes, 3)
}

func TestHybrid_FlushesAndUnpinsCacheFirst(t *testing.T) {
	h, path := newHandle(t, 64<<10)
	dev := devicetypes.Device{Path: path, SizeBytes: 64 << 10, Class: devicetypes.DriveClassHybridSSHD}

	hw := &fakeHardware{}
	res, err := HybridSSHDStrategy{}.Execute(context.Background(), dev, testConfig(t, devicetypes.AlgorithmDoD5220),
		ExecHooks{}, h, newTestFiller(), hw, nil)
	require.NoError(t, err)
	require.True(t, hw.unpinned)
	require.True(t, hw.flushed)
	require.Len(t, res.Passes, 3)
}

func TestRAID_RefusesWithoutForce(t *testing.T) {
	h, path := newHandle(t, 64<<10)
	dev := devicetypes.Device{Path: path, SizeBytes: 64 << 10, Class: devicetypes.DriveClassRAID}

	_, err := RAIDStrategy{}.Execute(context.Background(), dev, testConfig(t, devicetypes.AlgorithmDoD5220),
		ExecHooks{}, h, newTestFiller(), &fakeHardware{}, nil)
	require.Error(t, err)
	var unsupported *wipeerrors.Unsupported
	require.True(t, errors.As(err, &unsupported))
}

func TestRAID_OverwriteMetadataZeroesTrailingRegion(t *testing.T) {
	const size = 2 << 20
	h, path := newHandle(t, size)
	dev := devicetypes.Device{Path: path, SizeBytes: size, Class: devicetypes.DriveClassRAID}

	res, err := RAIDStrategy{Force: true, OverwriteMetadata: true}.Execute(context.Background(), dev,
		testConfig(t, devicetypes.AlgorithmDoD5220), ExecHooks{}, h, newTestFiller(), &fakeHardware{}, nil)
	require.NoError(t, err)
	require.Len(t, res.Passes, 4) // 3-pass plus the metadata zero pass

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for i := size - (1 << 20); i < size; i++ {
		require.Zerof(t, data[i], "metadata region offset %d", i)
	}
}

func TestExecHooks_StartAtPassSkipsCompletedPasses(t *testing.T) {
	h, path := newHandle(t, 64<<10)
	dev := devicetypes.Device{Path: path, SizeBytes: 64 << 10, Class: devicetypes.DriveClassHDD}

	var commits []int
	hooks := ExecHooks{
		StartAtPass: 1,
		AfterPass: func(passIndex, totalPasses int, _ algorithms.PassResult) error {
			commits = append(commits, passIndex)
			require.Equal(t, 3, totalPasses)
			return nil
		},
	}
	res, err := HDDStrategy{}.Execute(context.Background(), dev, testConfig(t, devicetypes.AlgorithmDoD5220),
		hooks, h, newTestFiller(), &fakeHardware{}, nil)
	require.NoError(t, err)
	require.Len(t, res.Passes, 2)
	require.Equal(t, []int{1, 2}, commits)
}

func TestDefaultUnfreezeChain_OrderAndNames(t *testing.T) {
	chain := DefaultUnfreezeChain()
	require.Len(t, chain, 3)
	require.Equal(t, "hotplug", chain[0].Name())
	require.Equal(t, "suspend-resume", chain[1].Name())
	require.Equal(t, "sleep-wake", chain[2].Name())
}
