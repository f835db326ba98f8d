package orchestrator

import (
	"context"
	"time"

	"github.com/joeycumines/go-wipecore/algorithms"
	"github.com/joeycumines/go-wipecore/checkpoint"
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/ioengine"
	"github.com/joeycumines/go-wipecore/logging"
	"github.com/joeycumines/go-wipecore/recovery"
	"github.com/joeycumines/go-wipecore/rng"
	"github.com/joeycumines/go-wipecore/strategies"
	"github.com/joeycumines/go-wipecore/verify"
)

// hpaStateKey is the checkpoint state field that persists the HPA's
// original visible sector count across a crash: resume re-restores the
// HPA even when the process died between removal and restoration.
const hpaStateKey = "hpa_original_sectors"

// Options wires the orchestrator's collaborators. A nil Hardware, RNG or
// IOConfig falls back to a built-in default (see each field); a nil
// Sensor, Checkpoints, Analyzer, Progress, Interrupt or Metrics disables
// the corresponding behavior.
type Options struct {
	// Hardware issues vendor commands. Nil falls back to
	// strategies.NoHardware, which reports every command unsupported and
	// therefore forces the software paths.
	Hardware strategies.HardwareCommander

	// RNG supplies random fill bytes. Nil uses the process-wide
	// SecureRNG singleton.
	RNG algorithms.RandomFiller

	// IOConfig overrides the per-drive-class OptimizedIO preset.
	IOConfig *ioengine.Config

	// Sensor feeds the thermal governor; nil disables thermal
	// monitoring regardless of configuration.
	Sensor ioengine.ThermalSensor

	// Checkpoints enables crash-safe resume; nil disables
	// checkpointing.
	Checkpoints *checkpoint.Store

	// BadSectorDir overrides the bad-sector log directory (defaults to
	// the OS temporary directory).
	BadSectorDir string

	// AllowDegraded permits the coordinator to continue with reduced
	// guarantees after retry exhaustion; off by default.
	AllowDegraded bool

	// Analyzer runs the pre/post-wipe verification when the
	// configuration's Verify flag is set.
	Analyzer *verify.Analyzer

	// VerifyLevel selects the post-wipe scan depth. Zero defaults to
	// Level1.
	VerifyLevel verify.Level

	// Progress receives the structured event stream. May be nil.
	Progress ProgressFunc

	// Interrupt is the process-wide SIGINT flag. May be nil.
	Interrupt *InterruptFlag

	// Force acknowledges destructive operations on RAID members, which
	// refuse to run without it.
	Force bool

	// HardwareTimeout bounds each hardware-assisted attempt before the
	// software fallback takes over. Defaults to
	// devicetypes.DefaultOperationTimeout.
	HardwareTimeout time.Duration

	// Metrics attaches the coordinator's Prometheus collectors.
	Metrics *recovery.Metrics

	Logger *logging.Logger
}

// Result is Execute's certificate-facing outcome.
type Result struct {
	Device             string
	Algorithm          devicetypes.Algorithm
	EffectiveAlgorithm devicetypes.Algorithm
	OperationID        string

	HardwareUsed   bool
	FallbackReason string
	SEDMethod      string

	HPARemoved  bool
	HPARestored bool

	Resumed   bool
	StartPass int

	Passes   []algorithms.PassResult
	Report   *verify.Report
	Duration time.Duration

	// TriviallyComplete marks the empty-device short-circuit: nothing
	// was written because there was nothing to destroy.
	TriviallyComplete bool
}

// WipeOrchestrator turns one (device, config) pair into a verified,
// resumable destruction operation.
type WipeOrchestrator struct {
	dev  devicetypes.Device
	cfg  devicetypes.WipeConfig
	opts Options
}

// New validates the configuration and constructs an orchestrator. It
// does not touch the device.
func New(dev devicetypes.Device, cfg devicetypes.WipeConfig, opts Options) (*WipeOrchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Hardware == nil {
		opts.Hardware = strategies.NoHardware{}
	}
	if opts.HardwareTimeout <= 0 {
		opts.HardwareTimeout = devicetypes.DefaultOperationTimeout
	}
	if opts.VerifyLevel == 0 {
		opts.VerifyLevel = verify.Level1RandomSampling
	}
	return &WipeOrchestrator{dev: dev, cfg: cfg, opts: opts}, nil
}

func (o *WipeOrchestrator) emit(ev ProgressEvent) {
	if o.opts.Progress != nil {
		o.opts.Progress(ev)
	}
}

func (o *WipeOrchestrator) log() *logging.Logger {
	return logging.WithComponent(o.opts.Logger, "orchestrator")
}

// ioConfig resolves the OptimizedIO preset for the device's class, then
// applies the operation's thermal configuration.
func (o *WipeOrchestrator) ioConfig() ioengine.Config {
	var cfg ioengine.Config
	if o.opts.IOConfig != nil {
		cfg = *o.opts.IOConfig
	} else {
		switch o.dev.Class {
		case devicetypes.DriveClassNVMe, devicetypes.DriveClassOptane:
			cfg = ioengine.NVMeOptimized()
		case devicetypes.DriveClassSSD, devicetypes.DriveClassEMMC,
			devicetypes.DriveClassUFS, devicetypes.DriveClassHybridSSHD:
			cfg = ioengine.SATASSDOptimized()
		default:
			cfg = ioengine.HDDOptimized()
		}
	}
	if !o.cfg.TempMonitor {
		cfg.TemperatureThreshold = 0
	} else if o.cfg.MaxTempC > 0 {
		cfg.TemperatureThreshold = float64(o.cfg.MaxTempC)
	}
	return cfg
}

// hardwareAlgorithm reports whether algo is satisfied entirely by a
// vendor command, with no software write loop of its own.
func hardwareAlgorithm(algo devicetypes.Algorithm) bool {
	switch algo {
	case devicetypes.AlgorithmSecureErase, devicetypes.AlgorithmCryptoErase,
		devicetypes.AlgorithmSanitize, devicetypes.AlgorithmTrimOnly:
		return true
	}
	return false
}

// Execute runs the destruction operation to completion
func (o *WipeOrchestrator) Execute(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		Device:             o.dev.Path,
		Algorithm:          o.cfg.Algorithm,
		EffectiveAlgorithm: o.cfg.Algorithm,
	}

	if o.dev.SizeBytes == 0 {
		res.TriviallyComplete = true
		res.Report = verify.TriviallyCompliantReport(o.dev.Path, o.opts.VerifyLevel)
		res.Duration = time.Since(start)
		o.log().Info().Str("device", o.dev.Path).Log("empty device, trivially complete")
		return res, nil
	}

	// Hardware-only algorithms are attempted first with a short timeout;
	// failure falls through to the software DoD-style 3-pass, never
	// silently.
	if hardwareAlgorithm(o.cfg.Algorithm) {
		done, err := o.attemptHardwareAlgorithm(ctx, res)
		if err != nil {
			res.FallbackReason = err.Error()
			res.EffectiveAlgorithm = devicetypes.AlgorithmDoD5220
			o.emit(ProgressEvent{Kind: strategies.EventFallback, Description: err.Error(), Err: err})
			o.log().Warning().
				Str("device", o.dev.Path).
				Str("algorithm", string(o.cfg.Algorithm)).
				Err(err).
				Log("hardware path failed, falling back to software overwrite")
		} else if done {
			o.verifyHardwarePath(res)
			res.Duration = time.Since(start)
			return res, nil
		}
	}

	return o.executeSoftware(ctx, res, start)
}

// verifyHardwarePath samples the device after a successful hardware
// erase, so crypto-erase and sanitize results carry the same evidence as
// software overwrites. Verification failures here are reported in the
// result, not treated as operation failures.
func (o *WipeOrchestrator) verifyHardwarePath(res *Result) {
	if !o.cfg.Verify || o.opts.Analyzer == nil {
		return
	}
	h, err := ioengine.Open(o.dev.Path, ioengine.VerificationOptimized(), o.opts.Sensor, o.opts.Logger)
	if err != nil {
		o.log().Warning().Err(err).Log("post-hardware verification skipped")
		return
	}
	defer h.Close()

	post, err := o.opts.Analyzer.PostWipeVerification(h, o.dev.SizeBytes, o.opts.VerifyLevel)
	if err != nil {
		o.log().Warning().Err(err).Log("post-hardware verification failed")
		return
	}
	res.Report = o.opts.Analyzer.GenerateReport(o.dev.Path, nil, post, o.opts.VerifyLevel)
}

// attemptHardwareAlgorithm issues the vendor command for a hardware-only
// algorithm. Returns done=true when the command completed the operation.
func (o *WipeOrchestrator) attemptHardwareAlgorithm(ctx context.Context, res *Result) (bool, error) {
	hwCtx, cancel := context.WithTimeout(ctx, o.opts.HardwareTimeout)
	defer cancel()

	hw := o.opts.Hardware
	var err error
	switch o.cfg.Algorithm {
	case devicetypes.AlgorithmSecureErase:
		err = hw.SecureErase(hwCtx, o.dev, o.dev.Capabilities.SupportsEnhancedErase)
	case devicetypes.AlgorithmCryptoErase:
		res.SEDMethod, err = hw.CryptoErase(hwCtx, o.dev)
	case devicetypes.AlgorithmSanitize:
		err = hw.Sanitize(hwCtx, o.dev, devicetypes.SanitizeModeCryptoErase)
	case devicetypes.AlgorithmTrimOnly:
		err = hw.Trim(hwCtx, o.dev)
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}
	res.HardwareUsed = true
	return true, nil
}

// executeSoftware drives the drive-class strategy through the recovery
// coordinator.
func (o *WipeOrchestrator) executeSoftware(ctx context.Context, res *Result, start time.Time) (*Result, error) {
	effAlgo := res.EffectiveAlgorithm

	src := o.opts.RNG
	if src == nil {
		src = rng.MustGlobal()
	}

	coord := o.newCoordinator(effAlgo)
	res.OperationID = coord.OperationID()

	// Resume lookup first: a wipe of (device, algorithm) must query for
	// an in-flight record before writing anything.
	var hpaOriginal uint64
	hpaRemoved := false
	startPass := 0
	if rs, err := coord.ResumeFromCheckpoint(string(effAlgo)); err != nil {
		return res, err
	} else if rs != nil {
		startPass = rs.CurrentPass
		res.Resumed = true
		res.StartPass = startPass
		if v, ok := rs.State[hpaStateKey]; ok {
			if f, ok := v.(float64); ok {
				hpaOriginal = uint64(f)
				hpaRemoved = true
			}
		}
		o.log().Info().
			Str("device", o.dev.Path).
			Int("start_pass", startPass).
			Log("resuming from checkpoint")
	}

	if !hpaRemoved {
		var err error
		hpaRemoved, hpaOriginal, err = o.handleHPA(ctx)
		if err != nil {
			return res, err
		}
	}
	res.HPARemoved = hpaRemoved

	h, err := ioengine.Open(o.dev.Path, o.ioConfig(), o.opts.Sensor, o.opts.Logger)
	if err != nil {
		return res, err
	}
	defer h.Close()

	if bs := coord.BadSectors(); bs != nil {
		h.OnUnreadable(func(offset int64) {
			if recErr := bs.Record(offset); recErr != nil {
				o.log().Warning().Err(recErr).Log("bad-sector log append failed")
			}
		})
	}

	// The capability test region is overwritten by the remaining passes,
	// so this is safe on both fresh and resumed runs.
	var pre *verify.PreWipeResult
	if o.cfg.Verify && o.opts.Analyzer != nil {
		if pre, err = o.opts.Analyzer.PreWipeCapabilityTest(h, o.dev.SizeBytes); err != nil {
			o.log().Warning().Err(err).Log("pre-wipe capability test skipped")
			pre = nil
		}
	}

	strategy, err := strategies.Select(o.dev, o.opts.Force)
	if err != nil {
		return res, err
	}

	// Strategies read the algorithm from the config; a fallback must
	// reach them as the effective algorithm, not the requested one.
	cfgEff := o.cfg
	cfgEff.Algorithm = effAlgo

	hooks := strategies.ExecHooks{
		StartAtPass: startPass,
		Interrupted: o.opts.Interrupt.Check(),
		AfterPass: func(passIndex, totalPasses int, pr algorithms.PassResult) error {
			state := map[string]any{
				"encoding":     string(algorithms.EncodingUnknown),
				"total_passes": totalPasses,
			}
			if hpaRemoved && o.cfg.HPADCO == devicetypes.HPADCOTemporaryRemove {
				state[hpaStateKey] = hpaOriginal
			}
			return coord.Checkpoint(string(effAlgo), totalPasses, o.dev.SizeBytes, recovery.Progress{
				CurrentPass:  passIndex + 1,
				BytesWritten: int64(passIndex+1) * o.dev.SizeBytes,
				State:        state,
			})
		},
	}

	progress := o.progressWithCheckpoints(coord, effAlgo)

	var sres strategies.Result
	err = coord.ExecuteWithRecovery(ctx, "wipe "+o.dev.Path, func(ctx context.Context) error {
		var execErr error
		sres, execErr = strategy.Execute(ctx, o.dev, cfgEff, hooks, h, src, o.opts.Hardware, progress)
		return execErr
	})
	res.Passes = sres.Passes
	if sres.HardwareUsed {
		res.HardwareUsed = true
	}
	if sres.SEDMethod != "" {
		res.SEDMethod = sres.SEDMethod
	}
	if sres.FallbackReason != "" && res.FallbackReason == "" {
		res.FallbackReason = sres.FallbackReason
	}
	if err != nil {
		// The checkpoint stays in place for manual intervention or
		// retry.
		return res, err
	}

	if hpaRemoved && o.cfg.HPADCO == devicetypes.HPADCOTemporaryRemove {
		if restoreErr := o.opts.Hardware.RestoreHPA(ctx, o.dev, hpaOriginal); restoreErr != nil {
			o.log().Warning().Err(restoreErr).Log("HPA restore failed")
		} else {
			res.HPARestored = true
		}
	}

	if err := coord.DeleteCheckpoint(); err != nil {
		o.log().Warning().Err(err).Log("checkpoint delete failed")
	}

	if o.cfg.Verify && o.opts.Analyzer != nil {
		post, verr := o.opts.Analyzer.PostWipeVerification(h, o.dev.SizeBytes, o.opts.VerifyLevel)
		if verr != nil {
			return res, verr
		}
		res.Report = o.opts.Analyzer.GenerateReport(o.dev.Path, pre, post, o.opts.VerifyLevel)
	}

	res.Duration = time.Since(start)
	o.log().Info().
		Str("device", o.dev.Path).
		Str("algorithm", string(effAlgo)).
		Dur("duration", res.Duration).
		Log("destruction complete")
	return res, nil
}

// newCoordinator builds the operation's recovery coordinator around the
// configured checkpoint store, healers, and degraded-mode policy.
func (o *WipeOrchestrator) newCoordinator(effAlgo devicetypes.Algorithm) *recovery.Coordinator {
	snapshot, err := recovery.SnapshotConfig(o.cfg)
	if err != nil {
		snapshot = ""
	}
	opts := []recovery.Option{
		recovery.WithBadSectorHandler(recovery.NewBadSectorHandler(o.opts.BadSectorDir, o.dev.Path)),
	}
	if o.cfg.FreezeMitigate {
		opts = append(opts, recovery.WithHealers(recovery.NewUnfreezeHealer(o.opts.Hardware, o.dev)))
	}
	if o.opts.AllowDegraded {
		opts = append(opts, recovery.WithDegradedMode(recovery.NewDegradedModeManager(true)))
	}
	if o.opts.Metrics != nil {
		opts = append(opts, recovery.WithMetrics(o.opts.Metrics))
	}
	return recovery.NewCoordinator(recovery.Config{
		DevicePath:     o.dev.Path,
		Algorithm:      string(effAlgo),
		ConfigSnapshot: snapshot,
	}, o.opts.Checkpoints, o.opts.Logger, opts...)
}

// handleHPA applies the operation's HPA/DCO policy before the overwrite
// begins.
func (o *WipeOrchestrator) handleHPA(ctx context.Context) (removed bool, original uint64, err error) {
	hw := o.opts.Hardware
	switch o.cfg.HPADCO {
	case devicetypes.HPADCOIgnore:
		return false, 0, nil
	case devicetypes.HPADCODetect:
		present, hidden, derr := hw.DetectHPA(ctx, o.dev)
		if derr == nil && present {
			o.log().Warning().
				Str("device", o.dev.Path).
				Uint64("hidden_sectors", hidden).
				Log("hidden capacity detected; policy is Detect, not removing")
		}
		return false, 0, nil
	case devicetypes.HPADCOTemporaryRemove, devicetypes.HPADCOPermanentRemove:
		orig, rerr := hw.RemoveHPA(ctx, o.dev)
		if rerr != nil {
			// Removal failure degrades to wiping the visible capacity;
			// it is recorded, not fatal.
			o.log().Warning().Err(rerr).Log("HPA removal failed; wiping visible capacity only")
			return false, 0, nil
		}
		return true, orig, nil
	}
	return false, 0, nil
}

// progressWithCheckpoints forwards events to the subscriber and feeds the
// byte/time checkpoint trigger from write ticks.
func (o *WipeOrchestrator) progressWithCheckpoints(coord *recovery.Coordinator, effAlgo devicetypes.Algorithm) ProgressFunc {
	return func(ev ProgressEvent) {
		o.emit(ev)
		if ev.Kind != strategies.EventTick {
			return
		}
		cumulative := int64(ev.PassIndex)*o.dev.SizeBytes + ev.BytesDone
		if err := coord.MaybeCheckpoint(string(effAlgo), ev.TotalPasses, o.dev.SizeBytes, recovery.Progress{
			CurrentPass:  ev.PassIndex,
			BytesWritten: cumulative,
		}); err != nil {
			o.log().Warning().Err(err).Log("checkpoint save failed")
		}
	}
}
