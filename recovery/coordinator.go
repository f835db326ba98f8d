package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joeycumines/go-wipecore/breaker"
	"github.com/joeycumines/go-wipecore/checkpoint"
	"github.com/joeycumines/go-wipecore/logging"
	"github.com/joeycumines/go-wipecore/retry"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

// Checkpoint trigger defaults: save once 60 s have elapsed or 1 GiB has
// been written since the last save, whichever comes first.
const (
	DefaultCheckpointInterval = 60 * time.Second
	DefaultCheckpointBytes    = 1 << 30
)

// Config parameterizes one operation's Coordinator.
type Config struct {
	// DevicePath and Algorithm identify the operation's checkpoint row
	// (the (device, algorithm) resume key).
	DevicePath string
	Algorithm  string

	// OperationID groups related checkpoints; a fresh uuid is assigned
	// when empty.
	OperationID string

	// ConfigSnapshot is the JSON snapshot of the original WipeConfig
	// persisted into each checkpoint record.
	ConfigSnapshot string

	// CheckpointInterval and CheckpointBytes override the trigger
	// defaults when positive.
	CheckpointInterval time.Duration
	CheckpointBytes    int64

	// Per-class retry policies; zero values fall back to the package
	// retry presets.
	Transient     retry.Policy
	Recoverable   retry.Policy
	Environmental retry.Policy

	// Breaker configures the shared circuit breaker; zero values fall
	// back to breaker.DefaultConfig.
	Breaker breaker.Config
}

func (c Config) withDefaults() Config {
	if c.OperationID == "" {
		c.OperationID = uuid.NewString()
	}
	if c.CheckpointInterval <= 0 {
		c.CheckpointInterval = DefaultCheckpointInterval
	}
	if c.CheckpointBytes <= 0 {
		c.CheckpointBytes = DefaultCheckpointBytes
	}
	if c.Transient.MaxAttempts == 0 {
		c.Transient = retry.TransientPolicy()
	}
	if c.Recoverable.MaxAttempts == 0 {
		c.Recoverable = retry.RecoverablePolicy()
	}
	if c.Environmental.MaxAttempts == 0 {
		c.Environmental = retry.EnvironmentalPolicy()
	}
	if c.Breaker.Name == "" {
		c.Breaker.Name = c.DevicePath
	}
	return c
}

// Progress is the caller-visible progress fed into MaybeCheckpoint.
type Progress struct {
	CurrentPass  int
	BytesWritten int64
	State        map[string]any
	ErrorCount   int
	LastError    string
}

// ResumeState is what a resuming caller needs from a prior checkpoint:
// start from CurrentPass, skip passes strictly below it; State may carry
// sub-pass progress.
type ResumeState struct {
	CurrentPass  int
	BytesWritten int64
	State        map[string]any
	Record       *checkpoint.Record
}

// Coordinator composes the five collaborators and wraps
// every fallible core operation. One Coordinator serves one operation;
// the circuit breaker is shared across that operation's retries.
type Coordinator struct {
	cfg        Config
	store      *checkpoint.Store
	classifier *wipeerrors.Classifier
	breaker    *breaker.CircuitBreaker
	healers    []Healer
	badSectors *BadSectorHandler
	degraded   *DegradedModeManager
	metrics    *Metrics
	log        *logging.Logger

	// sleep is swapped out by tests to avoid real backoff delays.
	sleep func(context.Context, time.Duration) error

	timeouts map[string]int

	record        *checkpoint.Record
	lastSave      time.Time
	lastSaveBytes int64
}

// Option configures a Coordinator at construction.
type Option func(*Coordinator)

// WithHealers appends self-healers consulted after a Recoverable
// classification.
func WithHealers(h ...Healer) Option {
	return func(c *Coordinator) { c.healers = append(c.healers, h...) }
}

// WithBadSectorHandler attaches the skip-and-continue bad sector log.
func WithBadSectorHandler(h *BadSectorHandler) Option {
	return func(c *Coordinator) { c.badSectors = h }
}

// WithDegradedMode attaches an explicitly enabled degraded-mode manager.
func WithDegradedMode(m *DegradedModeManager) Option {
	return func(c *Coordinator) { c.degraded = m }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator constructs a Coordinator for one operation. store may be
// nil, in which case checkpointing is disabled (resume lookups return
// nothing, saves are no-ops).
func NewCoordinator(cfg Config, store *checkpoint.Store, log *logging.Logger, opts ...Option) *Coordinator {
	cfg = cfg.withDefaults()
	c := &Coordinator{
		cfg:        cfg,
		store:      store,
		classifier: wipeerrors.NewClassifier(),
		breaker:    breaker.New(cfg.Breaker),
		log:        log,
		sleep:      sleepCtx,
		timeouts:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// BadSectors returns the attached bad-sector handler, or nil.
func (c *Coordinator) BadSectors() *BadSectorHandler { return c.badSectors }

// Degraded returns the attached degraded-mode manager, or nil.
func (c *Coordinator) Degraded() *DegradedModeManager { return c.degraded }

// BreakerState reports the shared circuit breaker's current state.
func (c *Coordinator) BreakerState() breaker.State { return c.breaker.State() }

// OperationID returns the operation's grouping id.
func (c *Coordinator) OperationID() string { return c.cfg.OperationID }

func (c *Coordinator) policyFor(class wipeerrors.Class) retry.Policy {
	switch class {
	case wipeerrors.ClassRecoverable:
		return c.cfg.Recoverable
	case wipeerrors.ClassEnvironmental:
		return c.cfg.Environmental
	default:
		return c.cfg.Transient
	}
}

// ExecuteWithRecovery runs fn under the full recovery stack: breaker
// first, then classify / retry / heal / degrade / abort.
// Errors never escape un-classified: the returned error always wraps the
// closure's classified failure (or the breaker's rejection).
func (c *Coordinator) ExecuteWithRecovery(ctx context.Context, opName string, fn func(context.Context) error) error {
	attempts := make(map[wipeerrors.Class]int)
	healed := false
	var lastErr error

	for {
		if err := ctx.Err(); err != nil {
			return &wipeerrors.Interrupted{}
		}

		err := c.breaker.Execute(func() error { return fn(ctx) })
		if err == nil {
			return nil
		}

		if breaker.IsOpen(err) {
			c.metrics.rejected()
			if lastErr != nil {
				return fmt.Errorf("recovery: circuit open for %s: %w", opName, lastErr)
			}
			return fmt.Errorf("recovery: circuit open for %s: %w", opName, err)
		}
		lastErr = err

		var timeout *wipeerrors.Timeout
		if errors.As(err, &timeout) {
			c.timeouts[opName]++
			timeout.Count = c.timeouts[opName]
		}

		class := c.classifier.Classify(err)
		attempt := attempts[class]

		logging.WithComponent(c.log, "recovery").Warning().
			Str("operation", opName).
			Str("device", c.cfg.DevicePath).
			Str("class", class.String()).
			Int("attempt", attempt).
			Err(err).
			Log("operation failed")

		switch class {
		case wipeerrors.ClassUserInterrupted, wipeerrors.ClassFatal:
			return err
		}

		if class == wipeerrors.ClassRecoverable && !healed {
			if c.heal(ctx, err) {
				healed = true
				c.metrics.healed()
				continue
			}
		}

		policy := c.policyFor(class)
		if !policy.ShouldRetry(attempt) {
			if c.degraded.Enter(fmt.Sprintf("%s exhausted %s retries", opName, class)) {
				logging.WithComponent(c.log, "recovery").Warning().
					Str("operation", opName).
					Log("entering degraded mode")
			}
			return err
		}
		attempts[class] = attempt + 1
		c.metrics.retried(class.String())

		if serr := c.sleep(ctx, policy.NextDelay(attempt)); serr != nil {
			return &wipeerrors.Interrupted{}
		}
	}
}

// heal consults the registered healers for err; the first applicable one
// that succeeds wins.
func (c *Coordinator) heal(ctx context.Context, err error) bool {
	for _, h := range c.healers {
		if !h.CanHeal(err) {
			continue
		}
		if healErr := h.Heal(ctx, err); healErr != nil {
			logging.WithComponent(c.log, "recovery").Warning().
				Str("healer", h.Name()).
				Err(healErr).
				Log("heal attempt failed")
			continue
		}
		logging.WithComponent(c.log, "recovery").Info().
			Str("healer", h.Name()).
			Log("healed, retrying original operation")
		return true
	}
	return false
}

// MaybeCheckpoint saves a checkpoint when the trigger
// fires (elapsed ≥ interval, or ≥ CheckpointBytes written since the last
// save). Use Checkpoint for unconditional per-pass commits.
func (c *Coordinator) MaybeCheckpoint(algo string, totalPasses int, totalSize int64, p Progress) error {
	if c.store == nil {
		return nil
	}
	elapsed := time.Since(c.lastSave)
	if elapsed < c.cfg.CheckpointInterval && p.BytesWritten-c.lastSaveBytes < c.cfg.CheckpointBytes {
		return nil
	}
	return c.Checkpoint(algo, totalPasses, totalSize, p)
}

// Checkpoint unconditionally persists the operation's progress, reusing
// the existing record when one exists (upsert keyed on (device,
// algorithm, operation_id)).
func (c *Coordinator) Checkpoint(algo string, totalPasses int, totalSize int64, p Progress) error {
	if c.store == nil {
		return nil
	}

	r := c.record
	if r == nil {
		r = &checkpoint.Record{
			DevicePath:  c.cfg.DevicePath,
			Algorithm:   algo,
			OperationID: c.cfg.OperationID,
			Config:      c.cfg.ConfigSnapshot,
		}
		c.record = r
	}
	r.CurrentPass = p.CurrentPass
	r.TotalPasses = totalPasses
	r.BytesWritten = p.BytesWritten
	r.TotalSize = totalSize
	r.ErrorCount = p.ErrorCount
	if p.LastError != "" {
		msg := p.LastError
		r.LastError = &msg
	}
	if p.State != nil {
		if err := r.SetStateValue(p.State); err != nil {
			return fmt.Errorf("recovery: encode checkpoint state: %w", err)
		}
	}

	if err := c.store.Save(r); err != nil {
		return err
	}
	c.metrics.checkpointSaved()
	c.lastSave = time.Now()
	c.lastSaveBytes = p.BytesWritten
	return nil
}

// ResumeFromCheckpoint looks up a prior record for (device, algo);
// callers must query before writing anything. Returns (nil, nil) when
// the operation should start fresh. A found record becomes the
// coordinator's own, so subsequent saves update it in place.
func (c *Coordinator) ResumeFromCheckpoint(algo string) (*ResumeState, error) {
	if c.store == nil {
		return nil, nil
	}
	rec, err := c.store.Load(c.cfg.DevicePath, algo)
	if err != nil || rec == nil {
		return nil, err
	}

	state, err := rec.StateValue()
	if err != nil {
		return nil, fmt.Errorf("recovery: decode checkpoint state: %w", err)
	}

	c.record = rec
	c.cfg.OperationID = rec.OperationID
	return &ResumeState{
		CurrentPass:  rec.CurrentPass,
		BytesWritten: rec.BytesWritten,
		State:        state,
		Record:       rec,
	}, nil
}

// DeleteCheckpoint removes the operation's record on clean completion,
// per the invariant: "a completed operation deletes its record."
func (c *Coordinator) DeleteCheckpoint() error {
	if c.store == nil {
		return nil
	}
	c.record = nil
	return c.store.DeleteByDevice(c.cfg.DevicePath, c.cfg.Algorithm)
}

// SnapshotConfig JSON-encodes v for Config.ConfigSnapshot.
func SnapshotConfig(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("recovery: snapshot config: %w", err)
	}
	return string(b), nil
}
