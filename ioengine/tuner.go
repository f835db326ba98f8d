package ioengine

// PerformanceTuner grows the pool's buffer size between iterations when
// Config.AdaptiveTuning is set; it does not change queue depth.
type PerformanceTuner struct {
	cfg Config
}

// NewPerformanceTuner constructs a tuner bound to cfg's MaxBufferSize and
// TargetEfficiency.
func NewPerformanceTuner(cfg Config) *PerformanceTuner {
	return &PerformanceTuner{cfg: cfg}
}

// Tune inspects the metrics collected so far and, if AdaptiveTuning is
// enabled and efficiency is below TargetEfficiency, grows the pool's
// buffer size (capped at MaxBufferSize) to amortize per-operation
// overhead over larger transfers.
func (t *PerformanceTuner) Tune(pool *BufferPool, currentEfficiency float64) {
	if !t.cfg.AdaptiveTuning || t.cfg.TargetEfficiency <= 0 {
		return
	}
	if currentEfficiency >= t.cfg.TargetEfficiency {
		return
	}

	current := pool.BufSize()
	next := current * 2
	if next > t.cfg.MaxBufferSize {
		next = t.cfg.MaxBufferSize
	}
	if next > current {
		pool.Resize(next)
	}
}
