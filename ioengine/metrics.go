package ioengine

import (
	"sync"
	"time"
)

// pSquareQuantile implements the P² algorithm for streaming quantile
// estimation in O(1) per observation, here tracking per-write latency.
//
// Reference: Jain, R. and Chlamtac, I. (1985). "The P² Algorithm for
// Dynamic Calculation of Quantiles and Histograms Without Storing
// Observations". Communications of the ACM, 28(10), pp. 1076-1085.
type pSquareQuantile struct {
	p           float64
	q           [5]float64
	n           [5]int
	np          [5]float64
	dn          [5]float64
	initialized bool
	count       int
	initBuffer  [5]float64
}

func newPSquareQuantile(p float64) *pSquareQuantile {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return &pSquareQuantile{p: p, dn: [5]float64{0, p / 2, p, (1 + p) / 2, 1}}
}

func (ps *pSquareQuantile) Update(x float64) {
	ps.count++
	if ps.count <= 5 {
		ps.initBuffer[ps.count-1] = x
		if ps.count == 5 {
			ps.initialize()
		}
		return
	}

	var k int
	switch {
	case x < ps.q[0]:
		ps.q[0] = x
		k = 0
	case x >= ps.q[4]:
		ps.q[4] = x
		k = 3
	default:
		for k = 0; k < 4; k++ {
			if ps.q[k] <= x && x < ps.q[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		ps.n[i]++
	}
	for i := 0; i < 5; i++ {
		ps.np[i] += ps.dn[i]
	}

	for i := 1; i < 4; i++ {
		d := ps.np[i] - float64(ps.n[i])
		if (d >= 1 && ps.n[i+1]-ps.n[i] > 1) || (d <= -1 && ps.n[i-1]-ps.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			qPrime := ps.parabolic(i, sign)
			if ps.q[i-1] < qPrime && qPrime < ps.q[i+1] {
				ps.q[i] = qPrime
			} else {
				ps.q[i] = ps.linear(i, sign)
			}
			ps.n[i] += sign
		}
	}
}

func (ps *pSquareQuantile) initialize() {
	for i := 1; i < 5; i++ {
		key := ps.initBuffer[i]
		j := i - 1
		for j >= 0 && ps.initBuffer[j] > key {
			ps.initBuffer[j+1] = ps.initBuffer[j]
			j--
		}
		ps.initBuffer[j+1] = key
	}
	for i := 0; i < 5; i++ {
		ps.q[i] = ps.initBuffer[i]
		ps.n[i] = i
	}
	ps.np = [5]float64{0, 2 * ps.p, 4 * ps.p, 2 + 2*ps.p, 4}
	ps.initialized = true
}

func (ps *pSquareQuantile) parabolic(i, d int) float64 {
	df := float64(d)
	ni, niPrev, niNext := float64(ps.n[i]), float64(ps.n[i-1]), float64(ps.n[i+1])
	term1 := df / (niNext - niPrev)
	term2 := (ni - niPrev + df) * (ps.q[i+1] - ps.q[i]) / (niNext - ni)
	term3 := (niNext - ni - df) * (ps.q[i] - ps.q[i-1]) / (ni - niPrev)
	return ps.q[i] + term1*(term2+term3)
}

func (ps *pSquareQuantile) linear(i, d int) float64 {
	if d == 1 {
		return ps.q[i] + (ps.q[i+1]-ps.q[i])/float64(ps.n[i+1]-ps.n[i])
	}
	return ps.q[i] - (ps.q[i]-ps.q[i-1])/float64(ps.n[i]-ps.n[i-1])
}

func (ps *pSquareQuantile) Quantile() float64 {
	if ps.count == 0 {
		return 0
	}
	if ps.count < 5 {
		sorted := make([]float64, ps.count)
		copy(sorted, ps.initBuffer[:ps.count])
		for i := 1; i < ps.count; i++ {
			key := sorted[i]
			j := i - 1
			for j >= 0 && sorted[j] > key {
				sorted[j+1] = sorted[j]
				j--
			}
			sorted[j+1] = key
		}
		index := int(float64(ps.count-1) * ps.p)
		if index >= ps.count {
			index = ps.count - 1
		}
		return sorted[index]
	}
	return ps.q[2]
}

// LatencyPercentiles is a snapshot of streaming-estimated write/read
// latency percentiles "Metrics: per-operation latency
// samples".
type LatencyPercentiles struct {
	P50, P90, P95, P99 time.Duration
	Max                time.Duration
	Mean               time.Duration
}

// Metrics aggregates per-operation latency and cumulative byte counts for
// one Handle
type Metrics struct {
	mu          sync.Mutex
	p50, p90, p95, p99 *pSquareQuantile
	count       int
	sumNanos    float64
	maxNanos    float64
	bytesTotal  int64
	opened      time.Time
}

// NewMetrics constructs an empty Metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		p50: newPSquareQuantile(0.50),
		p90: newPSquareQuantile(0.90),
		p95: newPSquareQuantile(0.95),
		p99: newPSquareQuantile(0.99),
		opened: time.Now(),
	}
}

// RecordOp records one write_at/read_at call's latency and byte count.
func (m *Metrics) RecordOp(d time.Duration, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns := float64(d.Nanoseconds())
	m.p50.Update(ns)
	m.p90.Update(ns)
	m.p95.Update(ns)
	m.p99.Update(ns)
	m.count++
	m.sumNanos += ns
	if ns > m.maxNanos {
		m.maxNanos = ns
	}
	m.bytesTotal += int64(n)
}

// Percentiles returns the current latency snapshot.
func (m *Metrics) Percentiles() LatencyPercentiles {
	m.mu.Lock()
	defer m.mu.Unlock()
	mean := 0.0
	if m.count > 0 {
		mean = m.sumNanos / float64(m.count)
	}
	return LatencyPercentiles{
		P50:  time.Duration(m.p50.Quantile()),
		P90:  time.Duration(m.p90.Quantile()),
		P95:  time.Duration(m.p95.Quantile()),
		P99:  time.Duration(m.p99.Quantile()),
		Max:  time.Duration(m.maxNanos),
		Mean: time.Duration(mean),
	}
}

// BytesTotal returns cumulative bytes transferred.
func (m *Metrics) BytesTotal() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bytesTotal
}

// Efficiency reports bytes/sec achieved since construction, for the
// close-time efficiency report named
func (m *Metrics) Efficiency() float64 {
	m.mu.Lock()
	elapsed := time.Since(m.opened).Seconds()
	total := m.bytesTotal
	m.mu.Unlock()
	if elapsed <= 0 {
		return 0
	}
	return float64(total) / elapsed
}
