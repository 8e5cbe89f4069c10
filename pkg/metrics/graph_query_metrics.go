// Package metrics tracks query latency percentiles and outcome counts per
// operation.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Latency Window
// =============================================================================

// latencyWindow keeps the most recent samples in a ring buffer.
type latencyWindow struct {
	samples []time.Duration
	next    int
	full    bool
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = 1000
	}
	return &latencyWindow{samples: make([]time.Duration, size)}
}

func (w *latencyWindow) add(d time.Duration) {
	w.samples[w.next] = d
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

func (w *latencyWindow) snapshot() []time.Duration {
	n := w.next
	if w.full {
		n = len(w.samples)
	}
	out := make([]time.Duration, n)
	copy(out, w.samples[:n])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LatencyStats holds latency statistics.
type LatencyStats struct {
	Samples int           `json:"samples"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Avg     time.Duration `json:"avg"`
	P50     time.Duration `json:"p50"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
}

func statsOf(sorted []time.Duration) LatencyStats {
	n := len(sorted)
	if n == 0 {
		return LatencyStats{}
	}
	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	at := func(p float64) time.Duration { return sorted[int(float64(n-1)*p)] }
	return LatencyStats{
		Samples: n,
		Min:     sorted[0],
		Max:     sorted[n-1],
		Avg:     sum / time.Duration(n),
		P50:     at(0.50),
		P95:     at(0.95),
		P99:     at(0.99),
	}
}

// =============================================================================
// Query Metrics
// =============================================================================

// OperationStats is the snapshot for one operation name.
type OperationStats struct {
	Succeeded int64        `json:"succeeded"`
	Failed    int64        `json:"failed"`
	Latency   LatencyStats `json:"latency"`
}

// ToMap flattens durations to milliseconds.
func (s OperationStats) ToMap() map[string]any {
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	return map[string]any{
		"succeeded":   s.Succeeded,
		"failed":      s.Failed,
		"sample_size": s.Latency.Samples,
		"min_ms":      ms(s.Latency.Min),
		"max_ms":      ms(s.Latency.Max),
		"avg_ms":      ms(s.Latency.Avg),
		"p50_ms":      ms(s.Latency.P50),
		"p95_ms":      ms(s.Latency.P95),
		"p99_ms":      ms(s.Latency.P99),
	}
}

type operation struct {
	mu        sync.Mutex
	window    *latencyWindow
	succeeded int64
	failed    int64
}

// QueryMetrics records per-operation outcomes and the number of blocking
// driver calls in flight. Safe for concurrent use.
type QueryMetrics struct {
	mu       sync.RWMutex
	ops      map[string]*operation
	window   int
	inFlight atomic.Int64
}

// NewQueryMetrics creates a registry keeping windowSize samples per operation.
func NewQueryMetrics(windowSize int) *QueryMetrics {
	return &QueryMetrics{
		ops:    make(map[string]*operation),
		window: windowSize,
	}
}

func (m *QueryMetrics) op(name string) *operation {
	m.mu.RLock()
	o, ok := m.ops[name]
	m.mu.RUnlock()
	if ok {
		return o
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok = m.ops[name]; !ok {
		o = &operation{window: newLatencyWindow(m.window)}
		m.ops[name] = o
	}
	return o
}

// Observe records one finished call.
func (m *QueryMetrics) Observe(name string, d time.Duration, err error) {
	o := m.op(name)
	o.mu.Lock()
	defer o.mu.Unlock()

	o.window.add(d)
	if err != nil {
		o.failed++
	} else {
		o.succeeded++
	}
}

// Begin marks a blocking call as started; the returned func marks it done.
func (m *QueryMetrics) Begin() func() {
	m.inFlight.Add(1)
	return func() { m.inFlight.Add(-1) }
}

// InFlight returns the number of blocking calls currently running.
func (m *QueryMetrics) InFlight() int64 {
	return m.inFlight.Load()
}

// Stats returns the snapshot for one operation.
func (m *QueryMetrics) Stats(name string) OperationStats {
	m.mu.RLock()
	o, ok := m.ops[name]
	m.mu.RUnlock()
	if !ok {
		return OperationStats{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return OperationStats{
		Succeeded: o.succeeded,
		Failed:    o.failed,
		Latency:   statsOf(o.window.snapshot()),
	}
}

// AllStats returns snapshots for every operation seen so far.
func (m *QueryMetrics) AllStats() map[string]OperationStats {
	m.mu.RLock()
	names := make([]string, 0, len(m.ops))
	for name := range m.ops {
		names = append(names, name)
	}
	m.mu.RUnlock()

	out := make(map[string]OperationStats, len(names))
	for _, name := range names {
		out[name] = m.Stats(name)
	}
	return out
}
