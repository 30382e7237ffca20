// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Verification metrics
	verifyTotal   atomic.Int64
	verifyAllowed atomic.Int64
	verifyDenied  atomic.Int64
	verifyErrors  atomic.Int64

	// Mint metrics
	mintTotal  atomic.Int64
	mintErrors atomic.Int64

	// Evaluator resource usage
	gasUsedTotal    atomic.Int64
	evalLatencyNanos atomic.Int64

	// per_day_count counter-store operations
	counterReads  atomic.Int64
	counterWrites atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordVerify records a token verification call with its duration, the
// gas consumed by the policy evaluator, and the resulting outcome.
func (m *Metrics) RecordVerify(duration time.Duration, gasUsed int64, allow bool, err error) {
	m.verifyTotal.Add(1)
	m.evalLatencyNanos.Add(duration.Nanoseconds())
	m.gasUsedTotal.Add(gasUsed)

	switch {
	case err != nil:
		m.verifyErrors.Add(1)
	case allow:
		m.verifyAllowed.Add(1)
	default:
		m.verifyDenied.Add(1)
	}
}

// RecordMint records a minting operation.
func (m *Metrics) RecordMint(err error) {
	m.mintTotal.Add(1)
	if err != nil {
		m.mintErrors.Add(1)
	}
}

// RecordCounterRead records a per_day_count store read.
func (m *Metrics) RecordCounterRead() {
	m.counterReads.Add(1)
}

// RecordCounterWrite records a per_day_count store increment.
func (m *Metrics) RecordCounterWrite() {
	m.counterWrites.Add(1)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	VerifyTotal      int64
	VerifyAllowed    int64
	VerifyDenied     int64
	VerifyErrors     int64
	MintTotal        int64
	MintErrors       int64
	GasUsedTotal     int64
	EvalLatencyNanos int64
	CounterReads     int64
	CounterWrites    int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		VerifyTotal:      m.verifyTotal.Load(),
		VerifyAllowed:    m.verifyAllowed.Load(),
		VerifyDenied:     m.verifyDenied.Load(),
		VerifyErrors:     m.verifyErrors.Load(),
		MintTotal:        m.mintTotal.Load(),
		MintErrors:       m.mintErrors.Load(),
		GasUsedTotal:     m.gasUsedTotal.Load(),
		EvalLatencyNanos: m.evalLatencyNanos.Load(),
		CounterReads:     m.counterReads.Load(),
		CounterWrites:    m.counterWrites.Load(),
	}
}

// VerifyTotal returns the total number of verify calls made.
func (m *Metrics) VerifyTotal() int64 {
	return m.verifyTotal.Load()
}

// AllowRate returns the fraction of verifications that resulted in allow,
// as a percentage (0-100). Returns 0 if no verifications have occurred.
func (m *Metrics) AllowRate() float64 {
	allowed := m.verifyAllowed.Load()
	denied := m.verifyDenied.Load()
	total := allowed + denied
	if total == 0 {
		return 0
	}
	return float64(allowed) / float64(total) * 100
}

// EvalLatencyAvgMs returns the average evaluation latency in milliseconds.
// Returns 0 if no verifications have been made.
func (m *Metrics) EvalLatencyAvgMs() float64 {
	calls := m.verifyTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.evalLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// AvgGasUsed returns the average gas consumed per verification.
// Returns 0 if no verifications have been made.
func (m *Metrics) AvgGasUsed() float64 {
	calls := m.verifyTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.gasUsedTotal.Load()) / float64(calls)
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.verifyTotal.Store(0)
	m.verifyAllowed.Store(0)
	m.verifyDenied.Store(0)
	m.verifyErrors.Store(0)
	m.mintTotal.Store(0)
	m.mintErrors.Store(0)
	m.gasUsedTotal.Store(0)
	m.evalLatencyNanos.Store(0)
	m.counterReads.Store(0)
	m.counterWrites.Store(0)
}
