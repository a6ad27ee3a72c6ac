// Package telemetry records local query metrics: per-mode counts,
// zero-result queries, degraded hybrid channels, and a latency
// histogram. Nothing is reported externally.
package telemetry

import (
	"sync"
	"time"
)

// LatencyBucket is a latency histogram bucket label.
type LatencyBucket string

const (
	BucketUnder10ms  LatencyBucket = "lt_10ms"
	BucketUnder50ms  LatencyBucket = "lt_50ms"
	BucketUnder100ms LatencyBucket = "lt_100ms"
	BucketUnder500ms LatencyBucket = "lt_500ms"
	BucketOver500ms  LatencyBucket = "ge_500ms"
)

// latencyToBucket converts a duration to its histogram bucket.
func latencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketUnder10ms
	case ms < 50:
		return BucketUnder50ms
	case ms < 100:
		return BucketUnder100ms
	case ms < 500:
		return BucketUnder500ms
	default:
		return BucketOver500ms
	}
}

// Channel identifies a hybrid sub-search for degradation accounting.
type Channel string

const (
	ChannelVector  Channel = "vector"
	ChannelKeyword Channel = "keyword"
)

// QueryMetrics accumulates retrieval metrics. Safe for concurrent use.
type QueryMetrics struct {
	mu sync.Mutex

	queriesByMode map[string]int64
	zeroResults   int64
	degraded      map[Channel]int64
	totalOutages  int64
	latency       map[LatencyBucket]int64
}

// NewQueryMetrics creates an empty metrics accumulator.
func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{
		queriesByMode: make(map[string]int64),
		degraded:      make(map[Channel]int64),
		latency:       make(map[LatencyBucket]int64),
	}
}

// RecordQuery records one completed retrieval.
func (m *QueryMetrics) RecordQuery(mode string, resultCount int, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queriesByMode[mode]++
	if resultCount == 0 {
		m.zeroResults++
	}
	m.latency[latencyToBucket(latency)]++
}

// RecordDegraded records a hybrid sub-search that failed and was
// served as an empty list. This is the observable signal that keeps a
// backend outage from masquerading as "no matches".
func (m *QueryMetrics) RecordDegraded(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded[ch]++
}

// RecordTotalOutage records a hybrid query where both channels failed.
func (m *QueryMetrics) RecordTotalOutage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalOutages++
}

// Snapshot is a point-in-time copy of the accumulated metrics.
type Snapshot struct {
	QueriesByMode map[string]int64        `json:"queries_by_mode"`
	TotalQueries  int64                   `json:"total_queries"`
	ZeroResults   int64                   `json:"zero_results"`
	Degraded      map[Channel]int64       `json:"degraded_channels"`
	TotalOutages  int64                   `json:"total_outages"`
	Latency       map[LatencyBucket]int64 `json:"latency_buckets"`
}

// Snapshot returns a copy of the current metrics.
func (m *QueryMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		QueriesByMode: make(map[string]int64, len(m.queriesByMode)),
		ZeroResults:   m.zeroResults,
		Degraded:      make(map[Channel]int64, len(m.degraded)),
		TotalOutages:  m.totalOutages,
		Latency:       make(map[LatencyBucket]int64, len(m.latency)),
	}
	for mode, n := range m.queriesByMode {
		snap.QueriesByMode[mode] = n
		snap.TotalQueries += n
	}
	for ch, n := range m.degraded {
		snap.Degraded[ch] = n
	}
	for b, n := range m.latency {
		snap.Latency[b] = n
	}
	return snap
}
