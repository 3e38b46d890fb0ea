package llm

import (
	"sync"
	"time"
)

// DefaultHistorySize bounds the request ring buffer.
const DefaultHistorySize = 50

// StatusSuccess is the record status for a completed request; any
// other status is an error kind.
const StatusSuccess = "success"

// RequestRecord captures the outcome of one request. Created once at
// completion, never mutated, evicted only by ring overflow.
type RequestRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	Mode             Mode      `json:"mode"`
	Target           Target    `json:"target"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	LatencyMs        int64     `json:"latency_ms"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
}

// TargetStats aggregates per-backend counters
type TargetStats struct {
	Requests       int64   `json:"requests"`
	TotalLatencyMs int64   `json:"total_latency_ms"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
}

// StatsSnapshot is a point-in-time copy of the recorder contents.
// Recent is ordered newest-first.
type StatsSnapshot struct {
	TotalRequests int64                  `json:"total_requests"`
	Errors        int64                  `json:"errors"`
	BreakerTrips  int64                  `json:"breaker_trips"`
	Targets       map[Target]TargetStats `json:"targets"`
	Recent        []RequestRecord        `json:"recent"`
}

// StatsRecorder keeps a fixed-capacity ring of request records plus
// running counters. Writes come from the pipeline only; snapshots can
// be read concurrently.
type StatsRecorder struct {
	mu       sync.RWMutex
	capacity int
	ring     []RequestRecord
	next     int
	filled   bool

	total        int64
	errors       int64
	breakerTrips int64
	targets      map[Target]*TargetStats
}

// NewStatsRecorder creates a recorder with the given ring capacity;
// non-positive capacities fall back to DefaultHistorySize.
func NewStatsRecorder(capacity int) *StatsRecorder {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &StatsRecorder{
		capacity: capacity,
		ring:     make([]RequestRecord, capacity),
		targets:  make(map[Target]*TargetStats),
	}
}

// Record appends a completed request, evicting the oldest record once
// the ring is full.
func (r *StatsRecorder) Record(rec RequestRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ring[r.next] = rec
	r.next++
	if r.next == r.capacity {
		r.next = 0
		r.filled = true
	}

	r.total++
	if rec.Status != StatusSuccess {
		r.errors++
	}

	if rec.Target != "" {
		ts, ok := r.targets[rec.Target]
		if !ok {
			ts = &TargetStats{}
			r.targets[rec.Target] = ts
		}
		ts.Requests++
		ts.TotalLatencyMs += rec.LatencyMs
	}
}

// RecordTrip counts a breaker transition to open
func (r *StatsRecorder) RecordTrip(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakerTrips++
}

// Snapshot returns the ring contents newest-first plus the counters
func (r *StatsRecorder) Snapshot() StatsSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := r.next
	if r.filled {
		size = r.capacity
	}

	recent := make([]RequestRecord, 0, size)
	for i := 1; i <= size; i++ {
		idx := r.next - i
		if idx < 0 {
			idx += r.capacity
		}
		recent = append(recent, r.ring[idx])
	}

	targets := make(map[Target]TargetStats, len(r.targets))
	for target, ts := range r.targets {
		snap := *ts
		if snap.Requests > 0 {
			snap.AvgLatencyMs = float64(snap.TotalLatencyMs) / float64(snap.Requests)
		}
		targets[target] = snap
	}

	return StatsSnapshot{
		TotalRequests: r.total,
		Errors:        r.errors,
		BreakerTrips:  r.breakerTrips,
		Targets:       targets,
		Recent:        recent,
	}
}
