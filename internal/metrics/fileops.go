package metrics

import (
	"math"
	"sort"
	"sync"
)

// Operation is a kind of media file operation tracked by the collector.
type Operation string

const (
	OpUpload   Operation = "upload"
	OpAccess   Operation = "access"
	OpDelete   Operation = "delete"
	OpDualRead Operation = "dual_read"
)

// durationWindowSize bounds the rolling duration sample per operation.
// The window is a FIFO: the 1001st sample evicts the oldest.
const durationWindowSize = 1000

type operationState struct {
	count      int64
	failures   int64
	totalBytes int64
	durations  []float64
}

// FileOpsCollector accumulates per-operation counters and a bounded rolling
// window of durations. State is shared across all concurrent requests, so
// every update happens under the mutex.
type FileOpsCollector struct {
	mu  sync.Mutex
	ops map[Operation]*operationState
}

func NewFileOpsCollector() *FileOpsCollector {
	return &FileOpsCollector{ops: make(map[Operation]*operationState)}
}

// Record registers one operation outcome. Failed operations still count
// toward count, bytes, and the duration window.
func (c *FileOpsCollector) Record(op Operation, success bool, bytesTransferred int64, durationMs float64) {
	c.mu.Lock()
	state, ok := c.ops[op]
	if !ok {
		state = &operationState{}
		c.ops[op] = state
	}

	state.count++
	if !success {
		state.failures++
	}
	state.totalBytes += bytesTransferred
	state.durations = append(state.durations, durationMs)
	if len(state.durations) > durationWindowSize {
		state.durations = state.durations[len(state.durations)-durationWindowSize:]
	}
	c.mu.Unlock()

	status := "success"
	if !success {
		status = "failure"
	}
	FileOperationsTotal.WithLabelValues(string(op), status).Inc()
	if bytesTransferred > 0 {
		FileOperationBytes.WithLabelValues(string(op)).Add(float64(bytesTransferred))
	}
	FileOperationDuration.WithLabelValues(string(op)).Observe(durationMs / 1000)
}

// OperationSnapshot is a point-in-time copy of one operation's counters.
type OperationSnapshot struct {
	Count       int64     `json:"count"`
	Failures    int64     `json:"failures"`
	TotalBytes  int64     `json:"totalBytes"`
	Durations   []float64 `json:"durations"`
	P95Duration float64   `json:"p95Duration"`
}

// Snapshot returns a copy of all recorded state keyed by operation kind.
func (c *FileOpsCollector) Snapshot() map[Operation]OperationSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SnapshotAndReset captures the counters and clears them under one lock
// acquisition, so no sample is lost or reported twice across a reset.
func (c *FileOpsCollector) SnapshotAndReset() map[Operation]OperationSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.snapshotLocked()
	c.ops = make(map[Operation]*operationState)
	return out
}

func (c *FileOpsCollector) snapshotLocked() map[Operation]OperationSnapshot {
	out := make(map[Operation]OperationSnapshot, len(c.ops))
	for op, state := range c.ops {
		durations := make([]float64, len(state.durations))
		copy(durations, state.durations)
		out[op] = OperationSnapshot{
			Count:       state.count,
			Failures:    state.failures,
			TotalBytes:  state.totalBytes,
			Durations:   durations,
			P95Duration: p95(durations),
		}
	}
	return out
}

// Reset clears all recorded state.
func (c *FileOpsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = make(map[Operation]*operationState)
}

// p95 is the nearest-rank 95th percentile: ascending sort, then index
// ceil(n*0.95)-1. Dashboards and tests depend on this exact estimator, so
// don't swap it for an interpolated percentile.
func p95(durations []float64) float64 {
	n := len(durations)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, durations)
	sort.Float64s(sorted)

	idx := int(math.Ceil(float64(n)*0.95)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
