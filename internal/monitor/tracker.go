package monitor

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Tracker times the stages of one run and counts the entries it processed
type Tracker struct {
	mu      sync.Mutex
	start   time.Time
	order   []OperationType
	timers  map[OperationType]*Timer
	errors  map[OperationType]*Counter
	entries *Counter
	now     func() time.Time
}

// Snapshot is a point-in-time copy of a tracker
type Snapshot struct {
	Timestamp  time.Time          `json:"timestamp"`
	Memory     MemoryMetrics      `json:"memory"`
	Processing ProcessingMetrics  `json:"processing"`
	Operations []OperationMetrics `json:"operations"`
}

// NewTracker starts tracking a run
func NewTracker() *Tracker {
	return newTrackerWithClock(time.Now)
}

func newTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		start:   now(),
		timers:  make(map[OperationType]*Timer),
		errors:  make(map[OperationType]*Counter),
		entries: NewCounter("entries"),
		now:     now,
	}
}

// Track times fn as one execution of operation
func (t *Tracker) Track(operation OperationType, fn func()) {
	_ = t.TrackWithError(operation, func() error {
		fn()
		return nil
	})
}

// TrackWithError times fn and counts it as failed when it returns an error,
// which is passed through
func (t *Tracker) TrackWithError(operation OperationType, fn func() error) error {
	timer, failures := t.metricsFor(operation)

	started := t.now()
	err := fn()
	timer.Record(t.now().Sub(started))

	if err != nil {
		failures.Inc()
	}
	return err
}

// RecordEntries adds to the processed entry count
func (t *Tracker) RecordEntries(count int) {
	t.entries.Add(int64(count))
}

func (t *Tracker) metricsFor(operation OperationType) (*Timer, *Counter) {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.timers[operation]
	if !ok {
		timer = NewTimer(string(operation))
		t.timers[operation] = timer
		t.order = append(t.order, operation)
		t.errors[operation] = NewCounter(string(operation) + "_errors")
	}
	return timer, t.errors[operation]
}

// Snapshot copies the current metrics. Operations appear in the order they
// were first tracked.
func (t *Tracker) Snapshot() Snapshot {
	now := t.now()
	elapsed := now.Sub(t.start)

	entries := t.entries.Get()
	var rate float64
	if elapsed > 0 {
		rate = float64(entries) / elapsed.Seconds()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ops := make([]OperationMetrics, 0, len(t.order))
	for _, op := range t.order {
		timer := t.timers[op]
		failed := t.errors[op].Get()
		ops = append(ops, OperationMetrics{
			Operation:    op,
			Count:        timer.Count(),
			TotalTime:    timer.TotalTime(),
			MinTime:      timer.MinTime(),
			MaxTime:      timer.MaxTime(),
			ErrorCount:   failed,
			SuccessCount: timer.Count() - failed,
		})
	}

	return Snapshot{
		Timestamp: now,
		Memory:    CollectMemory(),
		Processing: ProcessingMetrics{
			EntriesPerSecond: rate,
			TotalEntries:     entries,
			Duration:         elapsed,
		},
		Operations: ops,
	}
}

// Summary renders the snapshot as one line, e.g.
// "12034 entries in 41ms (293512/s), parse 30ms, analyze 9ms, heap 4.2 MiB"
func (s Snapshot) Summary() string {
	parts := []string{fmt.Sprintf("%d entries in %s (%.0f/s)",
		s.Processing.TotalEntries, s.Processing.Duration.Round(time.Millisecond), s.Processing.EntriesPerSecond)}
	for _, op := range s.Operations {
		part := fmt.Sprintf("%s %s", op.Operation, op.TotalTime.Round(time.Microsecond))
		if op.ErrorCount > 0 {
			part += fmt.Sprintf(" (%d failed)", op.ErrorCount)
		}
		parts = append(parts, part)
	}
	parts = append(parts, "heap "+formatBytes(s.Memory.HeapInuse))
	return strings.Join(parts, ", ")
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
