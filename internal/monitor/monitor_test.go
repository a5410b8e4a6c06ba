package monitor

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	counter := NewCounter("test_counter")

	if counter.Get() != 0 {
		t.Errorf("Expected initial value 0, got %d", counter.Get())
	}

	counter.Inc()
	if counter.Get() != 1 {
		t.Errorf("Expected value 1 after Inc(), got %d", counter.Get())
	}

	counter.Add(5)
	if counter.Get() != 6 {
		t.Errorf("Expected value 6 after Add(5), got %d", counter.Get())
	}

	counter.Reset()
	if counter.Get() != 0 {
		t.Errorf("Expected value 0 after Reset(), got %d", counter.Get())
	}

	if counter.Name() != "test_counter" {
		t.Errorf("Expected name 'test_counter', got %s", counter.Name())
	}
}

func TestTimer(t *testing.T) {
	timer := NewTimer("test_timer")

	if timer.MinTime() != 0 {
		t.Errorf("Expected min 0 before any record, got %v", timer.MinTime())
	}
	if timer.AvgTime() != 0 {
		t.Errorf("Expected avg 0 before any record, got %v", timer.AvgTime())
	}

	timer.Record(10 * time.Millisecond)
	timer.Record(30 * time.Millisecond)
	timer.Record(20 * time.Millisecond)

	if timer.Count() != 3 {
		t.Errorf("Expected count 3, got %d", timer.Count())
	}
	if timer.TotalTime() != 60*time.Millisecond {
		t.Errorf("Expected total 60ms, got %v", timer.TotalTime())
	}
	if timer.MinTime() != 10*time.Millisecond {
		t.Errorf("Expected min 10ms, got %v", timer.MinTime())
	}
	if timer.MaxTime() != 30*time.Millisecond {
		t.Errorf("Expected max 30ms, got %v", timer.MaxTime())
	}
	if timer.AvgTime() != 20*time.Millisecond {
		t.Errorf("Expected avg 20ms, got %v", timer.AvgTime())
	}

	timer.Reset()
	if timer.Count() != 0 || timer.MaxTime() != 0 || timer.MinTime() != 0 {
		t.Errorf("Expected reset timer, got count %d min %v max %v", timer.Count(), timer.MinTime(), timer.MaxTime())
	}
}

// fakeClock advances by step on every reading
func fakeClock(step time.Duration) func() time.Time {
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func TestTrackerRecordsStages(t *testing.T) {
	tracker := newTrackerWithClock(fakeClock(time.Millisecond))

	tracker.Track(OperationParse, func() {})
	err := tracker.TrackWithError(OperationAnalyze, func() error { return errors.New("boom") })
	if err == nil || err.Error() != "boom" {
		t.Fatalf("Expected the stage error to pass through, got %v", err)
	}
	tracker.Track(OperationParse, func() {})
	tracker.RecordEntries(1000)

	snapshot := tracker.Snapshot()

	if len(snapshot.Operations) != 2 {
		t.Fatalf("Expected 2 operations, got %d", len(snapshot.Operations))
	}

	parse := snapshot.Operations[0]
	if parse.Operation != OperationParse {
		t.Errorf("Expected parse first, got %s", parse.Operation)
	}
	if parse.Count != 2 || parse.SuccessCount != 2 || parse.ErrorCount != 0 {
		t.Errorf("Unexpected parse metrics: %+v", parse)
	}
	if parse.TotalTime != 2*time.Millisecond {
		t.Errorf("Expected parse total 2ms, got %v", parse.TotalTime)
	}

	analyze := snapshot.Operations[1]
	if analyze.ErrorCount != 1 || analyze.SuccessCount != 0 {
		t.Errorf("Unexpected analyze metrics: %+v", analyze)
	}

	if snapshot.Processing.TotalEntries != 1000 {
		t.Errorf("Expected 1000 entries, got %d", snapshot.Processing.TotalEntries)
	}
	if snapshot.Processing.EntriesPerSecond <= 0 {
		t.Errorf("Expected a positive rate, got %f", snapshot.Processing.EntriesPerSecond)
	}
}

func TestSnapshotSummary(t *testing.T) {
	tracker := newTrackerWithClock(fakeClock(time.Millisecond))
	tracker.Track(OperationParse, func() {})
	_ = tracker.TrackWithError(OperationRender, func() error { return errors.New("closed") })
	tracker.RecordEntries(42)

	summary := tracker.Snapshot().Summary()

	for _, want := range []string{"42 entries", "parse 1ms", "render 1ms (1 failed)", "heap "} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected summary to contain %q, got %q", want, summary)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollectMemory(t *testing.T) {
	mem := CollectMemory()
	if mem.Sys == 0 {
		t.Error("Expected non-zero system memory")
	}
}
