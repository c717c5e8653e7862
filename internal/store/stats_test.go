package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/todotree/internal/todolist"
)

func TestLatencySnapshotPercentiles(t *testing.T) {
	l := NewLatency(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		l.Record(time.Duration(ms) * time.Millisecond)
	}

	snap := l.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLatencyPrunesExpiredSamples(t *testing.T) {
	now := time.Now()
	l := NewLatency(time.Minute)
	l.now = func() time.Time { return now }
	l.Record(100 * time.Millisecond)

	now = now.Add(2 * time.Minute)
	if snap := l.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	l.Record(200 * time.Millisecond)
	snap := l.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected one sample of 200ms, got %+v", snap)
	}
}

func TestLatencyClampsNegativeDuration(t *testing.T) {
	l := NewLatency(time.Hour)
	l.Record(-10 * time.Millisecond)
	snap := l.Snapshot()
	if snap.Count != 1 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap)
	}
}

type failingStore struct{ Store }

func (failingStore) Load(context.Context, string) (*todolist.Node, error) {
	return nil, ErrNotFound
}

func (failingStore) Save(context.Context, string, *todolist.Node) error {
	return errors.New("disk full")
}

func TestInstrumentedCountsCallsAndErrors(t *testing.T) {
	s := Instrument(failingStore{}, "fake", time.Hour)
	ctx := context.Background()

	if _, err := s.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Save(ctx, "a", todolist.New("x")); err == nil {
		t.Fatal("expected save error")
	}

	stats := s.Stats()
	if stats.Backend != "fake" {
		t.Fatalf("expected backend=fake, got %q", stats.Backend)
	}
	if stats.Load.Count != 1 || stats.Save.Count != 1 || stats.Delete.Count != 0 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.Errors != 1 {
		t.Fatalf("expected a missing list not to count as an error, got errors=%d", stats.Errors)
	}
}
