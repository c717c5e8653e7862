package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/todotree/internal/todolist"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// LatencySnapshot is a point-in-time aggregate of latency samples.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Latency tracks call durations within a rolling window.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewLatency(maxAge time.Duration) *Latency {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

func (l *Latency) Record(d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)
	l.samples = append(l.samples, sample{timestamp: now, durationMs: ms})
}

func (l *Latency) Snapshot() LatencySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(l.now())
	if len(l.samples) == 0 {
		return LatencySnapshot{}
	}

	values := make([]int64, 0, len(l.samples))
	var sum int64
	for _, sm := range l.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return LatencySnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.maxAge)
	keep := 0
	for _, sm := range l.samples {
		if !sm.timestamp.Before(cutoff) {
			l.samples[keep] = sm
			keep++
		}
	}
	l.samples = l.samples[:keep]
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}
	rank := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := rank - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}

// StoreStats is the per-operation latency of an Instrumented store.
type StoreStats struct {
	Backend string          `json:"backend"`
	Load    LatencySnapshot `json:"load"`
	Save    LatencySnapshot `json:"save"`
	Delete  LatencySnapshot `json:"delete"`
	List    LatencySnapshot `json:"list"`
	Errors  int64           `json:"errors"`
}

// Instrumented records the latency of every call to the wrapped store.
type Instrumented struct {
	Store
	backend string
	load    *Latency
	save    *Latency
	del     *Latency
	list    *Latency

	mu     sync.Mutex
	errors int64
}

// Instrument wraps s; samples older than window are dropped.
func Instrument(s Store, backend string, window time.Duration) *Instrumented {
	return &Instrumented{
		Store:   s,
		backend: backend,
		load:    NewLatency(window),
		save:    NewLatency(window),
		del:     NewLatency(window),
		list:    NewLatency(window),
	}
}

func (i *Instrumented) observe(l *Latency, start time.Time, err error) {
	l.Record(time.Since(start))
	// A missing list is an answer, not a failure.
	if err != nil && !errors.Is(err, ErrNotFound) {
		i.mu.Lock()
		i.errors++
		i.mu.Unlock()
	}
}

func (i *Instrumented) Load(ctx context.Context, id string) (*todolist.Node, error) {
	start := time.Now()
	root, err := i.Store.Load(ctx, id)
	i.observe(i.load, start, err)
	return root, err
}

func (i *Instrumented) Save(ctx context.Context, id string, root *todolist.Node) error {
	start := time.Now()
	err := i.Store.Save(ctx, id, root)
	i.observe(i.save, start, err)
	return err
}

func (i *Instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := i.Store.Delete(ctx, id)
	i.observe(i.del, start, err)
	return err
}

func (i *Instrumented) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := i.Store.List(ctx)
	i.observe(i.list, start, err)
	return ids, err
}

// Stats returns a snapshot of every operation's latency.
func (i *Instrumented) Stats() StoreStats {
	i.mu.Lock()
	errs := i.errors
	i.mu.Unlock()
	return StoreStats{
		Backend: i.backend,
		Load:    i.load.Snapshot(),
		Save:    i.save.Snapshot(),
		Delete:  i.del.Snapshot(),
		List:    i.list.Snapshot(),
		Errors:  errs,
	}
}
