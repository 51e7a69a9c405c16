package projection

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"faturamento/internal/cache"
	"faturamento/internal/core"
)

// ErrSuperseded is returned by WaitFor when a newer submission replaced the
// awaited generation.
var ErrSuperseded = errors.New("projection superseded")

// Status is the lifecycle state of the engine's current generation.
type Status int

const (
	StatusIdle Status = iota
	StatusComputing
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusComputing:
		return "computing"
	case StatusDone:
		return "done"
	default:
		return "idle"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StatusIdle
	case "computing":
		*s = StatusComputing
	case "done":
		*s = StatusDone
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// Snapshot is a consistent view of the engine state. Matrix is nil until
// the generation is done.
type Snapshot struct {
	Status     Status
	Generation uint64
	Now        core.MonthKey
	Axis       MonthAxis
	Matrix     *Matrix
	Processed  int
	Total      int
	Truncated  int
	ComputedAt time.Time
	FromMemo   bool
}

func (s Snapshot) Computing() bool { return s.Status == StatusComputing }

func (s Snapshot) Done() bool { return s.Status == StatusDone }

// Empty tells "finished with nothing to show" apart from "not finished yet".
func (s Snapshot) Empty() bool {
	return s.Status == StatusDone && s.Matrix.IsEmpty()
}

// EngineConfig configures an Engine. Zero values select the defaults.
type EngineConfig struct {
	Limits    Limits
	ChunkSize int
	MemoTTL   time.Duration
	MemoSize  int
	Logger    *slog.Logger
	// Yield overrides the scheduler yield between chunks.
	Yield func()
}

type memoEntry struct {
	axis      MonthAxis
	matrix    *Matrix
	total     int
	truncated int
}

// Engine runs one projection at a time in the background. Submitting a
// different input cancels the pass in flight, and results that arrive for a
// replaced generation are dropped.
type Engine struct {
	limits    Limits
	chunkSize int
	yield     func()
	logger    *slog.Logger
	memo      *cache.LRUCache[memoEntry]
	clock     func() time.Time

	root     context.Context
	stopRoot context.CancelFunc
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
	gen    uint64
	key    string
	snap   Snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates an idle engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.MemoTTL <= 0 {
		cfg.MemoTTL = 30 * time.Second
	}
	if cfg.MemoSize <= 0 {
		cfg.MemoSize = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	root, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	close(done)
	return &Engine{
		limits:    cfg.Limits.withDefaults(),
		chunkSize: cfg.ChunkSize,
		yield:     cfg.Yield,
		logger:    cfg.Logger,
		memo:      cache.NewLRUCache[memoEntry](cfg.MemoSize, cfg.MemoTTL),
		clock:     time.Now,
		root:      root,
		stopRoot:  stop,
		done:      done,
	}
}

// Limits returns the effective bounds the engine projects with.
func (e *Engine) Limits() Limits { return e.limits }

// Memo exposes the memo cache so a cache.Manager can evict expired entries.
func (e *Engine) Memo() cache.Cleaner { return e.memo }

// Submit starts projecting items for the month containing now and returns
// the generation that will hold the result. Submitting the same input while
// it is computing, or after it finished, keeps the current generation.
func (e *Engine) Submit(items []core.FinancialItem, now time.Time) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return e.gen
	}

	truncated := 0
	if len(items) > e.limits.MaxItems {
		truncated = len(items) - e.limits.MaxItems
		items = items[:e.limits.MaxItems]
	}
	month := core.MonthOf(now)
	key := fingerprint(items, month)

	if key == e.key && e.snap.Status != StatusIdle {
		return e.gen
	}

	if truncated > 0 {
		e.logger.Warn("Item ceiling reached, extra items not projected",
			"limit", e.limits.MaxItems, "dropped", truncated)
	}

	e.supersede()
	e.gen++
	e.key = key
	e.done = make(chan struct{})
	gen := e.gen

	if hit, ok := e.memo.Get(key); ok {
		e.snap = Snapshot{
			Status:     StatusDone,
			Generation: gen,
			Now:        month,
			Axis:       hit.axis,
			Matrix:     hit.matrix,
			Processed:  hit.total,
			Total:      hit.total,
			Truncated:  hit.truncated,
			ComputedAt: e.clock(),
			FromMemo:   true,
		}
		close(e.done)
		e.logger.Debug("Projection served from memo", "generation", gen)
		return gen
	}

	owned := append([]core.FinancialItem(nil), items...)
	axis := BuildAxis(owned, now, e.limits)
	e.snap = Snapshot{
		Status:     StatusComputing,
		Generation: gen,
		Now:        month,
		Axis:       axis,
		Total:      len(owned),
		Truncated:  truncated,
	}

	ctx, cancel := context.WithCancel(e.root)
	e.cancel = cancel
	e.wg.Add(1)
	go e.run(ctx, gen, key, owned, axis, e.done)
	return gen
}

// supersede cancels the pass in flight and releases its waiters.
// Callers hold e.mu.
func (e *Engine) supersede() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.snap.Status == StatusComputing {
		close(e.done)
	}
}

func (e *Engine) run(ctx context.Context, gen uint64, key string, items []core.FinancialItem, axis MonthAxis, done chan struct{}) {
	defer e.wg.Done()

	started := time.Now()
	e.logger.Debug("Projection started",
		"generation", gen, "items", len(items), "months", len(axis))

	m, err := Aggregate(ctx, items, axis, Options{
		ChunkSize: e.chunkSize,
		Yield:     e.yield,
		Progress: func(processed, _ int) {
			e.mu.Lock()
			if e.gen == gen {
				e.snap.Processed = processed
			}
			e.mu.Unlock()
		},
	})

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gen != gen || e.snap.Status != StatusComputing {
		e.logger.Debug("Projection result discarded", "generation", gen, "current", e.gen)
		return
	}
	if err != nil {
		e.logger.Debug("Projection abandoned", "generation", gen, "error", err)
		return
	}
	if err := m.Check(); err != nil {
		e.logger.Error("Projection totals disagree", "generation", gen, "error", err)
	}

	e.cancel()
	e.cancel = nil
	e.snap.Status = StatusDone
	e.snap.Matrix = m
	e.snap.Processed = len(items)
	e.snap.ComputedAt = e.clock()
	e.memo.Set(key, memoEntry{axis: axis, matrix: m, total: len(items), truncated: e.snap.Truncated})
	close(done)

	e.logger.Info("Projection finished",
		"generation", gen,
		"items", len(items),
		"contributing", m.ContributingItems(),
		"categories", len(m.categories),
		"months", len(axis),
		"duration", time.Since(started))
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// WaitFor blocks until generation gen leaves the computing state. It returns
// ErrSuperseded if a newer generation replaced it, or the context error.
func (e *Engine) WaitFor(ctx context.Context, gen uint64) (Snapshot, error) {
	for {
		e.mu.Lock()
		snap, cur, done := e.snap, e.gen, e.done
		e.mu.Unlock()

		if cur != gen {
			return snap, ErrSuperseded
		}
		if snap.Status != StatusComputing {
			return snap, nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// Wait blocks until the latest generation is no longer computing, following
// any resubmissions that happen meanwhile.
func (e *Engine) Wait(ctx context.Context) (Snapshot, error) {
	for {
		e.mu.Lock()
		gen := e.gen
		e.mu.Unlock()

		snap, err := e.WaitFor(ctx, gen)
		if errors.Is(err, ErrSuperseded) {
			continue
		}
		return snap, err
	}
}

// Invalidate forgets the current result and every memoized one. The next
// Submit recomputes even for an unchanged input.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.supersede()
	e.memo.Clear()
	e.gen++
	e.key = ""
	e.snap = Snapshot{Status: StatusIdle, Generation: e.gen}
}

// Close cancels any pass in flight and waits for it to return.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.supersede()
	if e.snap.Status == StatusComputing {
		e.snap.Status = StatusIdle
	}
	e.mu.Unlock()

	e.stopRoot()
	e.wg.Wait()
}

// fingerprint identifies an input by the fields that influence the matrix.
func fingerprint(items []core.FinancialItem, month core.MonthKey) string {
	h := fnv.New64a()
	var buf [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	for _, it := range items {
		h.Write([]byte(it.GroupKey()))
		h.Write([]byte{0})
		writeInt(it.Amount.Cents)
		if !it.AnchorDate.IsZero() {
			writeInt(it.AnchorDate.Unix())
		} else {
			writeInt(0)
		}
		writeInt(int64(it.Recurrence.Kind))
		writeInt(int64(it.Recurrence.Count))
	}
	return fmt.Sprintf("%s/%d/%016x", month, len(items), h.Sum64())
}
