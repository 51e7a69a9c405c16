package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"faturamento/internal/cache"
	"faturamento/internal/core"
	"faturamento/internal/projection"
	"faturamento/internal/sheets"
)

var ledgers = []core.Ledger{core.Revenue, core.Expense, core.Loan}

// BillingConfig configures BillingService.
type BillingConfig struct {
	Engine         projection.EngineConfig
	PageSizeWide   int
	PageSizeNarrow int
	// Clock supplies "now" when a request does not pin it.
	Clock func() time.Time
}

// GridRequest selects the page of a ledger's billing grid.
type GridRequest struct {
	Ledger core.Ledger
	Layout projection.Layout
	Page   int
	// Now anchors the month axis; zero means the service clock.
	Now time.Time
	// Wait bounds how long to wait for a running projection. Zero returns
	// the current state immediately.
	Wait time.Duration
}

// BillingService loads the items of a ledger and projects them. It keeps one
// engine per ledger so that views of different ledgers never cancel each
// other.
type BillingService struct {
	reader  sheets.ItemReader
	engines map[core.Ledger]*projection.Engine
	cfg     BillingConfig
	logger  *slog.Logger
}

func NewBillingService(reader sheets.ItemReader, cfg BillingConfig) *BillingService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Engine.Logger == nil {
		cfg.Engine.Logger = slog.Default()
	}
	s := &BillingService{
		reader:  reader,
		engines: make(map[core.Ledger]*projection.Engine, len(ledgers)),
		cfg:     cfg,
		logger:  cfg.Engine.Logger,
	}
	for _, l := range ledgers {
		ec := cfg.Engine
		ec.Logger = cfg.Engine.Logger.With("ledger", l)
		s.engines[l] = projection.NewEngine(ec)
	}
	return s
}

// Memos returns the engines' memo caches for periodic eviction.
func (s *BillingService) Memos() []cache.Cleaner {
	out := make([]cache.Cleaner, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, s.engines[l].Memo())
	}
	return out
}

// Ledgers lists the ledgers the service projects.
func (s *BillingService) Ledgers() []core.Ledger {
	return append([]core.Ledger(nil), ledgers...)
}

func (s *BillingService) engine(ledger core.Ledger) (*projection.Engine, error) {
	e, ok := s.engines[ledger]
	if !ok {
		return nil, &ValidationError{Err: core.ErrInvalidLedger}
	}
	return e, nil
}

// LoadItems reads and converts the items of ledger. Legacy frequency labels
// are counted and logged once per load.
func (s *BillingService) LoadItems(ctx context.Context, ledger core.Ledger) ([]core.FinancialItem, error) {
	records, err := s.reader.ListItems(ctx, ledger)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	items := make([]core.FinancialItem, 0, len(records))
	legacy := 0
	for _, rec := range records {
		item, known := rec.ToItem()
		if !known {
			legacy++
		}
		items = append(items, item)
	}
	if legacy > 0 {
		s.logger.WarnContext(ctx, "Unrecognized frequency labels projected as annual",
			"ledger", ledger, "count", legacy)
	}
	return items, nil
}

// Refresh reloads ledger and submits it to its engine.
func (s *BillingService) Refresh(ctx context.Context, ledger core.Ledger, now time.Time) (uint64, error) {
	e, err := s.engine(ledger)
	if err != nil {
		return 0, err
	}
	items, err := s.LoadItems(ctx, ledger)
	if err != nil {
		return 0, err
	}
	if now.IsZero() {
		now = s.cfg.Clock()
	}
	return e.Submit(items, now), nil
}

// Snapshot returns the current engine state of ledger.
func (s *BillingService) Snapshot(ledger core.Ledger) (projection.Snapshot, error) {
	e, err := s.engine(ledger)
	if err != nil {
		return projection.Snapshot{}, err
	}
	return e.Snapshot(), nil
}

// Grid projects the ledger for req.Now, waits up to req.Wait for the result
// and renders the requested page. A wait that times out is not an error; the
// grid then reports the computing status. The grid always belongs to the
// requested anchor month, even when other callers resubmit meanwhile.
func (s *BillingService) Grid(ctx context.Context, req GridRequest) (projection.Grid, error) {
	e, err := s.engine(req.Ledger)
	if err != nil {
		return projection.Grid{}, err
	}
	items, err := s.LoadItems(ctx, req.Ledger)
	if err != nil {
		return projection.Grid{}, err
	}
	now := req.Now
	if now.IsZero() {
		now = s.cfg.Clock()
	}

	snap, err := s.await(ctx, e, items, now, req.Wait)
	if err != nil {
		return projection.Grid{}, err
	}

	layout := req.Layout
	if layout == "" {
		layout = projection.LayoutWide
	}
	size := s.cfg.PageSizeWide
	if layout == projection.LayoutNarrow {
		size = s.cfg.PageSizeNarrow
	}
	return projection.BuildGrid(snap, projection.GridOptions{
		Layout:   layout,
		PageSize: size,
		Page:     req.Page,
	}), nil
}

// await submits items for now and waits for that generation. A pass
// replaced by a submission for other input is resubmitted while the wait
// lasts. When the wait runs out first, the result is a computing snapshot
// over the requested axis.
func (s *BillingService) await(ctx context.Context, e *projection.Engine, items []core.FinancialItem, now time.Time, wait time.Duration) (projection.Snapshot, error) {
	month := core.MonthOf(now)
	waitCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	gen := e.Submit(items, now)
	for {
		var snap projection.Snapshot
		if wait > 0 {
			snap, _ = e.WaitFor(waitCtx, gen)
		} else {
			snap = e.Snapshot()
		}
		if err := ctx.Err(); err != nil {
			return projection.Snapshot{}, err
		}
		if snap.Generation == gen && snap.Now == month {
			return snap, nil
		}
		if wait <= 0 || waitCtx.Err() != nil {
			return pendingSnapshot(e.Limits(), items, now, gen), nil
		}
		s.logger.DebugContext(ctx, "Projection replaced by another anchor, resubmitting",
			"generation", gen, "month", month.String())
		next := e.Submit(items, now)
		if next == gen {
			// Closed engine.
			return pendingSnapshot(e.Limits(), items, now, gen), nil
		}
		gen = next
	}
}

func pendingSnapshot(limits projection.Limits, items []core.FinancialItem, now time.Time, gen uint64) projection.Snapshot {
	if len(items) > limits.MaxItems {
		items = items[:limits.MaxItems]
	}
	return projection.Snapshot{
		Status:     projection.StatusComputing,
		Generation: gen,
		Now:        core.MonthOf(now),
		Axis:       projection.BuildAxis(items, now, limits),
		Total:      len(items),
	}
}

// Close stops every engine.
func (s *BillingService) Close() {
	for _, e := range s.engines {
		e.Close()
	}
}
