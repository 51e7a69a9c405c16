package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"faturamento/internal/amqp"
	"faturamento/internal/core"
)

// Refresher reloads a ledger and resubmits it for projection.
type Refresher interface {
	Refresh(ctx context.Context, ledger core.Ledger, now time.Time) (uint64, error)
	Ledgers() []core.Ledger
}

// RefreshWorker keeps projections current. It recomputes a ledger when a
// change notification arrives and every ledger when the calendar month
// rolls over, since "now" anchors the month axis.
type RefreshWorker struct {
	billing  Refresher
	interval time.Duration
	clock    func() time.Time

	mu        sync.Mutex
	lastMonth core.MonthKey
}

func NewRefreshWorker(billing Refresher, interval time.Duration) *RefreshWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RefreshWorker{
		billing:  billing,
		interval: interval,
		clock:    time.Now,
	}
}

// HandleItemsChanged is an amqp.Handler.
func (w *RefreshWorker) HandleItemsChanged(ctx context.Context, msg *amqp.ItemsChangedMessage) error {
	slog.InfoContext(ctx, "Refreshing projection after change",
		"ledger", msg.Ledger,
		"item_id", msg.ItemID)

	if _, err := w.billing.Refresh(ctx, msg.Ledger, w.clock()); err != nil {
		return fmt.Errorf("refresh %s: %w", msg.Ledger, err)
	}
	return nil
}

// Tick refreshes every ledger if the month changed since the last refresh.
// It reports whether a refresh ran.
func (w *RefreshWorker) Tick(ctx context.Context) (bool, error) {
	now := w.clock()
	month := core.MonthOf(now)

	w.mu.Lock()
	if month == w.lastMonth {
		w.mu.Unlock()
		return false, nil
	}
	previous := w.lastMonth
	w.lastMonth = month
	w.mu.Unlock()

	if !previous.IsZero() {
		slog.InfoContext(ctx, "Month rolled over, refreshing projections",
			"from", previous, "to", month)
	}
	return true, w.refreshAll(ctx, now)
}

func (w *RefreshWorker) refreshAll(ctx context.Context, now time.Time) error {
	var firstErr error
	for _, l := range w.billing.Ledgers() {
		if _, err := w.billing.Refresh(ctx, l, now); err != nil {
			slog.ErrorContext(ctx, "Failed to refresh projection", "ledger", l, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("refresh %s: %w", l, err)
			}
		}
	}
	return firstErr
}

// Run warms every ledger and then checks for month rollover on each tick
// until ctx is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) error {
	if _, err := w.Tick(ctx); err != nil {
		slog.WarnContext(ctx, "Initial projection warmup failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Refresh worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Refresh worker stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := w.Tick(ctx); err != nil {
				slog.WarnContext(ctx, "Scheduled refresh failed", "error", err)
			}
		}
	}
}
