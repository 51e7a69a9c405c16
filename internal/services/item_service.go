package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"faturamento/internal/core"
	applog "faturamento/internal/log"
	"faturamento/internal/sheets"
)

// ValidationError wraps a rejected item write.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid item: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err was caused by invalid input.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ChangeNotifier announces item changes to other processes.
type ChangeNotifier interface {
	PublishItemsChanged(ctx context.Context, ledger core.Ledger, itemID string) error
}

// ChangeListener is called in-process after an item was stored.
type ChangeListener func(ctx context.Context, ledger core.Ledger)

// ItemService validates and stores financial items and announces changes.
type ItemService struct {
	store     sheets.ItemStore
	notifier  ChangeNotifier
	listeners []ChangeListener
}

// NewItemService creates the service. notifier may be nil.
func NewItemService(store sheets.ItemStore, notifier ChangeNotifier) *ItemService {
	return &ItemService{store: store, notifier: notifier}
}

// OnChange registers fn to run after every successful write. Not safe to
// call concurrently with CreateItem.
func (s *ItemService) OnChange(fn ChangeListener) {
	s.listeners = append(s.listeners, fn)
}

// CreateItem validates rec, stores it in canonical form and publishes a
// change notification. A failed notification does not fail the write.
func (s *ItemService) CreateItem(ctx context.Context, rec core.ItemRecord) (core.ItemRecord, error) {
	rec.Description = strings.TrimSpace(rec.Description)
	rec.Category = strings.TrimSpace(rec.Category)
	if err := rec.Validate(); err != nil {
		return core.ItemRecord{}, &ValidationError{Err: err}
	}

	item, _ := rec.ToItem()
	canonical := core.RecordFromItem(item)

	id, err := s.store.AppendItem(ctx, canonical)
	if err != nil {
		return core.ItemRecord{}, fmt.Errorf("save item: %w", err)
	}
	canonical.ID = id

	applog.NewStructuredLogger(applog.FromContext(ctx)).LogItemCreated(ctx,
		id, string(canonical.Ledger), canonical.Category, item.Amount.Cents, canonical.Frequency)

	s.publish(ctx, canonical.Ledger, id)
	for _, fn := range s.listeners {
		fn(ctx, canonical.Ledger)
	}
	return canonical, nil
}

// ListItems returns the stored records of ledger.
func (s *ItemService) ListItems(ctx context.Context, ledger core.Ledger) ([]core.ItemRecord, error) {
	if !ledger.IsValid() {
		return nil, &ValidationError{Err: core.ErrInvalidLedger}
	}
	records, err := s.store.ListItems(ctx, ledger)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return records, nil
}

func (s *ItemService) publish(ctx context.Context, ledger core.Ledger, id string) {
	if s.notifier == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping change message")
		return
	}
	if err := s.notifier.PublishItemsChanged(ctx, ledger, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message", "id", id, "error", err)
	}
}
