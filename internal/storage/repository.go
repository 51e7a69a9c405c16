package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"faturamento/internal/core"
	"faturamento/internal/sheets"
)

// ErrNotFound is returned when an item id does not exist.
var ErrNotFound = errors.New("item not found")

var _ sheets.ItemStore = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AppendItem implements sheets.ItemWriter
func (r *SQLiteRepository) AppendItem(ctx context.Context, rec core.ItemRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	err := r.queries.CreateFinancialItem(ctx, FinancialItem{
		ID:           rec.ID,
		Ledger:       string(rec.Ledger),
		Description:  rec.Description,
		Amount:       rec.Amount,
		AnchorDate:   rec.Date,
		Category:     rec.Category,
		Frequency:    rec.Frequency,
		Installments: int64(rec.Installments),
	})
	if err != nil {
		return "", fmt.Errorf("create financial item: %w", err)
	}

	slog.DebugContext(ctx, "Financial item saved to SQLite",
		"id", rec.ID,
		"ledger", rec.Ledger,
		"category", rec.Category,
		"frequency", rec.Frequency)

	return rec.ID, nil
}

// ListItems implements sheets.ItemReader
func (r *SQLiteRepository) ListItems(ctx context.Context, ledger core.Ledger) ([]core.ItemRecord, error) {
	rows, err := r.queries.ListFinancialItems(ctx, string(ledger))
	if err != nil {
		return nil, fmt.Errorf("list financial items: %w", err)
	}

	records := make([]core.ItemRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, core.ItemRecord{
			ID:           row.ID,
			Ledger:       core.Ledger(row.Ledger),
			Description:  row.Description,
			Amount:       row.Amount,
			Date:         row.AnchorDate,
			Category:     row.Category,
			Frequency:    row.Frequency,
			Installments: int(row.Installments),
		})
	}
	return records, nil
}

// CountItems returns the number of stored items in ledger.
func (r *SQLiteRepository) CountItems(ctx context.Context, ledger core.Ledger) (int, error) {
	n, err := r.queries.CountFinancialItems(ctx, string(ledger))
	if err != nil {
		return 0, fmt.Errorf("count financial items: %w", err)
	}
	return int(n), nil
}

// DeleteItem removes an item by id.
func (r *SQLiteRepository) DeleteItem(ctx context.Context, id string) error {
	n, err := r.queries.DeleteFinancialItem(ctx, id)
	if err != nil {
		return fmt.Errorf("delete financial item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
