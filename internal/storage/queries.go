package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type FinancialItem struct {
	ID           string
	Ledger       string
	Description  string
	Amount       string
	AnchorDate   string
	Category     string
	Frequency    string
	Installments int64
}

const createFinancialItem = `
INSERT INTO financial_items (id, ledger, description, amount, anchor_date, category, frequency, installments)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateFinancialItem(ctx context.Context, arg FinancialItem) error {
	_, err := q.db.ExecContext(ctx, createFinancialItem,
		arg.ID,
		arg.Ledger,
		arg.Description,
		arg.Amount,
		arg.AnchorDate,
		arg.Category,
		arg.Frequency,
		arg.Installments,
	)
	return err
}

const listFinancialItems = `
SELECT id, ledger, description, amount, anchor_date, category, frequency, installments
FROM financial_items
WHERE ledger = ?
ORDER BY created_at, rowid
`

func (q *Queries) ListFinancialItems(ctx context.Context, ledger string) ([]FinancialItem, error) {
	rows, err := q.db.QueryContext(ctx, listFinancialItems, ledger)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []FinancialItem
	for rows.Next() {
		var i FinancialItem
		if err := rows.Scan(
			&i.ID,
			&i.Ledger,
			&i.Description,
			&i.Amount,
			&i.AnchorDate,
			&i.Category,
			&i.Frequency,
			&i.Installments,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countFinancialItems = `SELECT COUNT(*) FROM financial_items WHERE ledger = ?`

func (q *Queries) CountFinancialItems(ctx context.Context, ledger string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countFinancialItems, ledger).Scan(&n)
	return n, err
}

const deleteFinancialItem = `DELETE FROM financial_items WHERE id = ?`

func (q *Queries) DeleteFinancialItem(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteFinancialItem, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
