package sheets

import (
	"context"

	"faturamento/internal/core"
)

// Ports for outbound adapters. Records cross these ports in their raw stored
// form and are converted with core.ItemRecord.ToItem by the caller.
type (
	ItemReader interface {
		// ListItems returns every item of ledger in insertion order.
		ListItems(ctx context.Context, ledger core.Ledger) ([]core.ItemRecord, error)
	}

	ItemWriter interface {
		// AppendItem stores rec and returns its id. A blank rec.ID is assigned.
		AppendItem(ctx context.Context, rec core.ItemRecord) (id string, err error)
	}

	ItemStore interface {
		ItemReader
		ItemWriter
	}
)
