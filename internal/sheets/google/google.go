package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"faturamento/internal/core"
	ports "faturamento/internal/sheets"
)

// Client reads and appends financial items on one sheet of a spreadsheet.
// The first row holds the column headers.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	itemsSheet    string
}

var _ ports.ItemStore = (*Client)(nil)

// Options configure New. CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with service account credentials.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = "Itens"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		itemsSheet:    sheet,
	}, nil
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ListItems implements sheets.ItemReader.
func (c *Client) ListItems(ctx context.Context, ledger core.Ledger) ([]core.ItemRecord, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:H", c.itemsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read items from %s: %w", c.itemsSheet, err)
	}

	records, err := parseValues(resp.Values, ledger)
	if err != nil {
		return nil, fmt.Errorf("parse sheet %s: %w", c.itemsSheet, err)
	}
	slog.DebugContext(ctx, "Read items from sheet",
		"sheet", c.itemsSheet,
		"rows", len(resp.Values),
		"ledger", ledger,
		"items", len(records))
	return records, nil
}

// AppendItem implements sheets.ItemWriter. Values are written raw so that
// amounts and dates keep the textual form ListItems parses.
func (c *Client) AppendItem(ctx context.Context, rec core.ItemRecord) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	rng := fmt.Sprintf("%s!A:H", c.itemsSheet)
	vr := &gsheet.ValueRange{Values: [][]any{itemRow(rec)}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append item to %s: %w", c.itemsSheet, err)
	}
	return rec.ID, nil
}
