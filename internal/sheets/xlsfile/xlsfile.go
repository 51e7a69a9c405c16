// Package xlsfile reads financial items from legacy Excel (.xls) exports of
// the back-office spreadsheet.
package xlsfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/extrame/xls"

	"faturamento/internal/core"
	"faturamento/internal/sheets"
)

const (
	// Charset of the exports' string cells.
	Charset = "cp1252"
	// MaxRows bounds how many rows are read from a workbook.
	MaxRows = 5000
	// headerScanRows is how far down a title block may push the header.
	headerScanRows = 10
)

var ErrNoHeader = errors.New("no items header found")

// ReadFile opens path and reads the items of ledger.
func ReadFile(path string, ledger core.Ledger) ([]core.ItemRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadItems(f, ledger)
}

// ReadItems reads the items of ledger from an .xls workbook.
func ReadItems(r io.ReadSeeker, ledger core.Ledger) ([]core.ItemRecord, error) {
	wb, err := xls.OpenReader(r, Charset)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return parseWorkbook(wb.ReadAllCells(MaxRows), ledger)
}

// parseWorkbook skips any title rows above the header and parses the rest.
func parseWorkbook(rows [][]string, ledger core.Ledger) ([]core.ItemRecord, error) {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		if sheets.IsItemHeader(rows[i]) {
			return sheets.ParseItemRows(rows[i:], ledger)
		}
	}
	return nil, fmt.Errorf("%w in the first %d rows", ErrNoHeader, headerScanRows)
}
