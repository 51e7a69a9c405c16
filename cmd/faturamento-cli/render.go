package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"faturamento/internal/core"
	"faturamento/internal/projection"
)

// renderGrid prints grid as an aligned table with a footer of column totals.
func renderGrid(w io.Writer, ledger core.Ledger, grid projection.Grid) error {
	switch {
	case grid.Status != projection.StatusDone:
		_, err := fmt.Fprintf(w, "%s: projection still %s (%d/%d items)\n", ledger, grid.Status, grid.Processed, grid.Total)
		return err
	case grid.Empty:
		_, err := fmt.Fprintf(w, "%s: no items to project\n", ledger)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight|tabwriter.Debug)
	header := []string{"Categoria"}
	for _, c := range grid.Columns {
		header = append(header, c.Label)
	}
	writeRow(tw, header)

	for _, r := range grid.Rows {
		line := []string{r.Category}
		for _, c := range r.Cells {
			line = append(line, cellText(c))
		}
		writeRow(tw, line)
	}

	footer := []string{projection.TotalColumnKey}
	for _, c := range grid.Footer {
		footer = append(footer, cellText(c))
	}
	writeRow(tw, footer)
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "page %d/%d  grand total %s", grid.Page+1, grid.PageCount, grid.GrandTotal.Display)
	if err == nil && grid.Truncated > 0 {
		_, err = fmt.Fprintf(w, "  (%d items over the limit ignored)", grid.Truncated)
	}
	if err == nil {
		_, err = fmt.Fprintln(w)
	}
	return err
}

func writeRow(w io.Writer, cells []string) {
	fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
}

func cellText(c projection.Cell) string {
	if c.Cents == 0 {
		return "-"
	}
	return c.Display
}
