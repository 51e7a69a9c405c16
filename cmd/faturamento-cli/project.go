package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"faturamento/internal/cli"
	"faturamento/internal/core"
	"faturamento/internal/projection"
	"faturamento/internal/services"
)

func newProjectCommand(a *app) *cobra.Command {
	var (
		ledger string
		now    string
		page   int
		layout string
		wait   time.Duration
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print one page of a ledger's monthly projection",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := core.Ledger(ledger)
			if !l.IsValid() {
				return fmt.Errorf("%w: %q", core.ErrInvalidLedger, ledger)
			}
			var anchor time.Time
			if now != "" {
				d, err := core.ParseDate(now)
				if err != nil {
					return fmt.Errorf("invalid --now %q: %w", now, err)
				}
				anchor = time.Date(d.Year(), time.Month(d.Month()), d.Day(), 12, 0, 0, 0, time.UTC)
			}

			store, cleanup, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			billing := services.NewBillingService(store, cli.BillingConfig(a.cfg, a.logger))
			defer billing.Close()

			grid, err := billing.Grid(cmd.Context(), services.GridRequest{
				Ledger: l,
				Layout: projection.ParseLayout(layout),
				Page:   page,
				Now:    anchor,
				Wait:   wait,
			})
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(grid)
			}
			return renderGrid(a.out, l, grid)
		},
	}

	cmd.Flags().StringVar(&ledger, "ledger", string(core.Revenue), "ledger to project: revenue, expense or loan")
	cmd.Flags().StringVar(&now, "now", "", "anchor date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page of months")
	cmd.Flags().StringVar(&layout, "layout", string(projection.LayoutWide), "wide or narrow")
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for the projection")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the grid as JSON")
	return cmd
}
