package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"faturamento/internal/amqp"
	"faturamento/internal/core"
	"faturamento/internal/services"
	"faturamento/internal/sheets/xlsfile"
)

func newItemsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage financial items",
	}
	cmd.AddCommand(newItemsAddCommand(a), newItemsListCommand(a), newItemsImportCommand(a))
	return cmd
}

func newItemsAddCommand(a *app) *cobra.Command {
	var rec core.ItemRecord
	var ledger string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a financial item",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rec.Ledger = core.Ledger(ledger)

			store, cleanup, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			notifier, closeNotifier := a.notifier()
			defer closeNotifier()

			created, err := services.NewItemService(store, notifier).CreateItem(ctx, rec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "created %s: %s %s (%s)\n", created.ID, created.Description, created.Amount, created.Frequency)
			return err
		},
	}

	cmd.Flags().StringVar(&ledger, "ledger", string(core.Revenue), "revenue, expense or loan")
	cmd.Flags().StringVar(&rec.Description, "description", "", "item description")
	cmd.Flags().StringVar(&rec.Amount, "amount", "", "amount, e.g. 1.500,00 or 1500.00")
	cmd.Flags().StringVar(&rec.Date, "date", "", "anchor date (YYYY-MM-DD or DD/MM/YYYY)")
	cmd.Flags().StringVar(&rec.Category, "category", "", "grouping category")
	cmd.Flags().StringVar(&rec.Frequency, "frequency", core.LabelOnce, "frequency label, e.g. \"Mensal Fixo\"")
	cmd.Flags().IntVar(&rec.Installments, "installments", 0, "installment count for term frequencies")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newItemsListCommand(a *app) *cobra.Command {
	var ledger string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the items of a ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, cleanup, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := services.NewItemService(store, nil).ListItems(ctx, core.Ledger(ledger))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATA\tDESCRIÇÃO\tCATEGORIA\tVALOR\tFREQUÊNCIA\tPARCELAS")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
					r.ID, r.Date, r.Description, core.NormalizeCategory(r.Category), r.Amount, r.Frequency, r.Installments)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "%d items\n", len(records))
			return err
		},
	}
	cmd.Flags().StringVar(&ledger, "ledger", string(core.Revenue), "revenue, expense or loan")
	return cmd
}

func newItemsImportCommand(a *app) *cobra.Command {
	var (
		ledger string
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import items from an .xls export of the back-office sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := core.Ledger(ledger)
			if !l.IsValid() {
				return fmt.Errorf("%w: %q", core.ErrInvalidLedger, ledger)
			}
			records, err := xlsfile.ReadFile(file, l)
			if err != nil {
				return err
			}

			var imported, skipped int
			if dryRun {
				for _, rec := range records {
					if err := rec.Validate(); err != nil {
						a.logger.Warn("Row would be skipped", "row", rec.ID, "error", err)
						skipped++
						continue
					}
					imported++
				}
				_, err = fmt.Fprintf(a.out, "dry run: %d valid, %d invalid\n", imported, skipped)
				return err
			}

			store, cleanup, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			notifier, closeNotifier := a.notifier()
			defer closeNotifier()

			svc := services.NewItemService(store, notifier)
			for _, rec := range records {
				row := rec.ID
				rec.ID = ""
				if _, err := svc.CreateItem(ctx, rec); err != nil {
					if !services.IsValidation(err) {
						return fmt.Errorf("import row %s: %w", row, err)
					}
					a.logger.Warn("Skipping invalid row", "row", row, "error", err)
					skipped++
					continue
				}
				imported++
			}
			_, err = fmt.Fprintf(a.out, "imported %d items, skipped %d\n", imported, skipped)
			return err
		},
	}

	cmd.Flags().StringVar(&ledger, "ledger", string(core.Revenue), "ledger rows are imported into")
	cmd.Flags().StringVar(&file, "file", "", "path to the .xls export")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate rows without storing them")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// notifier connects to the broker when one is configured so that running
// servers refresh right away. The returned func closes the connection.
func (a *app) notifier() (services.ChangeNotifier, func()) {
	if a.cfg.AMQPURL == "" {
		return nil, func() {}
	}
	client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
	if err != nil {
		a.logger.Warn("AMQP unavailable, running servers will refresh on their next tick", "error", err)
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}
