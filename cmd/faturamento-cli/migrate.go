package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"faturamento/internal/storage"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.dbPath
			if path == "" {
				path = a.cfg.SQLiteDBPath
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}
			if err := storage.RunMigrations(path); err != nil {
				return fmt.Errorf("migrate %s: %w", path, err)
			}
			version, dirty, err := storage.MigrationVersion(path)
			if err != nil {
				return err
			}
			a.logger.Info("Migrations applied", "db_path", path, "version", version, "dirty", dirty)
			_, err = fmt.Fprintf(a.out, "%s at version %d\n", path, version)
			return err
		},
	}
}
