// migrate.go — команда migrate: применить миграции и завершиться.
package main

import (
	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/backoffice-module/internal/config"
	"github.com/bigkaa/goartstore/backoffice-module/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store == config.StoreMemory {
				logger.Info("BO_STORE=memory, миграции не требуются")
				return nil
			}
			return database.Migrate(cfg, logger)
		},
	}
}
