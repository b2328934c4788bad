// Точка входа Backoffice Module — управление меню, кнопками, ролями,
// пользователями и правами доступа с журналом изменений.
// Команды: serve (по умолчанию), migrate, import-menus.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/backoffice-module/internal/app"
	"github.com/bigkaa/goartstore/backoffice-module/internal/config"
	"github.com/bigkaa/goartstore/backoffice-module/internal/database"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("Backoffice Module завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "backoffice-module",
		Short:         "Backoffice Module: меню, кнопки, роли, пользователи и права доступа",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newImportCommand())
	return cmd
}

// loadConfig загружает конфигурацию и настраивает логирование.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	return cfg, config.SetupLogger(cfg), nil
}

// openStores открывает хранилища по BO_STORE. Для PostgreSQL применяет
// миграции и возвращает пул; вызывающий закрывает его.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app.Stores, *pgxpool.Pool, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Используется хранилище в памяти, данные не сохраняются между рестартами")
		return app.MemoryStores(), nil, nil
	}

	pool, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return app.Stores{}, nil, err
	}
	return app.PostgresStores(pool), pool, nil
}

// newServices собирает сервисный слой по конфигурации.
func newServices(cfg *config.Config, stores app.Stores, logger *slog.Logger) *app.Services {
	return app.NewServices(stores, app.Options{
		AdminRoles: cfg.AdminRoles,
		CacheSize:  cfg.PermissionCacheSize,
		CacheTTL:   cfg.PermissionCacheTTL,
	}, logger)
}
