// import.go — команда import-menus: загрузка дерева меню и кнопок из
// YAML/TOML-файла через операцию импорта (журнал с видом Import).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/service"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-menus <file.yaml|file.toml>",
		Short: "Импортировать меню и кнопки из файла",
		Long: `Создаёт отсутствующие меню и кнопки из YAML- или TOML-файла.
Меню, уже существующие по имени, и кнопки, уже существующие в своём меню,
пропускаются. Итог печатается в формате JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd, args[0])
		},
	}
}

func runImport(ctx context.Context, cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("открытие файла импорта: %w", err)
	}
	defer f.Close()

	doc, err := service.DecodeImport(path, f)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	stores, pool, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	res, err := newServices(cfg, stores, logger).Importer.Import(ctx, model.System, doc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
