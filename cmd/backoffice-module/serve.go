// serve.go — команда serve: HTTP API, проверки готовности, topologymetrics.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/backoffice-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/backoffice-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/backoffice-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/backoffice-module/internal/config"
	"github.com/bigkaa/goartstore/backoffice-module/internal/database"
	"github.com/bigkaa/goartstore/backoffice-module/internal/server"
	"github.com/bigkaa/goartstore/backoffice-module/internal/service"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Info("Backoffice Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.Store),
	)

	// 1. Хранилище
	stores, pool, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	// 2. Сервисы
	svc := newServices(cfg, stores, logger)

	// 3. Readiness checkers и topologymetrics (только при PostgreSQL,
	// проверка идёт через существующий пул соединений).
	checkers := map[string]handlers.ReadinessChecker{}
	if pool != nil {
		checkers["postgresql"] = database.NewReadinessChecker(pool)

		pgDB := stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		monitor, err := service.NewDependencyMonitor(service.MonitorConfig{
			ServiceID:   "backoffice-module",
			Group:       cfg.DephealthGroup,
			DB:          pgDB,
			DatabaseURL: cfg.DatabaseURL(),
			JWKSURL:     cfg.JWTJWKSURL,
			Interval:    cfg.DephealthCheckInterval,
		}, logger)
		if err == nil {
			err = monitor.Start(ctx)
		}
		if err != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", err.Error()),
			)
		} else {
			checkers["dependencies"] = monitor
			defer monitor.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	api := handlers.NewAPIHandler(handlers.Deps{
		Health:        handlers.NewHealthHandler(checkers),
		Menus:         svc.Menus,
		Buttons:       svc.Buttons,
		Roles:         svc.Roles,
		Users:         svc.Users,
		Majors:        svc.Majors,
		Permissions:   svc.Permissions,
		OperationLogs: svc.OperationLogs,
		MaxPageSize:   cfg.MaxPageSize,
	}, logger)

	// 4. OpenAPI
	doc, err := openapi.Load()
	if err != nil {
		return err
	}
	docHandler, err := openapi.Handler(doc)
	if err != nil {
		return err
	}
	opts := server.Options{OpenAPI: docHandler}

	// 5. JWT + проверка прав на изменяющих маршрутах. Без JWKS субъект
	// анонимный и проверка прав не подключается.
	if cfg.AuthEnabled() {
		jwtAuth, err := middleware.NewJWTAuth(cfg.JWTJWKSURL, cfg.JWTIssuer, cfg.JWKSRefreshInterval, cfg.JWTLeeway, logger)
		if err != nil {
			return fmt.Errorf("ошибка создания JWT middleware: %w", err)
		}
		opts.Auth = jwtAuth.Middleware()
		opts.Checker = svc.Permissions.Checker()
		logger.Info("JWT middleware инициализирован",
			slog.String("jwks_url", cfg.JWTJWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
		)
	} else {
		logger.Warn("BO_JWT_JWKS_URL не задан, API работает без аутентификации")
	}

	// 6. HTTP-сервер до сигнала завершения
	if err := server.New(cfg, logger, api, opts).Run(ctx); err != nil {
		return err
	}

	logger.Info("Backoffice Module остановлен")
	return nil
}
