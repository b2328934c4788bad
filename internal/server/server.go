// Пакет server — HTTP-сервер Backoffice Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/backoffice-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/backoffice-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/backoffice-module/internal/config"
	"github.com/bigkaa/goartstore/backoffice-module/internal/permission"
)

// PermissionArea — area кнопок, которыми защищены изменяющие маршруты.
const PermissionArea = "Backoffice"

// Options — подключаемые части маршрутизатора.
type Options struct {
	// Auth — middleware аутентификации для /api/v1 (JWT или Anonymous).
	Auth func(http.Handler) http.Handler
	// Checker — проверка прав на изменяющих маршрутах. nil отключает проверку.
	Checker middleware.ButtonChecker
	// OpenAPI — обработчик /api/v1/openapi.json. nil — маршрут не регистрируется.
	OpenAPI http.Handler
}

// Server — HTTP-сервер Backoffice Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, api *handlers.APIHandler, opts Options) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(api, opts, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return &Server{httpServer: srv, logger: logger, cfg: cfg}
}

// NewRouter строит маршрутизатор. Health, metrics и OpenAPI публичны;
// /api/v1 проходит через opts.Auth.
func NewRouter(api *handlers.APIHandler, opts Options, logger *slog.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	router.Get("/health/live", api.HealthLive)
	router.Get("/health/ready", api.HealthReady)
	router.Get("/metrics", api.GetMetrics)
	if opts.OpenAPI != nil {
		router.Method(http.MethodGet, "/api/v1/openapi.json", opts.OpenAPI)
	}

	auth := opts.Auth
	if auth == nil {
		auth = middleware.Anonymous()
	}

	// guard возвращает middleware проверки кнопки area/url.
	guard := func(url string) []func(http.Handler) http.Handler {
		if opts.Checker == nil {
			return nil
		}
		return []func(http.Handler) http.Handler{
			middleware.RequirePermission(opts.Checker, PermissionArea, url, logger),
		}
	}

	router.Group(func(r chi.Router) {
		r.Use(auth)

		r.Get("/api/v1/me", api.Me)
		r.Get("/api/v1/permissions/check", api.CheckPermission)
		r.Get("/api/v1/menus/tree", api.MenuTree)

		recordRoutes(r, "menus", api.Menus, guard)
		recordRoutes(r, "buttons", api.Buttons, guard)
		recordRoutes(r, "roles", api.Roles, guard)
		recordRoutes(r, "users", api.Users, guard)
		recordRoutes(r, "majors", api.Majors, guard)

		for _, subject := range []struct {
			path string
			kind permission.SubjectKind
		}{
			{"users", permission.SubjectUser},
			{"roles", permission.SubjectRole},
		} {
			base := "/api/v1/" + subject.path + "/{id}"
			r.Get(base+"/authorization-tree", api.AuthorizationTree(subject.kind))
			for _, res := range []struct {
				path string
				kind permission.ResourceKind
			}{
				{"menus", permission.ResourceMenu},
				{"buttons", permission.ResourceButton},
			} {
				permit := guard("/" + subject.path + "/permit")
				r.With(permit...).Put(base+"/"+res.path+"/{resourceId}", api.Assign(subject.kind, res.kind))
				r.With(permit...).Delete(base+"/"+res.path+"/{resourceId}", api.Unassign(subject.kind, res.kind))
			}
		}

		r.Get("/api/v1/users/{id}/roles", api.UserRoles)
		relate := guard("/users/relate")
		r.With(relate...).Put("/api/v1/users/{id}/roles/{roleId}", api.AddUserRole)
		r.With(relate...).Delete("/api/v1/users/{id}/roles/{roleId}", api.RemoveUserRole)

		r.Post("/api/v1/operation-logs/page", api.OperationLogPage)
		r.Get("/api/v1/operation-logs/{id}", api.GetOperationLog)
		r.Get("/api/v1/operation-logs/{id}/details", api.OperationLogDetails)
	})

	return router
}

// recordRoutes регистрирует маршруты жизненного цикла одного вида записей.
// URL кнопки — /{kind}/{действие}.
func recordRoutes[T any](r chi.Router, kind string, h *handlers.RecordHandler[T], guard func(url string) []func(http.Handler) http.Handler) {
	base := "/api/v1/" + kind
	action := func(name string) []func(http.Handler) http.Handler {
		return guard("/" + kind + "/" + name)
	}

	r.With(action("create")...).Post(base, h.Create)
	r.Post(base+"/page", h.Page)
	r.Get(base+"/{id}", h.Get)
	r.With(action("edit")...).Put(base+"/{id}", h.Update)
	r.With(action("delete")...).Post(base+"/{id}/delete", h.Delete)
	r.With(action("recovery")...).Post(base+"/{id}/recover", h.Recover)
	r.With(action("remove")...).Delete(base+"/{id}", h.Remove)
}

// Run запускает сервер и блокируется до отмены ctx или ошибки listener.
// После отмены выполняется graceful shutdown с cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Получен сигнал завершения")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
