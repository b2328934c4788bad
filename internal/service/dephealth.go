// Мониторинг зависимостей backoffice-module через topologymetrics:
// PostgreSQL (через пул соединений) и JWKS провайдера токенов.
// Метрики app_dependency_* публикуются на /metrics.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
)

// MonitorConfig — набор зависимостей для DependencyMonitor.
type MonitorConfig struct {
	ServiceID string
	Group     string
	// DB — *sql.DB поверх pgxpool (stdlib.OpenDBFromPool).
	DB *sql.DB
	// DatabaseURL идёт только в лейблы метрик.
	DatabaseURL string
	// JWKSURL пуст, если аутентификация выключена.
	JWKSURL  string
	Interval time.Duration
}

// DependencyMonitor периодически проверяет зависимости и отдаёт
// их состояние в readiness.
type DependencyMonitor struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDependencyMonitor собирает монитор. opts дополняют набор
// (например, dephealth.WithRegisterer в тестах).
func NewDependencyMonitor(cfg MonitorConfig, logger *slog.Logger, opts ...dephealth.Option) (*DependencyMonitor, error) {
	all := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(cfg.DB)),
			dephealth.FromURL(cfg.DatabaseURL),
			dephealth.CheckInterval(cfg.Interval),
			dephealth.Critical(true),
		),
	}
	if cfg.JWKSURL != "" {
		all = append(all, dephealth.HTTP("jwks",
			dephealth.FromURL(cfg.JWKSURL),
			dephealth.WithHTTPHealthPath(jwksHealthPath(cfg.JWKSURL)),
			dephealth.CheckInterval(cfg.Interval),
			dephealth.Critical(true),
		))
	}
	all = append(all, opts...)

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, all...)
	if err != nil {
		return nil, fmt.Errorf("ошибка настройки topologymetrics: %w", err)
	}
	return &DependencyMonitor{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// jwksHealthPath — путь, по которому проверяется JWKS. Проверяется сам
// набор ключей: отдельного /health у провайдера может не быть.
func jwksHealthPath(jwksURL string) string {
	u, err := url.Parse(jwksURL)
	if err != nil || u.Path == "" {
		return "/health"
	}
	return u.Path
}

// Start запускает периодические проверки.
func (m *DependencyMonitor) Start(ctx context.Context) error {
	if err := m.dh.Start(ctx); err != nil {
		return err
	}
	m.logger.Info("Мониторинг зависимостей запущен")
	return nil
}

// Stop останавливает проверки.
func (m *DependencyMonitor) Stop() {
	m.dh.Stop()
	m.logger.Info("Мониторинг зависимостей остановлен")
}

// CheckReady реализует handlers.ReadinessChecker. PostgreSQL проверяется
// отдельным checker'ом, поэтому здесь недоступная зависимость даёт
// только degraded.
func (m *DependencyMonitor) CheckReady() (string, string) {
	return dependencyReadiness(m.dh.HealthDetails())
}

func dependencyReadiness(details map[string]dephealth.EndpointStatus) (string, string) {
	if len(details) == 0 {
		return "ok", "проверки ещё не выполнялись"
	}
	var down []string
	for _, st := range details {
		if st.Healthy != nil && !*st.Healthy {
			down = append(down, st.Name)
		}
	}
	if len(down) == 0 {
		return "ok", fmt.Sprintf("зависимостей: %d", len(details))
	}
	slices.Sort(down)
	return "degraded", "недоступны: " + strings.Join(slices.Compact(down), ", ")
}
