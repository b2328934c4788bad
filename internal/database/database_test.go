package database

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/goartstore/backoffice-module/internal/config"
)

// setupTestDB запускает PostgreSQL в Docker-контейнере через testcontainers.
// Возвращает конфиг и функцию для очистки.
func setupTestDB(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("backoffice_test"),
		postgres.WithUsername("backoffice"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("BO_DB_HOST", host)
	t.Setenv("BO_DB_PORT", port.Port())
	t.Setenv("BO_DB_NAME", "backoffice_test")
	t.Setenv("BO_DB_USER", "backoffice")
	t.Setenv("BO_DB_PASSWORD", "test-password")
	t.Setenv("BO_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	return cfg
}

// TestConnect проверяет подключение к PostgreSQL через pgxpool.
func TestConnect(t *testing.T) {
	cfg := setupTestDB(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	// Проверяем ping
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("pool.Ping() вернул ошибку: %v", err)
	}
}

// TestMigrate проверяет применение миграций.
func TestMigrate(t *testing.T) {
	cfg := setupTestDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate() вернул ошибку: %v", err)
	}

	// Повторное применение — должно быть без ошибки (ErrNoChange)
	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Повторный Migrate() вернул ошибку: %v", err)
	}

	// Проверяем, что таблицы созданы
	ctx := context.Background()
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	tables := []string{
		"menus", "buttons", "roles", "users", "majors",
		"operation_logs", "operation_log_details",
		"user_menus", "user_buttons", "role_menus", "role_buttons", "user_roles",
	}

	for _, table := range tables {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			t.Fatalf("Ошибка проверки таблицы %s: %v", table, err)
		}
		if !exists {
			t.Errorf("Таблица %s не создана", table)
		}
	}
}

// TestReadinessChecker: после Open схема актуальна, без миграций
// таблицы schema_migrations нет и проверка падает.
func TestReadinessChecker(t *testing.T) {
	cfg := setupTestDB(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	bare, err := Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer bare.Close()
	if status, msg := NewReadinessChecker(bare).CheckReady(); status != "fail" {
		t.Errorf("до миграций CheckReady() = (%q, %q), ожидали fail", status, msg)
	}

	pool, err := Open(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Open() вернул ошибку: %v", err)
	}
	defer pool.Close()

	status, msg := NewReadinessChecker(pool).CheckReady()
	if status != "ok" || msg != "схема 1" {
		t.Errorf("CheckReady() = (%q, %q), ожидали (ok, схема 1)", status, msg)
	}
}

func TestSchemaVersion(t *testing.T) {
	v, err := SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 1 {
		t.Errorf("SchemaVersion() = %d, ожидали 1", v)
	}
}

func TestSchemaStatus(t *testing.T) {
	tests := []struct {
		name       string
		version    uint
		dirty      bool
		want       uint
		wantStatus string
		wantMsg    string
	}{
		{"актуальна", 3, false, 3, "ok", "схема 3"},
		{"новее встроенной", 4, false, 3, "ok", "схема 4"},
		{"отстаёт", 2, false, 3, "degraded", "схема 2, ожидается 3"},
		{"dirty", 3, true, 3, "fail", "миграция 3 прервана (dirty)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := schemaStatus(tt.version, tt.dirty, tt.want)
			if status != tt.wantStatus || msg != tt.wantMsg {
				t.Errorf("schemaStatus() = (%q, %q), ожидали (%q, %q)",
					status, msg, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}

func TestMigrateURL(t *testing.T) {
	cfg := &config.Config{
		DBHost: "db", DBPort: 5432, DBName: "backoffice",
		DBUser: "bo", DBPassword: "p@ss/word", DBSSLMode: "require",
	}
	want := "pgx5://bo:p%40ss%2Fword@db:5432/backoffice?sslmode=require"
	if got := migrateURL(cfg); got != want {
		t.Errorf("migrateURL() = %q, ожидали %q", got, want)
	}
}
