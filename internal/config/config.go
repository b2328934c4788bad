// Пакет config — загрузка и валидация конфигурации Backoffice Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Виды хранилища записей.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config содержит все параметры конфигурации Backoffice Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8000-8099)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Верхняя граница размера страницы (take) на HTTP-границе
	MaxPageSize int

	// --- Хранилище ---

	// Вид хранилища: postgres или memory
	Store string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- JWT ---

	// URL JWKS endpoint; пустое значение отключает аутентификацию
	JWTJWKSURL string
	// Ожидаемый issuer (опционально)
	JWTIssuer string
	// Допуск рассинхронизации часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Интервал обновления ключей JWKS
	JWKSRefreshInterval time.Duration
	// Роли администратора (полный доступ без проверки назначений)
	AdminRoles []string

	// --- Кэш проверок прав ---

	// Размер LRU-кэша; 0 отключает кэш
	PermissionCacheSize int
	// Время жизни записи кэша
	PermissionCacheTTL time.Duration

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// BO_PORT — порт HTTP-сервера (по умолчанию 8010)
	cfg.Port, err = getEnvInt("BO_PORT", 8010)
	if err != nil {
		return nil, fmt.Errorf("BO_PORT: %w", err)
	}
	if cfg.Port < 8000 || cfg.Port > 8099 {
		return nil, fmt.Errorf("BO_PORT: значение %d вне допустимого диапазона 8000-8099", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("BO_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("BO_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("BO_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("BO_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.MaxPageSize, err = getEnvInt("BO_MAX_PAGE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("BO_MAX_PAGE_SIZE: %w", err)
	}
	if cfg.MaxPageSize < 1 {
		return nil, fmt.Errorf("BO_MAX_PAGE_SIZE: значение %d должно быть положительным", cfg.MaxPageSize)
	}

	// --- Хранилище ---

	cfg.Store = strings.ToLower(getEnvDefault("BO_STORE", StorePostgres))
	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("BO_STORE: недопустимое значение %q, допустимые: postgres, memory", cfg.Store)
	}

	// --- PostgreSQL ---

	cfg.DBPort, err = getEnvInt("BO_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("BO_DB_PORT: %w", err)
	}

	cfg.DBSSLMode = getEnvDefault("BO_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("BO_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// Реквизиты БД обязательны только для хранилища postgres.
	if cfg.Store == StorePostgres {
		for _, v := range []struct {
			key string
			dst *string
		}{
			{"BO_DB_HOST", &cfg.DBHost},
			{"BO_DB_NAME", &cfg.DBName},
			{"BO_DB_USER", &cfg.DBUser},
			{"BO_DB_PASSWORD", &cfg.DBPassword},
		} {
			if *v.dst, err = getEnvRequired(v.key); err != nil {
				return nil, err
			}
		}
	}

	// --- JWT ---

	cfg.JWTJWKSURL = strings.TrimSpace(os.Getenv("BO_JWT_JWKS_URL"))
	cfg.JWTIssuer = os.Getenv("BO_JWT_ISSUER")

	cfg.JWTLeeway, err = getEnvDuration("BO_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BO_JWT_LEEWAY: %w", err)
	}

	cfg.JWKSRefreshInterval, err = getEnvDuration("BO_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("BO_JWKS_REFRESH_INTERVAL: %w", err)
	}

	cfg.AdminRoles = parseCSV(getEnvDefault("BO_ADMIN_ROLES", "administrator"))

	// --- Кэш проверок прав ---

	cfg.PermissionCacheSize, err = getEnvInt("BO_PERMISSION_CACHE_SIZE", 10000)
	if err != nil {
		return nil, fmt.Errorf("BO_PERMISSION_CACHE_SIZE: %w", err)
	}
	if cfg.PermissionCacheSize < 0 {
		return nil, fmt.Errorf("BO_PERMISSION_CACHE_SIZE: значение %d не может быть отрицательным", cfg.PermissionCacheSize)
	}

	cfg.PermissionCacheTTL, err = getEnvDuration("BO_PERMISSION_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BO_PERMISSION_CACHE_TTL: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("BO_DEPHEALTH_GROUP", "backoffice")

	cfg.DephealthCheckInterval, err = getEnvDuration("BO_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BO_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("BO_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BO_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// AuthEnabled сообщает, включена ли проверка JWT.
func (c *Config) AuthEnabled() bool {
	return c.JWTJWKSURL != ""
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для логов и topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
