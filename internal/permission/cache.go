// cache.go — LRU-кэш результатов проверки прав с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package permission

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bo_permission_cache_hits_total",
		Help: "Общее количество попаданий в кэш проверок прав.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bo_permission_cache_misses_total",
		Help: "Общее количество промахов кэша проверок прав.",
	})
)

// Cache — кэш ответов HasMenuPermission/HasButtonPermission.
// Ключ — вид субъекта, субъект, вид ресурса и нормализованные координаты.
// Любое назначение или снятие права, как и любая мутация меню или
// кнопок, очищает кэш целиком.
type Cache struct {
	lru *expirable.LRU[string, bool]
}

// NewCache создаёт кэш на size записей с временем жизни ttl.
// size <= 0 отключает кэширование: NewCache возвращает nil.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		return nil
	}
	return &Cache{lru: expirable.NewLRU[string, bool](size, nil, ttl)}
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// Get возвращает закэшированный ответ. Безопасен для nil.
func (c *Cache) Get(key string) (allowed, ok bool) {
	if c == nil {
		return false, false
	}
	allowed, ok = c.lru.Get(key)
	if ok {
		cacheHitsTotal.Inc()
	} else {
		cacheMissesTotal.Inc()
	}
	return allowed, ok
}

// Set сохраняет ответ.
func (c *Cache) Set(key string, allowed bool) {
	if c == nil {
		return
	}
	c.lru.Add(key, allowed)
}

// Purge очищает кэш.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}
