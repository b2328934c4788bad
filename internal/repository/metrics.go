// metrics.go — Prometheus метрики операций над записями.
package repository

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
)

// recordOperationsTotal — количество мутаций по сущности, виду и результату.
var recordOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bo_record_operations_total",
		Help: "Количество операций над записями Backoffice Module",
	},
	[]string{"entity", "operation", "result"},
)

// observe учитывает результат мутации. Вызывается через defer с указателем
// на именованную ошибку.
func (r *Repository[T]) observe(kind model.OperationKind, err *error) {
	recordOperationsTotal.WithLabelValues(r.reg.Entity(), string(kind), resultLabel(*err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrAlreadyDeleted):
		return "already_deleted"
	case errors.Is(err, ErrNotDeleted):
		return "not_deleted"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
