// records.go — обобщённые обработчики жизненного цикла записей:
// создание, чтение, изменение, пометка удаления, восстановление,
// окончательное удаление и постраничная выборка в формате DataTables.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/backoffice-module/internal/api/errors"
	"github.com/bigkaa/goartstore/backoffice-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/service"
)

// RecordHandler — обработчики /api/v1/{kind} для одного вида записей.
type RecordHandler[T any] struct {
	svc         *service.Records[T]
	reg         *field.Registry[T]
	maxPageSize int
	logger      *slog.Logger
}

// NewRecordHandler создаёт обработчики для сервиса записей.
func NewRecordHandler[T any](svc *service.Records[T], maxPageSize int, logger *slog.Logger) *RecordHandler[T] {
	reg := svc.Repository().Registry()
	return &RecordHandler[T]{
		svc:         svc,
		reg:         reg,
		maxPageSize: maxPageSize,
		logger:      logger.With(slog.String("entity", reg.Entity())),
	}
}

func (h *RecordHandler[T]) fail(w http.ResponseWriter, err error) {
	apierrors.FromError(w, h.logger, err)
}

// Create — POST /api/v1/{kind}.
func (h *RecordHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	e := new(T)
	if !decodeJSON(w, r, e) {
		return
	}
	// Идентификатор назначает сервер.
	h.reg.Record(e).ID = ""

	if err := h.svc.Create(r.Context(), middleware.ActorFromContext(r.Context()), e); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// Get — GET /api/v1/{kind}/{id}.
func (h *RecordHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Update — PUT /api/v1/{kind}/{id}. Тело несёт concurrencyStamp,
// прочитанный клиентом.
func (h *RecordHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e := new(T)
	if !decodeJSON(w, r, e) {
		return
	}
	rec := h.reg.Record(e)
	rec.ID = id
	if rec.ConcurrencyStamp == "" {
		apierrors.ValidationError(w, "Не указан concurrencyStamp")
		return
	}

	if err := h.svc.Update(r.Context(), middleware.ActorFromContext(r.Context()), e); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Delete — POST /api/v1/{kind}/{id}/delete (пометка удаления).
func (h *RecordHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Delete)
}

// Recover — POST /api/v1/{kind}/{id}/recover.
func (h *RecordHandler[T]) Recover(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Recover)
}

type transitionFunc[T any] func(ctx context.Context, actor model.Actor, id, stamp string) (*T, error)

func (h *RecordHandler[T]) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc[T]) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stamp, ok := queryStamp(w, r)
	if !ok {
		return
	}
	e, err := fn(r.Context(), middleware.ActorFromContext(r.Context()), id, stamp)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Remove — DELETE /api/v1/{kind}/{id}. Удаляет только помеченную запись.
func (h *RecordHandler[T]) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stamp, ok := queryStamp(w, r)
	if !ok {
		return
	}
	if err := h.svc.Remove(r.Context(), middleware.ActorFromContext(r.Context()), id, stamp); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Page — POST /api/v1/{kind}/page.
func (h *RecordHandler[T]) Page(w http.ResponseWriter, r *http.Request) {
	var dt query.DataTableRequest
	if !decodeJSON(w, r, &dt) {
		return
	}
	page, err := h.svc.Page(r.Context(), pageRequest(dt, h.maxPageSize))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, query.NewDataTableResult(dt.Draw, page))
}
