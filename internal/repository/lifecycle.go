// lifecycle.go — обобщённый жизненный цикл записи поверх Store[T]:
// create/import/update/delete/recover/remove с оптимистичной блокировкой
// и записью журнала изменений после фиксации основной транзакции.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
)

// AuditWriter — получатель снимков для журнала изменений.
// Ошибки записи журнала не возвращаются: мутация к этому моменту уже
// зафиксирована.
type AuditWriter interface {
	WriteForCreate(ctx context.Context, actor model.Actor, entity field.Snapshot, kind model.OperationKind)
	WriteForUpdate(ctx context.Context, actor model.Actor, entity, owner field.Snapshot, kind model.OperationKind)
	WriteForRemove(ctx context.Context, actor model.Actor, entity field.Snapshot)
}

// Repository — репозиторий записей типа T.
// Состояния записи: активна → удалена (Delete), удалена → активна
// (Recover), удалена → уничтожена (Remove).
type Repository[T any] struct {
	store  Store[T]
	reg    *field.Registry[T]
	audit  AuditWriter
	logger *slog.Logger

	now   func() time.Time
	newID func() string

	// onChange вызываются после каждой успешной мутации.
	onChange []func()
}

// NewRepository создаёт репозиторий над хранилищем.
// Реестр хранилища должен описывать сущность, встраивающую model.Record.
func NewRepository[T any](store Store[T], audit AuditWriter, logger *slog.Logger) *Repository[T] {
	reg := store.Registry()
	return &Repository[T]{
		store:  store,
		reg:    reg,
		audit:  audit,
		logger: logger.With(slog.String("component", "repository"), slog.String("entity", reg.Entity())),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

// Registry возвращает реестр полей сущности.
func (r *Repository[T]) Registry() *field.Registry[T] { return r.reg }

// Store возвращает нижележащее хранилище.
func (r *Repository[T]) Store() Store[T] { return r.store }

// OnChange регистрирует fn, вызываемую после каждой успешной мутации
// (create, import, update, delete, recover, remove). Регистрировать
// нужно при сборке, до первых вызовов репозитория.
func (r *Repository[T]) OnChange(fn func()) {
	r.onChange = append(r.onChange, fn)
}

func (r *Repository[T]) notify(err *error) {
	if *err != nil {
		return
	}
	for _, fn := range r.onChange {
		fn()
	}
}

// Create сохраняет новую запись. Пустой ID заполняется новым UUID,
// токен параллельного доступа выдаётся всегда заново.
// При ошибке e остаётся в исходном состоянии.
func (r *Repository[T]) Create(ctx context.Context, actor model.Actor, e *T) error {
	return r.insert(ctx, actor, e, model.OperationCreate)
}

// Import — Create с видом операции Import в журнале.
func (r *Repository[T]) Import(ctx context.Context, actor model.Actor, e *T) error {
	return r.insert(ctx, actor, e, model.OperationImport)
}

// Update перезаписывает запись. Токен e должен совпадать с сохранённым.
// Признак удаления и штамп создания берутся из сохранённой записи.
func (r *Repository[T]) Update(ctx context.Context, actor model.Actor, e *T) error {
	return r.mutate(ctx, actor, e, model.OperationUpdate)
}

// Delete помечает запись удалённой. Повторное удаление — ErrAlreadyDeleted.
func (r *Repository[T]) Delete(ctx context.Context, actor model.Actor, e *T) error {
	return r.mutate(ctx, actor, e, model.OperationDelete)
}

// Recover снимает пометку удаления. Для активной записи — ErrNotDeleted.
func (r *Repository[T]) Recover(ctx context.Context, actor model.Actor, e *T) error {
	return r.mutate(ctx, actor, e, model.OperationRecovery)
}

// Remove физически удаляет запись. Допустимо только для помеченной
// удалённой записи, иначе — ErrNotDeleted.
func (r *Repository[T]) Remove(ctx context.Context, actor model.Actor, e *T) (err error) {
	defer r.observe(model.OperationRemove, &err)
	defer r.notify(&err)

	rec, err := r.record(e)
	if err != nil {
		return err
	}
	if !rec.IsDeleted {
		return fmt.Errorf("%s %s: %w", r.reg.Entity(), rec.ID, ErrNotDeleted)
	}

	var owner *T
	err = r.store.InTx(ctx, func(s Store[T]) error {
		stored, err := s.Get(ctx, rec.ID)
		if err != nil {
			return err
		}
		if !r.reg.Record(stored).IsDeleted {
			return ErrNotDeleted
		}
		if err := s.Delete(ctx, rec.ID, rec.ConcurrencyStamp); err != nil {
			return err
		}
		owner = stored
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.reg.Entity(), rec.ID, err)
	}

	r.logger.Debug("Запись уничтожена", slog.String("id", rec.ID))
	if r.audit != nil {
		r.audit.WriteForRemove(ctx, actor, r.reg.Snapshot(owner))
	}
	return nil
}

func (r *Repository[T]) insert(ctx context.Context, actor model.Actor, e *T, kind model.OperationKind) (err error) {
	defer r.observe(kind, &err)
	defer r.notify(&err)

	rec, err := r.record(e)
	if err != nil {
		return err
	}
	saved := *rec

	if rec.ID == "" {
		rec.ID = r.newID()
	}
	rec.ConcurrencyStamp = r.newID()
	rec.IsDeleted = false
	rec.StampCreate(actor, r.now())
	rec.UpdatedBy, rec.UpdatedByName, rec.UpdatedAt = nil, nil, nil

	err = r.store.InTx(ctx, func(s Store[T]) error {
		return s.Insert(ctx, e)
	})
	if err != nil {
		*rec = saved
		return fmt.Errorf("%s: ошибка создания: %w", r.reg.Entity(), err)
	}

	if r.audit != nil {
		r.audit.WriteForCreate(ctx, actor, r.reg.Snapshot(e), kind)
	}
	return nil
}

// mutate — общая часть Update/Delete/Recover: проверка существования,
// токена и перехода состояния, выпуск нового токена, запись и журнал.
func (r *Repository[T]) mutate(ctx context.Context, actor model.Actor, e *T, kind model.OperationKind) (err error) {
	defer r.observe(kind, &err)
	defer r.notify(&err)

	rec, err := r.record(e)
	if err != nil {
		return err
	}
	saved := *rec

	var owner *T
	err = r.store.InTx(ctx, func(s Store[T]) error {
		stored, err := s.Get(ctx, rec.ID)
		if err != nil {
			return err
		}
		storedRec := r.reg.Record(stored)
		if storedRec.ConcurrencyStamp != rec.ConcurrencyStamp {
			return ErrConcurrencyConflict
		}

		switch kind {
		case model.OperationDelete:
			if storedRec.IsDeleted {
				return ErrAlreadyDeleted
			}
			rec.IsDeleted = true
		case model.OperationRecovery:
			if !storedRec.IsDeleted {
				return ErrNotDeleted
			}
			rec.IsDeleted = false
		default:
			rec.IsDeleted = storedRec.IsDeleted
		}

		rec.CreatedBy = storedRec.CreatedBy
		rec.CreatedByName = storedRec.CreatedByName
		rec.CreatedAt = storedRec.CreatedAt

		expected := rec.ConcurrencyStamp
		rec.ConcurrencyStamp = r.newID()
		rec.StampUpdate(actor, r.now())

		if err := s.Update(ctx, e, expected); err != nil {
			return err
		}
		owner = stored
		return nil
	})
	if err != nil {
		*rec = saved
		return fmt.Errorf("%s %s: %w", r.reg.Entity(), rec.ID, err)
	}

	if r.audit != nil {
		r.audit.WriteForUpdate(ctx, actor, r.reg.Snapshot(e), r.reg.Snapshot(owner), kind)
	}
	return nil
}

func (r *Repository[T]) record(e *T) (*model.Record, error) {
	if e == nil {
		return nil, fmt.Errorf("%s: пустая сущность", r.reg.Entity())
	}
	rec := r.reg.Record(e)
	if rec == nil {
		return nil, fmt.Errorf("%s: сущность не является записью", r.reg.Entity())
	}
	return rec, nil
}

// --- Чтение ---

// FindByID возвращает запись по ID или ErrNotFound.
func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	e, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.reg.Entity(), id, err)
	}
	return e, nil
}

// FindOne возвращает первую запись по условию и сортировке
// (по умолчанию — по id) или ErrNotFound.
func (r *Repository[T]) FindOne(ctx context.Context, p query.Predicate, sorts ...query.Sort) (*T, error) {
	rows, err := r.store.List(ctx, p, r.sorts(sorts), 0, 1)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка поиска: %w", r.reg.Entity(), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", r.reg.Entity(), ErrNotFound)
	}
	return rows[0], nil
}

// FindMany возвращает все записи по условию; без сортировки — по id.
func (r *Repository[T]) FindMany(ctx context.Context, p query.Predicate, sorts ...query.Sort) ([]*T, error) {
	rows, err := r.store.List(ctx, p, r.sorts(sorts), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка выборки: %w", r.reg.Entity(), err)
	}
	return rows, nil
}

// Exists сообщает, есть ли записи по условию.
func (r *Repository[T]) Exists(ctx context.Context, p query.Predicate) (bool, error) {
	return r.store.Exists(ctx, p)
}

// Count — количество записей по условию.
func (r *Repository[T]) Count(ctx context.Context, p query.Predicate) (int, error) {
	n, err := r.store.CountLong(ctx, p)
	return int(n), err
}

// CountLong — количество записей по условию (int64).
func (r *Repository[T]) CountLong(ctx context.Context, p query.Predicate) (int64, error) {
	return r.store.CountLong(ctx, p)
}

// Paginate — постраничная выборка через query.Paginate.
func (r *Repository[T]) Paginate(ctx context.Context, req query.Request) (*query.Page[T], error) {
	return query.Paginate(ctx, r.store, req)
}

func (r *Repository[T]) sorts(sorts []query.Sort) []query.Sort {
	if len(sorts) == 0 {
		return []query.Sort{query.Ascending("id")}
	}
	return sorts
}
