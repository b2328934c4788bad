// records.go — обобщённый сервис записи: нормализация и проверка перед
// мутацией, затем вызов репозитория жизненного цикла.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
)

// prepareFunc нормализует и проверяет сущность перед сохранением.
// existing — сохранённая версия при Update, nil при Create/Import.
type prepareFunc[T any] func(ctx context.Context, e *T, existing *T) error

// afterUpdateFunc выполняет последствия изменения записи, например
// перенос поддерева. existing — версия до изменения.
type afterUpdateFunc[T any] func(ctx context.Context, actor model.Actor, e *T, existing *T) error

// Records — сервис записей типа T.
type Records[T any] struct {
	repo        *repository.Repository[T]
	prepare     prepareFunc[T]
	afterUpdate afterUpdateFunc[T]
	logger      *slog.Logger
}

func newRecords[T any](repo *repository.Repository[T], prepare prepareFunc[T], logger *slog.Logger) *Records[T] {
	return &Records[T]{
		repo:    repo,
		prepare: prepare,
		logger:  logger.With(slog.String("component", "service"), slog.String("entity", repo.Registry().Entity())),
	}
}

// Repository возвращает репозиторий записей.
func (s *Records[T]) Repository() *repository.Repository[T] { return s.repo }

// Get возвращает запись по ID.
func (s *Records[T]) Get(ctx context.Context, id string) (*T, error) {
	return s.repo.FindByID(ctx, id)
}

// Page — постраничная выборка.
func (s *Records[T]) Page(ctx context.Context, req query.Request) (*query.Page[T], error) {
	return s.repo.Paginate(ctx, req)
}

// Create проверяет и создаёт запись.
func (s *Records[T]) Create(ctx context.Context, actor model.Actor, e *T) error {
	if err := s.prepare(ctx, e, nil); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, actor, e); err != nil {
		return err
	}
	s.logger.Info("Запись создана", slog.String("id", s.repo.Registry().Record(e).ID))
	return nil
}

// Import — Create с видом операции Import.
func (s *Records[T]) Import(ctx context.Context, actor model.Actor, e *T) error {
	if err := s.prepare(ctx, e, nil); err != nil {
		return err
	}
	return s.repo.Import(ctx, actor, e)
}

// Update проверяет и перезаписывает запись.
func (s *Records[T]) Update(ctx context.Context, actor model.Actor, e *T) error {
	id := s.repo.Registry().Record(e).ID
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.prepare(ctx, e, existing); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, actor, e); err != nil {
		return err
	}
	s.logger.Info("Запись обновлена", slog.String("id", id))
	if s.afterUpdate != nil {
		return s.afterUpdate(ctx, actor, e, existing)
	}
	return nil
}

// Delete помечает запись удалённой. stamp — токен, который видел клиент.
func (s *Records[T]) Delete(ctx context.Context, actor model.Actor, id, stamp string) (*T, error) {
	return s.transition(ctx, id, stamp, func(e *T) error { return s.repo.Delete(ctx, actor, e) })
}

// Recover снимает пометку удаления.
func (s *Records[T]) Recover(ctx context.Context, actor model.Actor, id, stamp string) (*T, error) {
	return s.transition(ctx, id, stamp, func(e *T) error { return s.repo.Recover(ctx, actor, e) })
}

// Remove физически удаляет помеченную удалённой запись.
func (s *Records[T]) Remove(ctx context.Context, actor model.Actor, id, stamp string) error {
	_, err := s.transition(ctx, id, stamp, func(e *T) error { return s.repo.Remove(ctx, actor, e) })
	return err
}

// transition загружает запись, подставляет токен клиента и выполняет fn.
// Без токена переход не выполняется: иначе проверка параллельного
// доступа сравнивала бы сохранённый токен сам с собой.
func (s *Records[T]) transition(ctx context.Context, id, stamp string, fn func(e *T) error) (*T, error) {
	if err := required("concurrencyStamp", stamp); err != nil {
		return nil, err
	}
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.repo.Registry().Record(e).ConcurrencyStamp = stamp
	if err := fn(e); err != nil {
		return nil, err
	}
	return e, nil
}

// unique проверяет, что значение поля не занято другой записью.
func unique[T any](ctx context.Context, repo *repository.Repository[T], id, fieldName string, value any, label string) error {
	taken, err := repo.Exists(ctx, query.AllOf(
		query.Where(fieldName, value),
		query.Not{P: query.Where("id", id)},
	))
	if err != nil {
		return fmt.Errorf("ошибка проверки уникальности %s: %w", label, err)
	}
	if taken {
		return invalid(label, "значение уже используется")
	}
	return nil
}

func required(field, value string) error {
	if value == "" {
		return invalid(field, "обязательное поле")
	}
	return nil
}
