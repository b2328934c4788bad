package repository

import (
	"context"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
)

// Store — адресуемая коллекция сущностей T с CRUD и выборкой по предикату.
// Удовлетворяет query.Source.
type Store[T any] interface {
	// Registry возвращает реестр полей сущности.
	Registry() *field.Registry[T]
	// Insert добавляет запись. Дубликат ключа — ErrConflict.
	Insert(ctx context.Context, e *T) error
	// Get возвращает запись по id или ErrNotFound.
	Get(ctx context.Context, id string) (*T, error)
	// Update перезаписывает запись, если её токен равен expectedStamp.
	// Иначе — ErrConcurrencyConflict (или ErrNotFound, если записи нет).
	Update(ctx context.Context, e *T, expectedStamp string) error
	// Delete физически удаляет запись с проверкой токена
	// (пустой expectedStamp — без проверки).
	Delete(ctx context.Context, id, expectedStamp string) error
	// DeleteWhere удаляет записи по условию и возвращает их количество.
	DeleteWhere(ctx context.Context, p query.Predicate) (int64, error)
	// List возвращает записи по условию; take < 0 — без ограничения.
	List(ctx context.Context, p query.Predicate, sorts []query.Sort, skip, take int) ([]*T, error)
	// CountLong возвращает количество записей по условию.
	CountLong(ctx context.Context, p query.Predicate) (int64, error)
	// Exists сообщает, есть ли хотя бы одна запись по условию.
	Exists(ctx context.Context, p query.Predicate) (bool, error)
	// InTx выполняет fn в одной транзакции хранилища.
	InTx(ctx context.Context, fn func(s Store[T]) error) error
}
