package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
)

// MemStore — хранилище Store[T] в памяти процесса.
// Используется в тестах и при BO_STORE=memory. Хранит копии сущностей,
// предикаты вычисляются через query.Match по реестру полей.
type MemStore[T any] struct {
	reg *field.Registry[T]

	// txMu сериализует транзакции InTx между собой.
	txMu sync.Mutex

	mu    sync.RWMutex
	rows  map[string]*T
	order []string
}

// NewMemStore создаёт пустое хранилище в памяти.
func NewMemStore[T any](reg *field.Registry[T]) *MemStore[T] {
	return &MemStore[T]{reg: reg, rows: make(map[string]*T)}
}

func (s *MemStore[T]) Registry() *field.Registry[T] { return s.reg }

func (s *MemStore[T]) Insert(_ context.Context, e *T) error {
	key := s.keyOf(e)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[key]; ok {
		return fmt.Errorf("%w: %s %s", ErrConflict, s.reg.Table(), key)
	}
	s.rows[key] = s.reg.Clone(e)
	s.order = append(s.order, key)
	return nil
}

func (s *MemStore[T]) Get(_ context.Context, id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.reg.Clone(e), nil
}

func (s *MemStore[T]) Update(_ context.Context, e *T, expectedStamp string) error {
	rec := s.reg.Record(e)
	if rec == nil {
		return fmt.Errorf("%s: обновление поддерживается только для записей", s.reg.Entity())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rows[rec.ID]
	if !ok {
		return ErrNotFound
	}
	if s.reg.Record(stored).ConcurrencyStamp != expectedStamp {
		return ErrConcurrencyConflict
	}
	s.rows[rec.ID] = s.reg.Clone(e)
	return nil
}

func (s *MemStore[T]) Delete(_ context.Context, id, expectedStamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	if rec := s.reg.Record(stored); expectedStamp != "" && rec != nil && rec.ConcurrencyStamp != expectedStamp {
		return ErrConcurrencyConflict
	}
	s.remove(id)
	return nil
}

func (s *MemStore[T]) DeleteWhere(_ context.Context, p query.Predicate) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("%s: удаление без условия запрещено", s.reg.Table())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var victims []string
	for _, key := range s.order {
		ok, err := query.Match(s.reg, p, s.rows[key])
		if err != nil {
			return 0, err
		}
		if ok {
			victims = append(victims, key)
		}
	}
	for _, key := range victims {
		s.remove(key)
	}
	return int64(len(victims)), nil
}

func (s *MemStore[T]) List(_ context.Context, p query.Predicate, sorts []query.Sort, skip, take int) ([]*T, error) {
	rows, err := s.match(p)
	if err != nil {
		return nil, err
	}
	if err := query.SortRows(s.reg, rows, sorts); err != nil {
		return nil, err
	}

	if skip > 0 {
		if skip >= len(rows) {
			return []*T{}, nil
		}
		rows = rows[skip:]
	}
	if take >= 0 && take < len(rows) {
		rows = rows[:take]
	}
	return rows, nil
}

func (s *MemStore[T]) CountLong(_ context.Context, p query.Predicate) (int64, error) {
	rows, err := s.match(p)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (s *MemStore[T]) Exists(ctx context.Context, p query.Predicate) (bool, error) {
	n, err := s.CountLong(ctx, p)
	return n > 0, err
}

// InTx выполняет fn, не допуская параллельных транзакций.
// Откат не поддерживается: изменения, сделанные fn до ошибки, остаются.
func (s *MemStore[T]) InTx(_ context.Context, fn func(s Store[T]) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(memTx[T]{s})
}

// match возвращает копии строк, удовлетворяющих p, в порядке вставки.
func (s *MemStore[T]) match(p query.Predicate) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*T, 0, len(s.order))
	for _, key := range s.order {
		e := s.rows[key]
		ok, err := query.Match(s.reg, p, e)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, s.reg.Clone(e))
		}
	}
	return rows, nil
}

func (s *MemStore[T]) remove(key string) {
	delete(s.rows, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
}

// keyOf склеивает значения ключевых полей в строку.
func (s *MemStore[T]) keyOf(e *T) string {
	vals := s.reg.KeyOf(e)
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\x00")
}

// memTx — вид хранилища внутри InTx; вложенный InTx выполняется сразу.
type memTx[T any] struct {
	*MemStore[T]
}

func (t memTx[T]) InTx(_ context.Context, fn func(s Store[T]) error) error {
	return fn(t)
}
