package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
)

// pgStore — реализация Store[T] для PostgreSQL.
// SQL строится из реестра полей: столбцы — только из реестра,
// значения — только параметрами.
type pgStore[T any] struct {
	db      DBTX
	reg     *field.Registry[T]
	columns string
}

// NewPgStore создаёт хранилище сущности T в таблице reg.Table().
func NewPgStore[T any](db DBTX, reg *field.Registry[T]) Store[T] {
	cols := make([]string, len(reg.Fields()))
	for i, f := range reg.Fields() {
		cols[i] = f.Column
	}
	return &pgStore[T]{db: db, reg: reg, columns: strings.Join(cols, ", ")}
}

func (s *pgStore[T]) Registry() *field.Registry[T] { return s.reg }

func (s *pgStore[T]) Insert(ctx context.Context, e *T) error {
	fields := s.reg.Fields()
	phs := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		phs[i] = fmt.Sprintf("$%d", i+1)
		args[i] = f.Value(e)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		s.reg.Table(), s.columns, strings.Join(phs, ", "))

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка вставки в %s: %w", s.reg.Table(), mapPgError(err))
	}
	return nil
}

func (s *pgStore[T]) Get(ctx context.Context, id string) (*T, error) {
	idField, err := s.idField()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, s.columns, s.reg.Table(), idField.Column)

	e := new(T)
	if err := s.db.QueryRow(ctx, query, id).Scan(s.scanDest(e)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи %s: %w", s.reg.Table(), err)
	}
	return e, nil
}

func (s *pgStore[T]) Update(ctx context.Context, e *T, expectedStamp string) error {
	rec := s.reg.Record(e)
	if rec == nil {
		return fmt.Errorf("%s: обновление поддерживается только для записей", s.reg.Entity())
	}

	var (
		sets []string
		args []any
	)
	for _, f := range s.reg.Fields() {
		if f.Name == "id" {
			continue
		}
		args = append(args, f.Value(e))
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Column, len(args)))
	}
	args = append(args, rec.ID, expectedStamp)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d AND concurrency_stamp = $%d`,
		s.reg.Table(), strings.Join(sets, ", "), len(args)-1, len(args))

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления %s: %w", s.reg.Table(), mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return s.missOrConflict(ctx, rec.ID)
	}
	return nil
}

func (s *pgStore[T]) Delete(ctx context.Context, id, expectedStamp string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.reg.Table())
	args := []any{id}
	if expectedStamp != "" {
		query += ` AND concurrency_stamp = $2`
		args = append(args, expectedStamp)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка удаления из %s: %w", s.reg.Table(), mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return s.missOrConflict(ctx, id)
	}
	return nil
}

func (s *pgStore[T]) DeleteWhere(ctx context.Context, p query.Predicate) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("%s: удаление без условия запрещено", s.reg.Table())
	}
	where, err := query.Compile(s.reg, p, 1)
	if err != nil {
		return 0, err
	}
	tag, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s`, s.reg.Table(), where.Where), where.Args...)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления из %s: %w", s.reg.Table(), mapPgError(err))
	}
	return tag.RowsAffected(), nil
}

func (s *pgStore[T]) List(ctx context.Context, p query.Predicate, sorts []query.Sort, skip, take int) ([]*T, error) {
	where, err := query.Compile(s.reg, p, 1)
	if err != nil {
		return nil, err
	}
	orderBy, err := query.OrderBy(s.reg, sorts)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT %s FROM %s`, s.columns, s.reg.Table())
	if where.Where != "" {
		b.WriteString(" WHERE " + where.Where)
	}
	if orderBy != "" {
		b.WriteString(" " + orderBy)
	}
	args := where.Args
	if take >= 0 {
		args = append(args, take)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if skip > 0 {
		args = append(args, skip)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки из %s: %w", s.reg.Table(), err)
	}
	defer rows.Close()

	var result []*T
	for rows.Next() {
		e := new(T)
		if err := rows.Scan(s.scanDest(e)...); err != nil {
			return nil, fmt.Errorf("ошибка сканирования %s: %w", s.reg.Table(), err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *pgStore[T]) CountLong(ctx context.Context, p query.Predicate) (int64, error) {
	where, err := query.Compile(s.reg, p, 1)
	if err != nil {
		return 0, err
	}
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.reg.Table())
	if where.Where != "" {
		q += " WHERE " + where.Where
	}

	var count int64
	if err := s.db.QueryRow(ctx, q, where.Args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта %s: %w", s.reg.Table(), err)
	}
	return count, nil
}

func (s *pgStore[T]) Exists(ctx context.Context, p query.Predicate) (bool, error) {
	where, err := query.Compile(s.reg, p, 1)
	if err != nil {
		return false, err
	}
	inner := fmt.Sprintf(`SELECT 1 FROM %s`, s.reg.Table())
	if where.Where != "" {
		inner += " WHERE " + where.Where
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(`+inner+`)`, where.Args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования в %s: %w", s.reg.Table(), err)
	}
	return exists, nil
}

func (s *pgStore[T]) InTx(ctx context.Context, fn func(s Store[T]) error) error {
	return NewTxRunner(s.db).RunInTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgStore[T]{db: tx, reg: s.reg, columns: s.columns})
	})
}

// scanDest возвращает указатели на поля e в порядке s.columns.
func (s *pgStore[T]) scanDest(e *T) []any {
	fields := s.reg.Fields()
	dest := make([]any, len(fields))
	for i, f := range fields {
		dest[i] = f.Ref(e)
	}
	return dest
}

func (s *pgStore[T]) idField() (field.Field[T], error) {
	f, ok := s.reg.Lookup("id")
	if !ok {
		return f, fmt.Errorf("%s: у сущности нет поля id", s.reg.Entity())
	}
	return f, nil
}

// missOrConflict различает отсутствие записи и устаревший токен после
// UPDATE/DELETE, не затронувшего ни одной строки.
func (s *pgStore[T]) missOrConflict(ctx context.Context, id string) error {
	exists, err := s.Exists(ctx, query.Where("id", id))
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConcurrencyConflict
}
