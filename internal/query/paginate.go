package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
)

// Column — описание отображаемого столбца, передаётся клиентом на каждый
// запрос и не сохраняется.
type Column struct {
	// Field — имя поля в реестре.
	Field string
	// Searchable — по столбцу разрешён подстрочный поиск.
	Searchable bool
	// Orderable — по столбцу разрешена сортировка.
	Orderable bool
}

// Request — параметры постраничной выборки.
type Request struct {
	Columns []Column
	// Search — строка поиска; пустая строка поиск не применяет.
	Search string
	// PreFilter сужает вселенную, по которой считается Total.
	PreFilter Predicate
	// Filter — явное условие вызывающего, входит в Filtered.
	Filter Predicate
	// Sort — ключи сортировки по порядку приоритета.
	Sort []Sort
	// Skip — сколько строк пропустить.
	Skip int
	// Take — сколько строк вернуть; отрицательное значение — без ограничения.
	Take int
}

// Page — результат постраничной выборки.
type Page[T any] struct {
	Total    int64
	Filtered int64
	Rows     []*T
}

// Source — коллекция, над которой работает Paginate.
type Source[T any] interface {
	Registry() *field.Registry[T]
	CountLong(ctx context.Context, p Predicate) (int64, error)
	List(ctx context.Context, p Predicate, sorts []Sort, skip, take int) ([]*T, error)
}

// Paginate выполняет выборку в фиксированном порядке шагов:
// предфильтр, Total, поиск по searchable-столбцам (ИЛИ), явный фильтр,
// Filtered, сортировка по orderable-столбцам (по умолчанию — по ключу
// по возрастанию), пропуск и ограничение.
// Порядок строк с равными значениями всех переданных ключей не определён.
func Paginate[T any](ctx context.Context, src Source[T], req Request) (*Page[T], error) {
	reg := src.Registry()

	total, err := src.CountLong(ctx, req.PreFilter)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта total: %w", err)
	}

	search := SearchPredicate(reg, req.Columns, req.Search)
	filter := AllOf(req.PreFilter, search, req.Filter)

	filtered := total
	if search != nil || req.Filter != nil {
		filtered, err = src.CountLong(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("ошибка подсчёта filtered: %w", err)
		}
	}

	page := &Page[T]{Total: total, Filtered: filtered, Rows: []*T{}}
	if req.Take == 0 {
		return page, nil
	}

	skip := max(req.Skip, 0)
	rows, err := src.List(ctx, filter, ResolveSort(reg, req.Columns, req.Sort), skip, req.Take)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки строк: %w", err)
	}
	if rows != nil {
		page.Rows = rows
	}
	return page, nil
}

// SearchPredicate строит ИЛИ подстрочных совпадений по столбцам, которые
// помечены searchable и клиентом, и реестром. Пустой поиск или отсутствие
// таких столбцов дают nil.
func SearchPredicate[T any](reg *field.Registry[T], columns []Column, term string) Predicate {
	if term == "" {
		return nil
	}
	var or Or
	for _, c := range columns {
		if !c.Searchable {
			continue
		}
		f, ok := reg.Lookup(c.Field)
		if !ok || !f.Searchable || f.Type != field.TypeString {
			continue
		}
		or = append(or, Contains{Field: f.Name, Term: term})
	}
	if len(or) == 0 {
		return nil
	}
	return or
}

// ResolveSort оставляет только ключи по столбцам, помеченным orderable
// клиентом и реестром; неизвестные ключи молча отбрасываются.
// Если ключей не осталось — сортировка по первому ключевому полю.
func ResolveSort[T any](reg *field.Registry[T], columns []Column, sorts []Sort) []Sort {
	var out []Sort
	for _, s := range sorts {
		if !columnOrderable(columns, s.Field) {
			continue
		}
		f, ok := reg.Lookup(s.Field)
		if !ok || !f.Orderable {
			continue
		}
		out = append(out, Sort{Field: f.Name, Desc: s.Desc})
	}
	if len(out) == 0 {
		return DefaultSort(reg)
	}
	return out
}

// DefaultSort — по возрастанию первого ключевого поля реестра.
func DefaultSort[T any](reg *field.Registry[T]) []Sort {
	key := reg.Key()
	if len(key) == 0 {
		return nil
	}
	return []Sort{{Field: key[0]}}
}

func columnOrderable(columns []Column, name string) bool {
	for _, c := range columns {
		if strings.EqualFold(c.Field, name) {
			return c.Orderable
		}
	}
	return false
}
