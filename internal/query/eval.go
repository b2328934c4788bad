package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
)

// Match вычисляет предикат над экземпляром сущности через реестр полей.
func Match[T any](reg *field.Registry[T], p Predicate, e *T) (bool, error) {
	switch p := p.(type) {
	case nil:
		return true, nil
	case Eq:
		f, err := lookup(reg, p.Field)
		if err != nil {
			return false, err
		}
		return equal(f.Value(e), p.Value), nil
	case In:
		f, err := lookup(reg, p.Field)
		if err != nil {
			return false, err
		}
		v := f.Value(e)
		for _, want := range p.Values {
			if equal(v, want) {
				return true, nil
			}
		}
		return false, nil
	case Contains:
		f, err := lookup(reg, p.Field)
		if err != nil {
			return false, err
		}
		if f.Type != field.TypeString {
			return false, fmt.Errorf("%w: contains по %s", ErrFieldType, f.Name)
		}
		s, ok := f.Value(e).(string)
		if !ok {
			return false, nil
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(p.Term)), nil
	case And:
		for _, c := range p {
			ok, err := Match(reg, c, e)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Or:
		for _, c := range p {
			ok, err := Match(reg, c, e)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		if p.P == nil {
			return false, nil
		}
		ok, err := Match(reg, p.P, e)
		return !ok, err
	default:
		return false, fmt.Errorf("неподдерживаемый предикат %T", p)
	}
}

// SortRows упорядочивает строки по ключам (устойчивая сортировка).
func SortRows[T any](reg *field.Registry[T], rows []*T, sorts []Sort) error {
	fields := make([]field.Field[T], len(sorts))
	for i, s := range sorts {
		f, err := lookup(reg, s.Field)
		if err != nil {
			return err
		}
		fields[i] = f
	}
	slices.SortStableFunc(rows, func(a, b *T) int {
		for i, f := range fields {
			c := field.Compare(f.Value(a), f.Value(b))
			if sorts[i].Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return nil
}

func lookup[T any](reg *field.Registry[T], name string) (field.Field[T], error) {
	f, ok := reg.Lookup(name)
	if !ok {
		return f, fmt.Errorf("%w: %s.%s", ErrUnknownField, reg.Entity(), name)
	}
	return f, nil
}

// equal сравнивает значение поля со значением из предиката.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
