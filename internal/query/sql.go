package query

import (
	"fmt"
	"strings"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
)

// likeEscaper экранирует спецсимволы шаблона ILIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SQL — результат компиляции предиката.
type SQL struct {
	// Where — условие без ключевого слова WHERE; пусто, если ограничений нет.
	Where string
	// Args — позиционные параметры ($N) в порядке появления.
	Args []any
}

// Compile транслирует предикат в условие SQL для PostgreSQL.
// Нумерация параметров начинается с startArg. Имена столбцов берутся
// только из реестра, значения передаются параметрами.
func Compile[T any](reg *field.Registry[T], p Predicate, startArg int) (SQL, error) {
	c := &compiler[T]{reg: reg, next: startArg}
	where, err := c.compile(p)
	if err != nil {
		return SQL{}, err
	}
	return SQL{Where: where, Args: c.args}, nil
}

type compiler[T any] struct {
	reg  *field.Registry[T]
	args []any
	next int
}

func (c *compiler[T]) arg(v any) string {
	c.args = append(c.args, v)
	ph := fmt.Sprintf("$%d", c.next)
	c.next++
	return ph
}

func (c *compiler[T]) compile(p Predicate) (string, error) {
	switch p := p.(type) {
	case nil:
		return "", nil
	case Eq:
		f, err := lookup(c.reg, p.Field)
		if err != nil {
			return "", err
		}
		if p.Value == nil {
			return f.Column + " IS NULL", nil
		}
		return f.Column + " = " + c.arg(p.Value), nil
	case In:
		f, err := lookup(c.reg, p.Field)
		if err != nil {
			return "", err
		}
		if len(p.Values) == 0 {
			return "FALSE", nil
		}
		phs := make([]string, len(p.Values))
		for i, v := range p.Values {
			phs[i] = c.arg(v)
		}
		return f.Column + " IN (" + strings.Join(phs, ", ") + ")", nil
	case Contains:
		f, err := lookup(c.reg, p.Field)
		if err != nil {
			return "", err
		}
		if f.Type != field.TypeString {
			return "", fmt.Errorf("%w: contains по %s", ErrFieldType, f.Name)
		}
		return f.Column + " ILIKE " + c.arg("%"+likeEscaper.Replace(p.Term)+"%"), nil
	case And:
		return c.join(p, " AND ", "TRUE")
	case Or:
		return c.join(p, " OR ", "FALSE")
	case Not:
		if p.P == nil {
			return "FALSE", nil
		}
		inner, err := c.compile(p.P)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	default:
		return "", fmt.Errorf("неподдерживаемый предикат %T", p)
	}
}

func (c *compiler[T]) join(ps []Predicate, op, empty string) (string, error) {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		s, err := c.compile(p)
		if err != nil {
			return "", err
		}
		if s == "" {
			s = "TRUE"
		}
		parts = append(parts, "("+s+")")
	}
	if len(parts) == 0 {
		return empty, nil
	}
	return strings.Join(parts, op), nil
}

// OrderBy строит ORDER BY по ключам сортировки. Столбцы берутся только
// из реестра (whitelist), направление — ASC/DESC.
//
// Порядок совпадает с памятью (field.Compare): NULL идут первыми при
// ASC и последними при DESC, строки сравниваются без учёта регистра
// побайтно (COLLATE "C"), при равенстве — с учётом регистра.
func OrderBy[T any](reg *field.Registry[T], sorts []Sort) (string, error) {
	if len(sorts) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(sorts))
	for _, s := range sorts {
		f, err := lookup(reg, s.Field)
		if err != nil {
			return "", err
		}
		dir, nulls := "ASC", " NULLS FIRST"
		if s.Desc {
			dir, nulls = "DESC", " NULLS LAST"
		}
		if !f.Nullable {
			nulls = ""
		}
		if f.Type == field.TypeString {
			parts = append(parts,
				"LOWER("+f.Column+`) COLLATE "C" `+dir+nulls,
				f.Column+` COLLATE "C" `+dir)
			continue
		}
		parts = append(parts, f.Column+" "+dir+nulls)
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}
