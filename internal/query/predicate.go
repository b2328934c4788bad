// Пакет query — предикаты над реестром полей, их вычисление в памяти
// и компиляция в SQL, а также движок постраничной выборки (Paginate).
package query

import (
	"errors"
	"slices"
)

// Ошибки построения запросов.
var (
	// ErrUnknownField — поле отсутствует в реестре сущности.
	ErrUnknownField = errors.New("неизвестное поле")
	// ErrFieldType — операция не поддерживается типом поля.
	ErrFieldType = errors.New("операция не поддерживается типом поля")
)

// Predicate — узел дерева условий. nil означает «все записи».
type Predicate interface {
	predicate()
}

// Eq — поле равно значению. Value == nil проверяет отсутствие значения.
type Eq struct {
	Field string
	Value any
}

// In — значение поля входит в список. Пустой список не совпадает ни с чем.
type In struct {
	Field  string
	Values []any
}

// Contains — подстрочное совпадение без учёта регистра (только строки).
type Contains struct {
	Field string
	Term  string
}

// And — конъюнкция. Пустая конъюнкция истинна.
type And []Predicate

// Or — дизъюнкция. Пустая дизъюнкция ложна.
type Or []Predicate

// Not — отрицание.
type Not struct {
	P Predicate
}

func (Eq) predicate()       {}
func (In) predicate()       {}
func (Contains) predicate() {}
func (And) predicate()      {}
func (Or) predicate()       {}
func (Not) predicate()      {}

// Where — краткая запись Eq.
func Where(field string, value any) Predicate {
	return Eq{Field: field, Value: value}
}

// InStrings — In для списка строк.
func InStrings(field string, values []string) Predicate {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return In{Field: field, Values: vals}
}

// AllOf объединяет условия через И, отбрасывая nil.
// Возвращает nil, если условий не осталось.
func AllOf(ps ...Predicate) Predicate {
	ps = slices.DeleteFunc(slices.Clone(ps), func(p Predicate) bool { return p == nil })
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	}
	return And(ps)
}

// NotDeleted — записи без признака мягкого удаления.
func NotDeleted() Predicate {
	return Eq{Field: "isDeleted", Value: false}
}

// Sort — ключ сортировки по полю реестра.
type Sort struct {
	Field string
	Desc  bool
}

// Ascending — сортировка по возрастанию.
func Ascending(field string) Sort { return Sort{Field: field} }

// Descending — сортировка по убыванию.
func Descending(field string) Sort { return Sort{Field: field, Desc: true} }
