// Пакет field — типизированный реестр полей сущностей.
// Заменяет рефлексию: для каждой сущности явно перечислены поля,
// их столбцы, типы, функции доступа и флаги аудита/поиска/сортировки.
package field

import (
	"cmp"
	"strconv"
	"strings"
	"time"
)

// DataType — объявленный тип данных поля (пишется в журнал аудита).
type DataType string

const (
	TypeString DataType = "string"
	TypeInt    DataType = "int"
	TypeBool   DataType = "bool"
	TypeTime   DataType = "datetime"
)

// Field — описание одного поля сущности T.
type Field[T any] struct {
	// Name — стабильный ключ поля (имя в JSON и в запросах клиента).
	Name string
	// Column — столбец в хранилище.
	Column string
	// Type — тип данных.
	Type DataType
	// Nullable — поле допускает отсутствие значения.
	Nullable bool
	// Ref возвращает указатель на поле экземпляра: *string, **string,
	// *int, *bool, *time.Time или **time.Time. Используется и для чтения
	// значения, и для сканирования строк из БД.
	Ref func(*T) any

	// Audit — поле пишется в журнал изменений.
	Audit bool
	// Searchable — поле участвует в подстрочном поиске.
	Searchable bool
	// Orderable — по полю разрешена сортировка.
	Orderable bool
}

// String — обязательное строковое поле.
func String[T any](name, column string, ref func(*T) *string) Field[T] {
	return Field[T]{Name: name, Column: column, Type: TypeString, Audit: true,
		Ref: func(e *T) any { return ref(e) }}
}

// NullString — необязательное строковое поле.
func NullString[T any](name, column string, ref func(*T) **string) Field[T] {
	return Field[T]{Name: name, Column: column, Type: TypeString, Nullable: true, Audit: true,
		Ref: func(e *T) any { return ref(e) }}
}

// Int — целочисленное поле.
func Int[T any](name, column string, ref func(*T) *int) Field[T] {
	return Field[T]{Name: name, Column: column, Type: TypeInt, Audit: true,
		Ref: func(e *T) any { return ref(e) }}
}

// Bool — логическое поле.
func Bool[T any](name, column string, ref func(*T) *bool) Field[T] {
	return Field[T]{Name: name, Column: column, Type: TypeBool, Audit: true,
		Ref: func(e *T) any { return ref(e) }}
}

// Time — обязательная метка времени.
func Time[T any](name, column string, ref func(*T) *time.Time) Field[T] {
	return Field[T]{Name: name, Column: column, Type: TypeTime, Audit: true,
		Ref: func(e *T) any { return ref(e) }}
}

// NullTime — необязательная метка времени.
func NullTime[T any](name, column string, ref func(*T) **time.Time) Field[T] {
	return Field[T]{Name: name, Column: column, Type: TypeTime, Nullable: true, Audit: true,
		Ref: func(e *T) any { return ref(e) }}
}

// Search помечает поле как доступное для поиска.
func (f Field[T]) Search() Field[T] {
	f.Searchable = true
	return f
}

// Order помечает поле как доступное для сортировки.
func (f Field[T]) Order() Field[T] {
	f.Orderable = true
	return f
}

// NoAudit исключает поле из журнала изменений.
func (f Field[T]) NoAudit() Field[T] {
	f.Audit = false
	return f
}

// Value возвращает значение поля: string, int, bool, time.Time или nil.
func (f Field[T]) Value(e *T) any {
	switch p := f.Ref(e).(type) {
	case *string:
		return *p
	case **string:
		if *p == nil {
			return nil
		}
		return **p
	case *int:
		return *p
	case *bool:
		return *p
	case *time.Time:
		return *p
	case **time.Time:
		if *p == nil {
			return nil
		}
		return **p
	default:
		return nil
	}
}

// Set записывает значение v (того же вида, что возвращает Value) в поле.
// Возвращает false, если тип значения не подходит полю.
func (f Field[T]) Set(e *T, v any) bool {
	switch p := f.Ref(e).(type) {
	case *string:
		s, ok := v.(string)
		if ok {
			*p = s
		}
		return ok
	case **string:
		if v == nil {
			*p = nil
			return true
		}
		s, ok := v.(string)
		if ok {
			*p = &s
		}
		return ok
	case *int:
		n, ok := v.(int)
		if ok {
			*p = n
		}
		return ok
	case *bool:
		b, ok := v.(bool)
		if ok {
			*p = b
		}
		return ok
	case *time.Time:
		t, ok := v.(time.Time)
		if ok {
			*p = t
		}
		return ok
	case **time.Time:
		if v == nil {
			*p = nil
			return true
		}
		t, ok := v.(time.Time)
		if ok {
			*p = &t
		}
		return ok
	}
	return false
}

// Stringify приводит значение поля к строковому виду для журнала аудита.
// nil остаётся nil.
func Stringify(v any) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case bool:
		s = strconv.FormatBool(x)
	case time.Time:
		s = x.UTC().Format(time.RFC3339Nano)
	default:
		return nil
	}
	return &s
}

// Compare сравнивает два значения одного поля. nil меньше любого значения.
// Строки сравниваются без учёта регистра, при равенстве — побайтно.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		if c := strings.Compare(strings.ToLower(x), strings.ToLower(y)); c != 0 {
			return c
		}
		return strings.Compare(x, y)
	case int:
		y, _ := b.(int)
		return cmp.Compare(x, y)
	case int64:
		y, _ := b.(int64)
		return cmp.Compare(x, y)
	case bool:
		y, _ := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	}
	return 0
}
