package field

import (
	"strings"
	"time"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
)

// Registry — реестр полей сущности T: имя сущности, таблица, ключ
// и упорядоченный список полей.
type Registry[T any] struct {
	entity string
	table  string
	key    []string
	record func(*T) *model.Record
	fields []Field[T]
	index  map[string]int
}

// New создаёт реестр для сущности, встраивающей model.Record.
// Базовые поля записи (id, concurrencyStamp, isDeleted, description,
// штампы создания/изменения) добавляются автоматически; из них в журнал
// изменений попадает только description.
func New[T any](entity, table string, record func(*T) *model.Record, fields ...Field[T]) *Registry[T] {
	base := []Field[T]{
		String("id", "id", func(e *T) *string { return &record(e).ID }).NoAudit().Order(),
		String("concurrencyStamp", "concurrency_stamp", func(e *T) *string { return &record(e).ConcurrencyStamp }).NoAudit(),
		Bool("isDeleted", "is_deleted", func(e *T) *bool { return &record(e).IsDeleted }).NoAudit().Order(),
		NullString("description", "description", func(e *T) **string { return &record(e).Description }).Search(),
		NullString("createdBy", "created_by", func(e *T) **string { return &record(e).CreatedBy }).NoAudit(),
		NullString("createdByName", "created_by_name", func(e *T) **string { return &record(e).CreatedByName }).NoAudit().Search().Order(),
		NullTime("createdAt", "created_at", func(e *T) **time.Time { return &record(e).CreatedAt }).NoAudit().Order(),
		NullString("updatedBy", "updated_by", func(e *T) **string { return &record(e).UpdatedBy }).NoAudit(),
		NullString("updatedByName", "updated_by_name", func(e *T) **string { return &record(e).UpdatedByName }).NoAudit().Search().Order(),
		NullTime("updatedAt", "updated_at", func(e *T) **time.Time { return &record(e).UpdatedAt }).NoAudit().Order(),
	}
	r := newRegistry(entity, table, []string{"id"}, append(base, fields...))
	r.record = record
	return r
}

// NewPlain создаёт реестр для сущности без Record (журнал, связи).
// key — имена полей, образующих ключ уникальности.
func NewPlain[T any](entity, table string, key []string, fields ...Field[T]) *Registry[T] {
	return newRegistry(entity, table, key, fields)
}

func newRegistry[T any](entity, table string, key []string, fields []Field[T]) *Registry[T] {
	r := &Registry[T]{
		entity: entity,
		table:  table,
		key:    key,
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		r.index[strings.ToLower(f.Name)] = i
	}
	return r
}

// Entity — имя типа сущности.
func (r *Registry[T]) Entity() string { return r.entity }

// Table — имя таблицы хранилища.
func (r *Registry[T]) Table() string { return r.table }

// Key — имена ключевых полей.
func (r *Registry[T]) Key() []string { return r.key }

// Fields — все поля в порядке объявления.
func (r *Registry[T]) Fields() []Field[T] { return r.fields }

// IsRecord сообщает, встраивает ли сущность model.Record.
func (r *Registry[T]) IsRecord() bool { return r.record != nil }

// Record возвращает встроенную запись сущности.
// Для реестров NewPlain возвращает nil.
func (r *Registry[T]) Record(e *T) *model.Record {
	if r.record == nil {
		return nil
	}
	return r.record(e)
}

// Lookup ищет поле по имени без учёта регистра.
func (r *Registry[T]) Lookup(name string) (Field[T], bool) {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return Field[T]{}, false
	}
	return r.fields[i], true
}

// KeyOf возвращает значения ключевых полей экземпляра.
func (r *Registry[T]) KeyOf(e *T) []any {
	vals := make([]any, 0, len(r.key))
	for _, name := range r.key {
		f, _ := r.Lookup(name)
		vals = append(vals, f.Value(e))
	}
	return vals
}

// Clone возвращает поверхностную копию. Nullable-поля указывают на те же
// значения: движок не меняет их на месте, а только переназначает.
func (r *Registry[T]) Clone(e *T) *T {
	c := *e
	return &c
}

// Value — значение одного поля в снимке сущности.
type Value struct {
	Name   string
	Column string
	Type   DataType
	Text   *string
}

// Snapshot — состояние сущности в виде строк для журнала аудита.
type Snapshot struct {
	Entity string
	Table  string
	Values []Value
}

// Snapshot строит снимок полей, помеченных Audit.
func (r *Registry[T]) Snapshot(e *T) Snapshot {
	s := Snapshot{Entity: r.entity, Table: r.table}
	for _, f := range r.fields {
		if !f.Audit {
			continue
		}
		s.Values = append(s.Values, Value{
			Name:   f.Name,
			Column: f.Column,
			Type:   f.Type,
			Text:   Stringify(f.Value(e)),
		})
	}
	return s
}
