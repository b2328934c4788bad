// Пакет model — доменные модели Backoffice Module.
// Все сущности, управляемые движком записей, встраивают Record.
package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RootID — идентификатор корня иерархии меню (пустой id).
const RootID = ""

// Record — общие атрибуты любой хранимой бизнес-записи.
// ConcurrencyStamp перевыпускается при каждой успешной мутации.
type Record struct {
	// ID — непрозрачный строковый идентификатор (UUID).
	ID string `json:"id"`
	// ConcurrencyStamp — токен оптимистичной блокировки.
	ConcurrencyStamp string `json:"concurrencyStamp"`
	// IsDeleted — признак мягкого удаления.
	IsDeleted bool `json:"isDeleted"`
	// Description — произвольное описание.
	Description *string `json:"description,omitempty"`

	CreatedBy     *string    `json:"createdBy,omitempty"`
	CreatedByName *string    `json:"createdByName,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedBy     *string    `json:"updatedBy,omitempty"`
	UpdatedByName *string    `json:"updatedByName,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// StampCreate заполняет штамп создания.
func (r *Record) StampCreate(actor Actor, now time.Time) {
	r.CreatedBy = actor.IDRef()
	r.CreatedByName = actor.NameRef()
	r.CreatedAt = &now
}

// StampUpdate заполняет штамп изменения.
func (r *Record) StampUpdate(actor Actor, now time.Time) {
	r.UpdatedBy = actor.IDRef()
	r.UpdatedByName = actor.NameRef()
	r.UpdatedAt = &now
}

// Actor — действующий субъект операции и адрес клиента.
// Передаётся явно в каждую мутацию движка.
type Actor struct {
	// ID — идентификатор пользователя (пусто для системных операций).
	ID string
	// UserName — логин.
	UserName string
	// RealName — отображаемое имя.
	RealName string
	// ClientIP — сетевой адрес клиента (пусто, если неизвестен).
	ClientIP string
	// Roles — роли из токена.
	Roles []string
}

// System — субъект фоновых и CLI-операций.
var System = Actor{UserName: "system", RealName: "System"}

// IDRef возвращает ID или nil для анонимного субъекта.
func (a Actor) IDRef() *string {
	if a.ID == "" {
		return nil
	}
	id := a.ID
	return &id
}

// NameRef возвращает отображаемое имя (RealName, затем UserName) или nil.
func (a Actor) NameRef() *string {
	name := a.RealName
	if name == "" {
		name = a.UserName
	}
	if name == "" {
		return nil
	}
	return &name
}

// HasAnyRole проверяет наличие у субъекта одной из ролей (без учёта регистра).
func (a Actor) HasAnyRole(roles ...string) bool {
	for _, have := range a.Roles {
		for _, want := range roles {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// Normalize возвращает стандартное значение строки для ключей уникальности
// и поиска: обрезка пробелов и приведение к верхнему регистру.
// cases.Caser хранит состояние, поэтому создаётся на каждый вызов.
func Normalize(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// NormalizeRef — Normalize для nullable-значений.
func NormalizeRef(s *string) *string {
	if s == nil {
		return nil
	}
	n := Normalize(*s)
	return &n
}

// Ref возвращает указатель на копию строки; пустая строка даёт nil.
func Ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref возвращает значение указателя или пустую строку.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
