// Пакет audit — журнал изменений записей.
// Writer пишет заголовок операции и строки изменений полей после того,
// как основная мутация зафиксирована. Ошибки записи журнала логируются
// и не возвращаются вызывающему.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
)

// LogStore — хранилище заголовков журнала.
type LogStore interface {
	Insert(ctx context.Context, l *model.OperationLog) error
}

// DetailStore — хранилище строк изменений полей.
type DetailStore interface {
	Insert(ctx context.Context, d *model.OperationLogDetail) error
}

// Writer — запись журнала изменений.
type Writer struct {
	logs    LogStore
	details DetailStore
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewWriter создаёт Writer.
func NewWriter(logs LogStore, details DetailStore, logger *slog.Logger) *Writer {
	return &Writer{
		logs:    logs,
		details: details,
		logger:  logger.With(slog.String("component", "audit")),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
}

// change — одна строка изменения до записи.
type change struct {
	value    field.Value
	oldValue *string
	newValue *string
}

// WriteForCreate журналирует создание (или импорт): только новые значения.
func (w *Writer) WriteForCreate(ctx context.Context, actor model.Actor, entity field.Snapshot, kind model.OperationKind) {
	changes := make([]change, 0, len(entity.Values))
	for _, v := range entity.Values {
		if v.Text == nil {
			continue
		}
		changes = append(changes, change{value: v, newValue: v.Text})
	}
	w.write(ctx, actor, entity, kind, changes)
}

// WriteForUpdate журналирует изменение: строки только для полей,
// значение которых отличается от owner.
func (w *Writer) WriteForUpdate(ctx context.Context, actor model.Actor, entity, owner field.Snapshot, kind model.OperationKind) {
	old := make(map[string]*string, len(owner.Values))
	for _, v := range owner.Values {
		old[v.Name] = v.Text
	}

	changes := make([]change, 0, len(entity.Values))
	for _, v := range entity.Values {
		before := old[v.Name]
		if sameText(before, v.Text) {
			continue
		}
		changes = append(changes, change{value: v, oldValue: before, newValue: v.Text})
	}
	w.write(ctx, actor, entity, kind, changes)
}

// WriteForRemove журналирует физическое удаление: только старые значения.
func (w *Writer) WriteForRemove(ctx context.Context, actor model.Actor, entity field.Snapshot) {
	changes := make([]change, 0, len(entity.Values))
	for _, v := range entity.Values {
		if v.Text == nil {
			continue
		}
		changes = append(changes, change{value: v, oldValue: v.Text})
	}
	w.write(ctx, actor, entity, model.OperationRemove, changes)
}

// write сохраняет заголовок, затем строки изменений. Отмена контекста
// запроса не прерывает запись журнала.
func (w *Writer) write(ctx context.Context, actor model.Actor, entity field.Snapshot, kind model.OperationKind, changes []change) {
	ctx = context.WithoutCancel(ctx)

	header := &model.OperationLog{
		ID:         w.newID(),
		EntityName: entity.Entity,
		TableName:  entity.Table,
		Kind:       kind,
		UserID:     actor.IDRef(),
		UserName:   model.Ref(actor.UserName),
		RealName:   model.Ref(actor.RealName),
		ClientIP:   model.Ref(actor.ClientIP),
		OperatedAt: w.now(),
	}

	if err := w.logs.Insert(ctx, header); err != nil {
		w.logger.Error("Ошибка записи журнала изменений",
			slog.String("entity", entity.Entity),
			slog.String("table", entity.Table),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, c := range changes {
		detail := &model.OperationLogDetail{
			ID:         w.newID(),
			LogID:      header.ID,
			FieldName:  c.value.Name,
			ColumnName: c.value.Column,
			DataType:   string(c.value.Type),
			OldValue:   c.oldValue,
			NewValue:   c.newValue,
		}
		if err := w.details.Insert(ctx, detail); err != nil {
			w.logger.Error("Ошибка записи изменения поля",
				slog.String("entity", entity.Entity),
				slog.String("kind", string(kind)),
				slog.String("field", c.value.Name),
				slog.String("log_id", header.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// sameText — оба значения отсутствуют или совпадают.
func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
