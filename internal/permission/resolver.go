// Пакет permission — назначение меню и кнопок пользователям и ролям,
// проверка прав и построение дерева авторизации.
package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
)

// ErrDuplicateAssignment — ресурс уже назначен субъекту.
var ErrDuplicateAssignment = errors.New("ресурс уже назначен")

// SubjectKind — вид субъекта прав.
type SubjectKind string

const (
	SubjectUser SubjectKind = "User"
	SubjectRole SubjectKind = "Role"
)

// ResourceKind — вид ресурса.
type ResourceKind string

const (
	ResourceMenu   ResourceKind = "menu"
	ResourceButton ResourceKind = "button"
)

// Valid проверяет вид ресурса.
func (k ResourceKind) Valid() bool {
	return k == ResourceMenu || k == ResourceButton
}

// Resource — назначаемый ресурс.
type Resource struct {
	Kind ResourceKind
	ID   string
}

// Menu — ресурс-меню.
func Menu(id string) Resource { return Resource{Kind: ResourceMenu, ID: id} }

// Button — ресурс-кнопка.
func Button(id string) Resource { return Resource{Kind: ResourceButton, ID: id} }

// Resolver управляет правами субъектов одного вида (пользователей или ролей).
type Resolver struct {
	kind        SubjectKind
	menus       *repository.Repository[model.Menu]
	buttons     *repository.Repository[model.Button]
	menuLinks   repository.Store[model.Assignment]
	buttonLinks repository.Store[model.Assignment]
	cache       *Cache
	logger      *slog.Logger
	now         func() time.Time
}

// NewResolver создаёт Resolver.
// menuLinks/buttonLinks — таблицы связей субъекта этого вида с меню и кнопками.
// cache может быть nil. Любая мутация меню или кнопок очищает cache:
// иначе ответы пережили бы удаление или смену area/page/url ресурса.
func NewResolver(
	kind SubjectKind,
	menus *repository.Repository[model.Menu],
	buttons *repository.Repository[model.Button],
	menuLinks, buttonLinks repository.Store[model.Assignment],
	cache *Cache,
	logger *slog.Logger,
) *Resolver {
	if cache != nil {
		menus.OnChange(cache.Purge)
		buttons.OnChange(cache.Purge)
	}
	return &Resolver{
		kind:        kind,
		menus:       menus,
		buttons:     buttons,
		menuLinks:   menuLinks,
		buttonLinks: buttonLinks,
		cache:       cache,
		logger:      logger.With(slog.String("component", "permission"), slog.String("subject", string(kind))),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Kind возвращает вид субъекта.
func (r *Resolver) Kind() SubjectKind { return r.kind }

func (r *Resolver) links(kind ResourceKind) (repository.Store[model.Assignment], error) {
	switch kind {
	case ResourceMenu:
		return r.menuLinks, nil
	case ResourceButton:
		return r.buttonLinks, nil
	}
	return nil, fmt.Errorf("неизвестный вид ресурса %q", kind)
}

func linkOf(subjectID, resourceID string) query.Predicate {
	return query.AllOf(query.Where("subjectId", subjectID), query.Where("resourceId", resourceID))
}

// IsResourceAssigned проверяет наличие назначения.
func (r *Resolver) IsResourceAssigned(ctx context.Context, subjectID string, res Resource) (bool, error) {
	links, err := r.links(res.Kind)
	if err != nil {
		return false, err
	}
	return links.Exists(ctx, linkOf(subjectID, res.ID))
}

// Assign назначает ресурс субъекту. Повторное назначение не поглощается:
// возвращается ErrDuplicateAssignment.
func (r *Resolver) Assign(ctx context.Context, actor model.Actor, subjectID string, res Resource) error {
	links, err := r.links(res.Kind)
	if err != nil {
		return err
	}

	a := &model.Assignment{
		SubjectID:     subjectID,
		ResourceID:    res.ID,
		CreatedBy:     actor.IDRef(),
		CreatedByName: actor.NameRef(),
		CreatedAt:     r.now(),
	}
	if err := links.Insert(ctx, a); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%s %s → %s %s: %w", r.kind, subjectID, res.Kind, res.ID, ErrDuplicateAssignment)
		}
		return fmt.Errorf("ошибка назначения права: %w", err)
	}
	r.cache.Purge()

	r.logger.Info("Право назначено",
		slog.String("subject_id", subjectID),
		slog.String("resource", string(res.Kind)),
		slog.String("resource_id", res.ID),
	)
	return nil
}

// Unassign снимает назначение. Отсутствующее назначение — не ошибка.
func (r *Resolver) Unassign(ctx context.Context, subjectID string, res Resource) error {
	links, err := r.links(res.Kind)
	if err != nil {
		return err
	}
	n, err := links.DeleteWhere(ctx, linkOf(subjectID, res.ID))
	if err != nil {
		return fmt.Errorf("ошибка снятия права: %w", err)
	}
	if n > 0 {
		r.cache.Purge()
		r.logger.Info("Право снято",
			slog.String("subject_id", subjectID),
			slog.String("resource", string(res.Kind)),
			slog.String("resource_id", res.ID),
		)
	}
	return nil
}

// AssignedIDs возвращает ID ресурсов вида kind, назначенных субъекту.
func (r *Resolver) AssignedIDs(ctx context.Context, subjectID string, kind ResourceKind) ([]string, error) {
	links, err := r.links(kind)
	if err != nil {
		return nil, err
	}
	rows, err := links.List(ctx, query.Where("subjectId", subjectID), []query.Sort{query.Ascending("resourceId")}, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения назначений: %w", err)
	}
	ids := make([]string, len(rows))
	for i, a := range rows {
		ids[i] = a.ResourceID
	}
	return ids, nil
}

// HasMenuPermission проверяет, назначено ли субъекту неудалённое меню
// с заданными area и page (сравнение нормализованных значений).
func (r *Resolver) HasMenuPermission(ctx context.Context, subjectID, area, page string) (bool, error) {
	area, page = model.Normalize(area), model.Normalize(page)
	key := cacheKey(string(r.kind), subjectID, string(ResourceMenu), area, page)
	if allowed, ok := r.cache.Get(key); ok {
		return allowed, nil
	}

	menus, err := r.menus.FindMany(ctx, query.AllOf(
		query.NotDeleted(),
		query.Where("normalizedArea", area),
		query.Where("normalizedPage", page),
	))
	if err != nil {
		return false, err
	}
	ids := make([]string, len(menus))
	for i, m := range menus {
		ids[i] = m.ID
	}

	allowed, err := r.anyAssigned(ctx, r.menuLinks, subjectID, ids)
	if err != nil {
		return false, err
	}
	r.cache.Set(key, allowed)
	return allowed, nil
}

// HasButtonPermission проверяет, назначена ли субъекту неудалённая кнопка
// с заданными area и url.
func (r *Resolver) HasButtonPermission(ctx context.Context, subjectID, area, url string) (bool, error) {
	area, url = model.Normalize(area), model.Normalize(url)
	key := cacheKey(string(r.kind), subjectID, string(ResourceButton), area, url)
	if allowed, ok := r.cache.Get(key); ok {
		return allowed, nil
	}

	buttons, err := r.buttons.FindMany(ctx, query.AllOf(
		query.NotDeleted(),
		query.Where("normalizedArea", area),
		query.Where("normalizedUrl", url),
	))
	if err != nil {
		return false, err
	}
	ids := make([]string, len(buttons))
	for i, b := range buttons {
		ids[i] = b.ID
	}

	allowed, err := r.anyAssigned(ctx, r.buttonLinks, subjectID, ids)
	if err != nil {
		return false, err
	}
	r.cache.Set(key, allowed)
	return allowed, nil
}

func (r *Resolver) anyAssigned(ctx context.Context, links repository.Store[model.Assignment], subjectID string, resourceIDs []string) (bool, error) {
	if len(resourceIDs) == 0 {
		return false, nil
	}
	return links.Exists(ctx, query.AllOf(
		query.Where("subjectId", subjectID),
		query.InStrings("resourceId", resourceIDs),
	))
}
