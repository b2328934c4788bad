// menus.go — меню и кнопки: нормализация, проверка иерархии, уровни
// и коды сортировки.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/permission"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
)

// MenuService — сервис меню.
type MenuService struct {
	*Records[model.Menu]
	menus *repository.Repository[model.Menu]
}

// NewMenuService создаёт MenuService.
func NewMenuService(menus *repository.Repository[model.Menu], logger *slog.Logger) *MenuService {
	s := &MenuService{menus: menus}
	s.Records = newRecords(menus, s.prepare, logger)
	s.Records.afterUpdate = s.relocate
	return s
}

// prepare нормализует меню, проверяет уникальность имени и пары area+page,
// существование родителя, вычисляет уровень и код сортировки.
func (s *MenuService) prepare(ctx context.Context, m *model.Menu, existing *model.Menu) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Normalize()

	if err := required("name", m.Name); err != nil {
		return err
	}
	if err := unique(ctx, s.menus, m.ID, "normalizedName", m.NormalizedName, "name"); err != nil {
		return err
	}
	if m.NormalizedArea != nil && m.NormalizedPage != nil {
		taken, err := s.menus.Exists(ctx, query.AllOf(
			query.Where("normalizedArea", *m.NormalizedArea),
			query.Where("normalizedPage", *m.NormalizedPage),
			query.Not{P: query.Where("id", m.ID)},
		))
		if err != nil {
			return err
		}
		if taken {
			return invalid("page", "меню с такими area и page уже существует")
		}
	}

	parentCode := ""
	m.Level = 1
	if m.ParentID != model.RootID {
		parent, err := s.parent(ctx, m)
		if err != nil {
			return err
		}
		m.Level = parent.Level + 1
		parentCode = parent.SortCode
	}

	if existing != nil && existing.ParentID == m.ParentID && existing.SortCode != "" {
		m.SortCode = existing.SortCode
		return nil
	}
	siblings, err := s.menus.FindMany(ctx, query.AllOf(
		query.Where("parentId", m.ParentID),
		query.Not{P: query.Where("id", m.ID)},
	))
	if err != nil {
		return err
	}
	codes := make([]string, len(siblings))
	for i, sib := range siblings {
		codes[i] = sib.SortCode
	}
	m.SortCode, err = permission.NextSortCode(parentCode, codes)
	return err
}

// relocate после смены места меню пересчитывает уровень и код сортировки
// его потомков. Код потомка — новый код родителя плюс прежний суффикс
// относительно старого кода родителя, поэтому порядок соседей сохраняется.
// Каждое изменение проходит через Update репозитория и попадает в журнал.
func (s *MenuService) relocate(ctx context.Context, actor model.Actor, m *model.Menu, existing *model.Menu) error {
	if m.Level == existing.Level && m.SortCode == existing.SortCode {
		return nil
	}
	return s.relocateChildren(ctx, actor, m, existing.SortCode, map[string]bool{m.ID: true})
}

func (s *MenuService) relocateChildren(ctx context.Context, actor model.Actor, parent *model.Menu, oldParentCode string, seen map[string]bool) error {
	children, err := s.menus.FindMany(ctx, query.Where("parentId", parent.ID),
		query.Ascending("sortCode"), query.Ascending("id"))
	if err != nil {
		return err
	}

	codes := make([]string, 0, len(children))
	for _, child := range children {
		if seen[child.ID] {
			continue
		}
		seen[child.ID] = true

		oldCode := child.SortCode
		suffix, ok := strings.CutPrefix(oldCode, oldParentCode)
		if ok && oldParentCode != "" && suffix != "" {
			child.SortCode = parent.SortCode + suffix
		} else {
			child.SortCode, err = permission.NextSortCode(parent.SortCode, codes)
			if err != nil {
				return err
			}
		}
		codes = append(codes, child.SortCode)
		child.Level = parent.Level + 1

		if err := s.menus.Update(ctx, actor, child); err != nil {
			return fmt.Errorf("перенос меню %s: %w", child.ID, err)
		}
		if err := s.relocateChildren(ctx, actor, child, oldCode, seen); err != nil {
			return err
		}
	}
	return nil
}

// parent загружает родителя и проверяет отсутствие цикла.
func (s *MenuService) parent(ctx context.Context, m *model.Menu) (*model.Menu, error) {
	parent, err := s.menus.FindByID(ctx, m.ParentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid("parentId", "родительское меню не найдено")
	}
	if err != nil {
		return nil, err
	}

	if m.ID != "" {
		seen := map[string]bool{}
		for cur := parent; ; {
			if cur.ID == m.ID {
				return nil, invalid("parentId", "меню не может быть вложено в себя")
			}
			if cur.ParentID == model.RootID || seen[cur.ID] {
				break
			}
			seen[cur.ID] = true
			next, err := s.menus.FindByID(ctx, cur.ParentID)
			if err != nil {
				break
			}
			cur = next
		}
	}
	return parent, nil
}

// MenuNode — узел полного дерева меню, включая удалённые.
type MenuNode struct {
	*model.Menu
	Children []*MenuNode `json:"children,omitempty"`
}

// Tree возвращает полную иерархию меню, упорядоченную по sortCode.
// Меню с несуществующим родителем попадают в корень.
func (s *MenuService) Tree(ctx context.Context) ([]*MenuNode, error) {
	menus, err := s.menus.FindMany(ctx, nil, query.Ascending("sortCode"), query.Ascending("id"))
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(menus))
	for _, m := range menus {
		ids[m.ID] = true
	}
	children := make(map[string][]*model.Menu)
	for _, m := range menus {
		parentID := m.ParentID
		if !ids[parentID] || parentID == m.ID {
			parentID = model.RootID
		}
		children[parentID] = append(children[parentID], m)
	}

	visited := make(map[string]bool)
	var build func(parentID string) []*MenuNode
	build = func(parentID string) []*MenuNode {
		var nodes []*MenuNode
		for _, m := range children[parentID] {
			if visited[m.ID] {
				continue
			}
			visited[m.ID] = true
			nodes = append(nodes, &MenuNode{Menu: m, Children: build(m.ID)})
		}
		return nodes
	}

	tree := build(model.RootID)
	if tree == nil {
		tree = []*MenuNode{}
	}
	return tree, nil
}

// ButtonService — сервис кнопок.
type ButtonService struct {
	*Records[model.Button]
	buttons *repository.Repository[model.Button]
	menus   *repository.Repository[model.Menu]
}

// NewButtonService создаёт ButtonService.
func NewButtonService(buttons *repository.Repository[model.Button], menus *repository.Repository[model.Menu], logger *slog.Logger) *ButtonService {
	s := &ButtonService{buttons: buttons, menus: menus}
	s.Records = newRecords(buttons, s.prepare, logger)
	return s
}

// prepare нормализует кнопку, проверяет меню, группу, тип и уникальность
// пары area+url, вычисляет код сортировки.
func (s *ButtonService) prepare(ctx context.Context, b *model.Button, existing *model.Button) error {
	b.Name = strings.TrimSpace(b.Name)
	b.Normalize()

	if err := required("name", b.Name); err != nil {
		return err
	}
	if b.ButtonGroup == "" {
		b.ButtonGroup = model.ButtonGroupOther
	}
	if !b.ButtonGroup.Valid() {
		return invalid("buttonGroup", "недопустимая группа кнопки")
	}
	if b.ButtonType == "" {
		b.ButtonType = model.ButtonTypeOther
	}
	if !b.ButtonType.Valid() {
		return invalid("buttonType", "недопустимый тип кнопки")
	}

	if err := required("menuId", b.MenuID); err != nil {
		return err
	}
	menu, err := s.menus.FindByID(ctx, b.MenuID)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("menuId", "меню не найдено")
	}
	if err != nil {
		return err
	}

	if b.NormalizedArea != nil && b.NormalizedURL != nil {
		taken, err := s.buttons.Exists(ctx, query.AllOf(
			query.Where("normalizedArea", *b.NormalizedArea),
			query.Where("normalizedUrl", *b.NormalizedURL),
			query.Not{P: query.Where("id", b.ID)},
		))
		if err != nil {
			return err
		}
		if taken {
			return invalid("url", "кнопка с такими area и url уже существует")
		}
	}

	if existing != nil && existing.MenuID == b.MenuID && existing.SortCode != "" {
		b.SortCode = existing.SortCode
		return nil
	}
	siblings, err := s.buttons.FindMany(ctx, query.AllOf(
		query.Where("menuId", b.MenuID),
		query.Not{P: query.Where("id", b.ID)},
	))
	if err != nil {
		return err
	}
	codes := make([]string, len(siblings))
	for i, sib := range siblings {
		codes[i] = sib.SortCode
	}
	b.SortCode, err = permission.NextSortCode(menu.SortCode, codes)
	return err
}
